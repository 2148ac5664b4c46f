package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kimberlykao/gifforge/internal/filesystem"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/settings"
	"github.com/kimberlykao/gifforge/internal/workers"
)

// DefaultTimeout bounds each external process run when the configuration
// does not say otherwise.
const DefaultTimeout = 5 * time.Minute

// Config carries the converter's tool paths and limits. Empty tool paths
// fall back to a PATH lookup; a tool that cannot be found either way is
// reported as missing when first needed.
type Config struct {
	FFmpegPath   string
	FFprobePath  string
	GifsiclePath string

	// ScratchDir hosts the per-conversion working directories. Empty
	// means the system temp directory.
	ScratchDir string

	// Timeout applies to each child process individually.
	Timeout time.Duration

	// Threads is passed to the encoder pass. Zero means a size derived
	// from the machine's CPU count.
	Threads int
}

// Converter turns uploaded videos and animations into palette-encoded
// GIFs by shelling out to FFmpeg, with an optional gifsicle pass to
// squeeze the result further. Running processes are tracked so Cleanup
// can kill them during shutdown.
type Converter struct {
	ffmpeg   string
	ffprobe  string
	gifsicle string
	scratch  string
	timeout  time.Duration
	threads  int

	observer  Observer
	processes map[*exec.Cmd]string
	processMu sync.Mutex
}

// Result is one finished conversion.
type Result struct {
	Bytes     []byte
	Optimized bool
	Elapsed   time.Duration
}

// New creates a Converter, resolving tool paths up front.
func New(cfg Config) *Converter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = workers.EncoderThreads()
	}
	return &Converter{
		ffmpeg:    resolveTool(cfg.FFmpegPath, "ffmpeg"),
		ffprobe:   resolveTool(cfg.FFprobePath, "ffprobe"),
		gifsicle:  resolveTool(cfg.GifsiclePath, "gifsicle"),
		scratch:   cfg.ScratchDir,
		timeout:   timeout,
		threads:   threads,
		observer:  nopObserver{},
		processes: make(map[*exec.Cmd]string),
	}
}

// resolveTool prefers an explicit path and falls back to a PATH lookup.
func resolveTool(explicit, name string) string {
	if explicit != "" {
		return explicit
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return ""
}

// SetObserver registers a lifecycle observer. Passing nil keeps the
// current one.
func (c *Converter) SetObserver(o Observer) {
	if o != nil {
		c.observer = o
	}
}

// Available reports whether the encoder was found.
func (c *Converter) Available() bool { return c.ffmpeg != "" }

// OptimizerAvailable reports whether gifsicle was found.
func (c *Converter) OptimizerAvailable() bool { return c.gifsicle != "" }

// Convert runs the two-pass pipeline for one input file and returns the
// finished GIF. Each invocation works in its own scratch directory, which
// is removed before returning. A missing encoder fails the conversion; a
// missing or failing optimizer only downgrades it to unoptimized output.
func (c *Converter) Convert(ctx context.Context, inputPath string, s settings.Settings) (*Result, error) {
	if c.ffmpeg == "" {
		return nil, &ToolMissingError{Tool: "ffmpeg"}
	}

	start := time.Now()
	c.observer.ObserveConversionStarted()

	scratch, err := os.MkdirTemp(c.scratch, "conv-")
	if err != nil {
		c.observer.ObserveConversionOutcome(OutcomeFailed, time.Since(start).Seconds())
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logging.Warn("failed to remove scratch directory %s: %v", scratch, err)
		}
	}()

	palette := filepath.Join(scratch, "palette.png")
	output := filepath.Join(scratch, "out.gif")

	if err := c.run(ctx, StagePalette, c.ffmpeg, paletteArgs(inputPath, palette, s)); err != nil {
		c.observer.ObserveConversionOutcome(outcomeFor(err), time.Since(start).Seconds())
		return nil, err
	}

	if err := c.run(ctx, StageEncode, c.ffmpeg, encodeArgs(inputPath, palette, output, s, c.threads)); err != nil {
		c.observer.ObserveConversionOutcome(outcomeFor(err), time.Since(start).Seconds())
		return nil, err
	}

	optimized := c.optimize(ctx, output, s)

	data, err := filesystem.ReadFileWithRetry(output, filesystem.DefaultRetryConfig())
	if err != nil {
		c.observer.ObserveConversionOutcome(OutcomeFailed, time.Since(start).Seconds())
		if os.IsNotExist(err) {
			return nil, &ExitError{Tool: "ffmpeg", Stage: StageEncode, Stderr: "no output file was produced"}
		}
		return nil, fmt.Errorf("read converted gif: %w", err)
	}
	if len(data) == 0 {
		c.observer.ObserveConversionOutcome(OutcomeFailed, time.Since(start).Seconds())
		return nil, &ExitError{Tool: "ffmpeg", Stage: StageEncode, Stderr: "encoder produced an empty file"}
	}

	elapsed := time.Since(start)
	c.observer.ObserveConversionOutcome(OutcomeSuccess, elapsed.Seconds())
	logging.Debug("Converted %s: %d bytes in %.2fs (optimized=%v)",
		filepath.Base(inputPath), len(data), elapsed.Seconds(), optimized)

	return &Result{Bytes: data, Optimized: optimized, Elapsed: elapsed}, nil
}

// optimize runs gifsicle over the encoded file in place. Missing or
// failing optimizers never fail the conversion; the unoptimized output
// is kept instead.
func (c *Converter) optimize(ctx context.Context, path string, s settings.Settings) bool {
	if c.gifsicle == "" {
		logging.Debug("gifsicle not installed, skipping optimization")
		c.observer.ObserveOptimizerOutcome(OptimizerSkipped)
		return false
	}
	if err := c.run(ctx, StageOptimize, c.gifsicle, optimizeArgs(path, s)); err != nil {
		logging.Warn("gifsicle failed, keeping unoptimized output: %v", err)
		c.observer.ObserveOptimizerOutcome(OptimizerFailed)
		return false
	}
	c.observer.ObserveOptimizerOutcome(OptimizerApplied)
	return true
}

// run executes one external process under the converter's timeout,
// capturing stderr for error reporting. The process is registered so
// Cleanup can kill it during shutdown.
func (c *Converter) run(ctx context.Context, stage, tool string, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, tool, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	name := filepath.Base(tool)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return &ToolMissingError{Tool: name}
		}
		return fmt.Errorf("start %s: %w", name, err)
	}

	c.processMu.Lock()
	c.processes[cmd] = name + " " + stage
	c.processMu.Unlock()

	defer func() {
		c.processMu.Lock()
		delete(c.processes, cmd)
		c.processMu.Unlock()
	}()

	err := cmd.Wait()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	exit := &ExitError{Tool: name, Stage: stage, Stderr: strings.TrimSpace(stderr.String())}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		exit.TimedOut = true
	}
	return exit
}

// outcomeFor classifies a pipeline error for the observer.
func outcomeFor(err error) string {
	var missing *ToolMissingError
	if errors.As(err, &missing) {
		return OutcomeToolMissing
	}
	var exit *ExitError
	if errors.As(err, &exit) && exit.TimedOut {
		return OutcomeTimeout
	}
	return OutcomeFailed
}

// Cleanup kills every conversion process that is still running. Called
// during shutdown.
func (c *Converter) Cleanup() {
	c.processMu.Lock()
	defer c.processMu.Unlock()

	for cmd, desc := range c.processes {
		if cmd.Process != nil {
			logging.Info("Killing conversion process: %s", desc)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill %s: %v", desc, err)
			}
		}
	}
}

// paletteArgs builds the first-pass command line: sample the input and
// write a palette sized to the compression level's color budget.
func paletteArgs(input, palette string, s settings.Settings) []string {
	filter := fmt.Sprintf("scale=%d:-1:flags=lanczos,fps=%d,palettegen=max_colors=%d",
		evenWidth(s.Width), s.FrameRate, maxColors(s.Compression))
	return []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vf", filter,
		palette,
	}
}

// encodeArgs builds the second-pass command line: map the input through
// the palette with the requested dither mode. The dither value is passed
// through verbatim, including "none".
func encodeArgs(input, palette, output string, s settings.Settings, threads int) []string {
	filter := fmt.Sprintf("scale=%d:-1:flags=lanczos,fps=%d,paletteuse=dither=%s",
		evenWidth(s.Width), s.FrameRate, s.Dither)
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-i", palette,
		"-lavfi", filter,
		"-loop", "0",
	}
	if threads > 0 {
		args = append(args, "-threads", strconv.Itoa(threads))
	}
	return append(args, output)
}

// optimizeArgs builds the gifsicle command line. The file is rewritten
// in place; gifsicle reads its input fully before writing.
func optimizeArgs(path string, s settings.Settings) []string {
	return []string{
		fmt.Sprintf("-O%d", optimizeLevel(s.Compression)),
		"--colors", strconv.Itoa(maxColors(s.Compression)),
		"--no-comments", "--no-names", "--no-extensions",
		"-o", path,
		path,
	}
}

// maxColors maps a compression level to the palette color budget used by
// both palettegen and gifsicle.
func maxColors(compression string) int {
	switch compression {
	case settings.CompressionConservative:
		return 128
	case settings.CompressionStrong:
		return 80
	case settings.CompressionAggressive:
		return 64
	default:
		return 96
	}
}

// optimizeLevel maps a compression level to a gifsicle -O effort.
func optimizeLevel(compression string) int {
	switch compression {
	case settings.CompressionConservative:
		return 1
	case settings.CompressionAggressive:
		return 3
	default:
		return 2
	}
}

// evenWidth rounds an odd width to an even one. The palette encoder
// rejects odd output widths for some inputs. Widths above the UI minimum
// round down, anything else rounds up.
func evenWidth(w int) int {
	if w%2 == 0 {
		return w
	}
	if w > 100 {
		return w - 1
	}
	return w + 1
}
