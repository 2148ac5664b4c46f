package converter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// MediaInfo describes an uploaded file as reported by ffprobe.
type MediaInfo struct {
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
	Format          string  `json:"format"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Probe extracts duration, dimensions and codec information for a media
// file. Probe results are advisory; conversion does not depend on them.
func (c *Converter) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if c.ffprobe == "" {
		return nil, &ToolMissingError{Tool: "ffprobe"}
	}

	cmd := exec.CommandContext(ctx, c.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || os.IsNotExist(err) {
			return nil, &ToolMissingError{Tool: "ffprobe"}
		}
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, strings.TrimSpace(stderr.String()))
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{Format: out.Format.FormatName}
	if out.Format.Duration != "" {
		info.DurationSeconds, _ = strconv.ParseFloat(out.Format.Duration, 64)
	}
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Codec = s.CodecName
		info.Width = s.Width
		info.Height = s.Height
		break
	}
	return info, nil
}

// ToolStatus reports one external tool's availability.
type ToolStatus struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Tools reports the state of every external tool the converter uses.
// Version probes run with a short deadline so a wedged binary cannot
// stall the caller.
func (c *Converter) Tools(ctx context.Context) map[string]ToolStatus {
	return map[string]ToolStatus{
		"ffmpeg":   toolStatus(ctx, c.ffmpeg, "-version"),
		"ffprobe":  toolStatus(ctx, c.ffprobe, "-version"),
		"gifsicle": toolStatus(ctx, c.gifsicle, "--version"),
	}
}

func toolStatus(ctx context.Context, path, versionFlag string) ToolStatus {
	if path == "" {
		return ToolStatus{}
	}
	return ToolStatus{
		Available: true,
		Path:      path,
		Version:   toolVersion(ctx, path, versionFlag),
	}
}

// toolVersion returns the first line a tool prints for its version flag,
// or empty if the probe fails.
func toolVersion(ctx context.Context, path, flag string) string {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, path, flag).Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}
