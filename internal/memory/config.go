package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/kimberlykao/gifforge/internal/logging"
)

// DefaultMemoryRatio is the fraction of container memory given to the Go
// heap. The rest is reserved for ffmpeg/gifsicle child processes, libvips
// allocations, and goroutine stacks.
const DefaultMemoryRatio = 0.75

// ConfigResult describes what ConfigureFromEnv decided, for startup logging
// and tests.
type ConfigResult struct {
	// Configured is true when a GOMEMLIMIT is in effect
	Configured bool

	// Source names where the limit came from: "GOMEMLIMIT", "MEMORY_LIMIT",
	// or "none"
	Source string

	// ContainerLimit is the container memory limit in bytes, 0 when unknown
	ContainerLimit int64

	// GoMemLimit is the effective GOMEMLIMIT in bytes, 0 when unset
	GoMemLimit int64

	// Ratio is the fraction of ContainerLimit handed to the heap, 0 when
	// not applicable
	Ratio float64
}

// ConfigureFromEnv derives GOMEMLIMIT from the container memory limit and
// must run early in main, before the heap grows.
//
// A GOMEMLIMIT already present in the environment wins outright. Otherwise
// MEMORY_LIMIT (bytes, typically injected through the Kubernetes Downward
// API) is scaled by MEMORY_RATIO and installed via debug.SetMemoryLimit.
// With neither variable set the runtime default stands.
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{}
		// The runtime already applied the env var at startup; read back the
		// effective value rather than re-parsing the string.
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	memLimitStr := os.Getenv("MEMORY_LIMIT")
	if memLimitStr == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return ConfigResult{Source: "none"}
	}

	memLimit, err := strconv.ParseInt(memLimitStr, 10, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", memLimitStr, err)
		return ConfigResult{Source: "none"}
	}

	ratio := ratioFromEnv()
	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit),
		ratio*100,
		formatBytes(memLimit),
	)

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: memLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

// ratioFromEnv reads MEMORY_RATIO, falling back to DefaultMemoryRatio for
// missing, unparseable, or out-of-range values.
func ratioFromEnv() float64 {
	ratioStr := os.Getenv("MEMORY_RATIO")
	if ratioStr == "" {
		return DefaultMemoryRatio
	}

	ratio, err := strconv.ParseFloat(ratioStr, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}

	return ratio
}

// formatBytes renders a byte count with a binary unit suffix, one decimal
// place above 1 KiB.
func formatBytes(b int64) string {
	if b < 1024 {
		return strconv.FormatInt(b, 10) + " B"
	}

	suffixes := [...]string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	val := float64(b)
	idx := -1
	for val >= 1024 && idx < len(suffixes)-1 {
		val /= 1024
		idx++
	}
	return strconv.FormatFloat(val, 'f', 1, 64) + " " + suffixes[idx]
}
