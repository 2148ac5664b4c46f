package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a thread budget derived from the CPUs available to the
// process. It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound work
//   - 0.5 to leave headroom for the serving path
//
// The limit parameter caps the count to prevent resource exhaustion.
// Use 0 for no limit. envVar, when non-empty, names an environment
// variable that overrides the computed value.
func Count(envVar string, multiplier float64, limit int) int {
	if envVar != "" {
		if override := os.Getenv(envVar); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	count := int(float64(available) * multiplier)

	if count < 1 {
		count = 1
	}
	if limit > 0 && count > limit {
		count = limit
	}

	return count
}

// EncoderThreads returns the thread count handed to the transcoder's encode
// pass. Encoding is CPU-bound but the server keeps handling requests while
// a conversion runs, so half the CPUs are left free. Overridable with
// ENCODER_THREADS.
func EncoderThreads() int {
	return Count("ENCODER_THREADS", 0.5, 16)
}

// VipsConcurrency returns the worker pool size for the libvips thumbnail
// path. Thumbnails are small and bursty; one thread per CPU capped low
// keeps latency down without starving conversions. Overridable with
// VIPS_CONCURRENCY.
func VipsConcurrency() int {
	return Count("VIPS_CONCURRENCY", 1.0, 4)
}
