// Package memory sizes the Go heap against the container's memory limit
// and applies backpressure when usage approaches it.
//
// # Overview
//
// When running in Kubernetes or other container orchestrators, Go
// applications can be OOM-killed if they exceed their memory limits. Unlike
// GOMAXPROCS, which Go automatically detects from cgroup CPU limits,
// GOMEMLIMIT must be configured explicitly.
//
// gifforge is particularly exposed: every session's conversion cache holds
// raw GIF payloads in the heap, and each running conversion spawns an
// ffmpeg child whose memory is invisible to the Go runtime. This package
// provides:
//
//   - [ConfigureFromEnv] to set GOMEMLIMIT from Kubernetes Downward API
//     environment variables, reserving a share of the container limit for
//     ffmpeg/gifsicle children and libvips
//   - [Monitor] for runtime backpressure: the upload path refuses payloads
//     above the high water mark and the convert path pauses at the critical
//     mark until the GC recovers headroom
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go environment variable. If set, takes
//     precedence. Accepts values like "400MiB" or "1GiB".
//   - MEMORY_LIMIT: Container memory limit in bytes, typically set via the
//     Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: Fraction of MEMORY_LIMIT to give the Go heap, between
//     0.0 and 1.0. Default 0.75; lower it when conversions run large inputs.
//
// # Usage
//
//	func main() {
//	    memory.ConfigureFromEnv() // before significant allocations
//
//	    monitor := memory.NewMonitor(memory.DefaultConfig())
//	    monitor.Start()
//	    defer monitor.Stop()
//
//	    // before spawning a conversion:
//	    if !monitor.WaitIfPaused() {
//	        return // shutting down
//	    }
//	}
//
// GOMEMLIMIT is a soft limit: Go may temporarily exceed it if the GC cannot
// free memory fast enough, and it does not cover CGO or child processes.
// That is exactly why the ratio reserves headroom.
package memory
