/*
Package workers derives thread budgets from container CPU limits.

# Overview

When running in containers (Docker, Kubernetes, etc.), the number of
available CPUs may be limited by cgroup constraints. While Go 1.19+
automatically sets GOMAXPROCS based on container CPU limits, the commonly
used runtime.NumCPU() still returns the host machine's CPU count. On a
64-core node with a 2-CPU pod limit, sizing thread pools from NumCPU leads
to throttling and context-switch overhead.

This package sizes the two CPU consumers gifforge hands work to:

	// Threads passed to the transcoder's encode pass (-threads N).
	// Capped so a running conversion leaves CPUs for the serving path.
	n := workers.EncoderThreads()

	// Worker pool size for the libvips thumbnail path.
	n := workers.VipsConcurrency()

Both are computed from runtime.GOMAXPROCS(0) and can be overridden by
operators with the ENCODER_THREADS and VIPS_CONCURRENCY environment
variables:

	# In a Kubernetes deployment
	env:
	- name: ENCODER_THREADS
	  value: "4"

For other ratios use Count directly:

	n := workers.Count("", 2.0, 16) // 2 per CPU, max 16, no env override

# Thread Safety

All functions are safe for concurrent use. They read runtime.GOMAXPROCS and
environment variables, which are themselves thread-safe.

# Go Version Requirements

This package relies on Go 1.19+ behavior where GOMAXPROCS is automatically
set based on container CPU limits. On earlier versions GOMAXPROCS defaults
to runtime.NumCPU() and the container-awareness is lost.
*/
package workers
