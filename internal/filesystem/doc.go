/*
Package filesystem provides resilient work-volume operations with automatic
retry logic for NFS stale file handle errors.

# Purpose

gifforge keeps every session's payloads under one work directory: uploaded
media, conversion scratch files written by ffmpeg and gifsicle, and cached
thumbnails. Self-hosted deployments regularly put that directory on a
network volume, and reading a file moments after a child process wrote it
is exactly where NFS ESTALE (stale file handle, errno 116) errors surface.
This package wraps the hot read-side operations (os.Stat, os.Open,
os.ReadFile) with retry logic for those transient failures.

# Key Features

  - Automatic retry with exponential backoff for NFS ESTALE errors
  - Configurable retry attempts (default: 3) and backoff timings
  - Immediate failure for every other error class
  - Retry metrics reported through a pluggable Observer

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())

	data, err := filesystem.ReadFileWithRetry(outPath, filesystem.RetryConfig{
	    MaxRetries:     5,
	    InitialBackoff: 100 * time.Millisecond,
	    MaxBackoff:     time.Second,
	})

# Retry Behavior

Exponential backoff with the following defaults: 3 attempts, 50ms initial
backoff doubling to a 500ms cap. Only ESTALE triggers retries; all other
errors fail immediately.

# Metrics

Retry attempts, successes, failures, stale-error counts, and total
durations are reported through the Observer interface, labeled by operation
and by work-tree volume (uploads, scratch, thumbs, work). Wire the
Prometheus implementation at startup:

	filesystem.SetObserver(metrics.NewFilesystemObserver())
*/
package filesystem
