package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kimberlykao/gifforge/internal/logging"
)

// VolumeForPath classifies a work-tree path for metric labeling by its
// session subdirectory: uploads, scratch (conversion temp files), or
// thumbs. Anything else under the work root is "work".
func VolumeForPath(path string) string {
	sep := string(filepath.Separator)
	for _, label := range []string{"uploads", "scratch", "thumbs"} {
		if strings.Contains(path, sep+label+sep) || strings.HasSuffix(path, sep+label) {
			return label
		}
	}
	return "work"
}

// RetryConfig configures retry behavior for work-volume operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError checks if an error is an NFS stale file handle error.
// Work directories on network volumes hit ESTALE when a file is read right
// after another process (ffmpeg, gifsicle) wrote it.
func isStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs attempt with exponential backoff on ESTALE. Any other
// error returns immediately. The op string labels metrics and log lines.
func withRetry(op, path string, config RetryConfig, attempt func() error) error {
	start := time.Now()
	volume := VolumeForPath(path)
	backoff := config.InitialBackoff
	var lastErr error

	for try := 0; try <= config.MaxRetries; try++ {
		err := attempt()
		if err == nil {
			if try > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, try, path)
				observer.ObserveRetrySuccess(op, volume)
			}
			observer.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
			return nil
		}

		lastErr = err

		if !isStaleError(err) {
			observer.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
			return err
		}

		observer.ObserveStaleError(op, volume)

		// No sleep after the last attempt.
		if try < config.MaxRetries {
			observer.ObserveRetryAttempt(op, volume)
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, try+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	observer.ObserveRetryFailure(op, volume)
	observer.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
	return lastErr
}

// StatWithRetry performs os.Stat with retry on NFS stale file handles.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := withRetry("stat", path, config, func() error {
		var statErr error
		info, statErr = os.Stat(path)
		return statErr
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// OpenWithRetry performs os.Open with retry on NFS stale file handles.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	var file *os.File
	err := withRetry("open", path, config, func() error {
		var openErr error
		file, openErr = os.Open(path)
		return openErr
	})
	if err != nil {
		return nil, err
	}
	return file, nil
}

// ReadFileWithRetry performs os.ReadFile with retry on NFS stale file
// handles. The converter uses this to read tool output written moments
// earlier by a child process.
func ReadFileWithRetry(path string, config RetryConfig) ([]byte, error) {
	var data []byte
	err := withRetry("readfile", path, config, func() error {
		var readErr error
		data, readErr = os.ReadFile(path)
		return readErr
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
