package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kimberlykao/gifforge/internal/logging"
)

// Errors reported by the timeout writer.
var (
	// ErrWriteTimeout means a single write, or the stream as a whole, ran
	// past its deadline. Slow consumers of large GIF payloads end up here.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone means the peer went away before the stream finished.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled means the stream was shut down on purpose, by Close
	// or by an upstream context.
	ErrStreamCanceled = errors.New("stream canceled")
)

// TimeoutWriterConfig configures the timeout writer behavior.
type TimeoutWriterConfig struct {
	// WriteTimeout bounds a single write to the client
	WriteTimeout time.Duration
	// IdleTimeout bounds the gap between successful writes
	IdleTimeout time.Duration
	// MaxDuration bounds the whole stream, 0 meaning unlimited
	MaxDuration time.Duration
	// ChunkSize splits large writes, 0 meaning write as received
	ChunkSize int
	// OnProgress, when set, is invoked roughly once per streamed MiB
	OnProgress func(bytesWritten int64, duration time.Duration)
}

// DefaultTimeoutWriterConfig returns the defaults used for GIF and archive
// downloads.
func DefaultTimeoutWriterConfig() TimeoutWriterConfig {
	return TimeoutWriterConfig{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxDuration:  0,
		ChunkSize:    64 * 1024,
		OnProgress:   nil,
	}
}

// TimeoutWriter guards an http.ResponseWriter against clients that stall
// mid-download. Each write runs on a side goroutine so the handler can give
// up after WriteTimeout instead of blocking forever on a dead socket, and a
// watchdog cancels the stream when no bytes move for IdleTimeout.
type TimeoutWriter struct {
	dst    http.ResponseWriter
	ctx    context.Context
	cancel context.CancelFunc
	config TimeoutWriterConfig

	mu           sync.Mutex
	bytesWritten int64
	lastWrite    time.Time
	closed       bool

	start   time.Time
	flusher http.Flusher
}

// NewTimeoutWriter wraps w. The caller must Close the returned writer to
// stop the idle watchdog.
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *TimeoutWriter {
	wctx, cancel := context.WithCancel(ctx)

	now := time.Now()
	tw := &TimeoutWriter{
		dst:       w,
		ctx:       wctx,
		cancel:    cancel,
		config:    config,
		lastWrite: now,
		start:     now,
	}
	tw.flusher, _ = w.(http.Flusher)

	go tw.watchIdle()

	return tw
}

// Write implements io.Writer. Buffers larger than ChunkSize go out in
// pieces with a flush after each one, so partial progress reaches the
// client instead of sitting in net/http buffers.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	closed := tw.closed
	tw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	if tw.ctx.Err() != nil {
		return 0, tw.contextError()
	}

	if tw.config.MaxDuration > 0 && time.Since(tw.start) > tw.config.MaxDuration {
		return 0, ErrWriteTimeout
	}

	chunked := tw.config.ChunkSize > 0 && len(p) > tw.config.ChunkSize

	written := 0
	for written < len(p) {
		if written > 0 && tw.ctx.Err() != nil {
			return written, tw.contextError()
		}

		end := len(p)
		if chunked && end-written > tw.config.ChunkSize {
			end = written + tw.config.ChunkSize
		}

		n, err := tw.guardedWrite(p[written:end])
		written += n
		if err != nil {
			return written, err
		}

		if chunked && tw.flusher != nil {
			tw.flusher.Flush()
		}
	}

	return written, nil
}

// guardedWrite performs one write on a side goroutine and waits for it,
// the per-write timeout, or cancellation, whichever comes first.
func (tw *TimeoutWriter) guardedWrite(p []byte) (int, error) {
	type outcome struct {
		n   int
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		n, err := tw.dst.Write(p)
		ch <- outcome{n, err}
	}()

	// A nil timeout channel blocks forever, disabling the deadline.
	var timeout <-chan time.Time
	if tw.config.WriteTimeout > 0 {
		timer := time.NewTimer(tw.config.WriteTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-ch:
		if out.err != nil {
			return out.n, out.err
		}
		tw.recordWrite(out.n)
		return out.n, nil

	case <-timeout:
		tw.cancel()
		return 0, ErrWriteTimeout

	case <-tw.ctx.Done():
		return 0, tw.contextError()
	}
}

// recordWrite updates the counters and fires OnProgress when the running
// total crosses a MiB boundary.
func (tw *TimeoutWriter) recordWrite(n int) {
	tw.mu.Lock()
	tw.lastWrite = time.Now()
	tw.bytesWritten += int64(n)
	total := tw.bytesWritten
	tw.mu.Unlock()

	if tw.config.OnProgress != nil && total%(1<<20) < int64(n) {
		tw.config.OnProgress(total, time.Since(tw.start))
	}
}

// watchIdle cancels the stream when no write has succeeded for
// IdleTimeout. Polling at a quarter of the timeout keeps detection lag
// within 25% of the configured value.
func (tw *TimeoutWriter) watchIdle() {
	if tw.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(tw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tw.mu.Lock()
			idle := time.Since(tw.lastWrite)
			closed := tw.closed
			tw.mu.Unlock()

			if closed {
				return
			}
			if idle > tw.config.IdleTimeout {
				logging.Warn("Stream idle for %v, canceling", idle)
				tw.cancel()
				return
			}

		case <-tw.ctx.Done():
			return
		}
	}
}

// contextError maps context state to the package sentinels. A canceled
// context means the request ended under us, so the client is gone.
func (tw *TimeoutWriter) contextError() error {
	if errors.Is(tw.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close stops the watchdog and fails all later writes. Safe to call more
// than once.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if !tw.closed {
		tw.closed = true
		tw.cancel()
	}
	return nil
}

// Stats reports the bytes streamed so far and the elapsed stream time.
func (tw *TimeoutWriter) Stats() (int64, time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.bytesWritten, time.Since(tw.start)
}

// StreamWithTimeout copies r to the response under the timeout rules in
// config. Callers that know the payload size should set Content-Length
// beforehand; the transfer encoding is left to net/http either way.
func StreamWithTimeout(ctx context.Context, w http.ResponseWriter, r io.Reader, config TimeoutWriterConfig) error {
	w.Header().Set("X-Content-Type-Options", "nosniff")

	tw := NewTimeoutWriter(ctx, w, config)
	defer tw.Close() //nolint:errcheck

	written, err := io.Copy(tw, r)
	logging.Debug("Streamed %d bytes in %v", written, time.Since(tw.start))

	return err
}
