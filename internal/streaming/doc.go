/*
Package streaming pushes large download bodies to HTTP clients without
letting a stalled connection pin server resources.

Converted GIFs run to tens of megabytes and ZIP bundles larger still. A
client that stops reading mid-download would otherwise block the handler
goroutine inside ResponseWriter.Write indefinitely; this package bounds
that wait and tears the stream down when nothing moves.

# Usage

Download handlers normally need just [StreamWithTimeout]:

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))

	err := streaming.StreamWithTimeout(r.Context(), w, bytes.NewReader(data), streaming.DefaultTimeoutWriterConfig())
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("Streaming error: %v", err)
	}

Handlers that want progress reporting or custom limits build a
[TimeoutWriter] themselves via [NewTimeoutWriter] and io.Copy into it,
closing it when done.

# Behavior

Four independent guards apply, all set through [TimeoutWriterConfig]:
a per-write deadline (WriteTimeout), a watchdog on the gap between
successful writes (IdleTimeout), an optional whole-stream cap
(MaxDuration), and chunking of large writes (ChunkSize) so cancellation
is noticed between pieces rather than after the full buffer. The request
context is honored throughout, which is how client disconnects surface.

Failures map to three sentinels checked with errors.Is: [ErrWriteTimeout]
for deadline overruns, [ErrClientGone] when the peer disappeared, and
[ErrStreamCanceled] for deliberate shutdown. A gone client is the common
case and not worth an error-level log line.

Download sizes are always known here (results live in the conversion
cache), so handlers set Content-Length and net/http keeps identity
transfer encoding; when the length is omitted net/http falls back to
chunked encoding on its own.

# Concurrency

A TimeoutWriter is safe for concurrent writers, though streams normally
have exactly one. Each stream costs one watchdog goroutine plus one
short-lived goroutine per write.
*/
package streaming
