package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig controls the gzip middleware.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing
	MinSize int
	// Level is the gzip compression level
	Level int
	// CompressibleTypes lists the content types eligible for compression
	CompressibleTypes []string
}

// DefaultCompressionConfig returns sensible defaults for compression.
// image/gif and application/zip are not in the list on purpose: GIF
// frames and deflated archives are already compressed, so gzipping the
// download bodies burns CPU for nothing.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"text/xml",
			"application/json",
			"application/javascript",
			"application/xml",
			"application/xhtml+xml",
			"image/svg+xml",
		},
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipResponseWriter buffers the response body until it has seen MinSize
// bytes, then commits to either a gzip stream or a plain passthrough. The
// deferred decision means small JSON replies skip the gzip overhead
// entirely while large ones still get compressed, without the handler
// knowing anything about it.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz         *gzip.Writer
	config     CompressionConfig
	buffer     []byte
	statusCode int
	decided    bool
}

func newGzipResponseWriter(w http.ResponseWriter, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		config:         config,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

// WriteHeader records the status code; it is sent downstream when the
// compression decision is made.
func (g *gzipResponseWriter) WriteHeader(code int) {
	if g.decided {
		return
	}
	g.statusCode = code
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) > g.config.MinSize {
		g.decide()
	}
	return len(data), nil
}

// decide commits the response: headers and status go out, the buffered
// body follows, and later writes stream directly. Safe to call more than
// once.
func (g *gzipResponseWriter) decide() {
	if g.decided {
		return
	}
	g.decided = true

	if len(g.buffer) >= g.config.MinSize && g.compressibleType() {
		// Content-Length no longer matches once the body is recoded
		g.Header().Del("Content-Length")
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Add("Vary", "Accept-Encoding")

		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.statusCode)
		g.gz.Write(g.buffer) //nolint:errcheck
	} else {
		g.ResponseWriter.WriteHeader(g.statusCode)
		g.ResponseWriter.Write(g.buffer) //nolint:errcheck
	}

	g.buffer = nil
}

// compressibleType reports whether the response Content-Type is on the
// allow list. Parameters such as charset are ignored.
func (g *gzipResponseWriter) compressibleType() bool {
	ct := g.Header().Get("Content-Type")
	if ct == "" {
		return false
	}

	media, _, _ := strings.Cut(ct, ";")
	media = strings.ToLower(strings.TrimSpace(media))

	for _, t := range g.config.CompressibleTypes {
		if media == t {
			return true
		}
	}
	return false
}

// Close flushes anything still buffered and returns the gzip writer to
// the pool. The middleware defers it around every request.
func (g *gzipResponseWriter) Close() error {
	g.decide()

	if g.gz == nil {
		return nil
	}
	err := g.gz.Close()
	gzipWriterPool.Put(g.gz)
	g.gz = nil
	return err
}

// Flush forces the compression decision and pushes pending bytes to the
// client.
func (g *gzipResponseWriter) Flush() {
	g.decide()

	if g.gz != nil {
		g.gz.Flush() //nolint:errcheck
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Push implements http.Pusher for HTTP/2 support.
func (g *gzipResponseWriter) Push(target string, opts *http.PushOptions) error {
	if pusher, ok := g.ResponseWriter.(http.Pusher); ok {
		return pusher.Push(target, opts)
	}
	return http.ErrNotSupported
}

// Compression returns a middleware that gzips eligible responses.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypassCompression(r) {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, config)
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}

// bypassCompression reports whether the response must go out untouched.
func bypassCompression(r *http.Request) bool {
	if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return true
	}

	// Compressing a partial body would corrupt the byte offsets.
	if r.Header.Get("Range") != "" {
		return true
	}

	// Connection upgrades stop being HTTP after the handshake.
	return r.Header.Get("Upgrade") != ""
}
