package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/mediatypes"
	"github.com/kimberlykao/gifforge/internal/memory"
	"github.com/kimberlykao/gifforge/internal/session"
	"github.com/kimberlykao/gifforge/internal/settings"
)

// DefaultMaxUploadBytes caps the body of one multipart upload request.
const DefaultMaxUploadBytes = 200 << 20

// GIFConverter is the slice of the converter the handlers use. The real
// implementation shells out to FFmpeg and gifsicle; tests plug in fakes
// so no external tools are needed.
type GIFConverter interface {
	Convert(ctx context.Context, inputPath string, s settings.Settings) (*converter.Result, error)
	Probe(ctx context.Context, path string) (*converter.MediaInfo, error)
	Tools(ctx context.Context) map[string]converter.ToolStatus
	Available() bool
	OptimizerAvailable() bool
}

// Thumbnailer produces poster JPEGs for uploaded files.
type Thumbnailer interface {
	Thumbnail(path string, kind mediatypes.Kind, cachePath string) ([]byte, error)
}

type Handlers struct {
	sessions       *session.Manager
	conv           GIFConverter
	thumbs         Thumbnailer
	mem            *memory.Monitor
	maxUploadBytes int64
	started        time.Time
}

// New wires the handler set. mem may be nil when memory monitoring is
// disabled; uploads and conversions then skip the pressure checks.
func New(sessions *session.Manager, conv GIFConverter, thumbs Thumbnailer, mem *memory.Monitor, maxUploadBytes int64) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handlers{
		sessions:       sessions,
		conv:           conv,
		thumbs:         thumbs,
		mem:            mem,
		maxUploadBytes: maxUploadBytes,
		started:        time.Now(),
	}
}

// state resolves the request's session, creating one and setting the
// cookie when the request carries none.
func (h *Handlers) state(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	st, err := h.sessions.FromRequest(w, r)
	if err != nil {
		logging.Error("Failed to resolve session: %v", err)
		writeJSONError(w, "failed to create session", http.StatusInternalServerError)
		return nil, false
	}
	return st, true
}
