package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/metrics"
)

// GetThumbnail serves the poster JPEG for an uploaded file, generating
// and disk-caching it on first request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	f, found := st.File(id)
	if !found {
		writeInvalidInput(w, fmt.Sprintf("unknown file id %q", id))
		return
	}

	start := time.Now()
	cachePath := filepath.Join(st.ThumbsDir(), id+".jpg")
	data, err := h.thumbs.Thumbnail(f.Path, f.Kind, cachePath)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues(string(f.Kind), "error").Inc()
		logging.Warn("Thumbnail generation failed for %s: %v", f.Name, err)
		writeJSONError(w, "thumbnail generation failed", http.StatusInternalServerError)
		return
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(string(f.Kind), "success").Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(f.Kind)).Observe(time.Since(start).Seconds())

	// Thumbnails are session-scoped, so only the browser may cache them.
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Thumbnail write aborted for %s: %v", id, err)
	}
}
