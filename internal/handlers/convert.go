package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kimberlykao/gifforge/internal/convcache"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/metrics"
	"github.com/kimberlykao/gifforge/internal/session"
	"github.com/kimberlykao/gifforge/internal/settings"
	"github.com/kimberlykao/gifforge/internal/streaming"
)

// conversionResponse reports one finished or cache-served conversion.
type conversionResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Size      int               `json:"size"`
	Optimized bool              `json:"optimized"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Cached    bool              `json:"cached"`
	Settings  settings.Settings `json:"settings"`
	Download  string            `json:"download"`
}

// convertCached runs get-or-compute for the file under the given
// settings. The compute holds the session's cache lock, so one session
// never runs two conversions at once.
func (h *Handlers) convertCached(r *http.Request, st *session.State, f *session.UploadedFile, eff settings.Settings) (*convcache.Entry, bool, error) {
	key := convcache.KeyFor(f.ID, eff)
	entry, hit, err := st.Cache().GetOrCompute(key, func() (*convcache.Entry, error) {
		res, convErr := h.conv.Convert(r.Context(), f.Path, eff)
		if convErr != nil {
			return nil, convErr
		}
		return &convcache.Entry{
			Bytes:     res.Bytes,
			Optimized: res.Optimized,
			Elapsed:   res.Elapsed,
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	if hit {
		metrics.ConversionCacheHits.Inc()
	} else {
		metrics.ConversionCacheMisses.Inc()
	}
	return entry, hit, nil
}

// ConvertFile converts the file under its current effective settings,
// reusing the cached output when one exists.
func (h *Handlers) ConvertFile(w http.ResponseWriter, r *http.Request) {
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

	if h.mem != nil && h.mem.WaitIfPaused() {
		logging.Debug("Conversion of %s waited out memory pressure", id)
	}

	eff := st.EffectiveSettings(id)
	entry, cached, err := h.convertCached(r, st, f, eff)
	if err != nil {
		logging.Warn("Conversion failed for %s (%s): %v", f.Name, id, err)
		writeConversionError(w, err)
		return
	}

	if cached {
		logging.Debug("Conversion of %s served from cache", id)
	} else {
		logging.Info("Converted %s to %d byte GIF in %v (optimized=%t)",
			f.Name, len(entry.Bytes), entry.Elapsed.Round(time.Millisecond), entry.Optimized)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, conversionResponse{
		ID:        id,
		Name:      f.Name,
		Size:      len(entry.Bytes),
		Optimized: entry.Optimized,
		ElapsedMS: entry.Elapsed.Milliseconds(),
		Cached:    cached,
		Settings:  eff,
		Download:  "/api/uploads/" + id + "/gif",
	})
}

// DownloadGIF serves the cached conversion for the file's current
// effective settings. Nothing is converted on this path: output that was
// never produced, or was purged by a settings change, is a 404.
func (h *Handlers) DownloadGIF(w http.ResponseWriter, r *http.Request) {
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

	key := convcache.KeyFor(id, st.EffectiveSettings(id))
	entry, found := st.Cache().Get(key)
	if !found {
		writeJSONError(w, "no converted output for the current settings, convert the file first", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.Bytes)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gifName(f.Name)))
	if err := streaming.StreamWithTimeout(r.Context(), w, bytes.NewReader(entry.Bytes), streaming.DefaultTimeoutWriterConfig()); err != nil {
		logging.Warn("GIF download aborted for %s: %v", id, err)
	}
}

// gifName swaps the upload's extension for .gif.
func gifName(uploadName string) string {
	stem := strings.TrimSuffix(uploadName, filepath.Ext(uploadName))
	if stem == "" {
		stem = uploadName
	}
	return stem + ".gif"
}
