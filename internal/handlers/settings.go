package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/settings"
)

// Bounds enforced on settings writes. Values outside are clamped, not
// rejected; only unknown enum values are a hard error.
const (
	minFrameRate = 1
	maxFrameRate = 20
	minWidth     = 100
	maxWidth     = 1920
)

// clampPatch bounds the numeric fields of a sparse patch and validates
// the enum fields. The width lands on an even value here so the stored
// settings and the cache keys match what the encoder will actually use.
func clampPatch(p *settings.Override) error {
	if p.FrameRate != nil {
		*p.FrameRate = clampInt(*p.FrameRate, minFrameRate, maxFrameRate)
	}
	if p.Width != nil {
		v := clampInt(*p.Width, minWidth, maxWidth)
		if v%2 != 0 {
			v--
		}
		*p.Width = v
	}
	if p.Dither != nil && !settings.ValidDither(*p.Dither) {
		return fmt.Errorf("unknown dither mode %q", *p.Dither)
	}
	if p.Compression != nil && !settings.ValidCompression(*p.Compression) {
		return fmt.Errorf("unknown compression level %q", *p.Compression)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// applyPatch folds the set fields of a sparse patch into s.
func applyPatch(s *settings.Settings, p settings.Override) {
	if p.FrameRate != nil {
		s.FrameRate = *p.FrameRate
	}
	if p.Width != nil {
		s.Width = *p.Width
	}
	if p.Dither != nil {
		s.Dither = *p.Dither
	}
	if p.Compression != nil {
		s.Compression = *p.Compression
	}
}

// GetSettings returns the session's global conversion settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"settings": st.GlobalSettings(),
	})
}

// UpdateSettings applies a sparse patch to the global settings record.
// Cached conversions are purged only for the files whose effective
// settings the change actually moved.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	var patch settings.Override
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeInvalidInput(w, "invalid JSON body")
		return
	}
	if err := clampPatch(&patch); err != nil {
		writeInvalidInput(w, err.Error())
		return
	}

	global := st.GlobalSettings()
	applyPatch(&global, patch)
	st.UpdateGlobal(global)
	logging.Debug("Global settings updated: %+v", global)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"settings": st.GlobalSettings(),
	})
}

// GetFileSettings returns the file's effective settings and its sparse
// override record, if one exists.
func (h *Handlers) GetFileSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, found := st.File(id); !found {
		writeInvalidInput(w, fmt.Sprintf("unknown file id %q", id))
		return
	}

	override, hasOverride := st.OverrideFor(id)
	resp := map[string]interface{}{
		"effective":    st.EffectiveSettings(id),
		"has_override": hasOverride,
	}
	if hasOverride {
		resp["override"] = override
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// UpdateFileSettings merges a sparse patch into the file's override
// record. Fields the patch leaves out keep following the global record.
func (h *Handlers) UpdateFileSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, found := st.File(id); !found {
		writeInvalidInput(w, fmt.Sprintf("unknown file id %q", id))
		return
	}

	var patch settings.Override
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeInvalidInput(w, "invalid JSON body")
		return
	}
	if err := clampPatch(&patch); err != nil {
		writeInvalidInput(w, err.Error())
		return
	}

	st.UpdateOverride(id, patch)
	logging.Debug("Override for %s updated", id)

	override, hasOverride := st.OverrideFor(id)
	resp := map[string]interface{}{
		"effective":    st.EffectiveSettings(id),
		"has_override": hasOverride,
	}
	if hasOverride {
		resp["override"] = override
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// DeleteFileSettings clears the file's override so it follows the global
// settings again. Clearing a file that has no override is a no-op.
func (h *Handlers) DeleteFileSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if _, found := st.File(id); !found {
		writeInvalidInput(w, fmt.Sprintf("unknown file id %q", id))
		return
	}

	if st.ResetOverride(id) {
		logging.Debug("Override for %s cleared", id)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"effective":    st.EffectiveSettings(id),
		"has_override": false,
	})
}

// broadcastRequest names the file whose effective settings are copied
// onto others. An empty target list means every other file.
type broadcastRequest struct {
	Source  string   `json:"source"`
	Targets []string `json:"targets,omitempty"`
}

// BroadcastSettings copies the source file's effective settings onto
// other files in the session, pinning each target with a full override.
func (h *Handlers) BroadcastSettings(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidInput(w, "invalid JSON body")
		return
	}
	if _, found := st.File(req.Source); !found {
		writeInvalidInput(w, fmt.Sprintf("unknown source file id %q", req.Source))
		return
	}
	for _, id := range req.Targets {
		if _, found := st.File(id); !found {
			writeInvalidInput(w, fmt.Sprintf("unknown target file id %q", id))
			return
		}
	}

	updated := len(req.Targets)
	if updated == 0 {
		updated = st.FileCount() - 1
		st.BroadcastFrom(req.Source)
	} else {
		st.BroadcastTo(req.Source, req.Targets)
	}
	logging.Debug("Broadcast settings from %s to %d file(s)", req.Source, updated)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"updated": updated,
	})
}
