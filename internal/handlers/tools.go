package handlers

import (
	"net/http"

	"github.com/kimberlykao/gifforge/internal/metrics"
)

// GetTools reports the external tool chain's availability and versions.
// Conversion needs ffmpeg; gifsicle and ffprobe only add optimization
// and metadata on top.
func (h *Handlers) GetTools(w http.ResponseWriter, r *http.Request) {
	tools := h.conv.Tools(r.Context())
	for name, status := range tools {
		metrics.SetToolAvailable(name, status.Available)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"tools":         tools,
		"convert_ready": tools["ffmpeg"].Available,
	})
}
