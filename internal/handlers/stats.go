package handlers

import "net/http"

// GetStats reports the calling session's footprint plus server-wide
// totals across all live sessions.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	snap := h.sessions.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"session": map[string]interface{}{
			"files":              st.FileCount(),
			"upload_bytes":       st.UploadBytes(),
			"cached_conversions": st.Cache().Len(),
			"cache_bytes":        st.Cache().Bytes(),
		},
		"server": map[string]interface{}{
			"active_sessions":    snap.ActiveSessions,
			"total_files":        snap.TotalFiles,
			"cached_conversions": snap.CachedConversions,
			"cache_bytes":        snap.CacheBytes,
			"upload_bytes":       snap.UploadBytes,
		},
	})
}
