package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/kimberlykao/gifforge/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Transcoder bool   `json:"transcoder"`
	Optimizer  bool   `json:"optimizer"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	ActiveSessions int `json:"activeSessions"`
	TotalFiles     int `json:"totalFiles,omitempty"`
}

// HealthCheck returns the health status of the service. A missing
// transcoder degrades the report; the endpoint itself stays 200 so
// operators can read the body.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	snap := h.sessions.Snapshot()

	response := HealthResponse{
		Ready:          true,
		Version:        startup.Version,
		Uptime:         time.Since(h.started).Round(time.Second).String(),
		Transcoder:     h.conv.Available(),
		Optimizer:      h.conv.OptimizerAvailable(),
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		NumGoroutine:   runtime.NumGoroutine(),
		ActiveSessions: snap.ActiveSessions,
		TotalFiles:     snap.TotalFiles,
	}

	if response.Transcoder {
		response.Status = statusHealthy
	} else {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the server accepts requests. The
// transcoder's availability is reported in the body, not the status:
// sessions, settings, and downloads work without it.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	writeJSON(w, map[string]interface{}{
		"status":        "ready",
		"convert_ready": h.conv.Available(),
	})
}

// GetVersion reports build metadata for the running binary
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}
