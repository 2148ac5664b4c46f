package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/metrics"
)

// LoginRequest carries the access passphrase.
type LoginRequest struct {
	Passphrase string `json:"passphrase"`
}

// AuthStatus reports whether the passphrase gate is on and whether this
// session has passed it.
type AuthStatus struct {
	Enabled       bool `json:"enabled"`
	Authenticated bool `json:"authenticated"`
}

// Login checks the passphrase against the configured hash and marks the
// session authenticated.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	if !h.sessions.GateEnabled() {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, AuthStatus{Enabled: false, Authenticated: true})
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidInput(w, "invalid JSON body")
		return
	}

	if !h.sessions.Authorize(req.Passphrase) {
		logging.Warn("Failed login attempt")
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		writeJSONError(w, "invalid passphrase", http.StatusUnauthorized)
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	st.SetAuthenticated(true)
	logging.Info("Session authenticated")

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthStatus{Enabled: true, Authenticated: true})
}

// Logout drops the session's authenticated mark. Uploaded files stay
// with the session until it expires.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	st.SetAuthenticated(false)
	writeJSONStatus(w, "logged_out")
}

// CheckAuth reports the gate state so the UI knows whether to show the
// login prompt.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	st, ok := h.state(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthStatus{
		Enabled:       h.sessions.GateEnabled(),
		Authenticated: st.Authenticated(),
	})
}

// AuthMiddleware rejects unauthenticated API requests when the
// passphrase gate is enabled. The auth endpoints stay open so the gate
// can be passed; everything outside /api/ is static content and probes.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.GateEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		if !strings.HasPrefix(r.URL.Path, "/api/") ||
			strings.HasPrefix(r.URL.Path, "/api/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		st, ok := h.state(w, r)
		if !ok {
			return
		}
		if !st.Authenticated() {
			writeJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
