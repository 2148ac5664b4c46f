package handlers

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kimberlykao/gifforge/internal/session"
)

func newGatedServer(t *testing.T, passphrase string) *testServer {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash passphrase: %v", err)
	}
	return newTestServerWithConfig(t, session.ManagerConfig{
		WorkRoot:       t.TempDir(),
		PassphraseHash: string(hash),
	})
}

func TestCheckAuthGateDisabled(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/api/auth/check")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp AuthStatus
	decodeJSON(t, rr, &resp)
	if resp.Enabled {
		t.Error("Expected the gate disabled")
	}
	if !resp.Authenticated {
		t.Error("Expected sessions authorized with the gate disabled")
	}
}

func TestCheckAuthGateEnabled(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	rr := ts.get(t, "/api/auth/check")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp AuthStatus
	decodeJSON(t, rr, &resp)
	if !resp.Enabled {
		t.Error("Expected the gate enabled")
	}
	if resp.Authenticated {
		t.Error("Expected a fresh session unauthenticated")
	}
}

func TestLoginSuccess(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	rr := ts.postJSON(t, "/api/auth/login", map[string]string{"passphrase": "open sesame"})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp AuthStatus
	decodeJSON(t, rr, &resp)
	if !resp.Authenticated {
		t.Error("Expected the session authenticated after login")
	}

	// The mark sticks to the session.
	rr = ts.get(t, "/api/auth/check")
	decodeJSON(t, rr, &resp)
	if !resp.Authenticated {
		t.Error("Expected the session to stay authenticated")
	}
}

func TestLoginWrongPassphrase(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	rr := ts.postJSON(t, "/api/auth/login", map[string]string{"passphrase": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", rr.Code)
	}

	rr = ts.get(t, "/api/auth/check")
	var resp AuthStatus
	decodeJSON(t, rr, &resp)
	if resp.Authenticated {
		t.Error("Expected the session to stay unauthenticated after a failed login")
	}
}

func TestLoginInvalidBody(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	rr := ts.do(t, http.MethodPost, "/api/auth/login", nil, "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
}

func TestLoginWithGateDisabled(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/api/auth/login", nil, "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var resp AuthStatus
	decodeJSON(t, rr, &resp)
	if resp.Enabled {
		t.Error("Expected the response to report the gate disabled")
	}
}

func TestLogout(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	ts.postJSON(t, "/api/auth/login", map[string]string{"passphrase": "open sesame"})
	rr := ts.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	rr = ts.get(t, "/api/auth/check")
	var resp AuthStatus
	decodeJSON(t, rr, &resp)
	if resp.Authenticated {
		t.Error("Expected the session unauthenticated after logout")
	}
}

func TestAuthMiddlewareBlocksAPI(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	rr := ts.get(t, "/api/uploads")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 before login, got %d", rr.Code)
	}

	ts.postJSON(t, "/api/auth/login", map[string]string{"passphrase": "open sesame"})

	rr = ts.get(t, "/api/uploads")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 after login, got %d", rr.Code)
	}
}

func TestAuthMiddlewareAllowlist(t *testing.T) {
	ts := newGatedServer(t, "open sesame")

	paths := []string{"/health", "/healthz", "/livez", "/readyz", "/version", "/metrics", "/api/auth/check"}
	for _, path := range paths {
		rr := ts.get(t, path)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected %s reachable without login, got status %d", path, rr.Code)
		}
	}
}

func TestAuthMiddlewareGateDisabled(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get(t, "/api/uploads")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200 with the gate disabled, got %d", rr.Code)
	}
}
