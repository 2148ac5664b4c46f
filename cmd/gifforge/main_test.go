package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/handlers"
	"github.com/kimberlykao/gifforge/internal/mediatypes"
	"github.com/kimberlykao/gifforge/internal/metrics"
	"github.com/kimberlykao/gifforge/internal/session"
	"github.com/kimberlykao/gifforge/internal/settings"
	"github.com/kimberlykao/gifforge/internal/startup"
)

// nullConverter satisfies handlers.GIFConverter without external tools
type nullConverter struct{}

func (nullConverter) Convert(context.Context, string, settings.Settings) (*converter.Result, error) {
	return nil, &converter.ToolMissingError{Tool: "ffmpeg"}
}

func (nullConverter) Probe(context.Context, string) (*converter.MediaInfo, error) {
	return nil, &converter.ToolMissingError{Tool: "ffprobe"}
}

func (nullConverter) Tools(context.Context) map[string]converter.ToolStatus {
	return map[string]converter.ToolStatus{}
}

func (nullConverter) Available() bool { return false }

func (nullConverter) OptimizerAvailable() bool { return false }

type nullThumbnailer struct{}

func (nullThumbnailer) Thumbnail(string, mediatypes.Kind, string) ([]byte, error) {
	return nil, nil
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	manager, err := session.NewManager(session.ManagerConfig{WorkRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to create session manager: %v", err)
	}
	t.Cleanup(manager.PurgeAll)
	return manager
}

func TestManagerStatsAdapter(t *testing.T) {
	manager := newTestManager(t)

	if _, err := manager.Create(); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if _, err := manager.Create(); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	adapter := &managerStatsAdapter{manager: manager}

	// Verify the adapter implements the interface
	var _ metrics.StatsProvider = adapter

	stats := adapter.GetStats()
	if stats.ActiveSessions != 2 {
		t.Errorf("Expected ActiveSessions=2, got %d", stats.ActiveSessions)
	}
	if stats.TotalFiles != 0 {
		t.Errorf("Expected TotalFiles=0, got %d", stats.TotalFiles)
	}
	if stats.CachedConversions != 0 {
		t.Errorf("Expected CachedConversions=0, got %d", stats.CachedConversions)
	}
	if stats.UploadBytes != 0 {
		t.Errorf("Expected UploadBytes=0, got %d", stats.UploadBytes)
	}
}

func TestSetupRouterRegistersRoutes(t *testing.T) {
	manager := newTestManager(t)
	h := handlers.New(manager, nullConverter{}, nullThumbnailer{}, nil, 0)

	router := setupRouter(h, t.TempDir())

	routes, err := startup.GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes returned error: %v", err)
	}

	seen := make(map[string]bool)
	for _, r := range routes {
		seen[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /healthz",
		"GET /livez",
		"HEAD /livez",
		"GET /readyz",
		"GET /version",
		"GET /metrics",
		"POST /api/auth/login",
		"POST /api/auth/logout",
		"GET /api/auth/check",
		"GET /api/tools",
		"GET /api/stats",
		"POST /api/uploads",
		"GET /api/uploads",
		"DELETE /api/uploads/{id}",
		"GET /api/uploads/{id}/thumbnail",
		"GET /api/uploads/{id}/settings",
		"PUT /api/uploads/{id}/settings",
		"DELETE /api/uploads/{id}/settings",
		"POST /api/uploads/{id}/convert",
		"GET /api/uploads/{id}/gif",
		"GET /api/settings",
		"PUT /api/settings",
		"POST /api/settings/broadcast",
		"POST /api/export",
		"GET /api/export/{id}",
	} {
		if !seen[want] {
			t.Errorf("Expected route %q to be registered", want)
		}
	}
}

func TestRouterServesHealth(t *testing.T) {
	manager := newTestManager(t)
	h := handlers.New(manager, nullConverter{}, nullThumbnailer{}, nil, 0)
	router := setupRouter(h, t.TempDir())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}
