package handlers

import (
	"net/http"
	"testing"

	"github.com/kimberlykao/gifforge/internal/settings"
)

type fileSettingsResponse struct {
	Effective   settings.Settings  `json:"effective"`
	Override    *settings.Override `json:"override"`
	HasOverride bool               `json:"has_override"`
}

func (ts *testServer) globalSettings(t *testing.T) settings.Settings {
	t.Helper()
	rr := ts.get(t, "/api/settings")
	if rr.Code != http.StatusOK {
		t.Fatalf("Failed to fetch settings: status %d", rr.Code)
	}
	var resp struct {
		Settings settings.Settings `json:"settings"`
	}
	decodeJSON(t, rr, &resp)
	return resp.Settings
}

func (ts *testServer) fileSettings(t *testing.T, id string) fileSettingsResponse {
	t.Helper()
	rr := ts.get(t, "/api/uploads/"+id+"/settings")
	if rr.Code != http.StatusOK {
		t.Fatalf("Failed to fetch file settings: status %d", rr.Code)
	}
	var resp fileSettingsResponse
	decodeJSON(t, rr, &resp)
	return resp
}

func TestGetSettingsDefaults(t *testing.T) {
	ts := newTestServer(t)

	got := ts.globalSettings(t)
	want := settings.Defaults()
	if got != want {
		t.Errorf("Expected defaults %+v, got %+v", want, got)
	}
}

func TestUpdateSettingsSparsePatch(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.putJSON(t, "/api/settings", map[string]interface{}{"frame_rate": 15})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	got := ts.globalSettings(t)
	if got.FrameRate != 15 {
		t.Errorf("Expected frame rate 15, got %d", got.FrameRate)
	}
	if got.Width != 800 || got.Dither != settings.DitherBayer {
		t.Errorf("Expected untouched fields to keep defaults, got %+v", got)
	}
}

func TestUpdateSettingsClamps(t *testing.T) {
	tests := []struct {
		name  string
		patch map[string]interface{}
		check func(s settings.Settings) bool
		desc  string
	}{
		{
			name:  "Frame rate above maximum",
			patch: map[string]interface{}{"frame_rate": 50},
			check: func(s settings.Settings) bool { return s.FrameRate == 20 },
			desc:  "frame rate clamped to 20",
		},
		{
			name:  "Frame rate below minimum",
			patch: map[string]interface{}{"frame_rate": 0},
			check: func(s settings.Settings) bool { return s.FrameRate == 1 },
			desc:  "frame rate clamped to 1",
		},
		{
			name:  "Width above maximum",
			patch: map[string]interface{}{"width": 4096},
			check: func(s settings.Settings) bool { return s.Width == 1920 },
			desc:  "width clamped to 1920",
		},
		{
			name:  "Width below minimum",
			patch: map[string]interface{}{"width": 10},
			check: func(s settings.Settings) bool { return s.Width == 100 },
			desc:  "width clamped to 100",
		},
		{
			name:  "Odd width rounded down",
			patch: map[string]interface{}{"width": 701},
			check: func(s settings.Settings) bool { return s.Width == 700 },
			desc:  "odd width decremented to 700",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rr := ts.putJSON(t, "/api/settings", tt.patch)
			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			if got := ts.globalSettings(t); !tt.check(got) {
				t.Errorf("Expected %s, got %+v", tt.desc, got)
			}
		})
	}
}

func TestUpdateSettingsUnknownEnum(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		patch map[string]interface{}
	}{
		{"Unknown dither", map[string]interface{}{"dither": "psychedelic"}},
		{"Unknown compression", map[string]interface{}{"compression": "maximum"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.putJSON(t, "/api/settings", tt.patch)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rr.Code)
			}
			var resp map[string]string
			decodeJSON(t, rr, &resp)
			if resp["code"] != codeInvalidInput {
				t.Errorf("Expected code %s, got %q", codeInvalidInput, resp["code"])
			}
		})
	}

	// Nothing may have been mutated by the rejected patches.
	if got := ts.globalSettings(t); got != settings.Defaults() {
		t.Errorf("Expected defaults after rejected updates, got %+v", got)
	}
}

func TestUpdateSettingsRejectsPartiallyValidPatch(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.putJSON(t, "/api/settings", map[string]interface{}{
		"frame_rate": 5,
		"dither":     "psychedelic",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}

	if got := ts.globalSettings(t); got.FrameRate != 10 {
		t.Errorf("Expected the valid half of a rejected patch to be discarded, got %+v", got)
	}
}

func TestUpdateSettingsInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPut, "/api/settings", nil, "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
}

func TestFileSettingsOverrideLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := ts.uploadOne(t, "clip.gif", gifBytes("override-me"))

	// Fresh file follows the global record.
	fs := ts.fileSettings(t, id)
	if fs.HasOverride {
		t.Fatal("Expected no override on a fresh file")
	}
	if fs.Effective != settings.Defaults() {
		t.Errorf("Expected effective defaults, got %+v", fs.Effective)
	}

	// A sparse override pins only the patched field.
	rr := ts.putJSON(t, "/api/uploads/"+id+"/settings", map[string]interface{}{"width": 320})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	fs = ts.fileSettings(t, id)
	if !fs.HasOverride {
		t.Fatal("Expected an override after the patch")
	}
	if fs.Effective.Width != 320 || fs.Effective.FrameRate != 10 {
		t.Errorf("Expected width pinned and frame rate global, got %+v", fs.Effective)
	}
	if fs.Override == nil || fs.Override.Width == nil || *fs.Override.Width != 320 {
		t.Errorf("Expected a sparse override with width only, got %+v", fs.Override)
	}
	if fs.Override.FrameRate != nil {
		t.Errorf("Expected frame rate absent from the override, got %+v", fs.Override)
	}

	// Global changes flow through the unpinned fields.
	ts.putJSON(t, "/api/settings", map[string]interface{}{"frame_rate": 5})
	fs = ts.fileSettings(t, id)
	if fs.Effective.FrameRate != 5 || fs.Effective.Width != 320 {
		t.Errorf("Expected frame rate 5 and width 320, got %+v", fs.Effective)
	}

	// Clearing the override rejoins the global record entirely.
	rr = ts.do(t, http.MethodDelete, "/api/uploads/"+id+"/settings", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	fs = ts.fileSettings(t, id)
	if fs.HasOverride {
		t.Error("Expected the override to be gone")
	}
	if fs.Effective.Width != 800 {
		t.Errorf("Expected width back on the global value, got %d", fs.Effective.Width)
	}
}

func TestFileSettingsUnknownFile(t *testing.T) {
	ts := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rr := ts.do(t, method, "/api/uploads/ffffffffffffffff/settings", nil, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400 for unknown file, got %d", method, rr.Code)
		}
	}

	rr := ts.putJSON(t, "/api/uploads/ffffffffffffffff/settings", map[string]interface{}{"width": 320})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("PUT: expected status 400 for unknown file, got %d", rr.Code)
	}
}

func TestFileSettingsClampsPatch(t *testing.T) {
	ts := newTestServer(t)
	id := ts.uploadOne(t, "clip.gif", gifBytes("clamped"))

	rr := ts.putJSON(t, "/api/uploads/"+id+"/settings", map[string]interface{}{"width": 2001, "frame_rate": -3})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	fs := ts.fileSettings(t, id)
	if fs.Effective.Width != 1920 {
		t.Errorf("Expected width clamped to 1920, got %d", fs.Effective.Width)
	}
	if fs.Effective.FrameRate != 1 {
		t.Errorf("Expected frame rate clamped to 1, got %d", fs.Effective.FrameRate)
	}
}

func TestBroadcastSettingsToAll(t *testing.T) {
	ts := newTestServer(t)
	source := ts.uploadOne(t, "source.gif", gifBytes("src"))
	other1 := ts.uploadOne(t, "other1.gif", gifBytes("aaaa"))
	other2 := ts.uploadOne(t, "other2.gif", gifBytes("bbbbb"))

	ts.putJSON(t, "/api/uploads/"+source+"/settings", map[string]interface{}{"width": 480, "dither": "none"})

	rr := ts.postJSON(t, "/api/settings/broadcast", map[string]interface{}{"source": source})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Status  string `json:"status"`
		Updated int    `json:"updated"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Updated != 2 {
		t.Errorf("Expected 2 files updated, got %d", resp.Updated)
	}

	for _, id := range []string{other1, other2} {
		fs := ts.fileSettings(t, id)
		if fs.Effective.Width != 480 || fs.Effective.Dither != "none" {
			t.Errorf("Expected broadcast settings on %s, got %+v", id, fs.Effective)
		}
		if !fs.HasOverride {
			t.Errorf("Expected %s pinned by a full override after broadcast", id)
		}
	}

	// Targets no longer follow later global changes.
	ts.putJSON(t, "/api/settings", map[string]interface{}{"width": 1000})
	fs := ts.fileSettings(t, other1)
	if fs.Effective.Width != 480 {
		t.Errorf("Expected broadcast target still at 480, got %d", fs.Effective.Width)
	}
}

func TestBroadcastSettingsToTargets(t *testing.T) {
	ts := newTestServer(t)
	source := ts.uploadOne(t, "source.gif", gifBytes("src"))
	target := ts.uploadOne(t, "target.gif", gifBytes("tgt1"))
	bystander := ts.uploadOne(t, "bystander.gif", gifBytes("byst2"))

	ts.putJSON(t, "/api/uploads/"+source+"/settings", map[string]interface{}{"frame_rate": 3})

	rr := ts.postJSON(t, "/api/settings/broadcast", map[string]interface{}{
		"source":  source,
		"targets": []string{target},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	if fs := ts.fileSettings(t, target); fs.Effective.FrameRate != 3 {
		t.Errorf("Expected the target at frame rate 3, got %+v", fs.Effective)
	}
	if fs := ts.fileSettings(t, bystander); fs.Effective.FrameRate != 10 {
		t.Errorf("Expected the bystander untouched, got %+v", fs.Effective)
	}
}

func TestBroadcastSettingsUnknownIDs(t *testing.T) {
	ts := newTestServer(t)
	source := ts.uploadOne(t, "source.gif", gifBytes("src"))

	rr := ts.postJSON(t, "/api/settings/broadcast", map[string]interface{}{"source": "ffffffffffffffff"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown source, got %d", rr.Code)
	}

	rr = ts.postJSON(t, "/api/settings/broadcast", map[string]interface{}{
		"source":  source,
		"targets": []string{"ffffffffffffffff"},
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown target, got %d", rr.Code)
	}
}
