package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kimberlykao/gifforge/internal/convcache"
	"github.com/kimberlykao/gifforge/internal/mediatypes"
	"github.com/kimberlykao/gifforge/internal/settings"
)

func TestFileID(t *testing.T) {
	a := FileID("clip.mp4", 1024)
	b := FileID("clip.mp4", 1024)
	c := FileID("clip.mp4", 2048)
	d := FileID("other.mp4", 1024)

	if a != b {
		t.Errorf("Expected stable IDs for identical name and size, got %s and %s", a, b)
	}

	if a == c {
		t.Error("Expected different IDs for different sizes")
	}

	if a == d {
		t.Error("Expected different IDs for different names")
	}

	if len(a) != 16 {
		t.Errorf("Expected 16 hex characters, got %d (%s)", len(a), a)
	}
}

func testState(t *testing.T) *State {
	t.Helper()
	return newState("testtoken0000000", t.TempDir(), 0, true)
}

func addFile(t *testing.T, st *State, name string, size int64) *UploadedFile {
	t.Helper()

	f := &UploadedFile{
		ID:   FileID(name, size),
		Name: name,
		Size: size,
		Kind: mediatypes.KindVideo,
	}
	if err := st.AddFile(f); err != nil {
		t.Fatalf("AddFile(%s) error: %v", name, err)
	}
	return f
}

// seedCache stores a conversion for the file's current effective settings
// and returns its key.
func seedCache(t *testing.T, st *State, id string) convcache.Key {
	t.Helper()

	key := convcache.KeyFor(id, st.EffectiveSettings(id))
	_, _, err := st.Cache().GetOrCompute(key, func() (*convcache.Entry, error) {
		return &convcache.Entry{Bytes: []byte("gif-bytes")}, nil
	})
	if err != nil {
		t.Fatalf("Failed to seed cache for %s: %v", id, err)
	}
	return key
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func fullOverride() settings.Override {
	return settings.Override{
		FrameRate:   intPtr(20),
		Width:       intPtr(480),
		Dither:      strPtr(settings.DitherNone),
		Compression: strPtr(settings.CompressionAggressive),
	}
}

func TestAddFileLimit(t *testing.T) {
	st := newState("tok", t.TempDir(), 2, true)

	addFile(t, st, "a.mp4", 1)
	addFile(t, st, "b.mp4", 2)

	err := st.AddFile(&UploadedFile{ID: FileID("c.mp4", 3), Name: "c.mp4", Size: 3})
	if err != ErrTooManyFiles {
		t.Fatalf("Expected ErrTooManyFiles, got %v", err)
	}

	if st.FileCount() != 2 {
		t.Errorf("Expected 2 files, got %d", st.FileCount())
	}
}

func TestAddFileDuplicateReplaces(t *testing.T) {
	st := newState("tok", t.TempDir(), 2, true)

	f := addFile(t, st, "a.mp4", 100)
	st.UpdateOverride(f.ID, settings.Override{FrameRate: intPtr(5)})

	// Same name and size, so the same identity.
	dup := &UploadedFile{ID: FileID("a.mp4", 100), Name: "a.mp4", Size: 100, Kind: mediatypes.KindVideo}
	if err := st.AddFile(dup); err != nil {
		t.Fatalf("AddFile() error on re-upload: %v", err)
	}

	if st.FileCount() != 1 {
		t.Errorf("Expected re-upload to replace, got %d files", st.FileCount())
	}

	// The override survives the re-upload.
	eff := st.EffectiveSettings(f.ID)
	if eff.FrameRate != 5 {
		t.Errorf("Expected override to survive re-upload, got frame rate %d", eff.FrameRate)
	}
}

func TestFilesPreserveUploadOrder(t *testing.T) {
	st := testState(t)

	addFile(t, st, "c.mp4", 3)
	addFile(t, st, "a.mp4", 1)
	addFile(t, st, "b.mp4", 2)

	names := []string{}
	for _, f := range st.Files() {
		names = append(names, f.Name)
	}

	want := []string{"c.mp4", "a.mp4", "b.mp4"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, names)
		}
	}
}

func TestRemoveFileClearsDerivedState(t *testing.T) {
	st := testState(t)

	f := addFile(t, st, "a.mp4", 100)
	st.UpdateOverride(f.ID, settings.Override{FrameRate: intPtr(5)})
	key := seedCache(t, st, f.ID)

	if !st.RemoveFile(f.ID) {
		t.Fatal("Expected RemoveFile to report true")
	}

	if _, ok := st.File(f.ID); ok {
		t.Error("Expected file to be gone")
	}

	if _, ok := st.Cache().Get(key); ok {
		t.Error("Expected cached conversion to be purged")
	}

	// Re-adding the same identity starts from the global settings again.
	addFile(t, st, "a.mp4", 100)
	eff := st.EffectiveSettings(f.ID)
	if eff != st.GlobalSettings() {
		t.Errorf("Expected a fresh file to follow global settings, got %+v", eff)
	}
}

func TestRemoveFileDeletesUpload(t *testing.T) {
	st := testState(t)

	path := filepath.Join(st.Dir(), "a.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("Failed to write upload: %v", err)
	}

	f := &UploadedFile{ID: FileID("a.mp4", 4), Name: "a.mp4", Size: 4, Path: path}
	if err := st.AddFile(f); err != nil {
		t.Fatalf("AddFile() error: %v", err)
	}

	st.RemoveFile(f.ID)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected the uploaded file to be deleted from disk")
	}
}

func TestUpdateGlobalInvalidatesOnlyChanged(t *testing.T) {
	st := testState(t)

	pinned := addFile(t, st, "pinned.mp4", 1)
	tracking := addFile(t, st, "tracking.mp4", 2)

	// One file pins every field, the other follows the global record.
	st.UpdateOverride(pinned.ID, fullOverride())

	pinnedKey := seedCache(t, st, pinned.ID)
	trackingKey := seedCache(t, st, tracking.ID)

	g := st.GlobalSettings()
	g.FrameRate = 15
	st.UpdateGlobal(g)

	if _, ok := st.Cache().Get(pinnedKey); !ok {
		t.Error("Expected the fully pinned file to keep its cached conversion")
	}

	if _, ok := st.Cache().Get(trackingKey); ok {
		t.Error("Expected the tracking file's cached conversion to be purged")
	}
}

func TestUpdateGlobalNoChangeKeepsCache(t *testing.T) {
	st := testState(t)

	f := addFile(t, st, "a.mp4", 1)
	key := seedCache(t, st, f.ID)

	// Writing the identical global record changes nothing.
	st.UpdateGlobal(st.GlobalSettings())

	if _, ok := st.Cache().Get(key); !ok {
		t.Error("Expected cache to survive a no-op global update")
	}
}

func TestUpdateOverrideInvalidatesOnlyThatFile(t *testing.T) {
	st := testState(t)

	a := addFile(t, st, "a.mp4", 1)
	b := addFile(t, st, "b.mp4", 2)

	aKey := seedCache(t, st, a.ID)
	bKey := seedCache(t, st, b.ID)

	st.UpdateOverride(a.ID, settings.Override{Width: intPtr(480)})

	if _, ok := st.Cache().Get(aKey); ok {
		t.Error("Expected the overridden file's cache to be purged")
	}

	if _, ok := st.Cache().Get(bKey); !ok {
		t.Error("Expected the untouched file's cache to survive")
	}
}

func TestUpdateOverrideSameValueKeepsCache(t *testing.T) {
	st := testState(t)

	f := addFile(t, st, "a.mp4", 1)
	key := seedCache(t, st, f.ID)

	// Pinning a field to its current effective value records an override
	// but changes nothing observable.
	st.UpdateOverride(f.ID, settings.Override{FrameRate: intPtr(st.GlobalSettings().FrameRate)})

	if _, ok := st.Cache().Get(key); !ok {
		t.Error("Expected cache to survive an override that matches the global value")
	}

	if _, ok := st.OverrideFor(f.ID); !ok {
		t.Error("Expected the override record to exist")
	}
}

func TestResetOverride(t *testing.T) {
	st := testState(t)

	f := addFile(t, st, "a.mp4", 1)
	st.UpdateOverride(f.ID, settings.Override{FrameRate: intPtr(20)})
	key := seedCache(t, st, f.ID)

	if !st.ResetOverride(f.ID) {
		t.Fatal("Expected ResetOverride to report an existing record")
	}

	if _, ok := st.Cache().Get(key); ok {
		t.Error("Expected reset to purge the cached conversion")
	}

	if st.EffectiveSettings(f.ID) != st.GlobalSettings() {
		t.Error("Expected the file to follow global settings after reset")
	}

	if st.ResetOverride(f.ID) {
		t.Error("Expected a second reset to report no record")
	}
}

func TestBroadcastInvalidatesChangedTargets(t *testing.T) {
	st := testState(t)

	source := addFile(t, st, "source.mp4", 1)
	changed := addFile(t, st, "changed.mp4", 2)
	same := addFile(t, st, "same.mp4", 3)

	st.UpdateOverride(source.ID, settings.Override{FrameRate: intPtr(15)})
	// This file already resolves to the source's effective settings.
	st.UpdateOverride(same.ID, settings.Override{FrameRate: intPtr(15)})

	sourceKey := seedCache(t, st, source.ID)
	changedKey := seedCache(t, st, changed.ID)
	sameKey := seedCache(t, st, same.ID)

	st.BroadcastFrom(source.ID)

	if _, ok := st.Cache().Get(sourceKey); !ok {
		t.Error("Expected the source's cache to survive a broadcast")
	}

	if _, ok := st.Cache().Get(changedKey); ok {
		t.Error("Expected a changed target's cache to be purged")
	}

	if _, ok := st.Cache().Get(sameKey); !ok {
		t.Error("Expected an unchanged target's cache to survive")
	}

	// Every target now resolves to the source's settings at broadcast time.
	want := st.EffectiveSettings(source.ID)
	for _, id := range []string{changed.ID, same.ID} {
		if st.EffectiveSettings(id) != want {
			t.Errorf("Expected target %s to resolve to %+v, got %+v", id, want, st.EffectiveSettings(id))
		}
	}
}

func TestBroadcastPinsTargetsAgainstGlobalChanges(t *testing.T) {
	st := testState(t)

	source := addFile(t, st, "source.mp4", 1)
	target := addFile(t, st, "target.mp4", 2)

	st.UpdateOverride(source.ID, settings.Override{FrameRate: intPtr(15)})
	st.BroadcastFrom(source.ID)

	g := st.GlobalSettings()
	g.Width = 320
	st.UpdateGlobal(g)

	// The broadcast pinned every field, so the global change is invisible.
	eff := st.EffectiveSettings(target.ID)
	if eff.Width == 320 {
		t.Error("Expected broadcast targets to be pinned against later global changes")
	}
}

func TestExportRoundTrip(t *testing.T) {
	st := testState(t)

	if _, ok := st.LastExport(); ok {
		t.Error("Expected no export on a fresh session")
	}

	e := NewExport([]byte("zip-bytes"), []string{"abc"}, map[string]string{"def": "conversion failed"})
	if e.ID == "" {
		t.Error("Expected a non-empty export ID")
	}

	st.SetExport(e)

	got, ok := st.LastExport()
	if !ok {
		t.Fatal("Expected an export after SetExport")
	}
	if string(got.Archive) != "zip-bytes" {
		t.Errorf("Expected archive bytes to round-trip, got %q", got.Archive)
	}

	other := NewExport(nil, nil, nil)
	if other.ID == e.ID {
		t.Error("Expected distinct export IDs")
	}
}

func TestUploadBytes(t *testing.T) {
	st := testState(t)

	addFile(t, st, "a.mp4", 100)
	addFile(t, st, "b.gif", 250)

	if got := st.UploadBytes(); got != 350 {
		t.Errorf("Expected 350 upload bytes, got %d", got)
	}
}

func TestStateDirs(t *testing.T) {
	st := newState("tok", "/work/abc", 0, true)

	if st.UploadsDir() != filepath.Join("/work/abc", "uploads") {
		t.Errorf("Unexpected uploads dir: %s", st.UploadsDir())
	}
	if st.ScratchDir() != filepath.Join("/work/abc", "scratch") {
		t.Errorf("Unexpected scratch dir: %s", st.ScratchDir())
	}
	if st.ThumbsDir() != filepath.Join("/work/abc", "thumbs") {
		t.Errorf("Unexpected thumbs dir: %s", st.ThumbsDir())
	}
}

func TestCloseRemovesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create session dir: %v", err)
	}

	st := newState("tok", dir, 0, true)
	seedCache(t, st, "someid")

	st.Close()

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("Expected the session directory to be removed")
	}

	if st.Cache().Len() != 0 {
		t.Error("Expected the cache to be cleared")
	}
}
