package media

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestInitVipsDisabled(t *testing.T) {
	t.Setenv("DISABLE_VIPS", "true")

	if err := InitVips(); err != nil {
		t.Fatalf("Expected disabled init to succeed, got: %v", err)
	}
	if IsVipsAvailable() {
		t.Error("Expected vips to be unavailable when disabled")
	}
}

func TestLoadImageWithVipsUnavailable(t *testing.T) {
	if IsVipsAvailable() {
		t.Skip("Skipping, libvips is initialized in this process")
	}

	path := filepath.Join(t.TempDir(), "input.png")
	writePNG(t, path, 32, 32)

	_, err := LoadImageWithVips(path, ThumbWidth, ThumbHeight)
	if err == nil {
		t.Fatal("Expected error when vips is unavailable, got nil")
	}
	if !strings.Contains(err.Error(), "not available") {
		t.Errorf("Expected availability error, got: %v", err)
	}
}

func TestShutdownVipsWithoutInit(t *testing.T) {
	// Must be a no-op before any successful initialization.
	ShutdownVips()
	ShutdownVips()

	if IsVipsAvailable() {
		t.Error("Expected vips to remain unavailable")
	}
}
