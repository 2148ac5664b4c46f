package media

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"

	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/workers"
)

var vipsState struct {
	sync.Mutex
	started   bool
	available bool
}

// InitVips initializes libvips. Called once at startup. Setting
// DISABLE_VIPS=true skips initialization entirely; thumbnail decoding
// then goes through the in-process and FFmpeg paths.
func InitVips() error {
	vipsState.Lock()
	defer vipsState.Unlock()

	if vipsState.started {
		return nil
	}
	if os.Getenv("DISABLE_VIPS") == "true" {
		logging.Info("libvips disabled via DISABLE_VIPS")
		return nil
	}

	// Logging must be configured before Startup().
	vips.LoggingSettings(forwardVipsLog, vipsVerbosity())

	// Conservative memory settings; encoder child processes need the
	// headroom more than the thumbnail cache does.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: workers.VipsConcurrency(),
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsState.started = true
	vipsState.available = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources. Safe to call without a prior
// successful InitVips.
func ShutdownVips() {
	vipsState.Lock()
	defer vipsState.Unlock()

	if !vipsState.started {
		return
	}
	vips.Shutdown()
	vipsState.started = false
	vipsState.available = false
	logging.Info("libvips shutdown complete")
}

// IsVipsAvailable reports whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsState.Lock()
	defer vipsState.Unlock()
	return vipsState.available
}

// vipsVerbosity picks the most verbose vips level worth forwarding for
// the current application log level.
func vipsVerbosity() vips.LogLevel {
	switch logging.GetLevel() {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

// forwardVipsLog relays a vips diagnostic through the application
// logger. govips applies the verbosity filter before calling this.
func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// LoadImageWithVips loads an image shrunk toward the target size during
// decode, which keeps huge animations from ballooning memory the way a
// full decode-then-resize would.
func LoadImageWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	logging.Debug("Loading %s with vips (target: %dx%d)", filepath.Base(path), targetWidth, targetHeight)

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        95,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("decode vips output: %w", err)
	}
	return img, nil
}
