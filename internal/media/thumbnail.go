package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/kimberlykao/gifforge/internal/filesystem"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/mediatypes"
)

// Thumbnail geometry and encoding.
const (
	ThumbWidth    = 200
	ThumbHeight   = 200
	thumbQuality  = 80
	frameSeekSpot = "00:00:01"
)

// Generator produces small JPEG previews for uploaded files. Thumbnails
// are cached on disk at the path the caller provides, which lives inside
// the owning session's working directory and disappears with it.
type Generator struct {
	ffmpeg string
	mu     sync.Mutex
}

// NewGenerator creates a Generator. ffmpegPath may be empty; video
// thumbnails then fail and animated images lose their last-resort
// decoder, but the in-process paths keep working.
func NewGenerator(ffmpegPath string) *Generator {
	return &Generator{ffmpeg: ffmpegPath}
}

// Thumbnail returns the JPEG preview for a file, generating and caching
// it on first use. Concurrent requests generate at most once per cache
// path.
func (g *Generator) Thumbnail(path string, kind mediatypes.Kind, cachePath string) ([]byte, error) {
	if _, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("Thumbnail cache hit: %s", cachePath)
		return data, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		return data, nil
	}

	logging.Debug("Thumbnail generating: %s (kind: %s)", path, kind)

	var img image.Image
	var err error

	switch kind {
	case mediatypes.KindAnimation:
		img, err = g.animationFrame(path)
	case mediatypes.KindVideo:
		img, err = g.videoFrame(path)
	default:
		return nil, fmt.Errorf("unsupported kind: %s", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}

	thumb := imaging.Fit(img, ThumbWidth, ThumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	} else {
		logging.Debug("Thumbnail cached: %s", cachePath)
	}

	return buf.Bytes(), nil
}

// animationFrame decodes the first frame of a GIF or WebP, preferring
// the libvips fast path, then the in-process decoders, then FFmpeg.
func (g *Generator) animationFrame(path string) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := LoadImageWithVips(path, ThumbWidth, ThumbHeight)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back", path, err)
	}

	img, err := loadConstrained(path, MaxImageDimension, MaxImagePixels)
	if err == nil {
		return img, nil
	}
	logging.Debug("In-process decode failed for %s: %v, trying ffmpeg", path, err)

	return g.grabFrame(path, false)
}

// videoFrame extracts a frame one second in, retrying from the start for
// clips shorter than that.
func (g *Generator) videoFrame(path string) (image.Image, error) {
	img, err := g.grabFrame(path, true)
	if err != nil {
		logging.Debug("Frame grab at offset failed for %s: %v, retrying at start", path, err)
		return g.grabFrame(path, false)
	}
	return img, nil
}

// grabFrame shells out to FFmpeg for one PNG-encoded frame on stdout.
func (g *Generator) grabFrame(path string, seek bool) (image.Image, error) {
	if g.ffmpeg == "" {
		return nil, fmt.Errorf("ffmpeg is not installed")
	}

	args := []string{"-i", path}
	if seek {
		args = append(args, "-ss", frameSeekSpot)
	}
	args = append(args,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.Command(g.ffmpeg, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab failed: %v, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode ffmpeg frame: %w", err)
	}
	return img, nil
}
