package media

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/kimberlykao/gifforge/internal/filesystem"
	"github.com/kimberlykao/gifforge/internal/logging"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest width or height decoded in
	// process. Bigger inputs are downscaled while loading.
	MaxImageDimension = 4096

	// MaxImagePixels caps total pixels, roughly 80MB of RGBA.
	MaxImagePixels = 20_000_000
)

// loadConstrained decodes an image, downscaling anything that exceeds
// the size limits so a huge upload cannot balloon memory.
func loadConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dims, err := probeDimensions(path)
	if err != nil {
		logging.Debug("Could not probe dimensions for %s: %v", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := dims.Width, dims.Height
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	targetWidth, targetHeight := width, height
	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}
	if targetWidth*targetHeight > maxPixels {
		scale := float64(maxPixels) / float64(targetWidth*targetHeight)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}

type dimensions struct {
	Width  int
	Height int
}

// probeDimensions reads image dimensions without decoding pixel data.
func probeDimensions(path string) (*dimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	return &dimensions{Width: config.Width, Height: config.Height}, nil
}
