package mediatypes

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Kind classifies an upload by how the conversion pipeline treats it.
type Kind string

const (
	// KindVideo represents a video container decoded frame-by-frame by the transcoder.
	KindVideo Kind = "video"
	// KindAnimation represents an already-animated image that gets re-encoded.
	KindAnimation Kind = "animation"
	// KindOther represents an unknown or unsupported file type.
	KindOther Kind = "other"
)

// Errors returned by Detect. Callers treat both as invalid input: the file is
// rejected before any conversion is attempted.
var (
	// ErrUnsupported indicates the file extension is not an accepted upload format.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrMismatch indicates the file content does not match its extension.
	ErrMismatch = errors.New("file content does not match extension")
)

// VideoExtensions maps file extensions to whether they are accepted video uploads.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
}

// AnimationExtensions maps file extensions to whether they are accepted
// animated-image uploads.
var AnimationExtensions = map[string]bool{
	".gif":  true,
	".webp": true,
}

// MimeTypes maps file extensions to their MIME types, covering both accepted
// uploads and the formats the server itself produces.
var MimeTypes = map[string]string{
	// Uploads
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
	".webm": "video/webm",
	".gif":  "image/gif",
	".webp": "image/webp",

	// Produced outputs
	".zip": "application/zip",
	".jpg": "image/jpeg",
}

// KindForExt returns the Kind for a given file extension.
// The extension should be lowercase and include the leading dot (e.g., ".mp4").
// Returns KindOther if the extension is not recognized.
func KindForExt(ext string) Kind {
	if VideoExtensions[ext] {
		return KindVideo
	}
	if AnimationExtensions[ext] {
		return KindAnimation
	}
	return KindOther
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Container names returned by Sniff.
const (
	ContainerISOBMFF = "iso-bmff" // mp4, mov, m4v
	ContainerEBML    = "ebml"     // webm, mkv
	ContainerGIF     = "gif"
	ContainerWebP    = "webp"
	ContainerUnknown = "unknown"
)

// isoAtoms are top-level atom names that can legally open an ISO-BMFF or
// QuickTime file. Old MOV files sometimes start with moov or mdat instead
// of ftyp.
var isoAtoms = map[string]bool{
	"ftyp": true,
	"moov": true,
	"mdat": true,
	"free": true,
	"skip": true,
	"wide": true,
	"pnot": true,
}

// Sniff identifies the container format from the first bytes of a file.
// 16 bytes are enough for every format it recognizes.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 8 && isoAtoms[string(header[4:8])]:
		return ContainerISOBMFF

	case len(header) >= 4 && header[0] == 0x1A && header[1] == 0x45 && header[2] == 0xDF && header[3] == 0xA3:
		return ContainerEBML

	case len(header) >= 6 && string(header[:4]) == "GIF8" && (header[4] == '7' || header[4] == '9') && header[5] == 'a':
		return ContainerGIF

	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WEBP":
		return ContainerWebP
	}
	return ContainerUnknown
}

// expectedContainer maps upload extensions to the container Sniff must report.
var expectedContainer = map[string]string{
	".mp4":  ContainerISOBMFF,
	".mov":  ContainerISOBMFF,
	".m4v":  ContainerISOBMFF,
	".webm": ContainerEBML,
	".gif":  ContainerGIF,
	".webp": ContainerWebP,
}

// Detect validates an upload by extension and magic bytes and returns its Kind.
// It returns ErrUnsupported for extensions outside the accepted set and
// ErrMismatch when the content sniff disagrees with the extension.
func Detect(name string, header []byte) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	kind := KindForExt(ext)
	if kind == KindOther {
		return KindOther, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if got := Sniff(header); got != expectedContainer[ext] {
		return KindOther, fmt.Errorf("%w: %s file contains %s data", ErrMismatch, ext, got)
	}
	return kind, nil
}
