// Package media generates thumbnail previews for uploaded files.
//
// The Generator supports:
//   - Animated images (GIF, WebP): first-frame decode, preferring the
//     libvips fast path with in-process and FFmpeg fallbacks
//   - Videos: frame extraction using FFmpeg
//
// Thumbnails are encoded as small JPEGs and cached on disk inside the
// owning session's working directory.
package media
