// Package converter runs the external GIF encoding pipeline.
//
// It supports:
//   - Two-pass palette encoding with FFmpeg (palettegen + paletteuse)
//   - Optional lossy optimization with gifsicle
//   - Media metadata extraction via ffprobe
//   - Per-process timeouts and shutdown cleanup of child processes
//
// FFmpeg is required for conversion. ffprobe and gifsicle are optional:
// probing degrades to "no metadata" and optimization is skipped when the
// tool is not installed.
package converter
