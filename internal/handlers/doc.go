// Package handlers provides HTTP request handlers for the GIF conversion API.
//
// It includes handlers for:
//   - Multipart upload intake and the session file list
//   - Global and per-file conversion settings
//   - GIF conversion and cached-output downloads
//   - Batch export into a ZIP archive
//   - Passphrase authentication and session gating
//   - Health checks, build info, and application stats
package handlers
