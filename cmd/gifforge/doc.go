// Package main provides the entry point for the GifForge server.
//
// GifForge is a self-hosted web service that turns uploaded videos and
// animations into size-constrained animated GIFs. Files live in a browser
// session, get converted through a two-pass ffmpeg palette pipeline with an
// optional gifsicle optimization pass, and can be fetched one at a time or
// as a ZIP bundle. Nothing survives the session.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  2. Configuration Loading: Reads environment variables and validates the work directory
//  3. Component Initialization:
//     - Memory Monitor: Tracks system memory usage
//     - libvips: Fast thumbnail decoding (optional, pure-Go fallback)
//     - Converter: ffmpeg/ffprobe/gifsicle process supervision
//     - Session Manager: Per-browser state with sliding expiry
//     - Metrics Collector: Gathers Prometheus metrics
//  4. HTTP Server Setup: Configures routes, middleware, and starts server
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # Background Services
//
// Several goroutines run throughout the application lifecycle:
//
//   - Session Janitor: Sweeps expired sessions and their working directories
//   - Metrics Collector: Updates session and cache gauges every minute
//   - Memory Monitor: Samples memory pressure and pauses heavy work
//
// # HTTP Server
//
// A single HTTP server (default port 8080) serves:
//
//   - Static frontend files
//   - API endpoints for uploads, settings, conversion, and export
//   - Session cookie issuance and the optional passphrase gate
//   - Prometheus metrics (/metrics) and health probes (/health, /livez, /readyz)
//
// # Environment Variables
//
// Configuration is entirely through environment variables:
//
//   - PORT: HTTP server port (default: 8080)
//   - STATIC_DIR: Frontend directory served at / (default: ./static)
//   - WORK_DIR: Root for per-session working directories (default: /tmp/gifforge)
//   - FFMPEG_PATH, FFPROBE_PATH, GIFSICLE_PATH: Tool locations (default: PATH lookup)
//   - CONVERT_TIMEOUT_SECONDS: Per-process conversion timeout (default: 300)
//   - SESSION_TTL_MINUTES: Sliding session expiry (default: 60)
//   - MAX_UPLOAD_MB: Upload request size limit (default: 200)
//   - MAX_FILES_PER_SESSION: File cap per session (default: 32)
//   - ACCESS_PASSPHRASE_HASH: bcrypt hash enabling the access gate
//   - DISABLE_VIPS: Skip libvips and use the pure-Go thumbnail path
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - GOMEMLIMIT / MEMORY_LIMIT: Memory limit configuration
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Shutdown HTTP server (30s timeout, in-flight conversions finish)
//  2. Stop metrics collector
//  3. Stop memory monitor
//  4. Kill conversion processes that outlived the drain
//  5. Purge all sessions and their working directories
//  6. Shut down libvips
//
// # External Tools
//
// Conversion delegates to external processes and degrades predictably
// without them:
//
//   - ffmpeg: Required for conversion (two-pass palette encode)
//   - ffprobe: Optional, enriches uploads with duration and dimensions
//   - gifsicle: Optional, shrinks finished GIFs further
//   - libvips: Optional, accelerates thumbnail decoding
//
// # Related Packages
//
//   - [github.com/kimberlykao/gifforge/internal/converter]: ffmpeg pipeline and error taxonomy
//   - [github.com/kimberlykao/gifforge/internal/session]: Session state, uploads, and expiry
//   - [github.com/kimberlykao/gifforge/internal/convcache]: Per-settings conversion cache
//   - [github.com/kimberlykao/gifforge/internal/handlers]: HTTP request handlers
//   - [github.com/kimberlykao/gifforge/internal/media]: Thumbnail generation and libvips integration
//   - [github.com/kimberlykao/gifforge/internal/middleware]: HTTP middleware (logging, metrics, compression)
//   - [github.com/kimberlykao/gifforge/internal/startup]: Configuration and initialization
package main
