// Package startup loads configuration, prepares the working directories,
// and prints the lifecycle log lines that bracket a server run.
//
// Everything the process needs to know arrives through environment
// variables, read once by [LoadConfig]:
//
//   - PORT: HTTP server port (default: 8080)
//   - STATIC_DIR: Path to the directory served at / (default: ./static)
//   - WORK_DIR: Root for per-session working directories (default: /tmp/gifforge)
//   - FFMPEG_PATH: ffmpeg binary name or path (default: ffmpeg)
//   - FFPROBE_PATH: ffprobe binary name or path (default: ffprobe)
//   - GIFSICLE_PATH: gifsicle binary name or path (default: gifsicle)
//   - CONVERT_TIMEOUT_SECONDS: Per-process timeout for conversion tools (default: 300)
//   - SESSION_TTL_MINUTES: Sliding idle expiry for sessions (default: 60)
//   - MAX_UPLOAD_MB: Upload request size limit in megabytes (default: 200)
//   - MAX_FILES_PER_SESSION: File cap per session, 0 for unlimited (default: 32)
//   - ACCESS_PASSPHRASE_HASH: bcrypt hash enabling the access gate (default: unset)
//   - LOG_LEVEL: debug, info, warn, or error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT: Container memory limit for automatic GOMEMLIMIT configuration
//   - MEMORY_RATIO: Fraction of MEMORY_LIMIT given to the Go heap (default: 0.75)
//   - GOMEMLIMIT: Direct override for Go's memory limit
//
// [LoadConfig] also makes sure the filesystem is usable before the server
// accepts traffic. The work directory is created if absent and must be
// writable; leftovers from a previous run (session directories and the
// shared scratch area) are swept out so a crashed process cannot leak disk.
// A missing static directory only earns a warning, since the API is usable
// without the bundled frontend.
//
// Version, Commit, and BuildTime are stamped in via ldflags and reported by
// [GetBuildInfo] next to the running Go version.
//
// The Log* helpers exist so main stays readable: [LogConverterInit] and
// [LogThumbnailInit] report which external tools and decode paths were
// found, [LogSessionInit] records the session policy, [LogHTTPRoutes]
// dumps the route table at debug level, and [LogServerStarted],
// [LogShutdownInitiated], and [LogShutdownComplete] mark the run
// boundaries. A typical main:
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogConverterInit(config)
//	startup.LogSessionInit(config.SessionTTL, config.MaxFilesPerSession, config.PassphraseHash != "")
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    StartupDuration: time.Since(startTime),
//	})
//	// on SIGTERM
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownComplete()
package startup
