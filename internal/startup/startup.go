package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kimberlykao/gifforge/internal/logging"

	"github.com/gorilla/mux"
)

// Set at build time via -ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo reports the binary's version metadata
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo describes one registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config carries everything main needs to wire the service
type Config struct {
	Port      string
	StaticDir string
	WorkDir   string

	FFmpegPath     string
	FFprobePath    string
	GifsiclePath   string
	ConvertTimeout time.Duration

	SessionTTL         time.Duration
	MaxFilesPerSession int
	MaxUploadMB        int
	PassphraseHash     string

	LogStaticFiles  bool
	LogHealthChecks bool

	// Derived values
	ScratchDir     string
	MaxUploadBytes int64
}

// LoadConfig reads and validates the environment, prepares the work
// directories, and prints the startup banner along the way
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	staticDir := getEnv("STATIC_DIR", "./static")
	workDir := getEnv("WORK_DIR", "/tmp/gifforge")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")
	gifsiclePath := getEnv("GIFSICLE_PATH", "gifsicle")
	convertTimeoutSec := getEnvInt("CONVERT_TIMEOUT_SECONDS", 300)
	sessionTTLMin := getEnvInt("SESSION_TTL_MINUTES", 60)
	maxUploadMB := getEnvInt("MAX_UPLOAD_MB", 200)
	maxFiles := getEnvInt("MAX_FILES_PER_SESSION", 32)
	passphraseHash := os.Getenv("ACCESS_PASSPHRASE_HASH")
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	logging.Info("  PORT:                     %s", port)
	logging.Info("  STATIC_DIR:               %s", staticDir)
	logging.Info("  WORK_DIR:                 %s", workDir)
	logging.Info("  FFMPEG_PATH:              %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:             %s", ffprobePath)
	logging.Info("  GIFSICLE_PATH:            %s", gifsiclePath)
	logging.Info("  CONVERT_TIMEOUT_SECONDS:  %d", convertTimeoutSec)
	logging.Info("  SESSION_TTL_MINUTES:      %d", sessionTTLMin)
	logging.Info("  MAX_UPLOAD_MB:            %d", maxUploadMB)
	logging.Info("  MAX_FILES_PER_SESSION:    %d", maxFiles)
	if passphraseHash != "" {
		logging.Info("  ACCESS_PASSPHRASE_HASH:   set (gate enabled)")
	} else {
		logging.Info("  ACCESS_PASSPHRASE_HASH:   not set (gate disabled)")
	}
	logging.Info("  LOG_STATIC_FILES:         %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:        %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:                %s", logging.GetLevel())

	if convertTimeoutSec <= 0 {
		logging.Warn("  Invalid CONVERT_TIMEOUT_SECONDS, using default: 300")
		convertTimeoutSec = 300
	}
	if sessionTTLMin <= 0 {
		logging.Warn("  Invalid SESSION_TTL_MINUTES, using default: 60")
		sessionTTLMin = 60
	}
	if maxUploadMB <= 0 {
		logging.Warn("  Invalid MAX_UPLOAD_MB, using default: 200")
		maxUploadMB = 200
	}
	if maxFiles < 0 {
		logging.Warn("  Invalid MAX_FILES_PER_SESSION, using default: 32")
		maxFiles = 32
	}

	// Absolute paths from here on
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory path: %w", err)
	}
	logging.Info("  Work directory (absolute): %s", workDir)

	staticDir, err = filepath.Abs(staticDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static directory path: %w", err)
	}
	logging.Info("  Static directory (absolute): %s", staticDir)

	// Check/create static directory (warning only, the API works without a UI)
	if err := ensureDirectory(staticDir, "static"); err != nil {
		logging.Warn("  Static directory issue: %v", err)
	}

	// Work directory is required for uploads and converted output
	if err := ensureDirectory(workDir, "work"); err != nil {
		return nil, fmt.Errorf("work directory error: %w", err)
	}

	logging.Debug("  Testing work directory write access...")
	if err := testWriteAccess(workDir); err != nil {
		return nil, fmt.Errorf("work directory is not writable (required for uploads): %w", err)
	}
	logging.Info("  [OK] Work directory is writable")

	// Session state lives only in memory, so entries found at boot are
	// leftovers from a previous run.
	cleanWorkDir(workDir)

	config := &Config{
		Port:               port,
		StaticDir:          staticDir,
		WorkDir:            workDir,
		FFmpegPath:         ffmpegPath,
		FFprobePath:        ffprobePath,
		GifsiclePath:       gifsiclePath,
		ConvertTimeout:     time.Duration(convertTimeoutSec) * time.Second,
		SessionTTL:         time.Duration(sessionTTLMin) * time.Minute,
		MaxFilesPerSession: maxFiles,
		MaxUploadMB:        maxUploadMB,
		PassphraseHash:     passphraseHash,
		LogStaticFiles:     logStaticFiles,
		LogHealthChecks:    logHealthChecks,
		ScratchDir:         filepath.Join(workDir, "scratch"),
		MaxUploadBytes:     int64(maxUploadMB) << 20,
	}

	// Setup converter scratch directory (optional, falls back to system temp)
	if !setupOptionalDir(config.ScratchDir, "scratch") {
		logging.Warn("    Converter will use the system temp directory instead")
		config.ScratchDir = ""
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Sessions:     ENABLED (required)")
	logging.Info("    Access gate:  %s", enabledString(config.PassphraseHash != ""))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogSessionInit logs session manager configuration
func LogSessionInit(ttl time.Duration, maxFiles int, gateEnabled bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SESSION MANAGER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Idle expiry:  %v (sliding)", ttl)
	if maxFiles > 0 {
		logging.Info("  File cap:     %d per session", maxFiles)
	} else {
		logging.Info("  File cap:     unlimited")
	}
	logging.Info("  Access gate:  %s", enabledString(gateEnabled))
}

// LogConverterInit logs converter setup and probes the external tools
func LogConverterInit(config *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CONVERTER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Per-process timeout: %v", config.ConvertTimeout)

	if err := checkTool(config.FFmpegPath, "-version"); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Conversions will fail until ffmpeg is installed")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}

	if err := checkTool(config.FFprobePath, "-version"); err != nil {
		logging.Warn("  FFprobe check failed: %v", err)
		logging.Warn("  Uploads will be accepted without probed metadata")
	} else {
		logging.Info("  [OK] FFprobe is available")
	}

	if err := checkTool(config.GifsiclePath, "--version"); err != nil {
		logging.Warn("  Gifsicle check failed: %v", err)
		logging.Warn("  The optimizer pass will be skipped")
	} else {
		logging.Info("  [OK] Gifsicle is available")
	}
}

// LogThumbnailInit logs which decode path thumbnails will use
func LogThumbnailInit(vipsEnabled bool) {
	if vipsEnabled {
		logging.Info("  [OK] libvips acceleration enabled for thumbnails")
	} else {
		logging.Info("  Thumbnails will use the pure-Go decode path")
	}
}

// GetRoutes walks the router and flattens each method into its own entry
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		// Static file handlers register without methods
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: tmpl, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes prints the HTTP setup section, listing every registered
// route at debug level
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		// Sort group keys
		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		// Print routes by group
		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup buckets a route path by its first segment, keeping one
// extra segment under /api so endpoint families group together
func getRouteGroup(path string) string {
	head, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if head == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return head
}

// ServerConfig feeds the SERVER STARTED block
type ServerConfig struct {
	Port            string
	StartupDuration time.Duration
}

// LogServerStarted prints the endpoint summary once the listener is up
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	logging.Info("")
	logging.Info("  Local access:")
	logging.Info("    Application:   http://localhost:%s", config.Port)
	logging.Info("    Metrics:       http://localhost:%s/metrics", config.Port)
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated opens the shutdown log section
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep traces a shutdown step as it begins
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete marks a shutdown step done
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete marks the end of an orderly shutdown
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs at fatal level and exits the process
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   ______         ____    ______
  / ____/  (_)   / __/   / ____/  ____    _____   ____   ___
 / / __    / /  / /_    / /_     / __ \  / ___/  / __ ' / _ \
/ /_/ /   / /  / __/   / __/    / /_/ / / /     / /_/ //  __/
\____/   /_/  /_/     /_/       \____/ /_/      \__, / \___/
                                               /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")

	if name == "static" && logging.IsDebugEnabled() {
		entries, err := os.ReadDir(path)
		if err == nil {
			fileCount := 0
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				} else {
					fileCount++
				}
			}
			logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
		}
	}

	return nil
}

// cleanWorkDir removes leftover session directories from a previous run.
// Only entries shaped like the ones this process creates are removed.
func cleanWorkDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Warn("  Could not scan work directory for stale entries: %v", err)
		return
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !staleWorkEntry(e.Name()) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			logging.Warn("  Failed to remove stale entry %s: %v", e.Name(), err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logging.Info("  Removed %d stale entries from a previous run", removed)
	}
}

// staleWorkEntry reports whether a work directory entry was created by a
// previous run: either the shared scratch directory or a session
// directory, named by the first 16 hex characters of its token.
func staleWorkEntry(name string) bool {
	if name == "scratch" {
		return true
	}
	if len(name) != 16 {
		return false
	}
	for _, c := range name {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("failed to remove write probe %s: %v", probe, err)
	}
	return nil
}

func checkTool(bin, versionFlag string) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", bin)
	}
	logging.Debug("  %s path: %s", bin, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, versionFlag)
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", bin, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  %s version: %s", bin, strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
