package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/filesystem"
	"github.com/kimberlykao/gifforge/internal/handlers"
	"github.com/kimberlykao/gifforge/internal/logging"
	"github.com/kimberlykao/gifforge/internal/media"
	"github.com/kimberlykao/gifforge/internal/memory"
	"github.com/kimberlykao/gifforge/internal/metrics"
	"github.com/kimberlykao/gifforge/internal/middleware"
	"github.com/kimberlykao/gifforge/internal/session"
	"github.com/kimberlykao/gifforge/internal/startup"
	"github.com/kimberlykao/gifforge/internal/workers"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Configure GOMEMLIMIT before any significant allocation
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Wire metrics before the components start reporting
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Memory monitor: rejects uploads and delays conversions under pressure
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// libvips is optional; thumbnails fall back to the pure-Go path
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	startup.LogThumbnailInit(media.IsVipsAvailable())

	// Initialize converter
	startup.LogConverterInit(config)
	conv := converter.New(converter.Config{
		FFmpegPath:   config.FFmpegPath,
		FFprobePath:  config.FFprobePath,
		GifsiclePath: config.GifsiclePath,
		ScratchDir:   config.ScratchDir,
		Timeout:      config.ConvertTimeout,
		Threads:      workers.EncoderThreads(),
	})
	conv.SetObserver(metrics.NewConversionObserver())

	// Initialize session manager
	manager, err := session.NewManager(session.ManagerConfig{
		WorkRoot:       config.WorkDir,
		TTL:            config.SessionTTL,
		MaxFiles:       config.MaxFilesPerSession,
		PassphraseHash: config.PassphraseHash,
	})
	if err != nil {
		startup.LogFatal("Failed to initialize session manager: %v", err)
	}
	manager.Start()
	startup.LogSessionInit(manager.TTL(), config.MaxFilesPerSession, manager.GateEnabled())

	// Thumbnail generator shares the configured ffmpeg for video posters
	thumbs := media.NewGenerator(config.FFmpegPath)

	// Initialize handlers
	h := handlers.New(manager, conv, thumbs, monitor, config.MaxUploadBytes)

	// Session and cache gauges are sampled periodically
	collector := metrics.NewCollector(&managerStatsAdapter{manager: manager}, time.Minute)
	collector.Start()

	// Setup router
	router := setupRouter(h, config.StaticDir)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply authentication middleware
	authedRouter := h.AuthMiddleware(router)

	// Apply metrics middleware
	metricsHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(authedRouter)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(metricsHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Create server. The read timeout stays off so large uploads on slow
	// links are not cut short; only the header read is bounded.
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	// Start graceful shutdown handler
	shutdownDone := make(chan struct{})
	go handleShutdown(srv, manager, conv, collector, monitor, shutdownDone)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown is called; wait for the
	// cleanup steps to finish before exiting.
	<-shutdownDone
}

// managerStatsAdapter bridges the session manager to the metrics collector
type managerStatsAdapter struct {
	manager *session.Manager
}

// GetStats implements metrics.StatsProvider
func (a *managerStatsAdapter) GetStats() metrics.Stats {
	s := a.manager.Snapshot()
	return metrics.Stats{
		ActiveSessions:    s.ActiveSessions,
		TotalFiles:        s.TotalFiles,
		CachedConversions: s.CachedConversions,
		CacheBytes:        s.CacheBytes,
		UploadBytes:       s.UploadBytes,
	}
}

func setupRouter(h *handlers.Handlers, staticDir string) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tools", h.GetTools).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	// Uploads
	api.HandleFunc("/uploads", h.UploadFiles).Methods("POST")
	api.HandleFunc("/uploads", h.ListUploads).Methods("GET")
	api.HandleFunc("/uploads/{id}", h.DeleteUpload).Methods("DELETE")
	api.HandleFunc("/uploads/{id}/thumbnail", h.GetThumbnail).Methods("GET")

	// Settings
	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
	api.HandleFunc("/settings/broadcast", h.BroadcastSettings).Methods("POST")
	api.HandleFunc("/uploads/{id}/settings", h.GetFileSettings).Methods("GET")
	api.HandleFunc("/uploads/{id}/settings", h.UpdateFileSettings).Methods("PUT")
	api.HandleFunc("/uploads/{id}/settings", h.DeleteFileSettings).Methods("DELETE")

	// Conversion
	api.HandleFunc("/uploads/{id}/convert", h.ConvertFile).Methods("POST")
	api.HandleFunc("/uploads/{id}/gif", h.DownloadGIF).Methods("GET")

	// Export
	api.HandleFunc("/export", h.ExportAll).Methods("POST")
	api.HandleFunc("/export/{id}", h.DownloadExport).Methods("GET")

	// Static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

func handleShutdown(srv *http.Server, manager *session.Manager, conv *converter.Converter, collector *metrics.Collector, monitor *memory.Monitor, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Drain HTTP first so in-flight requests finish before their session
	// directories disappear
	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Killing in-flight conversions")
	conv.Cleanup()
	startup.LogShutdownStepComplete("Converter cleanup complete")

	startup.LogShutdownStep("Purging sessions")
	manager.Stop()
	manager.PurgeAll()
	startup.LogShutdownStepComplete("Sessions purged")

	media.ShutdownVips()

	startup.LogShutdownComplete()
}
