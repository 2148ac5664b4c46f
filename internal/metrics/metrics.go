package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gifforge_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Upload metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_uploads_total",
			Help: "Total number of upload attempts by kind and status",
		},
		[]string{"kind", "status"},
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifforge_upload_bytes_total",
			Help: "Total bytes of accepted uploads",
		},
	)
)

// Conversion metrics
var (
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_conversions_total",
			Help: "Total number of GIF conversions by outcome",
		},
		[]string{"outcome"},
	)

	ConversionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gifforge_conversion_duration_seconds",
			Help:    "GIF conversion duration in seconds, both encoder passes included",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ConversionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_conversions_in_progress",
			Help: "Number of conversions currently running",
		},
	)

	OptimizerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_optimizer_runs_total",
			Help: "Total number of gifsicle optimizer runs by outcome",
		},
		[]string{"outcome"},
	)
)

// Conversion cache metrics
var (
	ConversionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifforge_conversion_cache_hits_total",
			Help: "Total number of conversion cache hits",
		},
	)

	ConversionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifforge_conversion_cache_misses_total",
			Help: "Total number of conversion cache misses",
		},
	)

	ConversionCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_conversion_cache_entries",
			Help: "Number of cached conversion results across all sessions",
		},
	)

	ConversionCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_conversion_cache_bytes",
			Help: "Total size of cached conversion results in bytes",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_thumbnail_generations_total",
			Help: "Total number of thumbnail generations by kind and status",
		},
		[]string{"kind", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gifforge_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
)

// Export metrics
var (
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_exports_total",
			Help: "Total number of ZIP exports by status",
		},
		[]string{"status"},
	)

	ExportFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_export_files_total",
			Help: "Total number of files handled during exports by result",
		},
		[]string{"result"},
	)

	ExportArchiveBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gifforge_export_archive_bytes",
			Help:    "Size of produced ZIP archives in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
		},
	)
)

// Session metrics
var (
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_active_sessions",
			Help: "Number of active user sessions",
		},
	)

	SessionFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_session_files",
			Help: "Number of uploaded files across all active sessions",
		},
	)

	SessionUploadBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_session_upload_bytes",
			Help: "Total size of stored uploads across all active sessions",
		},
	)

	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_auth_attempts_total",
			Help: "Total number of passphrase attempts",
		},
		[]string{"status"},
	)
)

// Memory metrics
var (
	GoMemLimit = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_go_memory_limit_bytes",
			Help: "Configured GOMEMLIMIT in bytes (-1 if unset)",
		},
	)

	GoMemAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_go_memory_alloc_bytes",
			Help: "Currently allocated heap memory in bytes",
		},
	)

	GoMemSysBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_go_memory_sys_bytes",
			Help: "Total memory obtained from the OS in bytes",
		},
	)

	GoGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifforge_go_gc_runs_total",
			Help: "Total number of completed GC cycles",
		},
	)

	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_memory_usage_ratio",
			Help: "Memory usage as a ratio of the configured limit (0.0-1.0)",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gifforge_memory_paused",
			Help: "Whether uploads are paused due to memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gifforge_memory_gc_pauses_total",
			Help: "Total number of times processing was paused for memory pressure",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that exhausted their retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifforge_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gifforge_filesystem_retry_duration_seconds",
			Help:    "Filesystem operation duration including retries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "volume"},
	)
)

// External tool metrics
var (
	ToolAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gifforge_tool_available",
			Help: "Whether an external tool was found on PATH (1 = available)",
		},
		[]string{"tool"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gifforge_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// SetToolAvailable records the startup probe result for an external tool.
func SetToolAvailable(tool string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	ToolAvailable.WithLabelValues(tool).Set(v)
}
