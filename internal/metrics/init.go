package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Upload outcomes (per kind × status) ---
	for _, kind := range []string{"video", "animation", "other"} {
		UploadsTotal.WithLabelValues(kind, "accepted")
		UploadsTotal.WithLabelValues(kind, "rejected")
	}

	// --- Conversion outcomes ---
	for _, outcome := range []string{"success", "failed", "timeout", "tool_missing"} {
		ConversionsTotal.WithLabelValues(outcome)
	}

	// --- Optimizer outcomes ---
	for _, outcome := range []string{"applied", "skipped", "failed"} {
		OptimizerRunsTotal.WithLabelValues(outcome)
	}

	// --- Thumbnail generation (per kind × status) ---
	for _, kind := range []string{"video", "animation"} {
		ThumbnailGenerationsTotal.WithLabelValues(kind, "success")
		ThumbnailGenerationsTotal.WithLabelValues(kind, "error")
		ThumbnailGenerationDuration.WithLabelValues(kind)
	}

	// --- Export outcomes ---
	for _, status := range []string{"complete", "partial", "empty"} {
		ExportsTotal.WithLabelValues(status)
	}
	for _, result := range []string{"included", "failed"} {
		ExportFilesTotal.WithLabelValues(result)
	}

	// --- Authentication outcomes ---
	AuthAttemptsTotal.WithLabelValues("success")
	AuthAttemptsTotal.WithLabelValues("failure")

	// --- Filesystem retry metrics (per retry-operation × volume) ---
	volumes := []string{"uploads", "scratch", "thumbs", "work"}
	retryOps := []string{"stat", "open", "readfile"}

	for _, op := range retryOps {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	// --- External tools ---
	for _, tool := range []string{"ffmpeg", "ffprobe", "gifsicle"} {
		ToolAvailable.WithLabelValues(tool)
	}
}
