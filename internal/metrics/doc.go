// Package metrics defines the Prometheus instrumentation for the gifforge
// service. Every metric carries the "gifforge_" prefix and registers itself
// with the default registry through promauto at package load.
//
// The inventory follows the request path. HTTP traffic is counted and timed
// by method, folded path, and status (HTTPRequestsTotal,
// HTTPRequestDuration, HTTPRequestsInFlight). Intake is tracked per media
// kind (UploadsTotal, UploadBytesTotal). The encoding pipeline reports
// outcomes, durations, and concurrency (ConversionsTotal,
// ConversionDuration, ConversionsInProgress, OptimizerRunsTotal), and
// result reuse shows up in the cache series (ConversionCacheHits, Misses,
// Entries, Bytes). Previews, bundles, and sessions have their own groups
// (ThumbnailGenerations*, Exports*, ActiveSessions, SessionFilesTotal,
// SessionUploadBytes, AuthAttemptsTotal). Runtime health comes from the
// GoMem*/GoGCRuns gauges, the backpressure series (MemoryUsageRatio,
// MemoryPaused, MemoryGCPauses), the filesystem retry counters, the
// per tool ToolAvailable gauge, and the AppInfo build-label gauge.
//
// Handlers record directly through the exported variables:
//
//	metrics.UploadsTotal.WithLabelValues("video", "accepted").Inc()
//	metrics.ConversionDuration.Observe(12.3)
//
// The converter and filesystem packages stay Prometheus-free by recording
// through small observer interfaces; main wires in the implementations
// from this package:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//	conv := converter.New(cfg)
//	conv.SetObserver(metrics.NewConversionObserver())
//
// Gauges that mirror external state (session counts, cache totals, runtime
// memory) are refreshed by a [Collector] polling a [StatsProvider] on an
// interval:
//
//	collector := metrics.NewCollector(statsProvider, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// The scrape endpoint is plain promhttp:
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// A few PromQL starters for dashboards:
//
//	# conversion failure rate
//	sum(rate(gifforge_conversions_total{outcome!="success"}[5m]))
//	  / sum(rate(gifforge_conversions_total[5m]))
//
//	# cache hit rate
//	rate(gifforge_conversion_cache_hits_total[5m])
//	  / (rate(gifforge_conversion_cache_hits_total[5m]) + rate(gifforge_conversion_cache_misses_total[5m]))
//
//	# p95 conversion time
//	histogram_quantile(0.95, sum(rate(gifforge_conversion_duration_seconds_bucket[5m])) by (le))
package metrics
