package metrics

import (
	"github.com/kimberlykao/gifforge/internal/converter"
	"github.com/kimberlykao/gifforge/internal/filesystem"
)

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem retry
// metrics into the Prometheus counters and histograms declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(op, volume string) {
	FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(op, volume string) {
	FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(op, volume string) {
	FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryDuration(op, volume string, seconds float64) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(seconds)
}

func (o *filesystemObserver) ObserveStaleError(op, volume string) {
	FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
}

// conversionObserver implements converter.Observer on the conversion
// counters and histograms declared in metrics.go.
type conversionObserver struct{}

// NewConversionObserver creates an observer that records conversion
// lifecycle events as Prometheus metrics.
func NewConversionObserver() converter.Observer {
	return &conversionObserver{}
}

func (o *conversionObserver) ObserveConversionStarted() {
	ConversionsInProgress.Inc()
}

func (o *conversionObserver) ObserveConversionOutcome(outcome string, seconds float64) {
	ConversionsInProgress.Dec()
	ConversionsTotal.WithLabelValues(outcome).Inc()
	ConversionDuration.Observe(seconds)
}

func (o *conversionObserver) ObserveOptimizerOutcome(outcome string) {
	OptimizerRunsTotal.WithLabelValues(outcome).Inc()
}
