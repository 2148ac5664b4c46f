package handlers

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kimberlykao/gifforge/internal/logging"
)

// MetricsHandler serves the Prometheus scrape endpoint. Gather errors
// surface in the application log instead of being silently dropped.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog: promLogger{},
		}),
	)
}

// promLogger adapts the logging package to promhttp's error logger.
type promLogger struct{}

func (promLogger) Println(v ...interface{}) {
	logging.Error("metrics handler: %s", fmt.Sprint(v...))
}
