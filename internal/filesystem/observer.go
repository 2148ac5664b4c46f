package filesystem

// Observer records retry metrics for work-volume operations. The
// implementation lives in the metrics package; declaring the interface here
// breaks the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveRetryAttempt records one backoff-and-retry round.
	// op is the operation being retried: "stat", "open", "readfile".
	ObserveRetryAttempt(op, volume string)
	// ObserveRetrySuccess records an operation that succeeded after at
	// least one retry.
	ObserveRetrySuccess(op, volume string)
	// ObserveRetryFailure records an operation that exhausted its retries.
	ObserveRetryFailure(op, volume string)
	// ObserveRetryDuration records the total wall time of the operation,
	// retries included.
	ObserveRetryDuration(op, volume string, seconds float64)
	// ObserveStaleError records one ESTALE occurrence.
	ObserveStaleError(op, volume string)
}

// nopObserver keeps the call sites unconditional when no observer is wired,
// which is the normal state in tests.
type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveStaleError(string, string)             {}

var observer Observer = nopObserver{}

// SetObserver sets the package-level metrics observer. Call once at startup
// after the metrics registry exists.
func SetObserver(o Observer) {
	if o != nil {
		observer = o
	}
}
