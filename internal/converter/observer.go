package converter

// Outcome labels passed to Observer methods.
const (
	OutcomeSuccess     = "success"
	OutcomeFailed      = "failed"
	OutcomeTimeout     = "timeout"
	OutcomeToolMissing = "tool_missing"

	OptimizerApplied = "applied"
	OptimizerSkipped = "skipped"
	OptimizerFailed  = "failed"
)

// Observer receives conversion lifecycle events. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveConversionStarted()
	ObserveConversionOutcome(outcome string, seconds float64)
	ObserveOptimizerOutcome(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveConversionStarted()                {}
func (nopObserver) ObserveConversionOutcome(string, float64) {}
func (nopObserver) ObserveOptimizerOutcome(string)           {}
