package decisionengine

import "time"

// Metrics receives pipeline measurements.
type Metrics interface {
	DecisionEvaluated(outcome string)
	Rejected(specification string)
	GrabAttempted(success bool)
	BatchProcessed(duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) DecisionEvaluated(string)     {}
func (nopMetrics) Rejected(string)              {}
func (nopMetrics) GrabAttempted(bool)           {}
func (nopMetrics) BatchProcessed(time.Duration) {}
