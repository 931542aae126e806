// Package metrics exposes decision pipeline measurements to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric when no namespace is configured.
const DefaultNamespace = "decisiond"

// Collector records decision outcomes. It satisfies decisionengine.Metrics.
type Collector struct {
	// DecisionsTotal counts evaluated releases by outcome
	DecisionsTotal *prometheus.CounterVec
	// RejectionsTotal counts rejections by specification
	RejectionsTotal *prometheus.CounterVec
	// GrabsTotal counts grab attempts by result
	GrabsTotal *prometheus.CounterVec
	// BatchDuration tracks how long processing a batch took
	BatchDuration prometheus.Histogram
}

// NewCollector creates the collector and registers it with reg. A nil
// registerer leaves the metrics unregistered.
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total number of release decisions by outcome",
			},
			[]string{"outcome"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Total number of rejections by specification",
			},
			[]string{"specification"},
		),
		GrabsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grabs_total",
				Help:      "Total number of grab attempts",
			},
			[]string{"success"},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Duration of decision batch processing in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
	}

	if reg != nil {
		for _, m := range []prometheus.Collector{c.DecisionsTotal, c.RejectionsTotal, c.GrabsTotal, c.BatchDuration} {
			if err := reg.Register(m); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func (c *Collector) DecisionEvaluated(outcome string) {
	c.DecisionsTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) Rejected(specification string) {
	c.RejectionsTotal.WithLabelValues(specification).Inc()
}

func (c *Collector) GrabAttempted(success bool) {
	c.GrabsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (c *Collector) BatchProcessed(duration time.Duration) {
	c.BatchDuration.Observe(duration.Seconds())
}
