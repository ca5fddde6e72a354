package planning

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments planning cycles.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	GoalsPlanned    prometheus.Gauge
	SequencesKept   prometheus.Gauge
	Recommendations *prometheus.GaugeVec
}

// NewMetrics registers the planning metrics on reg. A nil registerer yields unregistered
// collectors, which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rebalancer_planning_cycles_total",
			Help: "Planning cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rebalancer_planning_cycle_duration_seconds",
			Help:    "Duration of a full planning cycle",
			Buckets: prometheus.DefBuckets,
		}),
		GoalsPlanned: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rebalancer_planning_goals",
			Help: "Number of merged goals in the latest plan",
		}),
		SequencesKept: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rebalancer_planning_sequences",
			Help: "Number of sequences surviving the filters in the latest cycle",
		}),
		Recommendations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rebalancer_planning_recommendations",
			Help: "Recommendations in the latest cycle by side",
		}, []string{"side"}),
	}
}
