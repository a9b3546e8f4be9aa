package treestats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	summaryCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treestats_summary_calls_total",
		Help: "Summary function invocations by evaluation mode",
	}, []string{"mode"})

	statDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "treestats_stat_duration_seconds",
		Help:    "Time to evaluate a general statistic",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1, 10},
	}, []string{"mode"})

	treeEdgeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "treestats_tree_edge_ops_total",
		Help: "Edge insertions plus removals applied by tree cursors, by sweep direction",
	}, []string{"direction"})

	ldComparisons = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treestats_ld_comparisons_total",
		Help: "Pairwise r2 values computed",
	})

	forwardEdgeOps = treeEdgeOps.WithLabelValues(Forward.String())
	reverseEdgeOps = treeEdgeOps.WithLabelValues(Reverse.String())
)

func recordEdgeOps(n int, d Direction) {
	if n <= 0 {
		return
	}
	if d == Reverse {
		reverseEdgeOps.Add(float64(n))
		return
	}
	forwardEdgeOps.Add(float64(n))
}

func recordStat(mode Mode, calls int, start time.Time) {
	summaryCalls.WithLabelValues(string(mode)).Add(float64(calls))
	statDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
}
