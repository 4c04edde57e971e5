package rerank

import (
	"github.com/prometheus/client_golang/prometheus"
)

var rerankOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rerank_outcomes_total",
		Help: "Per-category rerank attempts by outcome (ok, cached, error, timeout, skipped).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(rerankOutcomes)
}
