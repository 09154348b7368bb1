// Package metrics exposes Prometheus collectors for the optimizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OracleCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptsmith_oracle_calls_total",
		Help: "Total oracle invocations",
	}, []string{"oracle", "status"})

	OracleCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptsmith_oracle_call_duration_seconds",
		Help:    "Oracle call duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"oracle"})

	GenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptsmith_generations_total",
		Help: "Total search generations completed",
	})

	VariantsEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptsmith_variants_evaluated_total",
		Help: "Total variant candidates evaluated",
	})

	BestScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "promptsmith_best_score",
		Help: "Current incumbent score (0-100)",
	})

	CasesDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptsmith_cases_degraded_total",
		Help: "Cases scored as zero because an oracle call failed",
	}, []string{"reason"})
)
