// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/baditaflorin/go_table_similarity/internal/core/domain"
)

// Collectors groups the scoring metrics registered on one registry.
type Collectors struct {
	PairsTotal        *prometheus.CounterVec
	DegradedTotal     *prometheus.CounterVec
	Score             *prometheus.HistogramVec
	Duration          *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		PairsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teds_pairs_total",
				Help: "Total number of scored table pairs.",
			},
			[]string{"metric", "outcome"}, // outcome: success, error
		),
		DegradedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teds_degraded_total",
				Help: "Scores computed with the node count fallback.",
			},
			[]string{"metric"},
		),
		Score: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teds_score",
				Help:    "Distribution of similarity scores.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"metric"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teds_duration_seconds",
				Help:    "Time spent scoring one table pair.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"metric"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teds_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"path", "status"},
		),
	}
}

// Observe records one scored pair.
func (c *Collectors) Observe(r domain.Result, elapsed time.Duration) {
	metric := r.Name
	if metric == "" {
		metric = "unknown"
	}
	outcome := "success"
	if !r.Success {
		outcome = "error"
	}
	c.PairsTotal.WithLabelValues(metric, outcome).Inc()
	c.Duration.WithLabelValues(metric).Observe(elapsed.Seconds())
	if !r.Success {
		return
	}
	c.Score.WithLabelValues(metric).Observe(r.Score)
	if r.Degraded {
		c.DegradedTotal.WithLabelValues(metric).Inc()
	}
}
