package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks solve outcomes on a private registry so that
// multiple engines in one process do not collide.
type Collector struct {
	registry      *prometheus.Registry
	solvesTotal   *prometheus.CounterVec
	solveDuration prometheus.Histogram
	nodesExplored prometheus.Histogram
	modelVars     prometheus.Gauge
	modelRows     prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakeplan_solves_total",
		Help: "Number of plan solves by terminal status.",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bakeplan_solve_duration_seconds",
		Help:    "Wall-clock duration of a full plan solve.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
	})
	nodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bakeplan_solve_nodes",
		Help:    "Branch-and-bound nodes explored per solve.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
	vars := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bakeplan_model_variables",
		Help: "Variable count of the most recent model.",
	})
	rows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bakeplan_model_constraints",
		Help: "Constraint count of the most recent model.",
	})
	registry.MustRegister(solves, duration, nodes, vars, rows)
	return &Collector{
		registry:      registry,
		solvesTotal:   solves,
		solveDuration: duration,
		nodesExplored: nodes,
		modelVars:     vars,
		modelRows:     rows,
	}
}

// RecordSolve records one finished solve attempt.
func (c *Collector) RecordSolve(status string, durationSeconds float64, nodes int) {
	if c == nil {
		return
	}
	c.solvesTotal.WithLabelValues(status).Inc()
	c.solveDuration.Observe(durationSeconds)
	c.nodesExplored.Observe(float64(nodes))
}

// RecordModelSize records the dimensions of the model just built.
func (c *Collector) RecordModelSize(variables, constraints int) {
	if c == nil {
		return
	}
	c.modelVars.Set(float64(variables))
	c.modelRows.Set(float64(constraints))
}

// Registerer exposes the registry for additional metrics.
func (c *Collector) Registerer() prometheus.Registerer {
	if c == nil {
		return prometheus.DefaultRegisterer
	}
	return c.registry
}

// Gatherer exposes the registry for scraping or assertions.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return prometheus.DefaultGatherer
	}
	return c.registry
}
