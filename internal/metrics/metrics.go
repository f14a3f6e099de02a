// Package metrics exports dag run and block execution metrics to Prometheus.
// A Collector is a dag.Observer; attach it to every graph that should be
// measured.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vk/blockflow/internal/dag"
)

const namespace = "blockflow"

// Collector turns dag events into Prometheus series.
type Collector struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	blocks        *prometheus.CounterVec
	blockDuration *prometheus.HistogramVec
	stops         *prometheus.CounterVec
	activeRuns    prometheus.Gauge
}

var _ dag.Observer = (*Collector)(nil)

// New registers the collector's series with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dag",
			Name:      "runs_total",
			Help:      "Finished dag runs by dag key and run status.",
		}, []string{"dag", "status"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dag",
			Name:      "run_duration_seconds",
			Help:      "Wall time of dag runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"dag"}),
		blocks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "block",
			Name:      "executions_total",
			Help:      "Block executions by dag key, block identity and outcome.",
		}, []string{"dag", "block", "status"}),
		blockDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "block",
			Name:      "execution_duration_seconds",
			Help:      "Wall time of block executions.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"dag", "block"}),
		stops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dag",
			Name:      "stops_total",
			Help:      "Stop requests by dag key.",
		}, []string{"dag"}),
		activeRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dag",
			Name:      "active_runs",
			Help:      "Dag runs currently in progress.",
		}),
	}
}

// HandleEvent implements dag.Observer.
func (c *Collector) HandleEvent(e dag.Event) {
	switch e.Type {
	case dag.EventRunStarted:
		c.activeRuns.Inc()
	case dag.EventRunFinished:
		c.activeRuns.Dec()
		c.runs.WithLabelValues(e.Dag, e.RunStatus.String()).Inc()
		c.runDuration.WithLabelValues(e.Dag).Observe(e.Duration.Seconds())
	case dag.EventBlockFinished:
		c.blocks.WithLabelValues(e.Dag, e.Block, e.Status.String()).Inc()
		c.blockDuration.WithLabelValues(e.Dag, e.Block).Observe(e.Duration.Seconds())
	case dag.EventStopped:
		c.stops.WithLabelValues(e.Dag).Inc()
	}
}

// RunsCounter returns the run counter for one dag and status.
func (c *Collector) RunsCounter(dagKey, status string) prometheus.Counter {
	return c.runs.WithLabelValues(dagKey, status)
}

// BlocksCounter returns the execution counter for one block and status.
func (c *Collector) BlocksCounter(dagKey, blockID, status string) prometheus.Counter {
	return c.blocks.WithLabelValues(dagKey, blockID, status)
}

// ActiveRuns returns the in-progress run gauge.
func (c *Collector) ActiveRuns() prometheus.Gauge {
	return c.activeRuns
}
