// Package metrics exports Prometheus collectors for compilations and VM
// executions.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/funvibe/hog/internal/cache"
	"github.com/funvibe/hog/internal/vm"
)

const namespace = "hog"

// Metrics groups the collectors of one process. Register them with
// MustRegister before use.
type Metrics struct {
	compilations *prometheus.CounterVec
	executions   *prometheus.CounterVec
	duration     prometheus.Histogram
	ops          prometheus.Counter
	collectors   []prometheus.Collector
}

func New() *Metrics {
	m := &Metrics{
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compilations_total",
				Help:      "Programs compiled, by backend and status",
			},
			[]string{"backend", "status"},
		),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "VM executions, by status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "execution_duration_seconds",
				Help:      "Wall time of VM executions",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
		ops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ops_total",
				Help:      "Instructions executed by the VM",
			},
		),
	}
	m.collectors = []prometheus.Collector{m.compilations, m.executions, m.duration, m.ops}
	return m
}

func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.collectors...)
}

// WatchCache registers gauges reading the cache counters on every scrape.
func (m *Metrics) WatchCache(reg prometheus.Registerer, c *cache.Cache) {
	gauge := func(name, help string, read func(cache.Stats) int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "cache", Name: name, Help: help},
			func() float64 { return float64(read(c.Stats())) },
		)
	}
	reg.MustRegister(
		gauge("entries", "Compiled programs held", func(s cache.Stats) int64 { return s.Entries }),
		gauge("hits", "Cache lookups that found a program", func(s cache.Stats) int64 { return s.Hits }),
		gauge("misses", "Cache lookups that compiled", func(s cache.Stats) int64 { return s.Misses }),
	)
}

func (m *Metrics) ObserveCompilation(backend string, err error) {
	m.compilations.WithLabelValues(backend, status(err)).Inc()
}

// ObserveExecution records one VM run. res may be nil when err is set.
func (m *Metrics) ObserveExecution(res *vm.Result, took time.Duration, err error) {
	m.executions.WithLabelValues(status(err)).Inc()
	m.duration.Observe(took.Seconds())
	if res != nil {
		m.ops.Add(float64(res.Ops))
	}
}

// status labels an outcome with the vm error kind, e.g. "stack_overflow".
func status(err error) string {
	if err == nil {
		return "ok"
	}
	kind := vm.KindOf(err)
	if kind == 0 {
		return "error"
	}
	return strings.ReplaceAll(kind.String(), " ", "_")
}
