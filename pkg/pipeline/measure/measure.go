package measure

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "featurepipe"

// DefaultMeasure keeps the metrics of a run in memory and mirrors them in its own
// Prometheus registry.
type DefaultMeasure struct {
	registry  *prometheus.Registry
	durations *prometheus.GaugeVec
	channels  *prometheus.GaugeVec
	totals    *prometheus.GaugeVec
	runTime   prometheus.Gauge
	runOK     prometheus.Gauge
	Steps     map[string]Metric
	mu        sync.Mutex
}

func NewDefaultMeasure() *DefaultMeasure {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &DefaultMeasure{
		registry: registry,
		durations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invocation_stage_duration_seconds",
			Help:      "Duration of each stage of a computer invocation.",
		}, []string{"position", "computer", "stage"}),
		channels: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invocation_channels",
			Help:      "Number of channels produced by a computer invocation.",
		}, []string{"position", "computer"}),
		totals: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Total duration of a computer invocation, from load to unload.",
		}, []string{"position", "computer"}),
		runTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the whole run.",
		}),
		runOK: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if every invocation succeeded, 0 otherwise.",
		}),
		Steps: make(map[string]Metric),
	}
}

func (m *DefaultMeasure) AddMetric(id, name string, position int) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	labels := prometheus.Labels{"position": strconv.Itoa(position), "computer": name}
	mt := &DefaultMetric{
		mu:        &sync.Mutex{},
		durations: make(map[string]time.Duration),
		stageVec:  m.durations.MustCurryWith(labels),
		channels:  m.channels.With(labels),
		total:     m.totals.With(labels),
	}
	m.Steps[id] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(id string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.Steps[id]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make(map[string]Metric, len(m.Steps))
	for id, mt := range m.Steps {
		all[id] = mt
	}

	return all
}

func (m *DefaultMeasure) SetRun(totalDuration time.Duration, succeeded bool) {
	m.runTime.Set(totalDuration.Seconds())

	if succeeded {
		m.runOK.Set(1)
	} else {
		m.runOK.Set(0)
	}
}

func (m *DefaultMeasure) Gatherer() prometheus.Gatherer {
	return m.registry
}

var _ Measure = (*DefaultMeasure)(nil)
