package measure

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type DefaultMetric struct {
	durations   map[string]time.Duration
	mu          *sync.Mutex
	stageVec    *prometheus.GaugeVec
	channels    prometheus.Gauge
	total       prometheus.Gauge
	EndDuration time.Duration
	nChannels   int
}

func (mt *DefaultMetric) AddDuration(stage string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.durations[stage] += elapsed
	mt.stageVec.WithLabelValues(stage).Set(mt.durations[stage].Seconds())
}

func (mt *DefaultMetric) Duration(stage string) time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return round(mt.durations[stage])
}

func (mt *DefaultMetric) SetChannels(channels int) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.nChannels = channels
	mt.channels.Set(float64(channels))
}

func (mt *DefaultMetric) Channels() int {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.nChannels
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.EndDuration = endDuration
	mt.total.Set(endDuration.Seconds())
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return round(mt.EndDuration)
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Millisecond)
	case d > time.Millisecond:
		d = d.Round(time.Microsecond)
	}

	return d
}
