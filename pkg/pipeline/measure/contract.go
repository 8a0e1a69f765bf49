package measure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Measure interface {
	AddMetric(id, name string, position int) Metric
	GetMetric(id string) Metric
	AllMetrics() map[string]Metric
	SetRun(totalDuration time.Duration, succeeded bool)
	Gatherer() prometheus.Gatherer
}

type Metric interface {
	AddDuration(stage string, elapsed time.Duration)
	Duration(stage string) time.Duration
	SetChannels(channels int)
	Channels() int
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
