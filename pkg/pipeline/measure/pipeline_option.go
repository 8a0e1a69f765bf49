package measure

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
	textfile string
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) PrepareInvocation(_, invocation *model.InvocationInfo) error {
	pm.AddMetric(invocation.ID(), invocation.Name, invocation.Position)

	return nil
}

func (pm *pipelineMeasure) OnInvocationDone(invocation *model.InvocationInfo, timings model.Timings) error {
	mt := pm.GetMetric(invocation.ID())
	if mt == nil {
		return errors.Errorf("no metric for %s", invocation.ID())
	}

	var total time.Duration

	for stage, elapsed := range timings.Stages() {
		mt.AddDuration(stage, elapsed)
		total += elapsed
	}

	mt.SetChannels(timings.Channels)
	mt.SetTotalDuration(total)

	return nil
}

func (pm *pipelineMeasure) AfterRun(totalDuration time.Duration, runErr error) error {
	pm.SetRun(totalDuration, runErr == nil)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	if pm.textfile == "" {
		return nil
	}

	err := prometheus.WriteToTextfile(pm.textfile, pm.Gatherer())
	if err != nil {
		return errors.Wrapf(err, "unable to write metrics to %s", pm.textfile)
	}

	return nil
}

// PipelineMeasure records the timings of every invocation in measure. When textfile is not
// empty, the metrics are written there in the Prometheus text format once the run is finished.
func PipelineMeasure(measure Measure, textfile string) model.PipelineOption {
	return &pipelineMeasure{Measure: measure, textfile: textfile}
}
