package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-featurepipe/pkg/pipeline/measure"
	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m       measure.Measure
	current *model.InvocationInfo
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.Start.ID())
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}

	err = pd.AddStep(model.End.ID())
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	pd.current = model.Start

	return nil
}

func (pd *pipelineDrawer) PrepareInvocation(parent, invocation *model.InvocationInfo) error {
	err := pd.AddStep(invocation.ID())
	if err != nil {
		return err
	}

	err = pd.AddLink(parent.ID(), invocation.ID())
	if err != nil {
		return err
	}

	pd.current = invocation

	return nil
}

func (pd *pipelineDrawer) OnInvocationDone(*model.InvocationInfo, model.Timings) error {
	return nil
}

func (pd *pipelineDrawer) AfterRun(totalDuration time.Duration, runErr error) error {
	if runErr != nil {
		return pd.MarkFailed(pd.current.ID(), runErr)
	}

	err := pd.AddLink(pd.current.ID(), model.End.ID())
	if err != nil {
		return err
	}

	return pd.SetTotalTime(model.End.ID(), totalDuration)
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the invocation chain of a run. When measure is not nil, it must be the
// measure of the same run, and its timings are added to the graph.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, m: measure}
}
