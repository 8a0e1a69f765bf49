package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-featurepipe/pkg/pipeline/measure"
	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
)

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(msr, "")
	inv := &model.InvocationInfo{Name: "Haralick", Position: 2}

	require.NoError(t, opt.New())
	require.NoError(t, opt.PrepareInvocation(model.Start, inv))
	require.NoError(t, opt.OnInvocationDone(inv, model.Timings{
		Load:     2 * time.Millisecond,
		Compute:  5 * time.Millisecond,
		Merge:    time.Millisecond,
		Unload:   2 * time.Millisecond,
		Channels: 8,
	}))
	require.NoError(t, opt.AfterRun(20*time.Millisecond, nil))
	require.NoError(t, opt.Finish())

	mt := msr.GetMetric("#2 Haralick")
	require.NotNil(t, mt)
	assert.Equal(t, 8, mt.Channels())
	assert.Equal(t, 5*time.Millisecond, mt.Duration(model.StageCompute))
	assert.Equal(t, 10*time.Millisecond, mt.GetTotalDuration())

	families, err := msr.Gatherer().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}

	assert.ElementsMatch(t, []string{
		"featurepipe_invocation_stage_duration_seconds",
		"featurepipe_invocation_channels",
		"featurepipe_invocation_duration_seconds",
		"featurepipe_run_duration_seconds",
		"featurepipe_run_success",
	}, names)
}

func TestPipelineMeasureUnknownInvocation(t *testing.T) {
	t.Parallel()

	opt := measure.PipelineMeasure(measure.NewDefaultMeasure(), "")

	err := opt.OnInvocationDone(&model.InvocationInfo{Name: "A", Position: 1}, model.Timings{})
	require.Error(t, err)
}
