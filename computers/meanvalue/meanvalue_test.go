package meanvalue_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-featurepipe/computers/meanvalue"
	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

// line builds a 1-D raster along x with the given grey levels.
func line(t *testing.T, values ...float32) *raster.Raster {
	t.Helper()

	r, err := raster.New(raster.Size{X: len(values), Y: 1, Z: 1}, 1)
	require.NoError(t, err)

	for x, v := range values {
		r.Set(x, 0, 0, 0, v)
	}

	return r
}

func column(r *raster.Raster) []float32 {
	res := make([]float32, 0, r.Size().X)
	for x := range r.Size().X {
		res = append(res, r.At(x, 0, 0, 0))
	}

	return res
}

func TestCompute(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args     []string
		input    []float32
		expected []float32
	}{
		"radius 0 is identity": {
			args:     []string{"-r", "0"},
			input:    []float32{0, 3, 6, 9},
			expected: []float32{0, 3, 6, 9},
		},
		"radius 1 replicates borders": {
			args:     []string{"--radius", "1"},
			input:    []float32{0, 3, 6, 9},
			expected: []float32{1, 3, 6, 8},
		},
		"default radius": {
			args:     nil,
			input:    []float32{5, 5, 5, 5, 5},
			expected: []float32{5, 5, 5, 5, 5},
		},
		"normalized": {
			args:     []string{"-r", "0", "-n"},
			input:    []float32{0, 51, 255},
			expected: []float32{0, 0.2, 1},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := meanvalue.New().Compute(context.Background(), zerolog.Nop(), line(t, tc.input...), tc.args)
			require.NoError(t, err)
			assert.Equal(t, 1, out.Channels())
			assert.InDeltaSlice(t, tc.expected, column(out), 1e-5)
		})
	}
}

func TestComputeVolume(t *testing.T) {
	t.Parallel()

	input, err := raster.New(raster.Size{X: 3, Y: 3, Z: 3}, 2)
	require.NoError(t, err)
	input.Set(1, 1, 1, 0, 27)
	input.Set(1, 1, 1, 1, 1000)

	out, err := meanvalue.New().Compute(context.Background(), zerolog.Nop(), input, []string{"-r", "1"})
	require.NoError(t, err)
	assert.InDelta(t, 1, out.At(1, 1, 1, 0), 1e-5)
	assert.InDelta(t, 1, out.At(0, 0, 0, 0), 1e-5)
	assert.InDelta(t, 0, input.At(0, 0, 0, 0), 0)
}

func TestComputeInvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := meanvalue.New().Compute(context.Background(), zerolog.Nop(), line(t, 1), []string{"-r", "-1"})
	require.ErrorIs(t, err, computer.ErrInvalidOption)

	_, err = meanvalue.New().Compute(context.Background(), zerolog.Nop(), line(t, 1), []string{"extra"})
	require.ErrorIs(t, err, computer.ErrUnexpectedArgument)
}

func TestComputeCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := meanvalue.New().Compute(ctx, zerolog.Nop(), line(t, 1, 2), nil)

	var computeErr *computer.ComputeError
	require.ErrorAs(t, err, &computeErr)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUsage(t *testing.T) {
	t.Parallel()

	sb := &strings.Builder{}
	meanvalue.New().Usage(sb)
	assert.Contains(t, sb.String(), "-r, --radius int")
}
