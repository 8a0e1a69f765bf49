package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-featurepipe/pkg/raster"
)

func writeFeatures(t *testing.T, dir string) string {
	t.Helper()

	features, err := raster.New(raster.Size{X: 2, Y: 2, Z: 1}, 4)
	require.NoError(t, err)

	for y := range 2 {
		for x := range 2 {
			for c := range 4 {
				features.Set(x, y, 0, c, float32(c+1))
			}
		}
	}

	path := filepath.Join(dir, "features"+raster.Extension)
	require.NoError(t, raster.WriteFile(path, features))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := newRootCmd(zerolog.Nop())
	cmd.SetArgs(expandLists(args))
	cmd.SetOut(out)
	cmd.SetErr(out)

	err := cmd.Execute()

	return out.String(), err
}

func TestCut(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args     []string
		expected []float32
	}{
		"keep": {
			args:     []string{"--keep", "3,1"},
			expected: []float32{3, 1},
		},
		"keep repeated": {
			args:     []string{"-k", "2", "-k", "2"},
			expected: []float32{2, 2},
		},
		"keep several values": {
			args:     []string{"--keep", "4", "1", "2"},
			expected: []float32{4, 1, 2},
		},
		"remove": {
			args:     []string{"--remove", "2,4"},
			expected: []float32{1, 3},
		},
		"remove duplicates": {
			args:     []string{"-r", "1", "-r", "1"},
			expected: []float32{2, 3, 4},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			output := filepath.Join(dir, "out"+raster.Extension)

			_, err := execute(t, append([]string{"-i", writeFeatures(t, dir), "-o", output}, tc.args...)...)
			require.NoError(t, err)

			got, err := raster.ReadFile(output)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.Voxel(1, 1, 0))
		})
	}
}

func TestCutErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFeatures(t, dir)
	output := filepath.Join(dir, "out"+raster.Extension)

	tcs := map[string]struct {
		expectedErr error
		args        []string
	}{
		"neither": {
			args:        []string{"-i", input, "-o", output},
			expectedErr: raster.ErrKeepXorRemove,
		},
		"both": {
			args:        []string{"-i", input, "-o", output, "-k", "1", "-r", "2"},
			expectedErr: raster.ErrKeepXorRemove,
		},
		"out of range": {
			args:        []string{"-i", input, "-o", output, "-k", "5"},
			expectedErr: raster.ErrChannelOutOfBand,
		},
		"zero": {
			args:        []string{"-i", input, "-o", output, "-r", "0"},
			expectedErr: raster.ErrChannelOutOfBand,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, tc.args...)
			require.ErrorIs(t, err, tc.expectedErr)
			assert.NoFileExists(t, output)
		})
	}
}

func TestCutRequiredFlags(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "-k", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input-image")
}
