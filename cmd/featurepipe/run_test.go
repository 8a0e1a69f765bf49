package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-featurepipe/internal/config"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

func builtinConfig() *config.Config {
	return &config.Config{LogLevel: "error", LogFormat: config.FormatJSON, Loader: config.LoaderBuiltin}
}

func writeInput(t *testing.T, dir string) string {
	t.Helper()

	input, err := raster.New(raster.Size{X: 4, Y: 3, Z: 2}, 1)
	require.NoError(t, err)

	for z := range 2 {
		for y := range 3 {
			for x := range 4 {
				input.Set(x, y, z, 0, float32(x+y*4+z*12))
			}
		}
	}

	path := filepath.Join(dir, "input"+raster.Extension)
	require.NoError(t, raster.WriteFile(path, input))

	return path
}

func runHost(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(context.Background(), builtinConfig(), args, stdout, stderr)

	return code, stdout.String(), stderr.String()
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "out"+raster.Extension)
	metrics := filepath.Join(dir, "metrics.prom")
	graph := filepath.Join(dir, "graph.dot")

	code, stdout, stderr := runHost(t,
		"-i", input, "-o", output,
		"--computer", "Coordinates", "-d", "2",
		"--computer", "MeanValue", "-r", "0",
		"--computer", "Haralick", "-p", "4", "-w", "1,1,0", "-o", "1,0,0", "0,1,0",
		"--metrics-file", metrics,
		"--graph-file", graph,
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "[1/3] Coordinates")
	assert.Contains(t, stdout, "[3/3] Haralick: 8 channel(s)")
	assert.Contains(t, stdout, "done in")

	got, err := raster.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 2+1+8, got.Channels())
	assert.Equal(t, raster.Size{X: 4, Y: 3, Z: 2}, got.Size())
	assert.InDeltaSlice(t, []float32{3, 2, 23}, got.Voxel(3, 2, 1)[:3], 1e-5)

	assert.FileExists(t, metrics)
	assert.FileExists(t, graph)
}

func TestRunPipelineFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "out"+raster.Extension)
	pipelineFile := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(pipelineFile, []byte("computers:\n  - name: MeanValue\n    args: [-r, \"0\"]\n"), 0o600))

	code, stdout, stderr := runHost(t,
		"--input-image", input, "--output-image", output, "--pipeline", pipelineFile,
		"--computer", "Coordinates",
	)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "[1/2] MeanValue")
	assert.Contains(t, stdout, "[2/2] Coordinates")

	got, err := raster.ReadFile(output)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{23, 3, 2, 1}, got.Voxel(3, 2, 1), 1e-5)
}

func TestRunDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir)
	args := []string{"--computer", "Haralick", "-p", "3", "-w", "1,1,1", "-o", "1,1,0", "--computer", "MeanValue"}

	outputs := make([][]byte, 0, 2)

	for _, name := range []string{"first", "second"} {
		output := filepath.Join(dir, name+raster.Extension)
		code, _, stderr := runHost(t, append([]string{"-i", input, "-o", output}, args...)...)
		require.Equal(t, 0, code, stderr)

		content, err := os.ReadFile(output)
		require.NoError(t, err)

		outputs = append(outputs, content)
	}

	assert.Equal(t, outputs[0], outputs[1])
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeInput(t, dir)
	output := filepath.Join(dir, "out"+raster.Extension)

	tcs := map[string]struct {
		args           []string
		expectedStderr string
	}{
		"missing output": {
			args:           []string{"-i", input, "--computer", "Coordinates"},
			expectedStderr: "--output-image",
		},
		"orphan option": {
			args:           []string{"-i", input, "-o", output, "-d", "2", "--computer", "Coordinates"},
			expectedStderr: `"-d"`,
		},
		"no computer": {
			args:           []string{"-i", input, "-o", output},
			expectedStderr: "at least one computer",
		},
		"unknown computer": {
			args:           []string{"-i", input, "-o", output, "--computer", "Coordinates", "--computer", "Nope"},
			expectedStderr: "computer #2 Nope failed while loading",
		},
		"invalid computer option": {
			args:           []string{"-i", input, "-o", output, "--computer", "MeanValue", "--computer", "Coordinates", "-d", "5"},
			expectedStderr: "computer #2 Coordinates failed while computing",
		},
		"output not a raster file": {
			args:           []string{"-i", input, "-o", filepath.Join(dir, "out.png"), "--computer", "Coordinates"},
			expectedStderr: "must be a .fpr file",
		},
		"missing input": {
			args:           []string{"-i", filepath.Join(dir, "nothing.png"), "-o", output, "--computer", "Coordinates"},
			expectedStderr: "unable to load input image",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			code, _, stderr := runHost(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tc.expectedStderr)
			assert.NoFileExists(t, output)
		})
	}
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runHost(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--input-image")
	assert.Contains(t, stdout, "--computer")

	code, stdout, _ = runHost(t, "-h", "Haralick", "Coordinates")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Computer Haralick:")
	assert.Contains(t, stdout, "Computer Coordinates:")
	assert.Contains(t, stdout, "--dimension")
}

func TestRunHelpReportsEachComputer(t *testing.T) {
	t.Parallel()

	code, stdout, stderr := runHost(t, "--help", "MeanValue", "Nope", "Coordinates")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Computer MeanValue:")
	assert.Contains(t, stdout, "Computer Coordinates:")
	assert.NotContains(t, stdout, "Nope")
	assert.Contains(t, stderr, "Nope")
	assert.Contains(t, stderr, "1 of 3")
}
