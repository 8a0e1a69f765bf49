package computer_test

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

func newSchema() (*computer.Schema, *int, *bool) {
	schema := computer.NewSchema("Fake")
	size := schema.Flags().IntP("size", "s", 1, "Size")
	norm := schema.Flags().BoolP("normalize", "n", false, "Normalize")
	schema.Require("size")

	return schema, size, norm
}

func TestSchemaParse(t *testing.T) {
	t.Parallel()

	schema, size, norm := newSchema()

	err := schema.Parse([]string{"-s", "4", "--normalize"})
	require.NoError(t, err)
	assert.Equal(t, 4, *size)
	assert.True(t, *norm)
}

func TestSchemaParseErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args          []string
		expectedErr   error
		expectedToken string
	}{
		"missing required": {args: []string{"-n"}, expectedErr: computer.ErrMissingOption, expectedToken: "--size"},
		"unknown flag":     {args: []string{"-s", "1", "--bogus"}, expectedErr: computer.ErrInvalidOption, expectedToken: "--bogus"},
		"bad value":        {args: []string{"--size=abc"}, expectedErr: computer.ErrInvalidOption, expectedToken: "--size=abc"},
		"positional":       {args: []string{"-s", "1", "extra"}, expectedErr: computer.ErrUnexpectedArgument, expectedToken: "extra"},
		"unknown after known flags": {
			args:          []string{"-n", "-s", "1", "--nope"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "--nope",
		},
		"unknown long with value": {
			args:          []string{"--normalize", "--nope=3"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "--nope=3",
		},
		"unknown shorthand in a group": {
			args:          []string{"-s", "1", "-nx"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "-nx",
		},
		"second value rejected": {
			args:          []string{"-n", "-s", "1", "-s", "abc"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "-s",
		},
		"attached short value": {
			args:          []string{"-n", "-sabc"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "-sabc",
		},
		"value required": {
			args:          []string{"-n", "--size"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "--size",
		},
		"bad syntax": {
			args:          []string{"-n", "---size"},
			expectedErr:   computer.ErrInvalidOption,
			expectedToken: "---size",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			schema, _, _ := newSchema()
			err := schema.Parse(tc.args)

			var optErr *computer.OptionValidationError
			require.ErrorAs(t, err, &optErr)
			require.ErrorIs(t, err, tc.expectedErr)
			assert.Equal(t, "Fake", optErr.Computer)
			assert.Equal(t, tc.expectedToken, optErr.Token)
		})
	}
}

func TestSchemaUsage(t *testing.T) {
	t.Parallel()

	schema, _, _ := newSchema()
	sb := &strings.Builder{}
	schema.Usage(sb)

	assert.Contains(t, sb.String(), "Fake options:")
	assert.Contains(t, sb.String(), "--size")
	assert.Contains(t, sb.String(), "required: --size")
}

func TestFailed(t *testing.T) {
	t.Parallel()

	require.NoError(t, computer.Failed("Fake", nil))

	var compErr *computer.ComputeError
	require.ErrorAs(t, computer.Failed("Fake", assert.AnError), &compErr)
	require.ErrorIs(t, compErr, assert.AnError)

	optErr := &computer.OptionValidationError{Computer: "Fake", Err: computer.ErrMissingOption}
	assert.Same(t, optErr, computer.Failed("Fake", optErr))
}

type doubler struct {
	destroyed bool
}

func (d *doubler) Compute(_ context.Context, _ zerolog.Logger, input *raster.Raster, args []string) (*raster.Raster, error) {
	schema := computer.NewSchema("Doubler")
	schema.Flags().Bool("fail", false, "Fail")

	err := schema.Parse(args)
	if err != nil {
		return nil, err
	}

	if fail, _ := schema.Flags().GetBool("fail"); fail {
		return nil, computer.Failed("Doubler", assert.AnError)
	}

	return raster.Concat(input, input)
}

func (d *doubler) Usage(w io.Writer) {
	_, _ = io.WriteString(w, "doubler usage")
}

func (d *doubler) Destroy() error {
	d.destroyed = true

	return nil
}

type hostConn struct {
	enc *json.Encoder
	dec *json.Decoder
}

func (h *hostConn) call(t *testing.T, req computer.Request) computer.Response {
	t.Helper()

	require.NoError(t, h.enc.Encode(req))

	var resp computer.Response
	require.NoError(t, h.dec.Decode(&resp))

	return resp
}

func startUnit(t *testing.T, comp computer.Computer) (*hostConn, <-chan error) {
	t.Helper()

	hostToUnitR, hostToUnitW := io.Pipe()
	unitToHostR, unitToHostW := io.Pipe()
	done := make(chan error, 1)

	go func() {
		defer unitToHostW.Close()

		done <- computer.ServeConn(context.Background(), zerolog.Nop(), hostToUnitR, unitToHostW, "Doubler", func() computer.Computer {
			return comp
		})
	}()

	t.Cleanup(func() { _ = hostToUnitW.Close() })

	conn := &hostConn{enc: json.NewEncoder(hostToUnitW), dec: json.NewDecoder(unitToHostR)}

	var hello computer.Hello
	require.NoError(t, conn.dec.Decode(&hello))
	assert.Equal(t, computer.Hello{Name: "Doubler", Version: computer.ProtocolVersion}, hello)
	require.NoError(t, conn.enc.Encode(computer.Hello{Version: computer.ProtocolVersion}))

	return conn, done
}

func TestServeConn(t *testing.T) {
	t.Parallel()

	comp := &doubler{}
	conn, done := startUnit(t, comp)

	resp := conn.call(t, computer.Request{Method: computer.MethodUsage})
	assert.Equal(t, "doubler usage", resp.Usage)

	input, err := raster.New(raster.Size{X: 2, Y: 2, Z: 1}, 1)
	require.NoError(t, err)
	input.Set(1, 1, 0, 0, 3)
	encoded, err := computer.MarshalRaster(input)
	require.NoError(t, err)

	resp = conn.call(t, computer.Request{Method: computer.MethodCompute, Input: encoded})
	require.NoError(t, resp.Err("Doubler"))
	output, err := computer.UnmarshalRaster(resp.Output)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 3}, output.Voxel(1, 1, 0))

	resp = conn.call(t, computer.Request{Method: computer.MethodCompute, Input: encoded, Args: []string{"--nope"}})
	var optErr *computer.OptionValidationError
	require.ErrorAs(t, resp.Err("Doubler"), &optErr)
	assert.Equal(t, "--nope", optErr.Token)

	resp = conn.call(t, computer.Request{Method: computer.MethodCompute, Input: encoded, Args: []string{"--fail"}})
	var compErr *computer.ComputeError
	require.ErrorAs(t, resp.Err("Doubler"), &compErr)

	resp = conn.call(t, computer.Request{Method: computer.MethodDestroy})
	require.NoError(t, resp.Err("Doubler"))
	require.NoError(t, <-done)
	assert.True(t, comp.destroyed)
}

func TestServeConnVersionMismatch(t *testing.T) {
	t.Parallel()

	hostToUnitR, hostToUnitW := io.Pipe()
	unitToHostR, unitToHostW := io.Pipe()
	done := make(chan error, 1)

	go func() {
		done <- computer.ServeConn(context.Background(), zerolog.Nop(), hostToUnitR, unitToHostW, "Doubler", func() computer.Computer {
			return &doubler{}
		})
	}()

	dec := json.NewDecoder(unitToHostR)
	var hello computer.Hello
	require.NoError(t, dec.Decode(&hello))
	require.NoError(t, json.NewEncoder(hostToUnitW).Encode(computer.Hello{Version: "v0"}))

	require.ErrorIs(t, <-done, computer.ErrVersionMismatch)
}
