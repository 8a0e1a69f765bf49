package computer

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/askiada/go-featurepipe/pkg/raster"
)

// Process units talk to the host with JSON messages over stdio. The unit speaks first with a
// Hello, the host answers with its own, then the host sends requests and the unit answers each
// one with a single response.
const (
	ServeModeEnv    = "FEATUREPIPE_COMPUTER_MODE"
	ServeMode       = "serve"
	ProtocolVersion = "v1"

	MethodUsage   = "usage"
	MethodCompute = "compute"
	MethodDestroy = "destroy"

	kindOptions = "options"
	kindCompute = "compute"
)

// Hello is exchanged once in each direction when a process unit starts.
type Hello struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Request is sent by the host to a process unit.
type Request struct {
	Method string   `json:"method"`
	Args   []string `json:"args,omitempty"`
	Input  []byte   `json:"input,omitempty"`
}

// Response answers a Request.
type Response struct {
	Usage  string `json:"usage,omitempty"`
	Output []byte `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Token  string `json:"token,omitempty"`
}

// Err rebuilds the error carried by the response, if any.
func (r *Response) Err(name string) error {
	if r.Error == "" {
		return nil
	}

	cause := errors.New(r.Error)
	if r.Kind == kindOptions {
		return &OptionValidationError{Computer: name, Token: r.Token, Err: cause}
	}

	return &ComputeError{Computer: name, Err: cause}
}

func (r *Response) setErr(err error) {
	r.Error = err.Error()
	r.Kind = kindCompute

	var optErr *OptionValidationError
	if errors.As(err, &optErr) {
		r.Error = optErr.Err.Error()
		r.Kind = kindOptions
		r.Token = optErr.Token
	}
}

// MarshalRaster encodes a raster for the wire.
func MarshalRaster(r *raster.Raster) ([]byte, error) {
	buf := &bytes.Buffer{}

	err := raster.Encode(buf, r)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalRaster decodes a raster received from the wire.
func UnmarshalRaster(b []byte) (*raster.Raster, error) {
	return raster.Decode(bytes.NewReader(b))
}
