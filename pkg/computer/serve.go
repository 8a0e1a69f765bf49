package computer

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrVersionMismatch = errors.New("protocol version mismatch")

// Serve runs a process unit over stdio when the host started it in serve mode.
// Otherwise it prints the computer usage and returns.
func Serve(name string, factory Factory) error {
	if os.Getenv(ServeModeEnv) != ServeMode {
		factory().Usage(os.Stdout)

		return nil
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Str("computer", name).Logger()

	return ServeConn(context.Background(), log, os.Stdin, os.Stdout, name, factory)
}

// ServeConn runs the unit side of the protocol on the given streams, until the host closes its
// end or asks the unit to destroy its computer.
func ServeConn(ctx context.Context, log zerolog.Logger, in io.Reader, out io.Writer, name string, factory Factory) error {
	enc := json.NewEncoder(out)
	dec := json.NewDecoder(in)

	err := enc.Encode(Hello{Name: name, Version: ProtocolVersion})
	if err != nil {
		return errors.Wrap(err, "handshake send failed")
	}

	var host Hello

	err = dec.Decode(&host)
	if err != nil {
		return errors.Wrap(err, "handshake recv failed")
	}

	if host.Version != ProtocolVersion {
		return errors.Wrapf(ErrVersionMismatch, "host %q != unit %q", host.Version, ProtocolVersion)
	}

	comp := factory()

	for {
		var req Request

		err := dec.Decode(&req)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return errors.Wrap(err, "unable to decode request")
		}

		resp := handle(ctx, log, name, comp, &req)

		err = enc.Encode(resp)
		if err != nil {
			return errors.Wrap(err, "unable to encode response")
		}

		if req.Method == MethodDestroy {
			return nil
		}
	}
}

func handle(ctx context.Context, log zerolog.Logger, name string, comp Computer, req *Request) *Response {
	resp := &Response{}

	switch req.Method {
	case MethodUsage:
		sb := &strings.Builder{}
		comp.Usage(sb)
		resp.Usage = sb.String()
	case MethodCompute:
		input, err := UnmarshalRaster(req.Input)
		if err != nil {
			resp.setErr(errors.Wrap(err, "unable to decode input raster"))

			return resp
		}

		output, err := comp.Compute(ctx, log, input, req.Args)
		if err != nil {
			resp.setErr(err)

			return resp
		}

		if output == nil {
			resp.setErr(ErrNilOutput)

			return resp
		}

		resp.Output, err = MarshalRaster(output)
		if err != nil {
			resp.setErr(errors.Wrap(err, "unable to encode output raster"))
		}
	case MethodDestroy:
		if d, ok := comp.(Destroyer); ok {
			err := d.Destroy()
			if err != nil {
				resp.setErr(err)
			}
		}
	default:
		resp.setErr(errors.Errorf("%s: unknown method %q", name, req.Method))
	}

	return resp
}
