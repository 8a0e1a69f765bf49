package loader

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/go-featurepipe/pkg/computer"
	"github.com/askiada/go-featurepipe/pkg/raster"
)

const (
	defaultHandshakeTimeout = 3 * time.Second
	defaultGracePeriod      = time.Second
)

var ErrHandshakeTimeout = errors.New("timeout waiting for unit hello")

// ExecOpener opens process units: executables that serve a computer over stdio,
// see computer.Serve.
type ExecOpener struct {
	// Stderr receives the unit's own diagnostics. Defaults to os.Stderr.
	Stderr io.Writer
	// HandshakeTimeout bounds the wait for the unit hello. Defaults to 3s.
	HandshakeTimeout time.Duration
	// GracePeriod is how long Close waits for the unit to exit before killing it. Defaults to 1s.
	GracePeriod time.Duration
}

// Open starts the executable at path in serve mode and performs the handshake.
func (o ExecOpener) Open(_ context.Context, path string) (Library, error) {
	cmd := exec.Command(path)
	cmd.Env = append(os.Environ(), computer.ServeModeEnv+"="+computer.ServeMode)

	cmd.Stderr = o.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get stdout")
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "unable to get stdin")
	}

	err = cmd.Start()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to start %s", path)
	}

	proc := &osProcess{cmd: cmd, stdin: stdin, grace: o.GracePeriod}
	if proc.grace == 0 {
		proc.grace = defaultGracePeriod
	}

	timeout := o.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}

	lib, err := newExecLibrary(stdout, stdin, proc, timeout)
	if err != nil {
		_ = proc.kill()

		return nil, errors.Wrapf(err, "handshake with %s failed", path)
	}

	return lib, nil
}

type process interface {
	// stop asks the unit to exit and waits for it.
	stop() error
}

type osProcess struct {
	cmd   *exec.Cmd
	stdin io.Closer
	grace time.Duration
}

func (p *osProcess) stop() error {
	_ = p.stdin.Close()

	done := make(chan error, 1)

	go func() {
		done <- p.cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(p.grace):
		_ = p.cmd.Process.Kill()

		<-done

		return errors.New("unit did not exit in time, killed")
	}
}

func (p *osProcess) kill() error {
	_ = p.cmd.Process.Kill()

	return p.cmd.Wait()
}

// execLibrary is the host side of a running process unit.
type execLibrary struct {
	mu     sync.Mutex
	enc    *json.Encoder
	dec    *json.Decoder
	proc   process
	name   string
	closed bool
}

func newExecLibrary(r io.Reader, w io.Writer, proc process, timeout time.Duration) (*execLibrary, error) {
	lib := &execLibrary{
		enc:  json.NewEncoder(w),
		dec:  json.NewDecoder(r),
		proc: proc,
	}

	errCh := make(chan error, 1)

	var hello computer.Hello

	go func() { errCh <- lib.dec.Decode(&hello) }()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, errors.Wrap(err, "unable to read unit hello")
		}
	case <-time.After(timeout):
		return nil, ErrHandshakeTimeout
	}

	if hello.Version != computer.ProtocolVersion {
		return nil, errors.Wrapf(computer.ErrVersionMismatch, "unit %s %q != host %q", hello.Name, hello.Version, computer.ProtocolVersion)
	}

	err := lib.enc.Encode(computer.Hello{Name: "featurepipe", Version: computer.ProtocolVersion})
	if err != nil {
		return nil, errors.Wrap(err, "unable to send host hello")
	}

	lib.name = hello.Name

	return lib, nil
}

func (l *execLibrary) Lookup(symbol string) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLibraryClosed
	}

	if symbol != symbolName {
		return nil, errors.Wrapf(ErrSymbolNotFound, "%q", symbol)
	}

	return computer.Factory(func() computer.Computer {
		return &remoteComputer{lib: l}
	}), nil
}

func (l *execLibrary) call(req *computer.Request) (*computer.Response, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLibraryClosed
	}

	err := l.enc.Encode(req)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to send %s request", req.Method)
	}

	var resp computer.Response

	err = l.dec.Decode(&resp)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s response", req.Method)
	}

	return &resp, nil
}

func (l *execLibrary) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true

	return l.proc.stop()
}

// remoteComputer forwards calls to a process unit.
type remoteComputer struct {
	lib *execLibrary
}

func (c *remoteComputer) Compute(_ context.Context, log zerolog.Logger, input *raster.Raster, args []string) (*raster.Raster, error) {
	encoded, err := computer.MarshalRaster(input)
	if err != nil {
		return nil, computer.Failed(c.lib.name, errors.Wrap(err, "unable to encode input raster"))
	}

	log.Debug().Int("bytes", len(encoded)).Msg("sending raster to unit")

	resp, err := c.lib.call(&computer.Request{Method: computer.MethodCompute, Args: args, Input: encoded})
	if err != nil {
		return nil, computer.Failed(c.lib.name, err)
	}

	err = resp.Err(c.lib.name)
	if err != nil {
		return nil, err
	}

	output, err := computer.UnmarshalRaster(resp.Output)
	if err != nil {
		return nil, computer.Failed(c.lib.name, errors.Wrap(err, "unable to decode output raster"))
	}

	return output, nil
}

func (c *remoteComputer) Usage(w io.Writer) {
	err := c.WriteUsage(w)
	if err != nil {
		_, _ = io.WriteString(w, "usage unavailable: "+err.Error()+"\n")
	}
}

// WriteUsage asks the unit for its usage.
func (c *remoteComputer) WriteUsage(w io.Writer) error {
	resp, err := c.lib.call(&computer.Request{Method: computer.MethodUsage})
	if err != nil {
		return err
	}

	err = resp.Err(c.lib.name)
	if err != nil {
		return err
	}

	usage := resp.Usage
	if !strings.HasSuffix(usage, "\n") {
		usage += "\n"
	}

	_, err = io.WriteString(w, usage)

	return errors.Wrap(err, "unable to write usage")
}

func (c *remoteComputer) Destroy() error {
	resp, err := c.lib.call(&computer.Request{Method: computer.MethodDestroy})
	if err != nil {
		return err
	}

	return resp.Err(c.lib.name)
}

var _ computer.UsageWriter = (*remoteComputer)(nil)
