package main

import (
	"fmt"
	"io"
	"time"

	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
)

// progress reports each invocation on the normal output.
type progress struct {
	w     io.Writer
	total int
}

func newProgress(w io.Writer, total int) *progress {
	return &progress{w: w, total: total}
}

func (p *progress) New() error {
	return nil
}

func (p *progress) PrepareInvocation(_, invocation *model.InvocationInfo) error {
	_, err := fmt.Fprintf(p.w, "[%d/%d] %s %v\n", invocation.Position, p.total, invocation.Name, invocation.Args)

	return err
}

func (p *progress) OnInvocationDone(invocation *model.InvocationInfo, timings model.Timings) error {
	_, err := fmt.Fprintf(p.w, "[%d/%d] %s: %d channel(s) in %s\n",
		invocation.Position, p.total, invocation.Name, timings.Channels, timings.Compute.Round(time.Millisecond))

	return err
}

func (p *progress) AfterRun(totalDuration time.Duration, runErr error) error {
	if runErr != nil {
		return nil
	}

	_, err := fmt.Fprintf(p.w, "done in %s\n", totalDuration.Round(time.Millisecond))

	return err
}

func (p *progress) Finish() error {
	return nil
}

var _ model.PipelineOption = (*progress)(nil)
