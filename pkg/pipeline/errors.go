package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrLoaderMustBeSet = errors.New("loader must be set")
	ErrInputMustBeSet  = errors.New("input must be set")
	ErrNoInvocations   = errors.New("at least one computer must be given")
)

// InvocationError reports the invocation a run failed at, and the stage it failed in.
type InvocationError struct {
	Err      error
	Name     string
	Stage    State
	Position int
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("computer #%d %s failed while %s: %v", e.Position, e.Name, e.Stage, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
