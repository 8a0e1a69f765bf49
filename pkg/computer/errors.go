package computer

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMissingOption      = errors.New("option is required")
	ErrInvalidOption      = errors.New("invalid option")
	ErrUnexpectedArgument = errors.New("unexpected argument")
	ErrNilOutput          = errors.New("computer returned no raster")
)

// OptionValidationError is returned when a computer rejects its own option tokens.
type OptionValidationError struct {
	Err      error
	Computer string
	// Token is the offending option or argument, when it could be identified.
	Token string
}

func (e *OptionValidationError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: invalid options near %q: %v", e.Computer, e.Token, e.Err)
	}

	return fmt.Sprintf("%s: invalid options: %v", e.Computer, e.Err)
}

func (e *OptionValidationError) Unwrap() error {
	return e.Err
}

// ComputeError is returned when a computer fails while processing a raster.
type ComputeError struct {
	Err      error
	Computer string
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("%s: computation failed: %v", e.Computer, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}

// Failed wraps err into a ComputeError, unless it already is a ComputeError or an
// OptionValidationError.
func Failed(name string, err error) error {
	if err == nil {
		return nil
	}

	var (
		optErr  *OptionValidationError
		compErr *ComputeError
	)

	if errors.As(err, &optErr) || errors.As(err, &compErr) {
		return err
	}

	return &ComputeError{Computer: name, Err: err}
}
