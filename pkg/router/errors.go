package router

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-featurepipe/pkg/raster"
)

var (
	ErrMissingRequired     = errors.New("option is required")
	ErrOrphanToken         = errors.New("option given before any --computer")
	ErrMissingComputerName = errors.New("--computer needs a computer name")
	ErrInvalidGlobal       = errors.New("invalid global option")
	ErrOutputFormat        = errors.New("output image must be a " + raster.Extension + " file")
)

// ParseError reports a malformed command line.
type ParseError struct {
	Err error
	// Token is the option or argument at fault.
	Token string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error: %v", e.Err)
	}

	return fmt.Sprintf("parse error at %q: %v", e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
