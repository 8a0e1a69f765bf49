package computer

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/askiada/go-featurepipe/pkg/raster"
)

// FactorySymbol is the name of the entry point every loadable unit must export.
// In a Go plugin it is a function of type func() Computer.
const FactorySymbol = "NewComputer"

// Computer extracts a multi-channel feature raster from an input raster.
type Computer interface {
	// Compute validates args against the computer's own option schema, then computes the output raster.
	// The logger may be disabled; computers must not depend on it.
	Compute(ctx context.Context, log zerolog.Logger, input *raster.Raster, args []string) (*raster.Raster, error)
	// Usage writes a description of the accepted options.
	Usage(w io.Writer)
}

// Factory creates a new computer instance.
type Factory func() Computer

// Destroyer is implemented by computers holding resources that must be released before their
// unit is closed.
type Destroyer interface {
	Destroy() error
}

// UsageWriter is implemented by computers that may fail to describe their options, such as
// computers running in another process. Usage is then only a best effort.
type UsageWriter interface {
	WriteUsage(w io.Writer) error
}
