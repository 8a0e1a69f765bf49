package drawer

import (
	"io"
	"time"

	"github.com/askiada/go-featurepipe/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a run.
type Drawer interface {
	// AddStep adds a vertex to the graph.
	AddStep(name string) error
	// AddLink adds a link between two vertices.
	AddLink(parentName, childName string) error
	// MarkFailed highlights the vertex of a failed invocation.
	MarkFailed(name string, err error) error
	// SetTotalTime sets the total time of a vertex.
	SetTotalTime(name string, total time.Duration) error
	// AddMeasure decorates vertices and links with the metrics of the run.
	AddMeasure(measure measure.Measure) error
	// Write writes the graph.
	Write(w io.Writer) error
	// Draw creates a file with the graph.
	Draw() error
}
