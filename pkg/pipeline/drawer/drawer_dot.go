package drawer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-featurepipe/pkg/pipeline/measure"
	"github.com/askiada/go-featurepipe/pkg/pipeline/model"
)

// DOTDrawer is a drawer that creates a Graphviz DOT file with the invocation graph.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	parents  map[string]string
	fileName string
}

// NewDOTDrawer creates a new DOT drawer.
func NewDOTDrawer(fileName string) *DOTDrawer {
	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.New(graph.StringHash, graph.Directed()),
		parents:  make(map[string]string),
	}
}

// AddStep adds a vertex to the graph.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name, graph.VertexAttribute("shape", "box"))
	if err != nil {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds a link between parent and child vertices.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	err := d.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	d.parents[childName] = parentName

	return nil
}

// MarkFailed colours the vertex red and shows the error.
func (d *DOTDrawer) MarkFailed(name string, err error) error {
	_, properties, gErr := d.graph.VertexWithProperties(name)
	if gErr != nil {
		return errors.Wrapf(gErr, "unable to get %s vertex properties", name)
	}

	properties.Attributes["color"] = "red"
	properties.Attributes["xlabel"] = "failed: " + escape(err.Error())

	return nil
}

// Draw creates a DOT file with the graph.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}
	defer file.Close()

	err = d.Write(file)
	if err != nil {
		return errors.Wrapf(err, "unable to create dot file %s", d.fileName)
	}

	return nil
}

// Write writes the graph in the DOT language.
func (d *DOTDrawer) Write(w io.Writer) error {
	desc, err := generateDOT(d.graph)
	if err != nil {
		return errors.Wrap(err, "unable to generate DOT description")
	}

	return renderDOT(w, desc)
}

// SetTotalTime sets the total time for the vertex.
func (d *DOTDrawer) SetTotalTime(name string, total time.Duration) error {
	_, properties, err := d.graph.VertexWithProperties(name)
	if err != nil {
		return errors.Wrapf(err, "unable to get %s vertex properties", name)
	}

	properties.Attributes["xlabel"] = total.Round(time.Millisecond).String()

	return nil
}

const maxRGB = 240

// AddMeasure labels each invocation with its timings and colours the link leading to it from
// blue, the fastest compute, to red, the slowest.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	metrics := msr.AllMetrics()
	if len(metrics) == 0 {
		return nil
	}

	minValue, maxValue := time.Duration(-1), time.Duration(0)

	for _, mt := range metrics {
		if mt.GetTotalDuration() == 0 {
			continue
		}

		elapsed := mt.Duration(model.StageCompute)
		if minValue < 0 || elapsed < minValue {
			minValue = elapsed
		}

		if elapsed > maxValue {
			maxValue = elapsed
		}
	}

	edgeColors := make(map[string]string, len(metrics))

	for id, mt := range metrics {
		fraction := 1.0
		if maxValue > minValue {
			fraction = float64(mt.Duration(model.StageCompute)-minValue) / float64(maxValue-minValue)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		edgeColor, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		edgeColors[id] = edgeColor.ToHEX().String()
	}

	err := d.updateMetrics(metrics, edgeColors)
	if err != nil {
		return errors.Wrap(err, "unable to update metrics")
	}

	return nil
}

func (d *DOTDrawer) updateMetrics(metrics map[string]measure.Metric, edgeColors map[string]string) error {
	for id, mt := range metrics {
		_, properties, err := d.graph.VertexWithProperties(id)
		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		if _, failed := properties.Attributes["color"]; failed {
			continue
		}

		total := mt.GetTotalDuration()
		if total == 0 {
			continue
		}

		properties.Attributes["xlabel"] = fmt.Sprintf("%d ch, load: %s, compute: %s, end: %s",
			mt.Channels(), mt.Duration(model.StageLoad), mt.Duration(model.StageCompute), total)

		parent, ok := d.parents[id]
		if !ok {
			continue
		}

		err = d.graph.UpdateEdge(parent, id,
			graph.EdgeAttribute("label", mt.Duration(model.StageCompute).String()),
			graph.EdgeAttribute("fontcolor", "blue"),
			graph.EdgeAttribute("color", edgeColors[id]),
		)
		if err != nil {
			return errors.Wrap(err, "unable to update edge")
		}
	}

	return nil
}

//nolint:lll //this is a template
const dotTemplate = `strict {{.GraphType}} {
	{{range $k, $v := .Attributes}}
		{{$k}}="{{$v}}";
	{{end}}
	{{range $s := .Statements}}
		"{{.Source}}" {{if .Target}}{{$.EdgeOperator}} "{{.Target}}" [ {{range $k, $v := .EdgeAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.EdgeWeight}} ]{{else}}[ {{range $k, $v := .HTMLAttributes}}{{$k}}={{$v}}, {{end}} {{range $k, $v := .SourceAttributes}}{{$k}}="{{$v}}", {{end}} weight={{.SourceWeight}} ]{{end}};
	{{end}}
	}
	`

type description struct {
	GraphType    string
	Attributes   map[string]string
	EdgeOperator string
	Statements   []statement
}

type statement struct {
	Source           string
	Target           string
	SourceAttributes map[string]string
	HTMLAttributes   map[string]string
	EdgeAttributes   map[string]string
	SourceWeight     int
	EdgeWeight       int
}

// generateDOT describes the graph with vertices and links sorted by name, so the same run
// always renders the same file.
func generateDOT(gra graph.Graph[string, string]) (description, error) {
	desc := description{
		GraphType:    "digraph",
		Attributes:   map[string]string{"rankdir": "LR"},
		EdgeOperator: "->",
		Statements:   make([]statement, 0),
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return desc, errors.Wrap(err, "unable to get adjacency map")
	}

	for _, vertex := range sortedKeys(adjacencyMap) {
		_, sourceProperties, err := gra.VertexWithProperties(vertex)
		if err != nil {
			return desc, errors.Wrap(err, "unable to get vertex properties")
		}

		htmlAttributes := make(map[string]string)
		sourceAttributes := make(map[string]string, len(sourceProperties.Attributes))

		for k, v := range sourceProperties.Attributes {
			if k == "xlabel" {
				htmlAttributes["label"] = fmt.Sprintf(`<%s <BR /> <FONT POINT-SIZE="12">%s</FONT>>`, escape(vertex), v)

				continue
			}

			sourceAttributes[k] = v
		}

		desc.Statements = append(desc.Statements, statement{
			Source:           vertex,
			SourceWeight:     sourceProperties.Weight,
			SourceAttributes: sourceAttributes,
			HTMLAttributes:   htmlAttributes,
		})

		adjacencies := adjacencyMap[vertex]
		for _, adjacency := range sortedKeys(adjacencies) {
			edge := adjacencies[adjacency]
			desc.Statements = append(desc.Statements, statement{
				Source:         vertex,
				Target:         adjacency,
				EdgeWeight:     edge.Properties.Weight,
				EdgeAttributes: edge.Properties.Attributes,
			})
		}
	}

	return desc, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}

func renderDOT(wrt io.Writer, desc description) error {
	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "failed to parse template")
	}

	err = tpl.Execute(wrt, desc)
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
