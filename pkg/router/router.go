package router

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/askiada/go-featurepipe/pkg/raster"
)

const (
	computerFlag      = "computer"
	computerShorthand = "c"
	helpFlag          = "help"
)

// Options are the global options of the host.
type Options struct {
	InputImage  string
	OutputImage string
	// PipelineFile optionally lists invocations that run before the command line ones.
	PipelineFile string
	MetricsFile  string
	GraphFile    string
	// HelpModules are the computers whose usage was requested with --help.
	HelpModules []string
	Help        bool
}

// Invocation is one computer run: its name and its own option tokens, untouched.
type Invocation struct {
	Name string
	Args []string
	// Position is the 1-based rank of the invocation in the command line.
	Position int
}

func globalFlags(opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("featurepipe", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	fs.Usage = func() {}

	fs.BoolVarP(&opts.Help, helpFlag, "h", false, "Produce help message, for the host or for the computers named after it")
	fs.StringVarP(&opts.InputImage, "input-image", "i", "", "Input image (required)")
	fs.StringVarP(&opts.OutputImage, "output-image", "o", "", "Output image, a "+raster.Extension+" file (required)")
	fs.StringVar(&opts.PipelineFile, "pipeline", "", "YAML file listing computers to run before the command line ones")
	fs.StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics to this file, Prometheus text format")
	fs.StringVar(&opts.GraphFile, "graph-file", "", "Write the invocation graph to this file, DOT format")

	return fs
}

func computerFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("computers", pflag.ContinueOnError)
	fs.StringP(computerFlag, computerShorthand, "", "Features computer; every following option, up to the next --computer, is passed to it")

	return fs
}

// Usage writes the host usage.
func Usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: featurepipe --input-image <path> --output-image <path> (--computer <name> [computer options...])...")
	fmt.Fprintln(w, "\nMain options:")
	fmt.Fprint(w, globalFlags(&Options{}).FlagUsages())
	fmt.Fprintln(w, "\nComputer options:")
	fmt.Fprint(w, computerFlags().FlagUsages())
}

// Route splits args, without the program name, into the global options and the ordered
// computer invocations.
//
// Global options are recognised first. Their short forms only count before the first
// --computer, long forms count anywhere. Every other token stays in place for the second pass,
// which opens an invocation at each --computer and hands it the following tokens verbatim.
//
// When help is requested, required options are not enforced and no invocation is returned.
func Route(args []string) (*Options, []Invocation, error) {
	opts := &Options{}
	fs := globalFlags(opts)

	global, rest, helpModules := splitGlobal(fs, args)

	err := fs.Parse(global)
	if err != nil {
		return nil, nil, &ParseError{Err: errors.Wrap(ErrInvalidGlobal, err.Error())}
	}

	if opts.Help {
		opts.HelpModules = helpModules

		return opts, nil, nil
	}

	for _, name := range []string{"input-image", "output-image"} {
		if !fs.Changed(name) {
			return nil, nil, &ParseError{Token: "--" + name, Err: ErrMissingRequired}
		}
	}

	if !strings.EqualFold(filepath.Ext(opts.OutputImage), raster.Extension) {
		return nil, nil, &ParseError{Token: opts.OutputImage, Err: ErrOutputFormat}
	}

	invocations, err := splitInvocations(rest)
	if err != nil {
		return nil, nil, err
	}

	return opts, invocations, nil
}

// splitGlobal is the first filter: it extracts the tokens of the global schema, in order, and
// leaves every other token in rest, in order.
func splitGlobal(fs *pflag.FlagSet, args []string) (global, rest, helpModules []string) {
	seenComputer := false

	for i := 0; i < len(args); i++ {
		tok := args[i]

		if _, _, ok := parseMarker(tok); ok {
			seenComputer = true
			rest = append(rest, tok)

			continue
		}

		flag, inlineValue := lookupGlobal(fs, tok, seenComputer)
		if flag == nil {
			rest = append(rest, tok)

			continue
		}

		global = append(global, tok)

		if flag.Name == helpFlag {
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				helpModules = append(helpModules, args[i])
			}

			continue
		}

		if !inlineValue && flag.NoOptDefVal == "" && i+1 < len(args) {
			i++
			global = append(global, args[i])
		}
	}

	return global, rest, helpModules
}

// lookupGlobal returns the global flag tok refers to, if any, and whether tok carries its value.
func lookupGlobal(fs *pflag.FlagSet, tok string, longOnly bool) (*pflag.Flag, bool) {
	switch {
	case strings.HasPrefix(tok, "--"):
		name, _, hasValue := strings.Cut(tok[2:], "=")
		if name == "" {
			return nil, false
		}

		return fs.Lookup(name), hasValue
	case len(tok) >= 2 && tok[0] == '-' && !longOnly:
		return fs.ShorthandLookup(tok[1:2]), len(tok) > 2
	default:
		return nil, false
	}
}

// parseMarker recognises --computer, --computer=<name>, -c and -c=<name>.
func parseMarker(tok string) (name string, inline, ok bool) {
	for _, prefix := range []string{"--" + computerFlag, "-" + computerShorthand} {
		if tok == prefix {
			return "", false, true
		}

		if value, found := strings.CutPrefix(tok, prefix+"="); found {
			return value, true, true
		}
	}

	return "", false, false
}

// splitInvocations is the second filter: it groups the remaining tokens by --computer marker.
func splitInvocations(tokens []string) ([]Invocation, error) {
	invocations := []Invocation{}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		name, inline, ok := parseMarker(tok)
		if !ok {
			if len(invocations) == 0 {
				return nil, &ParseError{Token: tok, Err: ErrOrphanToken}
			}

			last := &invocations[len(invocations)-1]
			last.Args = append(last.Args, tok)

			continue
		}

		if !inline {
			if i+1 >= len(tokens) {
				return nil, &ParseError{Token: tok, Err: ErrMissingComputerName}
			}

			i++
			name = tokens[i]
		}

		if name == "" || strings.HasPrefix(name, "-") {
			return nil, &ParseError{Token: tok, Err: ErrMissingComputerName}
		}

		invocations = append(invocations, Invocation{
			Position: len(invocations) + 1,
			Name:     name,
			Args:     []string{},
		})
	}

	return invocations, nil
}
