package computer

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Schema is the option schema of a computer. It is built on a pflag.FlagSet that never exits
// the process and never prints on its own.
type Schema struct {
	flags    *pflag.FlagSet
	name     string
	required []string
}

// NewSchema returns an empty schema for the named computer.
func NewSchema(name string) *Schema {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	fs.Usage = func() {}

	return &Schema{flags: fs, name: name}
}

// Flags returns the underlying flag set, to declare options on.
func (s *Schema) Flags() *pflag.FlagSet {
	return s.flags
}

// Require marks options, by long name, as mandatory.
func (s *Schema) Require(names ...string) {
	s.required = append(s.required, names...)
}

// Parse validates args against the schema. Errors are *OptionValidationError.
func (s *Schema) Parse(args []string) error {
	err := s.flags.Parse(args)
	if err != nil {
		return &OptionValidationError{
			Computer: s.name,
			Token:    offendingToken(err, args),
			Err:      errors.Wrap(ErrInvalidOption, err.Error()),
		}
	}

	if rest := s.flags.Args(); len(rest) > 0 {
		return &OptionValidationError{Computer: s.name, Token: rest[0], Err: ErrUnexpectedArgument}
	}

	for _, name := range s.required {
		if !s.flags.Changed(name) {
			return &OptionValidationError{Computer: s.name, Token: "--" + name, Err: ErrMissingOption}
		}
	}

	return nil
}

// Invalid builds the error reported for an option whose value is syntactically valid but
// semantically rejected.
func (s *Schema) Invalid(name string, format string, args ...any) error {
	return &OptionValidationError{
		Computer: s.name,
		Token:    "--" + name,
		Err:      errors.Wrapf(ErrInvalidOption, format, args...),
	}
}

// Usage writes the schema description.
func (s *Schema) Usage(w io.Writer) {
	fmt.Fprintf(w, "%s options:\n", s.name)
	fmt.Fprint(w, s.flags.FlagUsages())

	if len(s.required) > 0 {
		fmt.Fprintf(w, "  required: --%s\n", strings.Join(s.required, ", --"))
	}
}

// offendingToken finds the argument a pflag error was raised for.
func offendingToken(err error, args []string) string {
	var (
		syntaxErr   *pflag.InvalidSyntaxError
		notExistErr *pflag.NotExistError
		requiredErr *pflag.ValueRequiredError
		invalidErr  *pflag.InvalidValueError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return syntaxErr.GetSpecifiedFlag()
	case errors.As(err, &notExistErr):
		return specifiedToken(args, notExistErr.GetSpecifiedName(), notExistErr.GetSpecifiedShortnames())
	case errors.As(err, &requiredErr):
		return specifiedToken(args, requiredErr.GetSpecifiedName(), requiredErr.GetSpecifiedShortnames())
	case errors.As(err, &invalidErr):
		return valueToken(args, invalidErr.GetFlag(), invalidErr.GetValue())
	default:
		return ""
	}
}

// specifiedToken finds the argument holding a flag as pflag saw it: a long name, or the tail of a
// shorthand group.
func specifiedToken(args []string, name, shorthands string) string {
	for _, arg := range args {
		if arg == "--" {
			break
		}

		if shorthands != "" {
			if isShorthandGroup(arg) && strings.HasSuffix(arg, shorthands) {
				return arg
			}

			continue
		}

		if arg == "--"+name || strings.HasPrefix(arg, "--"+name+"=") {
			return arg
		}
	}

	if shorthands != "" {
		return "-" + shorthands
	}

	return "--" + name
}

// valueToken finds the argument that gave value to flag, whether the value is attached to it or
// follows it.
func valueToken(args []string, flag *pflag.Flag, value string) string {
	long := "--" + flag.Name

	for i, arg := range args {
		if arg == "--" {
			break
		}

		next, hasNext := "", i+1 < len(args)
		if hasNext {
			next = args[i+1]
		}

		if arg == long+"="+value || (arg == long && hasNext && next == value) {
			return arg
		}

		if flag.Shorthand == "" || !isShorthandGroup(arg) {
			continue
		}

		_, attached, found := strings.Cut(arg[1:], flag.Shorthand)
		if !found {
			continue
		}

		attached = strings.TrimPrefix(attached, "=")
		if (attached != "" && attached == value) || (attached == "" && hasNext && next == value) {
			return arg
		}
	}

	return long
}

func isShorthandGroup(arg string) bool {
	return len(arg) > 1 && arg[0] == '-' && arg[1] != '-'
}
