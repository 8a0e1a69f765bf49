package haralick

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrBadTriple = errors.New("expected three non-negative integers x,y,z")

	tripleRe = regexp.MustCompile(`^(\d+),(\d+),(\d+)$`)
)

// triple is an x,y,z option value.
type triple [3]int

func parseTriple(s string) (triple, error) {
	match := tripleRe.FindStringSubmatch(s)
	if match == nil {
		return triple{}, errors.Wrapf(ErrBadTriple, "got %q", s)
	}

	var t triple

	for i := range t {
		v, err := strconv.Atoi(match[i+1])
		if err != nil {
			return triple{}, errors.Wrapf(ErrBadTriple, "got %q", s)
		}

		t[i] = v
	}

	return t, nil
}

func (t *triple) String() string {
	return fmt.Sprintf("%d,%d,%d", t[0], t[1], t[2])
}

func (t *triple) Set(s string) error {
	v, err := parseTriple(s)
	if err != nil {
		return err
	}

	*t = v

	return nil
}

func (t *triple) Type() string {
	return "x,y,z"
}

// tripleList accumulates x,y,z values, one per occurrence of the option.
type tripleList []triple

func (l *tripleList) String() string {
	parts := make([]string, 0, len(*l))
	for i := range *l {
		parts = append(parts, (&(*l)[i]).String())
	}

	return "[" + strings.Join(parts, " ") + "]"
}

func (l *tripleList) Set(s string) error {
	v, err := parseTriple(s)
	if err != nil {
		return err
	}

	*l = append(*l, v)

	return nil
}

func (l *tripleList) Type() string {
	return "x,y,z"
}

// expandMultitoken rewrites "-o a b" into "-o a -o b", so one offset option may be followed by
// several values. Inline forms ("-oa b", "--offset=a b") open a list too.
func expandMultitoken(args []string, names ...string) []string {
	res := make([]string, 0, len(args))
	inList := false

	for _, arg := range args {
		switch {
		case isOneOf(arg, names) || hasInlineValue(arg, names):
			inList = true
		case strings.HasPrefix(arg, "-"):
			inList = false
		case inList && tripleRe.MatchString(arg) && len(res) > 0 && !isOneOf(res[len(res)-1], names):
			res = append(res, names[0])
		}

		res = append(res, arg)
	}

	return res
}

// hasInlineValue reports whether arg is one of the options with its value attached: "--name=v",
// "-xv" or "-x=v".
func hasInlineValue(arg string, names []string) bool {
	for _, name := range names {
		if strings.HasPrefix(name, "--") {
			if strings.HasPrefix(arg, name+"=") {
				return true
			}

			continue
		}

		if len(arg) > len(name) && strings.HasPrefix(arg, name) {
			return true
		}
	}

	return false
}

func isOneOf(arg string, names []string) bool {
	for _, name := range names {
		if arg == name {
			return true
		}
	}

	return false
}
