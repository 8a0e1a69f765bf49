package loader

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-featurepipe/pkg/computer"
)

// BuiltinOpener opens computers compiled into the host. Paths are computer names, see
// BuiltinNaming.
type BuiltinOpener struct {
	factories map[string]computer.Factory
}

// NewBuiltinOpener registers the given factories by name.
func NewBuiltinOpener(factories map[string]computer.Factory) *BuiltinOpener {
	o := &BuiltinOpener{factories: make(map[string]computer.Factory, len(factories))}
	for name, factory := range factories {
		o.factories[name] = factory
	}

	return o
}

// Open returns the unit of the named builtin computer.
func (o *BuiltinOpener) Open(_ context.Context, path string) (Library, error) {
	factory, ok := o.factories[path]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBuiltin, "%q", path)
	}

	return &builtinLibrary{factory: factory}, nil
}

// Names lists the registered computers, sorted.
func (o *BuiltinOpener) Names() []string {
	names := make([]string, 0, len(o.factories))
	for name := range o.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

type builtinLibrary struct {
	factory computer.Factory
	closed  bool
}

func (l *builtinLibrary) Lookup(symbol string) (any, error) {
	if l.closed {
		return nil, ErrLibraryClosed
	}

	if symbol != symbolName {
		return nil, errors.Wrapf(ErrSymbolNotFound, "%q", symbol)
	}

	return l.factory, nil
}

func (l *builtinLibrary) Close() error {
	l.closed = true

	return nil
}
