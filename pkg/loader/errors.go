package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrModuleNotFound    = errors.New("module not found")
	ErrEntryPointMissing = errors.New("entry point missing")
	ErrInstantiation     = errors.New("module instantiation failed")
	ErrLibraryClosed     = errors.New("library is closed")
	ErrUnknownBuiltin    = errors.New("no builtin computer with this name")
	ErrSymbolNotFound    = errors.New("symbol not found")
)

// Kind tells at which loading step a LoadError happened.
type Kind int

const (
	ModuleNotFound Kind = iota + 1
	EntryPointMissing
	InstantiationFailed
)

func (k Kind) sentinel() error {
	switch k {
	case ModuleNotFound:
		return ErrModuleNotFound
	case EntryPointMissing:
		return ErrEntryPointMissing
	case InstantiationFailed:
		return ErrInstantiation
	default:
		return nil
	}
}

// LoadError reports a module that could not be loaded. Err holds the platform diagnostic.
type LoadError struct {
	Err  error
	Name string
	Path string
	Kind Kind
}

func (e *LoadError) Error() string {
	switch e.Kind {
	case ModuleNotFound:
		return fmt.Sprintf("cannot load library %s (%s): %v", e.Name, e.Path, e.Err)
	case EntryPointMissing:
		return fmt.Sprintf("cannot load symbol %s from %s: %v", symbolName, e.Name, e.Err)
	case InstantiationFailed:
		return fmt.Sprintf("cannot create computer %s: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("cannot load %s: %v", e.Name, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the failing step.
func (e *LoadError) Is(target error) bool {
	sentinel := e.Kind.sentinel()

	return sentinel != nil && target == sentinel
}
