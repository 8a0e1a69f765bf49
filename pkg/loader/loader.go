package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/go-featurepipe/pkg/computer"
)

const symbolName = computer.FactorySymbol

// Library is an opened loadable unit.
type Library interface {
	// Lookup resolves an exported symbol.
	Lookup(symbol string) (any, error)
	// Close releases the unit. No symbol obtained from it may be used afterwards.
	Close() error
}

// Opener opens loadable units.
type Opener interface {
	Open(ctx context.Context, path string) (Library, error)
}

// Naming maps a module name to the path of its unit: Dir/Prefix+name+Suffix.
// No directory is ever searched.
type Naming struct {
	Dir    string
	Prefix string
	Suffix string
}

var (
	// PluginNaming is the convention for Go plugins, e.g. libHaralickComputer.so.
	PluginNaming = Naming{Prefix: "lib", Suffix: "Computer.so"}
	// ExecNaming is the convention for process units, e.g. Haralick-computer.
	ExecNaming = Naming{Suffix: "-computer"}
	// BuiltinNaming keeps the name as is.
	BuiltinNaming = Naming{}
)

// Path returns the unit path of the named module.
func (n Naming) Path(name string) string {
	file := n.Prefix + name + n.Suffix
	if n.Dir == "" {
		return file
	}

	return filepath.Join(n.Dir, file)
}

// Loader loads computers on demand. Loaded computers are only reachable inside Use, which
// guarantees they are released.
type Loader struct {
	opener Opener
	log    zerolog.Logger
	naming Naming
}

// Option configures a Loader.
type Option func(l *Loader)

// WithNaming sets the naming convention. Defaults to PluginNaming.
func WithNaming(naming Naming) Option {
	return func(l *Loader) {
		l.naming = naming
	}
}

// WithLogger sets the logger used for loading diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

// New creates a loader on top of an opener.
func New(opener Opener, opts ...Option) *Loader {
	l := &Loader{
		opener: opener,
		naming: PluginNaming,
		log:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Path returns the unit path the loader uses for the named module.
func (l *Loader) Path(name string) string {
	return l.naming.Path(name)
}

// Use loads the named module, hands its computer to fn, then releases the module: the computer
// is destroyed first and its unit closed second, whatever fn returns, even if it panics.
// Load failures are *LoadError.
func (l *Loader) Use(ctx context.Context, name string, fn func(comp computer.Computer) error) (err error) {
	mod, err := l.load(ctx, name)
	if err != nil {
		return err
	}

	defer func() {
		relErr := mod.release()
		if relErr != nil {
			l.log.Warn().Err(relErr).Str("computer", name).Msg("unable to release module")

			if err == nil {
				err = errors.Wrapf(relErr, "unable to release %s", name)
			}
		}
	}()

	return fn(mod.comp)
}

// Usage loads the named module just long enough to write its usage. Nothing is written when the
// computer cannot describe itself.
func (l *Loader) Usage(ctx context.Context, name string, w io.Writer) error {
	return l.Use(ctx, name, func(comp computer.Computer) error {
		usage := &bytes.Buffer{}

		if uw, ok := comp.(computer.UsageWriter); ok {
			err := uw.WriteUsage(usage)
			if err != nil {
				return errors.Wrapf(err, "unable to get the usage of %s", name)
			}
		} else {
			comp.Usage(usage)
		}

		fmt.Fprintf(w, "Computer %s:\n", name)
		_, err := usage.WriteTo(w)

		return errors.Wrap(err, "unable to write usage")
	})
}

// module pairs a unit with the single computer its factory created.
type module struct {
	lib      Library
	comp     computer.Computer
	name     string
	released bool
}

func (l *Loader) load(ctx context.Context, name string) (*module, error) {
	path := l.naming.Path(name)
	log := l.log.With().Str("computer", name).Str("path", path).Logger()

	log.Debug().Msg("opening unit")

	lib, err := l.opener.Open(ctx, path)
	if err != nil {
		return nil, &LoadError{Name: name, Path: path, Kind: ModuleNotFound, Err: err}
	}

	factory, err := factoryOf(lib)
	if err != nil {
		closeErr := lib.Close()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msg("unable to close unit")
		}

		return nil, &LoadError{Name: name, Path: path, Kind: EntryPointMissing, Err: err}
	}

	comp, err := instantiate(factory)
	if err != nil {
		closeErr := lib.Close()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msg("unable to close unit")
		}

		return nil, &LoadError{Name: name, Path: path, Kind: InstantiationFailed, Err: err}
	}

	log.Debug().Msg("computer created")

	return &module{lib: lib, comp: comp, name: name}, nil
}

func factoryOf(lib Library) (computer.Factory, error) {
	sym, err := lib.Lookup(symbolName)
	if err != nil {
		return nil, err
	}

	switch factory := sym.(type) {
	case func() computer.Computer:
		return factory, nil
	case computer.Factory:
		return factory, nil
	case *computer.Factory:
		if factory != nil && *factory != nil {
			return *factory, nil
		}
	case *func() computer.Computer:
		if factory != nil && *factory != nil {
			return *factory, nil
		}
	}

	return nil, errors.Errorf("symbol %s has type %T, expected func() computer.Computer", symbolName, sym)
}

func instantiate(factory computer.Factory) (comp computer.Computer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("factory panicked: %v", r)
		}
	}()

	comp = factory()
	if comp == nil {
		return nil, errors.New("factory returned no computer")
	}

	return comp, nil
}

// release destroys the computer, then closes the unit. Both steps always run, once.
func (m *module) release() error {
	if m.released {
		return nil
	}

	m.released = true

	var destroyErr error

	if d, ok := m.comp.(computer.Destroyer); ok {
		destroyErr = d.Destroy()
	}

	m.comp = nil

	closeErr := m.lib.Close()
	m.lib = nil

	if destroyErr != nil {
		return errors.Wrap(destroyErr, "unable to destroy computer")
	}

	return errors.Wrap(closeErr, "unable to close unit")
}
