package loader

import (
	"context"
	"plugin"

	"github.com/pkg/errors"
)

// PluginOpener opens units built with -buildmode=plugin.
//
// The Go runtime never unmaps a plugin: closing only invalidates the handle, so a closed unit
// stays mapped until the process exits.
type PluginOpener struct{}

// Open opens the plugin at path.
func (PluginOpener) Open(_ context.Context, path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open plugin %s", path)
	}

	return &pluginLibrary{plugin: p}, nil
}

type pluginLibrary struct {
	plugin *plugin.Plugin
}

func (l *pluginLibrary) Lookup(symbol string) (any, error) {
	if l.plugin == nil {
		return nil, ErrLibraryClosed
	}

	sym, err := l.plugin.Lookup(symbol)
	if err != nil {
		return nil, errors.Wrap(ErrSymbolNotFound, err.Error())
	}

	return sym, nil
}

func (l *pluginLibrary) Close() error {
	l.plugin = nil

	return nil
}
