// Package config loads the host configuration from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const EnvPrefix = "FEATUREPIPE_"

const (
	LoaderPlugin  = "plugin"
	LoaderExec    = "exec"
	LoaderBuiltin = "builtin"

	FormatConsole = "console"
	FormatJSON    = "json"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the host configuration. Every field is read from FEATUREPIPE_<env>.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	// Loader selects how computers are loaded: Go plugins, process units, or the computers
	// compiled into the host.
	Loader string `env:"LOADER" envDefault:"plugin"`
	// ModuleDir is prepended to every unit path. Empty means the platform lookup rules apply.
	ModuleDir    string `env:"MODULE_DIR"`
	OTELEndpoint string `env:"OTEL_ENDPOINT"`
	OTELEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom reads the configuration from the given variables instead of the process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}

	err := env.ParseWithOptions(cfg, opts)
	if err != nil {
		return nil, errors.Wrap(err, "parse env")
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	_, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%sLOG_LEVEL %q", EnvPrefix, c.LogLevel)
	}

	switch c.LogFormat {
	case FormatConsole, FormatJSON:
	default:
		return errors.Wrapf(ErrInvalidConfig, "%sLOG_FORMAT %q, expected %s or %s", EnvPrefix, c.LogFormat, FormatConsole, FormatJSON)
	}

	switch c.Loader {
	case LoaderPlugin, LoaderExec, LoaderBuiltin:
	default:
		return errors.Wrapf(ErrInvalidConfig, "%sLOADER %q, expected %s, %s or %s",
			EnvPrefix, c.Loader, LoaderPlugin, LoaderExec, LoaderBuiltin)
	}

	return nil
}
