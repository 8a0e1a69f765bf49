package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-featurepipe/internal/config"
	"github.com/askiada/go-featurepipe/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cfg      config.Config
		contains []string
		absent   []string
	}{
		"json at info": {
			cfg:      config.Config{LogLevel: "info", LogFormat: config.FormatJSON},
			contains: []string{`"level":"info"`, `"message":"visible"`, `"time":`},
			absent:   []string{"hidden"},
		},
		"json at debug": {
			cfg:      config.Config{LogLevel: "debug", LogFormat: config.FormatJSON},
			contains: []string{`"message":"hidden"`, `"message":"visible"`},
		},
		"console": {
			cfg:      config.Config{LogLevel: "info", LogFormat: config.FormatConsole},
			contains: []string{"INF", "visible"},
			absent:   []string{`"level"`},
		},
		"unknown level": {
			cfg:      config.Config{LogLevel: "loud", LogFormat: config.FormatJSON},
			contains: []string{"visible"},
			absent:   []string{"hidden"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			log := logging.New(&tc.cfg, buf)
			log.Debug().Msg("hidden")
			log.Info().Msg("visible")

			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}

			for _, s := range tc.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
