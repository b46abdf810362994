// Package app wires the pipeline together: configuration loading, value
// resolution, expansion, graph construction and plan sequencing, with one
// isolated logger per instance.
package app

import (
	"io"
	"log/slog"

	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/schema"
)

// Config holds everything an App instance needs to run one plan.
type Config struct {
	// ConfigPath is a .hcl file or a directory searched recursively.
	ConfigPath string
	// StatePath optionally names a JSON prior-state snapshot.
	StatePath string
	// Vars holds raw -var overrides, name to unparsed value.
	Vars map[string]string

	LogFormat string
	LogLevel  string
	Workers   int
}

// App encapsulates the evaluator's dependencies and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	loader  config.Loader
	schemas schema.Provider
}

// NewApp constructs an App with its own logger. The schema provider may be
// nil, in which case every attribute change conservatively forces
// replacement.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, schemas schema.Provider) *App {
	if schemas == nil {
		schemas = schema.NewStatic(nil)
	}
	return &App{
		outW:    outW,
		logger:  newLogger(appConfig.LogLevel, appConfig.LogFormat, outW),
		loader:  loader,
		schemas: schemas,
	}
}
