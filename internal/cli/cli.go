// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/thukhakyawe/terraform/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// varFlags collects repeatable -var name=value pairs.
type varFlags map[string]string

func (v varFlags) String() string {
	return fmt.Sprintf("%d variable(s)", len(v))
}

func (v varFlags) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	v[name] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("tfplan", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
tfplan - a plan-only evaluator for declarative infrastructure configurations.

Usage:
  tfplan [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	vars := make(varFlags)
	configFlag := flagSet.String("config", "", "Path to the configuration file or directory.")
	stateFlag := flagSet.String("state", "", "Path to a prior-state snapshot in JSON form.")
	flagSet.Var(vars, "var", "Set a variable, as name=value. May be repeated.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 10, "Number of concurrent workers for a future apply.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := *configFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	return &app.Config{
		ConfigPath: path,
		StatePath:  *stateFlag,
		Vars:       vars,
		LogFormat:  *logFormatFlag,
		LogLevel:   *logLevelFlag,
		Workers:    *workersFlag,
	}, false, nil
}
