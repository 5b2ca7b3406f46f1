package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/yonghaozhang/smarthome/internal/app"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("smarthome", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
smarthome - merges binding thing descriptions and serves the resulting registry.

Usage:
  smarthome [options] [THINGS_PATH]

Arguments:
  THINGS_PATH
    Directory containing one subdirectory of .hcl thing descriptions per binding.

Options:
`)
		flagSet.PrintDefaults()
	}

	thingsFlag := flagSet.String("things", "", "Path to the things directory.")
	tFlag := flagSet.String("t", "", "Path to the things directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP status server. 0 is disabled (one-shot mode).")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers per binding load.")
	eventsURLFlag := flagSet.String("events-url", "", "socket.io gateway URL for registry change events. Empty disables the bridge.")
	eventsNamespaceFlag := flagSet.String("events-namespace", "/", "socket.io namespace for registry change events.")
	eventsInsecureFlag := flagSet.Bool("events-insecure", false, "Skip TLS certificate verification for the event gateway.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *thingsFlag != "" {
		path = *thingsFlag
	} else if *tFlag != "" {
		path = *tFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Things path determined.", "path", path)

	if path == "" {
		slog.Debug("No things path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		ThingsPath:         path,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
		Workers:            *workersFlag,
		HealthcheckPort:    *healthPortFlag,
		EventsURL:          *eventsURLFlag,
		EventsNamespace:    *eventsNamespaceFlag,
		EventsSkipTLSCheck: *eventsInsecureFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
