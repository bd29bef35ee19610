package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/unlockgraph/internal/app"
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
	flagSet := flag.NewFlagSet("unlockgraph", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
unlockgraph - builds and queries the unlock-rule dependency graph of a learning module.

Usage:
  unlockgraph [options] [RULES_PATH]

Arguments:
  RULES_PATH
    Path to a rule document file or a directory containing rule documents.

Options:
`)
		flagSet.PrintDefaults()
	}

	rulesFlag := flagSet.String("rules", "", "Path to the rule document file or directory.")
	formatFlag := flagSet.String("format", "hcl", "Rule document format. Options: 'hcl' or 'yaml'.")
	moduleFlag := flagSet.String("module", "", "Module code to build the graph for.")
	focusFlag := flagSet.String("focus", "", "Unit id or code to report the dependency neighborhood of.")
	objectivesFlag := flagSet.String("objectives", "", "Comma-separated objective ids/codes to restrict the graph to.")
	strictFlag := flagSet.Bool("strict", false, "Abort the module build on the first malformed rule token.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *rulesFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		slog.Debug("No rules path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	format := strings.ToLower(*formatFlag)
	if format != "hcl" && format != "yaml" {
		return nil, false, &ExitError{Code: 2, Message: "invalid format: must be 'hcl' or 'yaml'"}
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

	var objectives []string
	for _, o := range strings.Split(*objectivesFlag, ",") {
		if o = strings.TrimSpace(o); o != "" {
			objectives = append(objectives, o)
		}
	}

	config, err := app.NewConfig(app.Config{
		RulesPath:  path,
		Format:     format,
		Module:     *moduleFlag,
		Focus:      *focusFlag,
		Objectives: objectives,
		Strict:     *strictFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
