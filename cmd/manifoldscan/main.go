// Package main is the entry point for the manifoldscan CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/manifoldscan"
)

var version = "dev"

func main() {
	os.Exit(execute())
}

func execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// rootFlags carry the persistent flags shared by all subcommands.
type rootFlags struct {
	logLevel  string
	logFormat string
}

func (f *rootFlags) logger() (*manifoldscan.Logger, error) {
	var level slog.Level
	switch strings.ToLower(f.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "off":
		return manifoldscan.NoopLogger(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", f.logLevel)
	}

	switch f.logFormat {
	case "json":
		return manifoldscan.NewJSONLogger(level), nil
	case "text":
		return manifoldscan.NewTextLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", f.logFormat)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "manifoldscan",
		Short:         "Query graph databases with DuckDB",
		Long:          "manifoldscan exposes graph database files to DuckDB through the table functions manifold_entities and manifold_edges.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "off", "log level: debug, info, warn, error or off")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(
		newSeedCmd(),
		newSchemaCmd(),
		newStatsCmd(),
		newQueryCmd(flags),
		newExportCmd(),
	)

	return rootCmd
}
