package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundwork-sh/groundwork/internal/adapters/command"
	"github.com/groundwork-sh/groundwork/internal/adapters/download"
	"github.com/groundwork-sh/groundwork/internal/adapters/filesystem"
	"github.com/groundwork-sh/groundwork/internal/adapters/logging"
	"github.com/groundwork-sh/groundwork/internal/app"
	"github.com/groundwork-sh/groundwork/internal/domain/config"
	"github.com/groundwork-sh/groundwork/internal/ports"
)

// DefaultManifestPath is used when -c is not given.
const DefaultManifestPath = "groundwork.yaml"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "Provision a ThingsBoard IoT stack on an Ubuntu host",
	Long: `Groundwork turns a declarative manifest into a converged host.

It compiles the manifest into an ordered sequence of idempotent steps
(packages, Docker, PostgreSQL, configuration, firewall, services), checks
what is already in place, and applies only what is missing. Re-running a
successful apply changes nothing.`,
	SilenceErrors: true, // We format errors ourselves
	SilenceUsage:  true, // No usage dump on a failed run
}

// Execute runs the root command, printing any error the commands return.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(versionCmd)
}

// newApp assembles the application on the real adapters. An unwritable run
// log degrades to console-only logging rather than blocking the run.
func newApp(logPath string, opts ...app.Option) *app.App {
	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}

	console := logging.NewConsoleLogger(logging.WithLevel(level))
	var logger ports.Logger = console

	if logPath != "" {
		fileLog, err := logging.NewFileLogger(logPath)
		if err != nil {
			console.Warn(context.Background(), "run log unavailable, logging to console only",
				ports.F("path", logPath), ports.F("error", err.Error()))
		} else {
			logger = logging.NewTeeLogger(console, fileLog)
		}
	}

	return app.New(
		logger,
		filesystem.NewRealFileSystem(),
		command.NewRealRunner(),
		download.NewHTTPDownloader(),
		opts...,
	)
}

// formatError renders an error for the operator. Verbose mode adds the
// underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

func printError(err error) {
	printErrorTo(os.Stderr, err)
}

func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}
