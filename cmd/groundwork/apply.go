package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundwork-sh/groundwork/internal/adapters/logging"
	"github.com/groundwork-sh/groundwork/internal/app"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the manifest to this host",
	Long: `Apply plans and then executes every pending step in order, halting on
the first failure. Steps already in place are detected and left untouched,
so re-running a successful apply is a no-op.

Use --dry-run to see what would happen without changing the host.`,
	RunE: runApply,
}

var (
	applyManifestPath  string
	applyDryRun        bool
	applyLogPath       string
	applySkipPrechecks bool
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&applyManifestPath, "config", "c", DefaultManifestPath, "Path to the manifest")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show what would be done without making changes")
	applyCmd.Flags().StringVar(&applyLogPath, "log-file", logging.DefaultRunLogPath, "Run journal location")
	applyCmd.Flags().BoolVar(&applySkipPrechecks, "skip-prechecks", false, "Skip the host resource advisories")
}

func runApply(_ *cobra.Command, _ []string) error {
	logPath := applyLogPath
	if applyDryRun {
		logPath = "" // A simulation leaves no journal.
	}

	a := newApp(logPath, app.WithSkipPrechecks(applySkipPrechecks))

	outcome, err := a.Apply(context.Background(), applyManifestPath, applyDryRun)
	if err != nil {
		return err
	}

	printer := app.NewPrinter(os.Stdout)
	printer.PrintResults(outcome.Result)

	if applyDryRun {
		fmt.Println("\n[Dry run - no changes made]")
	}

	if !outcome.Result.Run.Completed() {
		return fmt.Errorf("apply halted at step %s", outcome.Result.Run.FailedStep)
	}
	return nil
}
