package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundwork-sh/groundwork/internal/app"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what changes groundwork would make",
	Long: `Plan loads the manifest, compiles every provider and checks the host's
current state. Nothing is changed; the output shows which steps are already
in place and which an apply would run.`,
	RunE: runPlan,
}

var planManifestPath string

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planManifestPath, "config", "c", DefaultManifestPath, "Path to the manifest")
}

func runPlan(_ *cobra.Command, _ []string) error {
	a := newApp("")

	outcome, err := a.Plan(context.Background(), planManifestPath)
	if err != nil {
		return err
	}

	app.NewPrinter(os.Stdout).PrintPlan(outcome.Plan)
	return nil
}
