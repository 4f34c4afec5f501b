package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/groundwork-sh/groundwork/internal/app"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the provisioned stack's health",
	Long: `Verify probes the running stack: compose containers through the Docker
API, the web endpoint over HTTP, and the managed systemd units. Failed
checks are reported as warnings; verify never exits non-zero for an
unhealthy stack.`,
	RunE: runVerify,
}

var verifyManifestPath string

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyManifestPath, "config", "c", DefaultManifestPath, "Path to the manifest")
}

func runVerify(_ *cobra.Command, _ []string) error {
	a := newApp("")

	report, err := a.Verify(context.Background(), verifyManifestPath)
	if err != nil {
		return err
	}

	app.NewPrinter(os.Stdout).PrintReport(report)
	return nil
}
