// Package main provides the entry point for the sgt dashboard.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/narvanalabs/sgt-web/internal/api"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:           "sgt-web",
		Short:         "Web dashboard for sgt",
		Long:          "sgt-web serves a live dashboard over the sgt CLI and its state directory.",
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		// Running without a subcommand serves the dashboard.
		RunE: serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newParseCmd(), newVersionCmd())
	return root
}
