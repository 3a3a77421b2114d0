package main

import (
	"os"

	"github.com/spf13/cobra"
)

var defaultEnvFiles = []string{".env.local", ".env.development", ".env"}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "consizen",
		Short:         "ConsizeN AI request proxy",
		Long:          `Caching, fail-over proxy in front of the Gemini API for the ConsizeN frontend.`,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringP("config", "c", "config.yaml", "path to the YAML configuration file")

	serve := newServeCmd()
	root.AddCommand(serve, newResolveCmd())

	// running the binary without a subcommand starts the server
	root.RunE = serve.RunE
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
