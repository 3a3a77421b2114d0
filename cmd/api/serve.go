package main

import (
	"github.com/Egham-7/consizen-proxy/internal/config"
	"github.com/Egham-7/consizen-proxy/pkg/server"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fiberlog.Info("Starting ConsizeN proxy server...")
			return server.New(cfg).Run()
		},
	}
}

// loadConfig reads .env files, then the file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config.LoadEnvFiles(defaultEnvFiles)

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadFromFile(path)
}
