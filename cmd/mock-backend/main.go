// Command mock-backend serves a fake of the storefront webhook backend for
// local runs of the CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"github.com/andrey-berenda/storefront/internal/pkg/config"
	"github.com/andrey-berenda/storefront/internal/pkg/log"
)

func main() {
	var (
		addr         string
		configPath   string
		confirmAfter int
	)
	cmd := &cobra.Command{
		Use:   "mock-backend",
		Short: "Fake storefront webhooks with scripted M-Pesa outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := log.NewLogger(cfg.Log.Path, cfg.Log.Debug)
			defer func() { _ = logger.Sync() }()

			s := newServer(cfg.Backend.APIKey, confirmAfter, logger)
			logger.Infof("listening on %s", addr)
			if err = fasthttp.ListenAndServe(addr, s.router().Handler); err != nil {
				return fmt.Errorf("fasthttp.ListenAndServe: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&configPath, "config", "", "config file, for the api key")
	cmd.Flags().IntVar(&confirmAfter, "confirm-after", 3, "status polls before a payment succeeds")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
