package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andrey-berenda/storefront/internal/pkg/app"
	"github.com/andrey-berenda/storefront/internal/pkg/config"
	"github.com/andrey-berenda/storefront/internal/pkg/log"
)

var (
	configPath  string
	verbose     bool
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Browse the shop and pay with M-Pesa from the terminal",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Debug = true
		}
		logger := log.NewLogger(cfg.Log.Path, cfg.Log.Debug)
		application, err = app.New(cmd.Context(), cfg, logger)
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if application != nil {
			application.Close()
			_ = application.Logger.Sync()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	time.Local = time.UTC
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.storefront/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.AddCommand(productsCmd, loginCmd, checkoutCmd, statusCmd, pendingCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
