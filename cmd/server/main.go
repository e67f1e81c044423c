// Package main provides the entry point for the storefront server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information populated at build time.
var version = "dev"

// app carries what every subcommand needs once PersistentPreRunE has run.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "storefront",
		Short:   "GENWEAR storefront API with real-time updates",
		Version: version,
		Long: `storefront serves the GENWEAR REST API and the websocket hub that pushes
order updates, cart sync, notifications and admin metrics to clients.`,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newSeedCommand(a),
	)
	return root
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log.With(zap.String("version", version))
	return nil
}
