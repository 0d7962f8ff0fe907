package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/pkg/config"
	"github.com/noah-isme/pantry-sync-api/pkg/logger"
)

// rootOptions is populated before any subcommand runs.
type rootOptions struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pantry-api",
		Short:         "Pantry appointment scheduling and fulfillment sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.cfg = cfg
			opts.logger = logr
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newRemindCommand(opts))
	cmd.AddCommand(newGridCommand())
	cmd.AddCommand(newSessionCommand(opts))
	cmd.AddCommand(newSheetCommand(opts))

	return cmd
}
