package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRemindCommand(opts *rootOptions) *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run one reminder planning pass and publish the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, closeBroker, err := newReminderService(opts.cfg, a, opts.logger)
			if err != nil {
				return err
			}
			defer closeBroker()

			svc.Start(ctx)
			defer svc.Stop()

			queued, err := svc.Plan(ctx, time.Now())
			if err != nil {
				return err
			}

			deadline := time.Now().Add(wait)
			for {
				stats := svc.Stats()
				if int(stats.Succeeded+stats.Abandoned) >= queued {
					opts.logger.Info("reminder pass finished", zap.Int("queued", queued), zap.Int64("published", stats.Succeeded), zap.Int64("abandoned", stats.Abandoned))
					fmt.Fprintf(cmd.OutOrStdout(), "queued=%d published=%d abandoned=%d\n", queued, stats.Succeeded, stats.Abandoned)
					return nil
				}
				if time.Now().After(deadline) {
					return fmt.Errorf("timed out with %d of %d reminders unpublished", queued-int(stats.Succeeded+stats.Abandoned), queued)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(100 * time.Millisecond):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for queued reminders to publish")
	return cmd
}
