package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/service"
	"github.com/noah-isme/pantry-sync-api/pkg/export"
	"github.com/noah-isme/pantry-sync-api/pkg/storage"
)

func newSheetCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		dir    string
		keep   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Render today's check-in sheet into the archive directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			archive, err := storage.NewArchive(dir)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			delivery := service.NewDeliveryService(a.distributions, a.fulfillments, a.shoppers, a.cache, opts.cfg.Location(), opts.logger)
			sheet, err := delivery.Sheet(ctx)
			if err != nil {
				return err
			}
			body, err := export.NewRenderer(f).Render(sheet)
			if err != nil {
				return err
			}

			path, err := archive.Save(sheet.FileName(f), body)
			if err != nil {
				return err
			}
			pruned, err := archive.Prune(time.Now(), keep)
			if err != nil {
				opts.logger.Warn("prune sheet archive", zap.Error(err))
			}
			opts.logger.Info("sheet written", zap.String("path", path), zap.Int("rows", len(sheet.Rows)), zap.Strings("pruned", pruned))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "pdf", "csv or pdf")
	cmd.Flags().StringVar(&dir, "dir", "./sheets", "archive directory")
	cmd.Flags().DurationVar(&keep, "keep", 30*24*time.Hour, "remove archived sheets older than this; 0 keeps everything")
	return cmd
}
