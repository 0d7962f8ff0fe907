package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	"github.com/noah-isme/pantry-sync-api/internal/repository"
	"github.com/noah-isme/pantry-sync-api/internal/service"
	"github.com/noah-isme/pantry-sync-api/pkg/cache"
)

func newSessionCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage operator sessions",
	}

	var (
		username   string
		permission int
		ttl        time.Duration
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Record a session and print its token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rdb, err := cache.NewRedis(ctx, opts.cfg.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			sessions := service.NewSessionService(repository.NewCacheRepository(rdb, opts.logger), opts.cfg.Session, opts.logger)
			token, err := sessions.Create(ctx, username, permission, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	create.Flags().StringVar(&username, "user", "", "operator username")
	create.Flags().IntVar(&permission, "permission", models.PermissionGreeter, "permission level (20 greeter, 50 scheduler)")
	create.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "session lifetime")
	_ = create.MarkFlagRequired("user")

	var sessionID string
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Delete a session record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rdb, err := cache.NewRedis(ctx, opts.cfg.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			sessions := service.NewSessionService(repository.NewCacheRepository(rdb, opts.logger), opts.cfg.Session, opts.logger)
			return sessions.Revoke(ctx, sessionID)
		},
	}
	revoke.Flags().StringVar(&sessionID, "id", "", "session id (token jti)")
	_ = revoke.MarkFlagRequired("id")

	cmd.AddCommand(create, revoke)
	return cmd
}
