package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/pantry-sync-api/api/swagger"
	"github.com/noah-isme/pantry-sync-api/internal/handler"
	"github.com/noah-isme/pantry-sync-api/internal/realtime"
	"github.com/noah-isme/pantry-sync-api/internal/service"
	"github.com/noah-isme/pantry-sync-api/pkg/broker"
	"github.com/noah-isme/pantry-sync-api/pkg/config"
	"github.com/noah-isme/pantry-sync-api/pkg/jobs"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, realtime channel and background loops",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts.cfg, opts.logger)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close()

	validate := validator.New()

	hub := realtime.NewHub(a.sessions, realtime.Config{
		SendBuffer:       cfg.Realtime.SendBuffer,
		LivenessInterval: cfg.Realtime.LivenessInterval,
		MOTD:             cfg.Realtime.MOTD,
	}, logr.Named("realtime"), a.metrics)

	coordinator := service.NewFulfillmentCoordinator(
		a.distributions, a.defaults, a.fulfillments,
		hub, a.cache, a.metrics, validate, logr.Named("coordinator"),
	)
	delivery := service.NewDeliveryService(a.distributions, a.fulfillments, a.shoppers, a.cache, cfg.Location(), logr)
	shoppers := service.NewShopperService(a.shoppers, a.cache, validate, logr)

	go hub.Run(ctx)
	go coordinator.Run(ctx)

	if cfg.Reminders.Enabled {
		reminders, closeBroker, err := newReminderService(cfg, a, logr)
		if err != nil {
			return err
		}
		defer closeBroker()
		reminders.Start(ctx)
		defer reminders.Stop()
		go reminders.RunEvery(ctx, cfg.Reminders.Interval)
	}

	router := handler.NewRouter(handler.Routes{
		Config:       cfg,
		Logger:       logr,
		Metrics:      a.metrics,
		Sessions:     a.sessions,
		Hub:          hub,
		Appointments: handler.NewAppointmentHandler(coordinator),
		Delivery:     handler.NewDeliveryHandler(delivery),
		Shoppers:     handler.NewShopperHandler(shoppers),
		Realtime:     handler.NewRealtimeHandler(hub),
		Health: handler.NewMetricsHandler(a.metrics, map[string]handler.Pinger{
			"postgres": handler.PingFunc(a.db.PingContext),
			"redis":    a.cacheRepo,
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newReminderService(cfg *config.Config, a *app, logr *zap.Logger) (*service.ReminderService, func(), error) {
	publisher, err := broker.Dial(cfg.Reminders.AMQPURL, cfg.Reminders.Queue, cfg.Store.Timeout, logr.Named("broker"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect broker: %w", err)
	}
	svc := service.NewReminderService(
		a.distributions, a.fulfillments, publisher, a.metrics,
		cfg.Reminders.DaysBefore, cfg.Location(),
		jobs.QueueConfig{Workers: 2, MaxRetries: 3, RetryDelay: 5 * time.Second},
		logr.Named("reminders"),
	)
	closeBroker := func() {
		if err := publisher.Close(); err != nil {
			logr.Warn("close broker", zap.Error(err))
		}
	}
	return svc, closeBroker, nil
}
