package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/repository"
	"github.com/noah-isme/pantry-sync-api/internal/service"
	"github.com/noah-isme/pantry-sync-api/pkg/cache"
	"github.com/noah-isme/pantry-sync-api/pkg/config"
	"github.com/noah-isme/pantry-sync-api/pkg/database"
)

// app holds the connections and repositories shared by subcommands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db    *sqlx.DB
	redis *redis.Client

	metrics  *service.MetricsService
	cache    *service.CacheService
	sessions *service.SessionService

	cacheRepo     *repository.CacheRepository
	distributions *repository.DistributionRepository
	defaults      *repository.AppointmentDefaultRepository
	fulfillments  *repository.FulfillmentRepository
	shoppers      *repository.ShopperRepository
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	db, err := database.NewPostgres(ctx, cfg.Database, cfg.Store.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		redis:   rdb,
		metrics: service.NewMetricsService(),
	}
	a.cacheRepo = repository.NewCacheRepository(rdb, logger)
	a.cache = service.NewCacheService(a.cacheRepo, a.metrics, cfg.Delivery.CacheTTL, logger, cfg.Delivery.CacheEnabled)
	a.sessions = service.NewSessionService(a.cacheRepo, cfg.Session, logger)
	a.distributions = repository.NewDistributionRepository(db, cfg.Store.Timeout)
	a.defaults = repository.NewAppointmentDefaultRepository(db, cfg.Store.Timeout)
	a.fulfillments = repository.NewFulfillmentRepository(db, cfg.Store.Timeout)
	a.shoppers = repository.NewShopperRepository(db, cfg.Store.Timeout)
	return a, nil
}

func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", zap.Error(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("close postgres", zap.Error(err))
	}
}
