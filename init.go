package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tournevent/courier/internal/cache"
	"github.com/tournevent/courier/internal/config"
	"github.com/tournevent/courier/internal/dispatch"
	"github.com/tournevent/courier/internal/reconcile"
	"github.com/tournevent/courier/internal/store"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/shipper/carriers"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func loadConfig() (*config.Config, error) {
	return config.Load(envFile)
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, zap.String("service", cfg.ServiceName))
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return otel.Tracer(cfg.ServiceName), func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

func initAreaCache(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*cache.RedisCache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("Area cache disabled")
		return nil, nil
	}
	return cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.ServiceName+":")
}

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *otelzap.Logger
	db       *gorm.DB
	cache    *cache.RedisCache
	dispatch *dispatch.Service
	job      *reconcile.Job
	shutdown func(context.Context) error
}

func newApp(ctx context.Context, reg prometheus.Registerer) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close(ctx)
		}
	}()

	if a.cfg, err = loadConfig(); err != nil {
		return nil, err
	}
	if a.logger, err = initLogger(a.cfg); err != nil {
		return nil, err
	}

	tracer, shutdown, err := initTracer(ctx, a.cfg)
	if err != nil {
		a.logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracer = otel.Tracer(a.cfg.ServiceName)
	} else {
		a.shutdown = shutdown
	}

	if a.db, err = store.Open(a.cfg.DBDriver, a.cfg.DBDSN, a.cfg.OTELEnabled); err != nil {
		return nil, err
	}
	if a.cache, err = initAreaCache(ctx, a.cfg, a.logger); err != nil {
		return nil, err
	}

	opts := carriers.Options{
		BaseURLs:     a.cfg.BaseURLs(),
		Timeout:      a.cfg.CarrierTimeout,
		UseMock:      a.cfg.CarrierUseMock,
		AreaCacheTTL: a.cfg.AreaCacheTTL,
		Logger:       a.logger,
		Tracer:       tracer,
	}
	if a.cache != nil {
		opts.AreaCache = a.cache
	}

	metrics := telemetry.NewMetrics(reg)
	orders := store.New(a.db)
	a.dispatch = dispatch.New(orders, orders, carriers.NewOpener(opts), a.logger, metrics)
	a.job = reconcile.NewJob(orders, a.dispatch, reconcile.Options{
		BatchSize: a.cfg.ReconcileBatchSize,
		Delay:     a.cfg.ReconcileDelay,
	}, a.logger, metrics)
	return a, nil
}

// Close releases everything newApp opened.
func (a *app) Close(ctx context.Context) {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.db != nil {
		store.Close(a.db)
	}
	if a.shutdown != nil {
		a.shutdown(ctx)
	}
	if a.logger != nil {
		a.logger.Sync()
	}
}
