package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/memory"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/seed"
	"storefront/internal/lock"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/pricing"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const serviceName = "storefront-api"

func main() {
	// .env は任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server.exit", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) (err error) {
	// 後片付けはまとめて返す
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	//ストア
	store, ping, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	//カート単位のロック
	locker, closeLock, err := openLocker(ctx, cfg.Lock, log)
	if err != nil {
		return err
	}
	if closeLock != nil {
		closers = append(closers, closeLock)
	}

	calc, err := pricing.NewCalculator(cfg.Pricing.TaxRate)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	//Usecase生成
	catalogUC := usecase.NewCatalogUsecase(store.Catalog())
	cartUC := usecase.NewCartUsecase(store, locker, calc, m)
	orderUC := usecase.NewOrderUsecase(store, locker, calc, usecase.SystemClock{}, m)

	//Handler生成
	e := server.NewRouter(server.Handlers{
		Catalog: handler.NewCatalogHandler(catalogUC, log),
		Cart:    handler.NewCartHandler(cartUC, log),
		Orders:  handler.NewOrderHandler(orderUC, log),
		Health:  handler.NewHealthHandler(ping, log),
	}, server.RouterOptions{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	log.InfoFields(ctx, "server.config", map[string]any{
		"env":      cfg.App.Env,
		"store":    cfg.Store.Backend,
		"lock":     cfg.Lock.Backend,
		"tax_rate": calc.TaxRate().String(),
	})

	//Server起動
	return server.Run(ctx, e, cfg.HTTP.Addr(), cfg.HTTP.ShutdownTimeout, log)
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (repo.Store, handler.Pinger, func() error, error) {
	if strings.EqualFold(cfg.Backend, config.StoreMemory) {
		s := memory.NewStore()
		if cfg.SeedCatalog {
			s.SeedCatalog(seed.Categories(), seed.Products())
		}
		return s, nil, nil, nil
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() error { return db.Close(conn) }

	if err := db.Migrate(conn); err != nil {
		return nil, nil, nil, multierr.Append(fmt.Errorf("migrate: %w", err), closeDB())
	}
	if cfg.SeedCatalog {
		seeded, err := db.SeedCatalog(ctx, conn, seed.Categories(), seed.Products())
		if err != nil {
			return nil, nil, nil, multierr.Append(fmt.Errorf("seed catalog: %w", err), closeDB())
		}
		if seeded {
			log.Info(ctx, "catalog.seeded")
		}
	}

	ping := func(ctx context.Context) error { return db.Ping(ctx, conn) }
	return infraRepo.NewTxManagerGorm(conn), ping, closeDB, nil
}

func openLocker(ctx context.Context, cfg config.LockConfig, log *logger.Logger) (lock.Locker, func() error, error) {
	if !strings.EqualFold(cfg.Backend, config.LockRedis) {
		return lock.NewKeyedMutex(), nil, nil
	}

	client, err := lock.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisDialTimeout)
	if err != nil {
		return nil, nil, err
	}
	locker, err := lock.NewRedisLocker(client, cfg.TTL)
	if err != nil {
		return nil, nil, multierr.Append(err, client.Close())
	}
	log.Info(ctx, "lock.redis_connected")
	return locker, client.Close, nil
}
