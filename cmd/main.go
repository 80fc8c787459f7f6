package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bagstore/storefront/internal/auth"
	"github.com/bagstore/storefront/internal/blob"
	"github.com/bagstore/storefront/internal/cache"
	"github.com/bagstore/storefront/internal/config"
	"github.com/bagstore/storefront/internal/db"
	"github.com/bagstore/storefront/internal/kafka"
	"github.com/bagstore/storefront/internal/logger"
	"github.com/bagstore/storefront/internal/repository/postgresql"
	"github.com/bagstore/storefront/internal/server"
	"github.com/bagstore/storefront/internal/workflow"
	"github.com/bagstore/storefront/migrations"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("storefront stopped with error", zap.Error(err))
	}
	lg.Info("storefront gracefully stopped")
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	database, err := db.NewDb(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.DB.Migrate {
		if err := db.Migrate(ctx, database, migrations.FS, lg); err != nil {
			return err
		}
	}

	userRepo := postgresql.NewUserRepo(database)
	if err := userRepo.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}
	outboxRepo := postgresql.NewOutboxTaskRepo(database)

	repos := workflow.Repositories{
		Users:      userRepo,
		Products:   postgresql.NewProductRepo(database),
		Carts:      postgresql.NewCartRepo(database),
		Orders:     postgresql.NewOrderRepo(database),
		OrderItems: postgresql.NewOrderItemRepo(database),
		Returns:    postgresql.NewReturnRepo(database),
		Activities: postgresql.NewActivityRepo(database),
		Sequences:  postgresql.NewSequenceRepo(),
		Outbox:     outboxRepo,
	}

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		return err
	}

	policy, err := workflow.ParseTransitionPolicy(cfg.Workflow.ForbiddenTransitions)
	if err != nil {
		return err
	}
	wfCfg := workflow.DefaultConfig()
	wfCfg.ReturnWindow = days(cfg.Workflow.ReturnWindowDays)
	wfCfg.LegacyReturnWindow = days(cfg.Workflow.LegacyReturnWindowDays)
	wfCfg.Policy = policy
	wfCfg.TxAttempts = cfg.DB.TxAttempts
	wfCfg.TxTimeout = cfg.DB.TxTimeout
	wfCfg.EventsTopic = cfg.Kafka.Topic

	svc := workflow.NewService(database, repos, blobs, newViewCache(ctx, cfg.Redis, lg), wfCfg, lg.Named("workflow"))

	srv := server.New(svc, userRepo, auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), lg.Named("http"))
	if cfg.Blob.Driver == "" || cfg.Blob.Driver == "local" {
		srv.ServeUploads(cfg.Blob.LocalURLPrefix, cfg.Blob.LocalDir)
	}

	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.Kafka.Brokers)
	} else {
		lg.Warn("KAFKA_BROKERS not set, events are written to the log")
		producer = kafka.NewConsoleProducer(lg.Named("events"))
	}
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: cfg.Kafka.PollInterval,
		BatchSize:    cfg.Kafka.BatchSize,
		MaxAttempts:  cfg.Kafka.MaxAttempts,
	}, lg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	g.Go(func() error {
		publisher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		publisher.Shutdown()
		return nil
	})
	return g.Wait()
}

func newViewCache(ctx context.Context, cfg config.Redis, lg *zap.Logger) workflow.ViewCache {
	if cfg.Addr == "" {
		return cache.NewOrderCache(cfg.TTL, lg.Named("cache"))
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		lg.Warn("redis unavailable, using in-process cache", zap.String("addr", cfg.Addr), zap.Error(err))
		client.Close()
		return cache.NewOrderCache(cfg.TTL, lg.Named("cache"))
	}
	return cache.NewRedisCache(client, cfg.TTL, lg.Named("cache"))
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
