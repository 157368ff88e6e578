package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/orderstack/po-ingest/api/controllers"
	"github.com/orderstack/po-ingest/api/routes"
	"github.com/orderstack/po-ingest/internal/documents"
	"github.com/orderstack/po-ingest/internal/pipeline"
	"github.com/orderstack/po-ingest/internal/resolver"
	"github.com/orderstack/po-ingest/pkg/config"
	"github.com/orderstack/po-ingest/pkg/db"
	openaiextract "github.com/orderstack/po-ingest/pkg/extract/openai"
	"github.com/orderstack/po-ingest/pkg/logger"
	"github.com/orderstack/po-ingest/pkg/metrics"
	"github.com/orderstack/po-ingest/pkg/migrate"
	"github.com/orderstack/po-ingest/pkg/redis"
	"github.com/orderstack/po-ingest/pkg/shopify"
	"github.com/orderstack/po-ingest/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, variant cache disabled")
	}

	var gcsClient *gcs.Client
	if cfg.GCS.BucketName != "" {
		gcsClient, err = gcs.NewClient(context.Background(), cfg.GCS)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "gcs not configured, original documents will not be stored")
	}

	shopifyClient, err := shopify.NewClient(cfg.Shopify, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shopify client", err)
		os.Exit(1)
	}

	extractor, err := openaiextract.NewExtractor(cfg.OpenAI, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create extractor", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	variantCache := resolver.NewVariantCache(redisClient, cfg.Shopify.ShopDomain, cfg.Resolver.VariantCacheTTL, logg)
	resolverService := resolver.NewService(shopifyClient, variantCache, cfg.Resolver, logg)
	pipelineService := pipeline.NewService(extractor, resolverService, pipelineMetrics, logg)

	var objectStore documents.ObjectStore
	var gcsPinger controllers.Pinger
	if gcsClient != nil {
		objectStore = gcsClient
		gcsPinger = gcsClient
	}
	var redisPinger controllers.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	documentsService := documents.NewService(documents.NewRepository(dbClient.DB()), objectStore, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Documents:   documentsService,
			Pipeline:    pipelineService,
			DraftOrder:  shopifyClient,
			DBPinger:    dbClient,
			RedisPinger: redisPinger,
			GCSPinger:   gcsPinger,
			Registry:    registry,
		}),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	}
}
