package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/foodlink/foodlink-backend/api/controllers"
	"github.com/foodlink/foodlink-backend/api/routes"
	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	"github.com/foodlink/foodlink-backend/internal/donations"
	"github.com/foodlink/foodlink-backend/internal/profiles"
	pkgauth "github.com/foodlink/foodlink-backend/pkg/auth"
	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/foodlink/foodlink-backend/pkg/db"
	"github.com/foodlink/foodlink-backend/pkg/logger"
	"github.com/foodlink/foodlink-backend/pkg/metrics"
	"github.com/foodlink/foodlink-backend/pkg/migrate"
	pkgmongo "github.com/foodlink/foodlink-backend/pkg/mongo"
	"github.com/foodlink/foodlink-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// closed in reverse order on shutdown
	var closers []func() error

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pingers := map[string]controllers.Pinger{}
	var (
		profileRepo  profiles.Repository
		donationRepo donations.Repository
	)

	if cfg.DB.UsesMongo() {
		mongoClient, err := pkgmongo.New(ctx, cfg.Mongo, logg)
		requireResource(ctx, logg, "mongo", err)
		closers = append(closers, func() error { return mongoClient.Close(context.Background()) })

		requireResource(ctx, logg, "profile indexes", profiles.EnsureMongoIndexes(ctx, mongoClient.Database()))
		requireResource(ctx, logg, "donation indexes", donations.EnsureMongoIndexes(ctx, mongoClient.Database()))

		profileRepo = profiles.NewMongoRepository(mongoClient.Database())
		donationRepo = donations.NewMongoRepository(mongoClient.Database())
		pingers["mongo"] = mongoClient
	} else {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		closers = append(closers, dbClient.Close)

		requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

		profileRepo = profiles.NewRepository(dbClient.DB())
		donationRepo = donations.NewRepository(dbClient.DB())
		pingers["db"] = dbClient
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		closers = append(closers, redisClient.Close)
		pingers["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency and rate limiting disabled")
	}

	verifier, err := pkgauth.NewVerifier(ctx, cfg.Identity)
	requireResource(ctx, logg, "identity verifier", err)
	if closer, ok := verifier.(io.Closer); ok {
		closers = append(closers, closer.Close)
	}

	profileService, err := profiles.NewService(profileRepo)
	requireResource(ctx, logg, "profile service", err)

	donationService, err := donations.NewService(donations.ServiceParams{
		Repo:     donationRepo,
		Profiles: profileService,
		Metrics:  metrics.NewDonationMetrics(registry),
		Logger:   logg,
	})
	requireResource(ctx, logg, "donation service", err)

	resolver, err := internalauth.NewResolver(verifier, profileService, cfg.Identity.DefaultRole)
	requireResource(ctx, logg, "auth resolver", err)

	addr := cfg.App.ListenAddr()
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  cfg.App.Instance(),
		"db_driver": cfg.DB.NormalizedDriver(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			registry,
			metrics.NewHTTPMetrics(registry),
			pingers,
			redisClient,
			resolver,
			profileService,
			donationService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("api server stopped unexpectedly: %w", err)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	runErr = multierr.Append(runErr, server.Shutdown(shutdownCtx))
	for i := len(closers) - 1; i >= 0; i-- {
		runErr = multierr.Append(runErr, closers[i]())
	}

	if runErr != nil {
		logg.Error(logCtx, "api server shutdown with errors", runErr)
		os.Exit(1)
	}
	logg.Info(logCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
