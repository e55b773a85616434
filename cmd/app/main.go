package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/chris/teller-queue/pkg/auth"
	"github.com/chris/teller-queue/pkg/config"
	"github.com/chris/teller-queue/pkg/handlers"
	"github.com/chris/teller-queue/pkg/identity"
	"github.com/chris/teller-queue/pkg/ratelimit"
	"github.com/chris/teller-queue/pkg/service"
	"github.com/chris/teller-queue/pkg/storage"
	dynamostore "github.com/chris/teller-queue/pkg/storage/dynamodb"
	"github.com/chris/teller-queue/pkg/storage/memory"
	"github.com/chris/teller-queue/pkg/storage/postgres"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	stations := identity.DefaultStations
	if cfg.StationAddresses != "" {
		if stations, err = identity.ParseStationTable(cfg.StationAddresses); err != nil {
			return fmt.Errorf("invalid STATION_ADDRESSES: %w", err)
		}
	}

	hasher := auth.BcryptHasher{Cost: bcrypt.DefaultCost}
	issuer, err := auth.NewIssuer(store, identity.NewResolver(stations), hasher, auth.Config{
		Secret:            []byte(cfg.JWTSecret),
		TTL:               cfg.CredentialTTL,
		AdminTellerNumber: cfg.AdminTellerNumber,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create credential issuer: %w", err)
	}

	limiter, closeLimiter, err := openLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	svc := service.New(store, issuer, hasher, logger)
	h := handlers.NewApiHandler(svc, limiter, logger)
	router := handlers.NewRouter(h, handlers.RouterConfig{AllowedOrigins: cfg.CORSAllowedOrigins})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "store", cfg.StoreDriver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("shutting down server")
	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil

	case config.DriverDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		store := dynamostore.New(
			dynamodb.NewFromConfig(awsCfg),
			cfg.DynamoDBTransactionsTableName,
			cfg.DynamoDBUsersTableName,
			cfg.DynamoDBCountersTableName,
		)
		return store, func() {}, nil

	default:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.New(), func() {}, nil
	}
}

func openLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ratelimit.Limiter, func(), error) {
	if cfg.LoginRateLimitPerMinute <= 0 {
		return ratelimit.Noop{}, func() {}, nil
	}
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, login throttling is per instance")
		return ratelimit.NewLocalLimiter(cfg.LoginRateLimitPerMinute, ratelimit.DefaultWindow), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	limiter := ratelimit.NewRedisLimiter(client, cfg.RedisRateLimitPrefix, cfg.LoginRateLimitPerMinute, ratelimit.DefaultWindow)
	return limiter, func() { _ = client.Close() }, nil
}
