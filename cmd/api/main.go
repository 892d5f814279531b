// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/carterperez-dev/blog-api/internal/admin"
	"github.com/carterperez-dev/blog-api/internal/auth"
	"github.com/carterperez-dev/blog-api/internal/config"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/health"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/middleware"
	"github.com/carterperez-dev/blog-api/internal/post"
	"github.com/carterperez-dev/blog-api/internal/server"
	"github.com/carterperez-dev/blog-api/internal/storage"
	"github.com/carterperez-dev/blog-api/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	stores, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	objectStore, err := media.NewMinioStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("object store connected",
		"endpoint", cfg.Storage.Endpoint,
		"bucket", cfg.Storage.Bucket,
	)

	hasher, err := core.NewHasher(cfg.Security.BcryptCost)
	if err != nil {
		return err
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "HS256",
		"ttl", jwtManager.TTL(),
	)

	userSvc := user.NewService(stores.Users, objectStore, hasher)
	userHandler := user.NewHandler(userSvc, cfg.Storage.MaxUploadBytes)

	authSvc := auth.NewService(
		jwtManager,
		hasher,
		userSvc,
		auth.NewRedisDenylist(redis.Client),
	)
	authHandler := auth.NewHandler(authSvc, cfg.Storage.MaxUploadBytes)

	postSvc := post.NewService(stores.Posts, objectStore)
	postHandler := post.NewHandler(postSvc, cfg.Storage.MaxUploadBytes)

	if cfg.Admin.Email != "" {
		created, seedErr := authSvc.EnsureAdmin(ctx, auth.ProvisionAdminRequest{
			Name:     cfg.Admin.Name,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		})
		if seedErr != nil {
			return seedErr
		}
		logger.Info("administrator bootstrap checked", "created", created)
	}

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: health.CheckFunc(stores.Ping)},
		health.Dependency{Name: "redis", Checker: redis},
		health.Dependency{Name: "object_store", Checker: objectStore},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     stores.Stats,
		RedisStats:  redis.PoolStats,
		DBPing:      stores.Ping,
		RedisPing:   redis.Ping,
		StorePing:   objectStore.Ping,
		Users:       userSvc,
		Posts:       postSvc,
		Provisioner: authSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing(otel.Tracer(cfg.Otel.ServiceName)))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    middleware.Limit(cfg.RateLimit),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	authLimiter := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit:   middleware.Limit(cfg.AuthRateLimit),
			KeyFunc: middleware.KeyByIPAndPath,
		},
	).Handler

	authenticator := middleware.Authenticator(authSvc, userSvc)
	optionalAuth := middleware.OptionalAuth(authSvc, userSvc)
	adminOnly := middleware.RequireAdmin

	healthHandler.RegisterRoutes(router)
	authHandler.RegisterRoutes(router, authenticator, authLimiter)
	userHandler.RegisterRoutes(router, authenticator, adminOnly)
	postHandler.RegisterRoutes(router, authenticator, optionalAuth)
	adminHandler.RegisterRoutes(router, authenticator, adminOnly)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := stores.Close(shutdownCtx); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
