package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "storefront/docs"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/repository/db"
	"storefront/internal/server"
	"storefront/internal/service"

	"github.com/go-redis/redis/v8"
)

const limiterCleanupInterval = time.Minute

// @title        Storefront API
// @version      1.0
// @description  Accounts, sessions and a product catalog with buy/return.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.LogLevel)

	// open DB
	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DBPath)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, rdb, err := openSessionStore(ctx, cfg, sqlDB)
	if err != nil {
		log.Fatalw("failed to init session store", "err", err, "backend", cfg.Session.Backend)
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB, sessions)
	services := service.NewService(repos, service.Options{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		SessionTTL: cfg.Session.TTL,
		Ownership:  cfg.Ownership,
		Logger:     log.Named("sweeper"),
	})
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		SecureCookie:   cfg.Session.SecureCookie,
		SessionTTL:     cfg.Session.TTL,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		Metrics:        metrics.New(),
	})

	go services.Sweeper.Run(ctx, cfg.Session.SweepInterval)
	go apiHandler.Limiter().Run(ctx, limiterCleanupInterval)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg, apiHandler, log)

	log.Infow("storefront started", "port", cfg.Port, "session_backend", cfg.Session.Backend, "ownership", cfg.Ownership)

	// graceful shutdown
	waitForShutdown(cancel, srv, cfg.HTTP.ShutdownTimeout, log)
}

// openSessionStore picks the session backend; the Redis client is returned so main can close it.
func openSessionStore(ctx context.Context, cfg *config.Config, sqlDB *sql.DB) (repository.SessionStore, *redis.Client, error) {
	if cfg.Session.Backend != config.SessionBackendRedis {
		return repository.NewSessionSQLite(sqlDB), nil, nil
	}
	rdb, err := repository.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewSessionRedis(rdb), rdb, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg *config.Config, handler *handlers.Handler, log *logger.Logger) {
	opts := server.Options{
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	go func() {
		if err := srv.Run(cfg.Port, handler.InitRoutes(), opts); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
