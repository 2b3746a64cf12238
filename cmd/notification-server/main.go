// cmd/notification-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"notification-service/internal/common/config"
	"notification-service/internal/common/database"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/observability"
	"notification-service/internal/notification/bus"
	"notification-service/internal/notification/gateway"
	"notification-service/internal/notification/httpapi"
	"notification-service/internal/notification/publisher"
	"notification-service/internal/notification/query"
	"notification-service/internal/notification/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Wire the fan-out subsystem ---
	notificationBus := bus.NewRedis(rdb.Client, cfg.Notifications.Channel, log)
	connectionRegistry := registry.New()

	broadcastTimeout := time.Duration(cfg.Notifications.BroadcastTimeout) * time.Millisecond

	// Domain modules (image generation, billing) hold this instance and
	// publish through it; the publisher has no wire surface of its own.
	eventPublisher := publisher.New(
		&publisher.Config{BroadcastTimeout: broadcastTimeout},
		pg.DB, notificationBus, log, obs,
	)
	_ = eventPublisher

	notificationGateway := gateway.New(
		&gateway.Config{
			SessionBuffer:    cfg.Notifications.SessionBuffer,
			BroadcastTimeout: broadcastTimeout,
		},
		connectionRegistry, notificationBus, log,
	)

	err = retryWithBackoff(func() error {
		return notificationGateway.Start(ctx)
	}, 10, 2*time.Second, zapLog, "Bus subscription")
	if err != nil {
		zapLog.Fatal("bus subscription failed after retries", zap.Error(err))
	}
	zapLog.Info("Bus subscription established", zap.String("channel", cfg.Notifications.Channel))

	queryService := query.New(pg.DB, log)
	apiHandler := httpapi.NewHandler(queryService, log)
	router := httpapi.NewRouter(apiHandler, notificationGateway, cfg.Auth.JWTSecret, log)

	// --- Metrics and pprof endpoint ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/debug/", http.DefaultServeMux)
		zapLog.Info("Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, mux); err != nil && err != http.ErrServerClosed {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- HTTP + WebSocket server ---
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Notification server stopped")
	os.Exit(0)
}
