package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/order-service/internal/catalog"
	"github.com/storefront/order-service/internal/config"
	"github.com/storefront/order-service/internal/customer"
	"github.com/storefront/order-service/internal/db"
	"github.com/storefront/order-service/internal/events"
	httpapi "github.com/storefront/order-service/internal/http"
	"github.com/storefront/order-service/internal/order"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().
		Timestamp().
		Str("service", cfg.AppName).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- DB ---
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatal().Err(err).Msg("db migrate")
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect (pgx)")
	}
	defer pool.Close()

	sqlDB, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect (sqlx)")
	}
	defer sqlDB.Close()

	customerRepo := customer.NewPostgresRepository(pool)
	catalogRepo := catalog.NewPostgresRepository(pool)
	orderRepo := order.NewRepository(sqlDB)

	// --- AMQP ---
	var publisher order.EventPublisher
	if cfg.PublishEvents {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("rabbitmq connect")
		}
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatal().Err(err).Msg("rabbitmq publisher")
		}
		defer pub.Close()
		publisher = pub
	}

	svc := order.NewService(customerRepo, catalogRepo, orderRepo, publisher, logger)

	// --- HTTP ---
	h := httpapi.NewHandler(svc, logger)
	router := httpapi.NewRouter(h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()

	logger.Info().Msg("shutdown complete")
}
