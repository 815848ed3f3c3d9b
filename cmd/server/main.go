package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/okalita/spot-optimizer/internal/api"
	"github.com/okalita/spot-optimizer/internal/config"
	"github.com/okalita/spot-optimizer/internal/exprstore"
	"github.com/okalita/spot-optimizer/internal/ote"
	"github.com/okalita/spot-optimizer/internal/pricestore"
	"github.com/okalita/spot-optimizer/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting spot optimizer service",
		logger.Int("port", cfg.Server.Port),
		logger.String("timezone", cfg.Timezone),
		logger.String("expression_store", cfg.Expressions.StoreType),
	)

	// Price source and cache
	oteClient := ote.NewClient(cfg.OTE.BaseURL, cfg.OTE.Timeout)
	prices := pricestore.New(oteClient)

	// Saved-expression store
	expressions, cleanup, err := newExpressionStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize expression store",
			logger.ErrorField(err),
		)
	}
	defer cleanup()

	tariff := pricestore.Tariff{
		HighHours: cfg.Tariff.HighHours,
		HighPrice: cfg.Tariff.HighPrice,
		LowPrice:  cfg.Tariff.LowPrice,
	}

	handler := api.NewHandler(prices, expressions, tariff, cfg.Location())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server",
				logger.ErrorField(err),
			)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down spot optimizer service")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down HTTP server",
			logger.ErrorField(err),
		)
	}

	logger.Info("Spot optimizer service stopped")
}

// newExpressionStore builds the configured saved-expression store. The
// returned cleanup closes the Redis connection when one was opened.
func newExpressionStore(cfg *config.Config) (exprstore.Store, func(), error) {
	if cfg.Expressions.StoreType == "memory" {
		return exprstore.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr(), err)
	}

	store, err := exprstore.NewRedisStore(client, exprstore.DefaultRedisStoreConfig())
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return store, func() { client.Close() }, nil
}
