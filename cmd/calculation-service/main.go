// calculation-service runs C4: the market-interval calculation pipeline.
// It fetches trades from the trade-memory-service (C1/C3) and writes
// market+PnL atomically to the store.
package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/marketpnl/pipeline/internal/calculation"
	"github.com/marketpnl/pipeline/internal/config"
	"github.com/marketpnl/pipeline/internal/health"
	"github.com/marketpnl/pipeline/internal/retry"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/store"
	"google.golang.org/grpc"
)

const (
	connectRetryInitial     = 100 * time.Millisecond
	connectRetryMaxAttempts = 5
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if err := retry.WithBackoff(ctx, connectRetryInitial, connectRetryMaxAttempts, func() error {
		s, err := store.Connect(ctx, cfg.MongoURI, "pipeline")
		if err != nil {
			return err
		}
		st = s
		return nil
	}); err != nil {
		logger.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	if err := st.EnsureIndexes(ctx); err != nil {
		logger.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}

	tradesAddr := net.JoinHostPort(cfg.TradesServiceHost, cfg.TradesServicePort)
	var conn *grpc.ClientConn
	if err := retry.WithBackoff(ctx, connectRetryInitial, connectRetryMaxAttempts, func() error {
		c, err := grpc.NewClient(tradesAddr, rpcjson.DialOptions()...)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}); err != nil {
		logger.Error("failed to dial trade-memory-service", "error", err, "addr", tradesAddr)
		os.Exit(1)
	}
	defer conn.Close()
	tradesClient := rpcjson.NewTradesServiceClient(conn)

	reader := bus.NewReader(cfg.KafkaBrokers, "market", "calculation-service-group")
	defer reader.Close()

	svc := calculation.New(reader, tradesClient, st, logger, calculation.Config{
		Topic:                 "market",
		Fee:                   cfg.TradingFee,
		MarketBufferSize:      cfg.MarketBufferSize,
		FetchRetryInitial:     100 * time.Millisecond,
		FetchRetryMaxAttempts: 5,
	})

	healthRouter := health.NewRouter(func() error {
		return st.Client().Ping(ctx, nil)
	})

	go func() {
		logger.Info("calculation-service health endpoint listening", "port", cfg.HealthPort())
		if err := healthRouter.Run(":" + cfg.HealthPort()); err != nil {
			logger.Error("health server stopped with error", "error", err)
		}
	}()

	logger.Info("calculation-service started")
	if err := svc.Run(ctx); err != nil {
		logger.Error("calculation pipeline stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("calculation-service shutdown complete")
}

// newLogger uses a JSON handler in production and a text handler when
// DEBUG=true, for readability during local development.
func newLogger(debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
