// trade-persistence-service runs C2: the batched trade persistence
// pipeline. It's the durable source of truth for trades and the fallback
// C3 queries once a trade has aged out of C1's buffer.
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
	"github.com/marketpnl/pipeline/internal/config"
	"github.com/marketpnl/pipeline/internal/health"
	"github.com/marketpnl/pipeline/internal/retry"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/store"
	"github.com/marketpnl/pipeline/internal/tradepersistence"
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

	reader := bus.NewReader(cfg.KafkaBrokers, "trades", "trade-persistence-service-group")
	defer reader.Close()

	svc := tradepersistence.New(reader, st, logger, tradepersistence.Config{
		Topic:         "trades",
		BatchInterval: cfg.BatchInterval(),
	})

	grpcServer := rpcjson.NewServer()
	rpcjson.RegisterTradesServiceServer(grpcServer, svc)

	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("failed to listen", "error", err, "port", cfg.GRPCPort)
		os.Exit(1)
	}

	healthRouter := health.NewRouter(func() error {
		return st.Client().Ping(ctx, nil)
	})

	go func() {
		logger.Info("trade-persistence-service gRPC listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped with error", "error", err)
		}
	}()

	go func() {
		logger.Info("trade-persistence-service health endpoint listening", "port", cfg.HealthPort())
		if err := healthRouter.Run(":" + cfg.HealthPort()); err != nil {
			logger.Error("health server stopped with error", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Run(ctx) }()

	select {
	case <-ctx.Done():
		<-errCh // wait for the final flush triggered by shutdown to complete
	case err := <-errCh:
		if err != nil {
			logger.Error("trade persistence pipeline stopped with error", "error", err)
		}
	}

	logger.Info("shutting down trade-persistence-service")
	grpcServer.GracefulStop()
	logger.Info("trade-persistence-service shutdown complete")
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
