// pnl-query-service runs C5: the PnL aggregation query over the pnls
// collection.
package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketpnl/pipeline/internal/config"
	"github.com/marketpnl/pipeline/internal/health"
	"github.com/marketpnl/pipeline/internal/pnlaggregation"
	"github.com/marketpnl/pipeline/internal/retry"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/store"
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

	svc := pnlaggregation.New(st, logger)

	grpcServer := rpcjson.NewServer()
	rpcjson.RegisterPnlQueryServiceServer(grpcServer, svc)

	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("failed to listen", "error", err, "port", cfg.GRPCPort)
		os.Exit(1)
	}

	healthRouter := health.NewRouter(func() error {
		return st.Client().Ping(ctx, nil)
	})

	go func() {
		logger.Info("pnl-query-service gRPC listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped with error", "error", err)
		}
	}()

	go func() {
		logger.Info("pnl-query-service health endpoint listening", "port", cfg.HealthPort())
		if err := healthRouter.Run(":" + cfg.HealthPort()); err != nil {
			logger.Error("health server stopped with error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down pnl-query-service")
	grpcServer.GracefulStop()
	logger.Info("pnl-query-service shutdown complete")
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
