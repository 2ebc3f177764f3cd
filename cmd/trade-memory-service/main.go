// trade-memory-service runs C1 (the in-memory trade buffer) and C3 (the
// range-query router) in one process: the router lives next to the
// buffer it mostly answers from, and only crosses the network to C2 on a
// miss.
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
	"github.com/marketpnl/pipeline/internal/tradebuffer"
	"github.com/marketpnl/pipeline/internal/traderouter"
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

	downstreamAddr := net.JoinHostPort(cfg.PersistenceServiceHost, cfg.PersistenceServicePort)
	var conn *grpc.ClientConn
	if err := retry.WithBackoff(ctx, connectRetryInitial, connectRetryMaxAttempts, func() error {
		c, err := grpc.NewClient(downstreamAddr, rpcjson.DialOptions()...)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}); err != nil {
		logger.Error("failed to dial trade-persistence-service", "error", err, "addr", downstreamAddr)
		os.Exit(1)
	}
	defer conn.Close()
	downstream := rpcjson.NewTradesServiceClient(conn)

	buf := tradebuffer.New(cfg.MemoryRetention(), cfg.QueriedRangeRetention(), logger)
	router := traderouter.New(buf, downstream, cfg.WaitTimeout(), logger)

	reader := bus.NewReader(cfg.KafkaBrokers, "trades", "trade-memory-service-group")
	defer reader.Close()

	grpcServer := rpcjson.NewServer()
	rpcjson.RegisterTradesServiceServer(grpcServer, router)

	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("failed to listen", "error", err, "port", cfg.GRPCPort)
		os.Exit(1)
	}

	healthRouter := health.NewRouter(nil)

	go func() {
		logger.Info("trade-memory-service gRPC listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("gRPC server stopped with error", "error", err)
		}
	}()

	go func() {
		logger.Info("trade-memory-service health endpoint listening", "port", cfg.HealthPort())
		if err := healthRouter.Run(":" + cfg.HealthPort()); err != nil {
			logger.Error("health server stopped with error", "error", err)
		}
	}()

	go func() {
		if err := tradebuffer.RunFeed(ctx, reader, buf, cfg.MemoryRetention(), logger); err != nil {
			logger.Error("trade memory feed stopped with error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down trade-memory-service")
	grpcServer.GracefulStop()
	logger.Info("trade-memory-service shutdown complete")
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
