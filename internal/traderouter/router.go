// Package traderouter implements C3: the trade range-query router that
// selects C1's memory buffer or delegates to C2's persistence-backed RPC,
// enforcing the bounded-wait contract for in-flight late trades.
package traderouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketpnl/pipeline/internal/pipelineerr"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/tradebuffer"
)

// Router glues C1's buffer to C2's client and implements
// rpcjson.TradesServiceServer so the trade-memory service can expose it
// under the same RPC contract C2 exposes on its own.
type Router struct {
	buffer      *tradebuffer.Buffer
	downstream  rpcjson.TradesServiceClient
	waitTimeout time.Duration
	pollEvery   time.Duration
	logger      *slog.Logger
}

// New builds a Router. downstream is C2's TradesService client, used only
// when the buffer has no hit for the requested period.
func New(buffer *tradebuffer.Buffer, downstream rpcjson.TradesServiceClient, waitTimeout time.Duration, logger *slog.Logger) *Router {
	return &Router{
		buffer:      buffer,
		downstream:  downstream,
		waitTimeout: waitTimeout,
		pollEvery:   100 * time.Millisecond,
		logger:      logger,
	}
}

// GetTradesForPeriod merges the requested range into the buffer's queried
// span, waits briefly for any trade still in flight, then answers from the
// buffer if it has a hit or falls back to the downstream store otherwise.
func (r *Router) GetTradesForPeriod(ctx context.Context, req *rpcjson.GetTradesForPeriodRequest) (*rpcjson.GetTradesForPeriodResponse, error) {
	start, end, err := parseRange(req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	r.buffer.UpdateQueriedRange(start, end, now)

	t0, hasT0 := r.buffer.LastTradeTime()

	if r.buffer.HasAny(start, end) {
		r.waitForLateArrival(ctx, t0, hasT0, end)
		trades := r.buffer.Query(start, end)
		return toResponse(trades), nil
	}

	return r.queryDownstream(ctx, req)
}

// waitForLateArrival polls every 100ms, up to waitTimeout, for a new
// observation t1 != t0 with t1 > end. Shortcuts immediately if t0 already
// satisfies t0 > end.
func (r *Router) waitForLateArrival(ctx context.Context, t0 time.Time, hasT0 bool, end time.Time) {
	if hasT0 && t0.After(end) {
		return
	}

	deadline := time.Now().Add(r.waitTimeout)
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t1, ok := r.buffer.LastTradeTime()
			if !ok {
				continue
			}
			if (!hasT0 || !t1.Equal(t0)) && t1.After(end) {
				return
			}
		}
	}
}

// queryDownstream calls C2's RPC with a deadline of waitTimeout. A failure
// is swallowed and surfaced as an empty, incomplete sequence rather than
// propagated to the caller.
func (r *Router) queryDownstream(ctx context.Context, req *rpcjson.GetTradesForPeriodRequest) (*rpcjson.GetTradesForPeriodResponse, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, r.waitTimeout)
	defer cancel()

	resp, err := r.downstream.GetTradesForPeriod(rpcCtx, req)
	if err != nil {
		r.logger.Warn("downstream trade-persistence RPC failed, returning empty sequence",
			"error", fmt.Errorf("%w: %v", pipelineerr.ErrQueryUnavailable, err))
		return &rpcjson.GetTradesForPeriodResponse{Trades: []rpcjson.TradeDTO{}, Complete: false}, nil
	}
	return resp, nil
}
