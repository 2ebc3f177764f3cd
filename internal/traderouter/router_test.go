package traderouter

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/tradebuffer"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubDownstream struct {
	resp *rpcjson.GetTradesForPeriodResponse
	err  error
	hits int
}

func (s *stubDownstream) GetTradesForPeriod(ctx context.Context, req *rpcjson.GetTradesForPeriodRequest, opts ...grpc.CallOption) (*rpcjson.GetTradesForPeriodResponse, error) {
	s.hits++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestGetTradesForPeriodShortcutsWhenAlreadyPastEnd(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	buf := tradebuffer.New(10*time.Second, 60*time.Second, discardLogger())
	buf.Add(bus.ParsedTrade{Side: bus.SideBuy, Volume: decimal.NewFromInt(1), Time: now.Add(-time.Second)})
	buf.Add(bus.ParsedTrade{Side: bus.SideSell, Volume: decimal.NewFromInt(2), Time: now.Add(time.Second)})

	down := &stubDownstream{}
	r := New(buf, down, 3*time.Second, discardLogger())

	req := &rpcjson.GetTradesForPeriodRequest{
		StartTime: now.Add(-2 * time.Second).Format(time.RFC3339),
		EndTime:   now.Format(time.RFC3339),
	}

	started := time.Now()
	resp, err := r.GetTradesForPeriod(context.Background(), req)
	elapsed := time.Since(started)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("expected shortcut return, took %v", elapsed)
	}
	if len(resp.Trades) != 1 {
		t.Fatalf("expected exactly 1 trade within range, got %d", len(resp.Trades))
	}
	if down.hits != 0 {
		t.Fatalf("expected no downstream call when buffer has a hit")
	}
}

func TestGetTradesForPeriodDelegatesOnMiss(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	buf := tradebuffer.New(10*time.Second, 60*time.Second, discardLogger())

	down := &stubDownstream{resp: &rpcjson.GetTradesForPeriodResponse{
		Trades:   []rpcjson.TradeDTO{{TradeType: "BUY", Volume: "1", Time: now.Format(time.RFC3339)}},
		Complete: true,
	}}
	r := New(buf, down, 3*time.Second, discardLogger())

	req := &rpcjson.GetTradesForPeriodRequest{
		StartTime: now.Add(-2 * time.Second).Format(time.RFC3339),
		EndTime:   now.Format(time.RFC3339),
	}

	resp, err := r.GetTradesForPeriod(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.hits != 1 {
		t.Fatalf("expected exactly one downstream call on buffer miss")
	}
	if len(resp.Trades) != 1 {
		t.Fatalf("expected downstream trades to pass through")
	}
}

func TestGetTradesForPeriodEmptyOnDownstreamFailure(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	buf := tradebuffer.New(10*time.Second, 60*time.Second, discardLogger())

	down := &stubDownstream{err: context.DeadlineExceeded}
	r := New(buf, down, 200*time.Millisecond, discardLogger())

	req := &rpcjson.GetTradesForPeriodRequest{
		StartTime: now.Add(-2 * time.Second).Format(time.RFC3339),
		EndTime:   now.Format(time.RFC3339),
	}

	resp, err := r.GetTradesForPeriod(context.Background(), req)
	if err != nil {
		t.Fatalf("expected downstream failure to be swallowed, got error: %v", err)
	}
	if len(resp.Trades) != 0 {
		t.Fatalf("expected empty sequence on downstream failure")
	}
}
