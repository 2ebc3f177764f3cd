// Package calculation implements C4: the calculation pipeline that
// consumes the market stream, fetches matching trades, computes PnL in
// decimal arithmetic, and writes market+PnL atomically with per-partition
// ordered offset commits over concurrent in-flight intervals.
package calculation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/marketpnl/pipeline/internal/calculation/intervalcache"
	"github.com/marketpnl/pipeline/internal/money"
	"github.com/marketpnl/pipeline/internal/pipelineerr"
	"github.com/marketpnl/pipeline/internal/retry"
	"github.com/marketpnl/pipeline/internal/rpcjson"
	"github.com/marketpnl/pipeline/internal/store"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Config holds C4's tunables, sourced from internal/config.
type Config struct {
	Topic                 string
	Fee                   decimal.Decimal
	MarketBufferSize      int
	FetchRetryInitial     time.Duration
	FetchRetryMaxAttempts int
}

// Service owns the market consumer, the idempotency cache, per-partition
// commit state, and the rate-limited client to C3.
type Service struct {
	reader *kafka.Reader
	trades rpcjson.TradesServiceClient
	store  *store.Store
	cache  *intervalcache.Cache
	logger *slog.Logger
	cfg    Config

	mu         sync.Mutex
	partitions map[int]*partitionState
}

// New wraps trades in a rate limiter (10 req/s, burst 5 — generous relative
// to one RPC per market interval) and builds a ready-to-run Service.
func New(reader *kafka.Reader, trades rpcjson.TradesServiceClient, st *store.Store, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		reader:     reader,
		trades:     newRateLimitedTradesClient(trades, 10, 5),
		store:      st,
		cache:      intervalcache.New(cfg.MarketBufferSize),
		logger:     logger,
		cfg:        cfg,
		partitions: make(map[int]*partitionState),
	}
}

func (s *Service) partitionFor(p int) *partitionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.partitions[p]
	if !ok {
		ps = newPartitionState()
		s.partitions[p] = ps
	}
	return ps
}

// Run consumes market intervals until ctx is cancelled. The bus loop never
// blocks on processing: each valid, non-duplicate message spawns a task and
// immediately returns to fetch the next message.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting calculation pipeline", "topic", s.cfg.Topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		m, err := s.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			s.logger.Error("kafka fetch error", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		s.handleMessage(ctx, m)
	}
}

func (s *Service) handleMessage(ctx context.Context, m kafka.Message) {
	var wire bus.MarketMessage
	if err := json.Unmarshal(m.Value, &wire); err != nil {
		s.logger.Warn("[DLQ] malformed market message", "error", err, "partition", m.Partition, "offset", m.Offset)
		return
	}

	market, err := bus.ParseMarket(wire, m.Partition, m.Offset)
	if err != nil {
		s.logger.Warn("[DLQ] invalid market message", "error", err, "partition", m.Partition, "offset", m.Offset)
		return
	}

	ps := s.partitionFor(m.Partition)
	if !ps.tryBeginProcessing(m.Offset) {
		return
	}

	go s.process(ctx, ps, market)
}

// process is the per-interval task: it never touches the bus loop directly
// except through commitInOrder's commitFn.
func (s *Service) process(ctx context.Context, ps *partitionState, m bus.ParsedMarket) {
	if err := s.processInterval(ctx, m); err != nil {
		s.logger.Error("interval processing failed, offset left uncommitted for redelivery",
			"error", err, "partition", m.Partition, "offset", m.Offset)
		ps.abandon(m.Offset)
		return
	}

	ps.markCompleted(m.Offset)
	ps.commitInOrder(func(offset int64) error {
		return s.commitOffset(ctx, m.Partition, offset)
	})
}

func (s *Service) processInterval(ctx context.Context, m bus.ParsedMarket) error {
	key := intervalcache.Key{Start: m.StartTime, End: m.EndTime}
	if s.cache.Contains(key) {
		return nil
	}

	exists, err := s.store.MarketExists(ctx, m.StartTime, m.EndTime)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("interval already durably processed, skipping",
			"error", pipelineerr.ErrDuplicateKey, "start", m.StartTime, "end", m.EndTime)
		s.cache.Add(key)
		return nil
	}

	trades, err := s.fetchTrades(ctx, m.StartTime, m.EndTime)
	if err != nil {
		return err
	}

	totalBuyVolume, totalSellVolume := sumVolumesBySide(trades)
	breakdown := money.Compute(m.BuyPrice, m.SellPrice, s.cfg.Fee, totalBuyVolume, totalSellVolume)

	marketDoc := store.MarketDoc{
		Partition: m.Partition,
		Offset:    m.Offset,
		BuyPrice:  m.BuyPrice.String(),
		SellPrice: m.SellPrice.String(),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
	}
	pnlDoc := store.PnLDoc{
		MarketStartTime:  m.StartTime,
		MarketEndTime:    m.EndTime,
		BuyPrice:         m.BuyPrice.String(),
		SellPrice:        m.SellPrice.String(),
		TotalBuyVolume:   breakdown.TotalBuyVolume.String(),
		TotalSellVolume:  breakdown.TotalSellVolume.String(),
		TotalBuyCost:     breakdown.TotalBuyCost.String(),
		TotalSellRevenue: breakdown.TotalSellRevenue.String(),
		TotalFees:        breakdown.TotalFees.String(),
		PnL:              breakdown.PnL.String(),
		CreatedAt:        time.Now().UTC(),
	}

	skipped, err := s.store.WriteMarketAndPnL(ctx, marketDoc, pnlDoc)
	if err != nil {
		return err
	}
	if skipped {
		s.logger.Debug("concurrent writer already persisted this interval",
			"error", pipelineerr.ErrDuplicateKey, "start", m.StartTime, "end", m.EndTime)
	}

	s.cache.Add(key)
	return nil
}

func (s *Service) fetchTrades(ctx context.Context, start, end time.Time) ([]bus.ParsedTrade, error) {
	req := &rpcjson.GetTradesForPeriodRequest{
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
	}

	var resp *rpcjson.GetTradesForPeriodResponse
	err := retry.WithBackoff(ctx, s.cfg.FetchRetryInitial, s.cfg.FetchRetryMaxAttempts, func() error {
		r, err := s.trades.GetTradesForPeriod(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !resp.Complete {
		s.logger.Warn("trade query unavailable, computing PnL from an empty trade set",
			"start", start, "end", end)
	}

	return parseTradeDTOs(resp.Trades)
}

func (s *Service) commitOffset(ctx context.Context, partition int, offset int64) error {
	return s.reader.CommitMessages(ctx, kafka.Message{Topic: s.cfg.Topic, Partition: partition, Offset: offset})
}
