// Package tradepersistence implements C2: the batched trade persistence
// pipeline. It consumes the trades topic with manual
// commits, flushes a pending batch to the store on a timer under a loose
// highest-offset-per-partition commit policy, and answers range queries for
// trades that have aged out of C1's memory buffer.
package tradepersistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/marketpnl/pipeline/internal/pipelineerr"
	"github.com/marketpnl/pipeline/internal/store"
	"github.com/segmentio/kafka-go"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config holds the knobs this service needs beyond its dependencies.
type Config struct {
	Topic         string
	BatchInterval time.Duration
}

// Service owns the kafka.Reader, the pending batch, and the store handle.
// It implements rpcjson.TradesServiceServer for the range-query RPC.
type Service struct {
	reader *kafka.Reader
	store  *store.Store
	logger *slog.Logger
	cfg    Config

	pending *pendingBatch
}

// New builds a Service ready for Run.
func New(reader *kafka.Reader, st *store.Store, logger *slog.Logger, cfg Config) *Service {
	return &Service{
		reader:  reader,
		store:   st,
		logger:  logger,
		cfg:     cfg,
		pending: newPendingBatch(),
	}
}

// Run consumes trades until ctx is cancelled, flushing on BatchInterval and
// once more on shutdown.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting trade persistence pipeline", "topic", s.cfg.Topic, "batch_interval", s.cfg.BatchInterval)

	ticker := time.NewTicker(s.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			return nil

		case <-ticker.C:
			s.flush(ctx)

		default:
			fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchInterval)
			m, err := s.reader.FetchMessage(fetchCtx)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if errors.Is(err, context.Canceled) {
					s.flush(context.Background())
					return nil
				}
				s.logger.Error("kafka fetch error", "error", err)
				select {
				case <-ctx.Done():
					s.flush(context.Background())
					return nil
				case <-time.After(time.Second):
				}
				continue
			}

			s.handleMessage(m)
		}
	}
}

func (s *Service) handleMessage(m kafka.Message) {
	var wire bus.TradeMessage
	if err := decodeJSON(m.Value, &wire); err != nil {
		s.logger.Warn("[DLQ] malformed trade message",
			"error", fmt.Errorf("%w: %v", pipelineerr.ErrMalformedMessage, err),
			"partition", m.Partition, "offset", m.Offset)
		return
	}

	trade, err := bus.ParseTrade(wire, m.Partition, m.Offset)
	if err != nil {
		s.logger.Warn("[DLQ] invalid trade message",
			"error", fmt.Errorf("%w: %v", pipelineerr.ErrMalformedMessage, err),
			"partition", m.Partition, "offset", m.Offset)
		return
	}

	s.pending.add(trade)
}

// flush drains the pending batch, bulk-writes it, and, if at least one
// write succeeded, commits the highest offset seen per partition across the
// whole batch, including offsets whose own write failed.
func (s *Service) flush(ctx context.Context) {
	items, offsets := s.pending.snapshot()
	if len(items) == 0 {
		return
	}

	models := buildUpsertModels(items)
	result, err := s.store.Trades().BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))

	var successful int64
	if result != nil {
		successful = result.UpsertedCount + result.MatchedCount
	}

	var bulkErr mongodriver.BulkWriteException
	switch {
	case err == nil:
		s.commit(ctx, items, offsets, successful)

	case errors.As(err, &bulkErr):
		wrapped := fmt.Errorf("%w: %v", pipelineerr.ErrPartialBulkFailure, err)
		if successful > 0 {
			s.logger.Warn("partial bulk write failure, committing highest offset seen per partition",
				"error", wrapped, "successful", successful, "attempted", len(items))
			s.commit(ctx, items, offsets, successful)
		} else {
			s.logger.Error("bulk write failed entirely, restoring batch for retry", "error", wrapped)
			s.pending.restore(items)
		}

	default:
		s.logger.Error("bulk write exception, restoring batch for retry", "error", err)
		s.pending.restore(items)
	}
}

func (s *Service) commit(ctx context.Context, items []bus.ParsedTrade, offsets map[int]int64, successful int64) {
	if successful == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(offsets))
	for partition, highest := range offsets {
		msgs = append(msgs, kafka.Message{Topic: s.cfg.Topic, Partition: partition, Offset: highest})
	}

	if err := s.reader.CommitMessages(ctx, msgs...); err != nil {
		s.logger.Error("offset commit failed, restoring batch for retry", "error", err)
		s.pending.restore(items)
		return
	}

	s.logger.Debug("flushed and committed trade batch", "count", len(items), "partitions", len(msgs))
}

func buildUpsertModels(items []bus.ParsedTrade) []mongodriver.WriteModel {
	models := make([]mongodriver.WriteModel, 0, len(items))
	for _, t := range items {
		doc := store.TradeDoc{
			Partition: t.Partition,
			Offset:    t.Offset,
			Side:      string(t.Side),
			Volume:    t.Volume.String(),
			Time:      t.Time,
		}
		models = append(models, store.UpsertTradeModel(doc))
	}
	return models
}
