package tradebuffer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/segmentio/kafka-go"
)

// RunFeed consumes the trades topic and adds every valid message to buf,
// sweeping on sweepInterval until ctx is cancelled. Commits are per-message
// since the memory buffer's own consumer group offsets aren't on the
// durable path — losing a few on restart only means a brief cold buffer,
// not data loss (C2 owns durability).
func RunFeed(ctx context.Context, reader *kafka.Reader, buf *Buffer, sweepInterval time.Duration, logger *slog.Logger) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			buf.Sweep(time.Now())
		default:
			fetchCtx, cancel := context.WithTimeout(ctx, sweepInterval)
			m, err := reader.FetchMessage(fetchCtx)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				if errors.Is(err, context.Canceled) {
					return nil
				}
				logger.Error("kafka fetch error", "error", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
				continue
			}

			handleMessage(reader, buf, logger, m)
		}
	}
}

func handleMessage(reader *kafka.Reader, buf *Buffer, logger *slog.Logger, m kafka.Message) {
	var wire bus.TradeMessage
	if err := json.Unmarshal(m.Value, &wire); err != nil {
		logger.Warn("[DLQ] malformed trade message", "error", err, "partition", m.Partition, "offset", m.Offset)
		return
	}

	trade, err := bus.ParseTrade(wire, m.Partition, m.Offset)
	if err != nil {
		logger.Warn("[DLQ] invalid trade message", "error", err, "partition", m.Partition, "offset", m.Offset)
		return
	}

	buf.Add(trade)

	if err := reader.CommitMessages(context.Background(), m); err != nil {
		logger.Warn("memory-buffer consumer commit failed", "error", err)
	}
}
