package tradepersistence

import (
	"testing"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
	"github.com/shopspring/decimal"
)

func trade(partition int, offset int64) bus.ParsedTrade {
	return bus.ParsedTrade{
		Side:      bus.SideBuy,
		Volume:    decimal.NewFromInt(1),
		Time:      time.Date(2026, 8, 6, 10, 0, 0, 0, time.UTC),
		Partition: partition,
		Offset:    offset,
	}
}

func TestPendingBatchTracksHighestOffsetPerPartition(t *testing.T) {
	p := newPendingBatch()
	p.add(trade(0, 5))
	p.add(trade(0, 7))
	p.add(trade(1, 2))
	p.add(trade(0, 6))

	items, offsets := p.snapshot()
	if len(items) != 4 {
		t.Fatalf("len(items) = %d, want 4", len(items))
	}
	if offsets[0] != 7 {
		t.Fatalf("offsets[0] = %d, want 7", offsets[0])
	}
	if offsets[1] != 2 {
		t.Fatalf("offsets[1] = %d, want 2", offsets[1])
	}
}

func TestSnapshotClearsPendingBatch(t *testing.T) {
	p := newPendingBatch()
	p.add(trade(0, 1))
	p.snapshot()

	items, offsets := p.snapshot()
	if items != nil || offsets != nil {
		t.Fatalf("second snapshot = (%v, %v), want (nil, nil)", items, offsets)
	}
}

func TestRestorePrependsAndRemergesOffsets(t *testing.T) {
	p := newPendingBatch()
	p.add(trade(0, 10))

	failed := []bus.ParsedTrade{trade(0, 3), trade(0, 4)}
	p.restore(failed)

	items, offsets := p.snapshot()
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if items[0].Offset != 3 || items[1].Offset != 4 || items[2].Offset != 10 {
		t.Fatalf("unexpected item order: %+v", items)
	}
	if offsets[0] != 10 {
		t.Fatalf("offsets[0] = %d, want 10", offsets[0])
	}
}

func TestRestoreIsNoopOnEmptyInput(t *testing.T) {
	p := newPendingBatch()
	p.add(trade(0, 1))
	p.restore(nil)

	items, _ := p.snapshot()
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
}
