// Package tradebuffer implements C1: a bounded-retention, in-memory buffer
// of recent trades with range queries and a merged queried-range tracker
// used to flag late arrivals.
package tradebuffer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/marketpnl/pipeline/internal/bus"
)

// Buffer holds trades in an append-ordered slice guarded by a mutex. Trades
// arrive roughly chronologically per partition, so a front-trim retention
// sweep is sufficient.
type Buffer struct {
	mu     sync.Mutex
	trades []bus.ParsedTrade

	lastTradeTime    time.Time
	hasLastTradeTime bool

	qStart    time.Time
	qEnd      time.Time
	hasQRange bool

	memoryRetention       time.Duration
	queriedRangeRetention time.Duration

	logger *slog.Logger
}

// New builds an empty Buffer. memoryRetention and queriedRangeRetention
// correspond to MEMORY_RETENTION_MS and QUERIED_RANGE_RETENTION_MS.
func New(memoryRetention, queriedRangeRetention time.Duration, logger *slog.Logger) *Buffer {
	return &Buffer{
		memoryRetention:       memoryRetention,
		queriedRangeRetention: queriedRangeRetention,
		logger:                logger,
	}
}

// Add appends a trade, advances lastTradeTime, and logs a non-fatal warning
// if the trade lands inside the currently merged queried range — a possible
// out-of-order arrival relative to a query that already ran. Detection
// only; it never corrects a query result already returned.
func (b *Buffer) Add(t bus.ParsedTrade) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.trades = append(b.trades, t)

	if !b.hasLastTradeTime || t.Time.After(b.lastTradeTime) {
		b.lastTradeTime = t.Time
		b.hasLastTradeTime = true
	}

	if b.isPossibleOutOfOrderTrade(t.Time) {
		b.logger.Warn("possible out-of-order trade arrival",
			"trade_time", t.Time,
			"queried_start", b.qStart,
			"queried_end", b.qEnd,
		)
	}
}

// isPossibleOutOfOrderTrade reports whether t falls inside the merged
// queried range. Caller must hold mu.
func (b *Buffer) isPossibleOutOfOrderTrade(t time.Time) bool {
	if !b.hasQRange {
		return false
	}
	return !t.Before(b.qStart) && !t.After(b.qEnd)
}

// Query returns every buffered trade with start <= time <= end, inclusive
// on both ends.
func (b *Buffer) Query(start, end time.Time) []bus.ParsedTrade {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]bus.ParsedTrade, 0)
	for _, t := range b.trades {
		if !t.Time.Before(start) && !t.Time.After(end) {
			out = append(out, t)
		}
	}
	return out
}

// HasAny reports whether any buffered trade falls within [start, end].
func (b *Buffer) HasAny(start, end time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.trades {
		if !t.Time.Before(start) && !t.Time.After(end) {
			return true
		}
	}
	return false
}

// LastTradeTime returns the most recent trade time seen so far. ok is false
// if no trade has ever been added.
func (b *Buffer) LastTradeTime() (t time.Time, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTradeTime, b.hasLastTradeTime
}

// UpdateQueriedRange merges [start, end] into the single tracked span: end
// only ever grows, and start advances forward to at most
// now-queriedRangeRetention, only moving backward if the new start is still
// within that retention window.
func (b *Buffer) UpdateQueriedRange(start, end time.Time, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasQRange {
		b.qStart = start
		b.qEnd = end
		b.hasQRange = true
	} else if end.After(b.qEnd) {
		b.qEnd = end
	}

	floor := now.Add(-b.queriedRangeRetention)
	if floor.After(b.qStart) {
		b.qStart = floor
	}
	if !start.Before(floor) && start.Before(b.qStart) {
		b.qStart = start
	}
}

// Sweep front-trims trades with time < now-memoryRetention, stopping at the
// first buffered trade that is not older than the cutoff; an older trade
// appended after that one stays until the trades ahead of it age out. A
// trade with time exactly at the cutoff is retained.
func (b *Buffer) Sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.memoryRetention)

	i := 0
	for i < len(b.trades) && b.trades[i].Time.Before(cutoff) {
		i++
	}
	if i == 0 {
		return
	}
	remaining := len(b.trades) - i
	copy(b.trades, b.trades[i:])
	b.trades = b.trades[:remaining]
}
