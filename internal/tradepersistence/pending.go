package tradepersistence

import (
	"sync"

	"github.com/marketpnl/pipeline/internal/bus"
)

// pendingBatch is the in-memory accumulator C2 drains on every batch-timer
// tick. It's mutated by the single consume loop and by the flusher; both
// run on the same goroutine in this implementation so the mutex is a
// safety net rather than a contention point.
type pendingBatch struct {
	mu                       sync.Mutex
	items                    []bus.ParsedTrade
	highestOffsetByPartition map[int]int64
}

func newPendingBatch() *pendingBatch {
	return &pendingBatch{highestOffsetByPartition: make(map[int]int64)}
}

func (p *pendingBatch) add(t bus.ParsedTrade) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = append(p.items, t)
	if cur, ok := p.highestOffsetByPartition[t.Partition]; !ok || t.Offset > cur {
		p.highestOffsetByPartition[t.Partition] = t.Offset
	}
}

// snapshot pops everything pending, returning it along with the highest
// offset seen per partition, and clears the accumulator.
func (p *pendingBatch) snapshot() ([]bus.ParsedTrade, map[int]int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) == 0 {
		return nil, nil
	}
	items := p.items
	offsets := p.highestOffsetByPartition
	p.items = nil
	p.highestOffsetByPartition = make(map[int]int64)
	return items, offsets
}

// restore pushes a snapshot back to the front of pending for the next
// flush attempt, merging its offsets back into the tracked highs.
func (p *pendingBatch) restore(items []bus.ParsedTrade) {
	if len(items) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = append(items, p.items...)
	for _, t := range items {
		if cur, ok := p.highestOffsetByPartition[t.Partition]; !ok || t.Offset > cur {
			p.highestOffsetByPartition[t.Partition] = t.Offset
		}
	}
}
