package calculation

import "sync"

// partitionState tracks one partition's in-flight, completed, and
// last-committed offsets for C4's ordered-commit discipline. Concurrent
// intervals may be in flight; commits to the bus only ever advance in
// strict ascending order.
type partitionState struct {
	mu               sync.Mutex
	inFlight         map[int64]struct{}
	completed        map[int64]struct{}
	lastCommitted    *int64
	lowestDispatched *int64
}

func newPartitionState() *partitionState {
	return &partitionState{
		inFlight:  make(map[int64]struct{}),
		completed: make(map[int64]struct{}),
	}
}

// tryBeginProcessing claims offset for processing unless it's already in
// flight or completed (a duplicate delivery during in-flight processing).
func (ps *partitionState) tryBeginProcessing(offset int64) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, ok := ps.inFlight[offset]; ok {
		return false
	}
	if _, ok := ps.completed[offset]; ok {
		return false
	}
	ps.inFlight[offset] = struct{}{}
	if ps.lowestDispatched == nil || offset < *ps.lowestDispatched {
		dispatched := offset
		ps.lowestDispatched = &dispatched
	}
	return true
}

// abandon drops offset from inFlight without marking it completed — used
// when processing fails; the message is redelivered on rebalance/restart.
func (ps *partitionState) abandon(offset int64) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.inFlight, offset)
}

// markCompleted moves offset from inFlight to completed.
func (ps *partitionState) markCompleted(offset int64) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.inFlight, offset)
	ps.completed[offset] = struct{}{}
}

// commitInOrder attempts to advance lastCommitted as far as the prefix of
// contiguous completed offsets allows, calling commitFn once per advance.
// commitFn failing stops the loop; the next completion retries it.
func (ps *partitionState) commitInOrder(commitFn func(offset int64) error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var next int64
	if ps.lastCommitted == nil {
		if ps.lowestDispatched == nil {
			return
		}
		next = *ps.lowestDispatched
	} else {
		next = *ps.lastCommitted + 1
	}

	for {
		if _, ok := ps.completed[next]; !ok {
			return
		}
		if err := commitFn(next); err != nil {
			return
		}
		delete(ps.completed, next)
		committed := next
		ps.lastCommitted = &committed
		next++
	}
}
