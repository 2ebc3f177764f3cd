package intervalcache

import (
	"testing"
	"time"
)

func key(n int) Key {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Key{Start: base.Add(time.Duration(n) * time.Minute), End: base.Add(time.Duration(n+1) * time.Minute)}
}

func TestAddAndContains(t *testing.T) {
	c := New(2)
	if c.Contains(key(0)) {
		t.Fatalf("expected empty cache to not contain key")
	}
	c.Add(key(0))
	if !c.Contains(key(0)) {
		t.Fatalf("expected cache to contain added key")
	}
}

func TestEvictsOldestPastCapacity(t *testing.T) {
	c := New(2)
	c.Add(key(0))
	c.Add(key(1))
	c.Add(key(2))

	if c.Contains(key(0)) {
		t.Fatalf("expected oldest key to be evicted once over capacity")
	}
	if !c.Contains(key(1)) || !c.Contains(key(2)) {
		t.Fatalf("expected the two most recent keys to remain")
	}
}

func TestReAddIsNoop(t *testing.T) {
	c := New(1)
	c.Add(key(0))
	c.Add(key(0))
	c.Add(key(1))

	if c.Contains(key(0)) {
		t.Fatalf("re-adding an existing key should not reset its position")
	}
	if !c.Contains(key(1)) {
		t.Fatalf("expected key(1) to have evicted key(0)")
	}
}
