package ais

import (
	"sort"
	"sync"
)

// Tracker keeps the last accepted position per vessel. The broad
// subscription delivers frames for any vessel in coverage, not just ones
// being looked up, so the table grows as the feed runs.
//
// Guarded by a mutex: the feed read loop and HTTP handlers touch it from
// different goroutines.
type Tracker struct {
	mu        sync.RWMutex
	positions map[string]VesselPosition
}

func NewTracker() *Tracker {
	return &Tracker{positions: map[string]VesselPosition{}}
}

// Record stores pos as the latest position for its vessel.
func (t *Tracker) Record(pos *VesselPosition) {
	if pos == nil || pos.MMSI == "" {
		return
	}
	t.mu.Lock()
	t.positions[pos.MMSI] = *pos
	t.mu.Unlock()
}

// Get returns the last recorded position for mmsi.
func (t *Tracker) Get(mmsi string) (VesselPosition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pos, ok := t.positions[mmsi]
	return pos, ok
}

// Snapshot returns all last-known positions ordered by MMSI.
func (t *Tracker) Snapshot() []VesselPosition {
	t.mu.RLock()
	out := make([]VesselPosition, 0, len(t.positions))
	for _, pos := range t.positions {
		out = append(out, pos)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out
}
