package aislookup

import (
	"sync"
	"time"

	"github.com/theoremus-urban-solutions/ais-vessel-lookup/ais"
)

// PositionCache memoizes resolved positions per MMSI so bursts of requests
// for the same vessel don't each pay a live-feed wait or a scrape. A ttl of
// zero disables expiry.
type PositionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	pos      *ais.VesselPosition
	storedAt time.Time
}

func NewPositionCache(ttl time.Duration) *PositionCache {
	return &PositionCache{ttl: ttl, now: time.Now, entries: map[string]cacheEntry{}}
}

func (pc *PositionCache) Get(mmsi string) (*ais.VesselPosition, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	e, ok := pc.entries[mmsi]
	if !ok {
		return nil, false
	}
	if pc.ttl > 0 && pc.now().Sub(e.storedAt) > pc.ttl {
		delete(pc.entries, mmsi)
		return nil, false
	}
	return e.pos, true
}

func (pc *PositionCache) Put(mmsi string, pos *ais.VesselPosition) {
	pc.mu.Lock()
	pc.entries[mmsi] = cacheEntry{pos: pos, storedAt: pc.now()}
	pc.mu.Unlock()
}
