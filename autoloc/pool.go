package autoloc

import (
	"sync/atomic"
	"time"
)

// idAllocator hands out monotonically increasing uint64 handles shared
// by PickPool and OriginSet, following the arena + stable-index model
// described for the data model: objects never move, and references
// between them are plain integers rather than pointers or
// intrusively-refcounted smart pointers.
type idAllocator struct {
	next uint64
}

func (a *idAllocator) alloc() uint64 {
	return atomic.AddUint64(&a.next, 1)
}

// duplicatePickWindow is the +/- window within which two picks from
// the same station are considered the same physical arrival, per
// spec.md's duplicate-pick rule.
const duplicatePickWindow = time.Second

// PickPool is the arena of all Picks currently known to the core,
// keyed by their allocated ID. It also maintains a secondary index by
// external pick ID string (as delivered by the Event Source) so
// repeated delivery of the same pick is detected, and a tertiary index
// by station so same-station time-window lookups (duplicate detection,
// supersede) don't need a full scan.
type PickPool struct {
	ids       idAllocator
	byID      map[uint64]*Pick
	byExt     map[string]uint64
	byStation map[string][]*Pick
}

// NewPickPool returns an empty pool.
func NewPickPool() *PickPool {
	return &PickPool{
		byID:      make(map[uint64]*Pick),
		byExt:     make(map[string]uint64),
		byStation: make(map[string][]*Pick),
	}
}

// Insert allocates an ID for p and adds it to the pool. extID is the
// externally-assigned pick identifier (station.time.author, or
// whatever the Event Source uses); it is used only for duplicate
// detection. A second pick for the same station within
// duplicatePickWindow of one already in the pool is also rejected as a
// duplicate, regardless of extID.
func (pp *PickPool) Insert(p *Pick, extID string) (uint64, error) {
	if _, ok := pp.byExt[extID]; ok {
		return 0, ErrDuplicatePick
	}
	key := p.StationKey()
	for _, other := range pp.byStation[key] {
		if absDuration(p.Time.Sub(other.Time)) < duplicatePickWindow {
			return 0, ErrDuplicatePick
		}
	}
	p.ID = pp.ids.alloc()
	pp.byID[p.ID] = p
	pp.byExt[extID] = p.ID
	pp.byStation[key] = append(pp.byStation[key], p)
	return p.ID, nil
}

// StationPicks returns every pick currently held for a station key, in
// insertion order. Used by the supersede step to find recent
// same-station picks without scanning the whole pool.
func (pp *PickPool) StationPicks(key string) []*Pick {
	return pp.byStation[key]
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Get returns the Pick for id.
func (pp *PickPool) Get(id uint64) (*Pick, bool) {
	p, ok := pp.byID[id]
	return p, ok
}

// Len returns the number of picks currently held.
func (pp *PickPool) Len() int {
	return len(pp.byID)
}

// Each calls fn for every pick in the pool. Iteration order is
// unspecified.
func (pp *PickPool) Each(fn func(*Pick)) {
	for _, p := range pp.byID {
		fn(p)
	}
}

// Cleanup removes every pick older than minTime that is not currently
// associated with a live origin, mirroring the cleanup invariant of
// the concurrency model: picks are only retained as long as they
// support a live origin or are recent enough to still be nucleated.
func (pp *PickPool) Cleanup(minTime time.Time) int {
	removed := 0
	for id, p := range pp.byID {
		if p.Time.Before(minTime) && p.OriginID == 0 {
			delete(pp.byID, id)
			pp.removeFromStationIndex(p)
			removed++
		}
	}
	return removed
}

func (pp *PickPool) removeFromStationIndex(p *Pick) {
	key := p.StationKey()
	list := pp.byStation[key]
	for i, other := range list {
		if other == p {
			pp.byStation[key] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// OriginSet is the arena of all Origins currently tracked by the core.
type OriginSet struct {
	ids  idAllocator
	byID map[uint64]*Origin
}

// NewOriginSet returns an empty set.
func NewOriginSet() *OriginSet {
	return &OriginSet{byID: make(map[uint64]*Origin)}
}

// Insert allocates an ID for o, adds it to the set, and returns the ID.
func (os *OriginSet) Insert(o *Origin) uint64 {
	o.ID = os.ids.alloc()
	os.byID[o.ID] = o
	return o.ID
}

// Get returns the Origin for id.
func (os *OriginSet) Get(id uint64) (*Origin, bool) {
	o, ok := os.byID[id]
	return o, ok
}

// Delete removes an Origin from the set.
func (os *OriginSet) Delete(id uint64) {
	delete(os.byID, id)
}

// Len returns the number of origins currently held.
func (os *OriginSet) Len() int {
	return len(os.byID)
}

// Each calls fn for every origin in the set. Iteration order is
// unspecified.
func (os *OriginSet) Each(fn func(*Origin)) {
	for _, o := range os.byID {
		fn(o)
	}
}

// bestEquivalentOrigin returns the highest-scoring Origin among those
// for which eq(candidate) reports equivalence to o, or o itself if
// none scores higher. Grounded on OriginVector::bestEquivalentOrigin.
func (os *OriginSet) bestEquivalentOrigin(o *Origin, eq func(a, b *Origin) bool) *Origin {
	best := o
	for _, cand := range os.byID {
		if cand.ID == o.ID {
			continue
		}
		if eq(o, cand) && cand.score() > best.score() {
			best = cand
		}
	}
	return best
}

// originGrace is the fixed retention grace period spec.md adds on top
// of maxAge before an origin is dropped, regardless of publication
// state: testable invariant 5 requires no Origin with
// time < now-(maxAge+1800) survive a cleanup pass.
const originGrace = 1800 * time.Second

// Cleanup drops origins whose hypocenter time is older than
// now-(maxAge+originGrace).
func (os *OriginSet) Cleanup(maxAge time.Duration, now time.Time) int {
	cutoff := now.Add(-(maxAge + originGrace))
	removed := 0
	for id, o := range os.byID {
		if o.Time.Before(cutoff) {
			delete(os.byID, id)
			removed++
		}
	}
	return removed
}
