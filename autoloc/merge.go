package autoloc

import "math"

// equivalenceTimeWindow and equivalenceDistanceDeg bound when two
// origins are considered the same event. Grounded on autoloc.cpp's
// origin-equivalence test (same event if close enough in time and
// space that one could plausibly be a refinement of the other).
const (
	equivalenceTimeWindow  = 30.0 // seconds
	equivalenceDistanceDeg = 2.0  // degrees
)

// originsEquivalent reports whether a and b are close enough in time
// and space to be considered the same physical event.
func (c *Core) originsEquivalent(a, b *Origin) bool {
	if math.Abs(a.Time.Sub(b.Time).Seconds()) > equivalenceTimeWindow {
		return false
	}
	delta, _, _ := Delazi(a.Lat, a.Lon, b.Lat, b.Lon)
	return delta <= equivalenceDistanceDeg
}

// mergeOrigins folds "incoming" into "keep": every arrival from
// incoming not already present on keep (by pick ID) is appended, keep
// takes incoming's hypocenter if incoming has the higher Score, the
// defining phase count is recomputed (Score itself is not recomputed),
// and incoming is removed from the origin set.
// Grounded on OriginVector::mergeEquivalentOrigins.
func (c *Core) mergeOrigins(keep, incoming *Origin) {
	if keep.ID == incoming.ID {
		return
	}
	for _, a := range incoming.Arrivals {
		if keep.findArrival(a.PickID) != nil {
			continue
		}
		keep.Arrivals = append(keep.Arrivals, a)
		if pk, ok := c.Picks.Get(a.PickID); ok {
			pk.OriginID = keep.ID
		}
	}
	if incoming.Score > keep.Score {
		keep.Hypocenter = incoming.Hypocenter
	}
	keep.Quality.DefiningPhaseCount = keep.definingPhaseCount()
	keep.Status = Updated
	keep.LastUpdateTime = incoming.LastUpdateTime
	c.Origins.Delete(incoming.ID)
}
