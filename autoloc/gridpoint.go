package autoloc

import (
	"math"
	"sort"
	"time"
)

// gridPointDefaults mirrors GridPoint's C++ constructor defaults.
const (
	defaultRadius     = 4.0
	defaultDT         = 50.0
	defaultMaxStaDist = 180.0
	defaultNmin       = 6
	defaultNminPrelim = 4
	pairDT0           = 4.0 // hardcoded dtmax offset, grounded on nucleator.cpp
)

// stationWrapper caches the geometry between a grid point and a
// station: computed once, the first time a pick from that station
// reaches the grid point.
type stationWrapper struct {
	distance float64 // degrees
	azimuth  float64
	slowness float64 // s/deg
	ttime    float64 // seconds, travel time for "P1" at this distance
}

// projectedPick is a pick placed on the grid point's shared nucleation
// timeline: pick.Time minus the travel time to this grid point from
// the pick's station.
type projectedPick struct {
	pickID        uint64
	projectedTime time.Time
	azimuth       float64
	slowness      float64
}

// GridPoint is one node of the nucleation grid: a candidate hypocenter
// location/depth with its own clustering radius and thresholds.
// Grounded on nucleator.cpp's GridPoint.
type GridPoint struct {
	Lat, Lon, Depth float64
	Radius          float64 // degrees, pairwise clustering radius
	MaxStaDist      float64 // degrees
	DT              float64 // seconds, clustering time window
	Nmin            int
	NminPrelim      int

	stations map[string]*stationWrapper
	picks    []projectedPick // kept sorted by projectedTime
}

// NewGridPoint returns a GridPoint with the C++ defaults applied to
// any zero field.
func NewGridPoint(lat, lon, depth float64) *GridPoint {
	return &GridPoint{
		Lat: lat, Lon: lon, Depth: depth,
		Radius:     defaultRadius,
		MaxStaDist: defaultMaxStaDist,
		DT:         defaultDT,
		Nmin:       defaultNmin,
		NminPrelim: defaultNminPrelim,
		stations:   make(map[string]*stationWrapper),
	}
}

// setupStation computes and caches the geometry from this grid point
// to sta, rejecting stations beyond MaxStaDist or the station's own
// MaxNucDist. Grounded on nucleator.cpp's GridPoint::setupStation.
func (g *GridPoint) setupStation(sta *Station, tt TravelTimeTable) (*stationWrapper, bool) {
	if w, ok := g.stations[sta.Key()]; ok {
		return w, w != nil
	}
	delta, azimuth, _ := Delazi(g.Lat, g.Lon, sta.Lat, sta.Lon)
	if delta > g.MaxStaDist {
		g.stations[sta.Key()] = nil
		return nil, false
	}
	if sta.MaxNucDist > 0 && delta > sta.MaxNucDist {
		g.stations[sta.Key()] = nil
		return nil, false
	}
	table, err := tt.Compute(g.Lat, g.Lon, g.Depth, sta.Lat, sta.Lon, sta.Elevation)
	if err != nil {
		g.stations[sta.Key()] = nil
		return nil, false
	}
	arr, ok := FirstArrival(table, "P1", delta)
	if !ok {
		g.stations[sta.Key()] = nil
		return nil, false
	}
	w := &stationWrapper{distance: delta, azimuth: azimuth, slowness: arr.Slowness, ttime: arr.Time}
	g.stations[sta.Key()] = w
	return w, true
}

// candidate is the result of a successful GridPoint.feed call: a group
// of picks that clustered tightly enough around the triggering pick to
// be considered a nucleation candidate.
type candidate struct {
	gp      *GridPoint
	pickIDs []uint64
}

// feed projects pick onto this grid point's timeline and tests whether
// it completes a tight enough cluster to nucleate. Grounded on
// nucleator.cpp's GridPoint::feed: O(n^2) pairwise azimuth/slowness
// test within the +/-DT window around the new pick's projected time.
func (g *GridPoint) feed(pick *Pick, sta *Station, tt TravelTimeTable, otime time.Time) (*candidate, bool) {
	w, ok := g.setupStation(sta, tt)
	if !ok {
		return nil, false
	}

	pt := projectedPick{
		pickID:        pick.ID,
		projectedTime: pick.Time.Add(-time.Duration(w.ttime * float64(time.Second))),
		azimuth:       w.azimuth,
		slowness:      w.slowness,
	}
	idx := sort.Search(len(g.picks), func(i int) bool { return !g.picks[i].projectedTime.Before(pt.projectedTime) })
	g.picks = append(g.picks, projectedPick{})
	copy(g.picks[idx+1:], g.picks[idx:])
	g.picks[idx] = pt

	lo := pt.projectedTime.Add(-time.Duration(g.DT * float64(time.Second)))
	hi := pt.projectedTime.Add(time.Duration(g.DT * float64(time.Second)))
	loIdx := sort.Search(len(g.picks), func(i int) bool { return !g.picks[i].projectedTime.Before(lo) })
	hiIdx := sort.Search(len(g.picks), func(i int) bool { return g.picks[i].projectedTime.After(hi) })
	window := g.picks[loIdx:hiIdx]

	count := make([]int, len(window))
	flagged := make([]bool, len(window))
	newIdx := -1
	for i := range window {
		if window[i].pickID == pick.ID {
			newIdx = i
		}
	}
	for i := 0; i < len(window); i++ {
		for k := i + 1; k < len(window); k++ {
			aziDiff := math.Abs(math.Mod((window[k].azimuth-window[i].azimuth)+180, 360) - 180)
			dtmax := g.Radius*(window[i].slowness+window[k].slowness)*aziDiff/90 + pairDT0
			dt := math.Abs(window[k].projectedTime.Sub(window[i].projectedTime).Seconds())
			if dt <= dtmax {
				count[i]++
				count[k]++
				if i == newIdx || k == newIdx {
					flagged[i] = true
					flagged[k] = true
				}
			}
		}
	}

	flaggedCount := 0
	for _, f := range flagged {
		if f {
			flaggedCount++
		}
	}
	if flaggedCount < g.Nmin {
		return nil, false
	}

	c := &candidate{gp: g}
	for i, f := range window {
		if f {
			c.pickIDs = append(c.pickIDs, window[i].pickID)
		}
	}
	return c, true
}

// cleanup drops projected picks older than minTime, mirroring
// GridPoint::cleanup.
func (g *GridPoint) cleanup(minTime time.Time) {
	idx := sort.Search(len(g.picks), func(i int) bool { return !g.picks[i].projectedTime.Before(minTime) })
	g.picks = g.picks[idx:]
}
