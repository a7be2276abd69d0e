package autoloc

import (
	"math"
	"time"
)

// GridLocator is a minimal, dependency-free Locator implementation
// used as the default when no external locator service is configured,
// and in tests. It refines a hypocenter by coordinate-descent search
// over a shrinking step size, minimizing the RMS residual over the
// defining arrivals. Non-linear locator internals are explicitly out
// of scope for this project (Non-goals); this exists only so the
// pipeline has something to call during development and testing, not
// as a production-grade locator.
type GridLocator struct {
	tt    TravelTimeTable
	dir   *Directory
	picks *PickPool
}

// NewGridLocator returns a GridLocator using tt for travel times and
// dir/picks to resolve each arrival's station and observation time.
func NewGridLocator(tt TravelTimeTable, dir *Directory, picks *PickPool) *GridLocator {
	return &GridLocator{tt: tt, dir: dir, picks: picks}
}

func (l *GridLocator) LocateFree(o *Origin) (*Origin, error) {
	return l.locate(o, o.Depth, false, 0)
}

func (l *GridLocator) LocateFixedDepth(o *Origin, depthKm float64) (*Origin, error) {
	return l.locate(o, depthKm, true, 0)
}

func (l *GridLocator) LocateMinDepth(o *Origin, minDepthKm float64) (*Origin, error) {
	return l.locate(o, math.Max(o.Depth, minDepthKm), false, minDepthKm)
}

func (l *GridLocator) definingCount(o *Origin) int {
	n := 0
	for i := range o.Arrivals {
		if o.Arrivals[i].Excluded == NotExcluded {
			n++
		}
	}
	return n
}

// locate runs coordinate descent on lat/lon(/depth) starting from o's
// current hypocenter and arrival time, evaluating RMS residual through
// rms, then fills in the final distance/azimuth/residual per arrival.
func (l *GridLocator) locate(o *Origin, depth float64, fixedDepth bool, minDepth float64) (*Origin, error) {
	if l.definingCount(o) < 4 {
		return nil, ErrInsufficientArrivals
	}

	lat, lon, dep, otime := o.Lat, o.Lon, depth, o.Time
	if dep == 0 {
		dep = 10
	}
	if otime.IsZero() {
		otime = earliestPickTime(o, l.picks)
	}
	best := l.rms(o, lat, lon, dep, otime)

	step := 0.5
	for iter := 0; iter < 40 && step > 1e-3; iter++ {
		improved := false
		type trial struct{ dlat, dlon, ddep, dt float64 }
		trials := []trial{{step, 0, 0, 0}, {-step, 0, 0, 0}, {0, step, 0, 0}, {0, -step, 0, 0}, {0, 0, 0, step}, {0, 0, 0, -step}}
		if !fixedDepth {
			trials = append(trials, trial{0, 0, step, 0}, trial{0, 0, -step, 0})
		}
		for _, t := range trials {
			ndep := dep + t.ddep
			if ndep < minDepth {
				ndep = minDepth
			}
			ntime := otime.Add(time.Duration(t.dt * float64(time.Second)))
			r := l.rms(o, lat+t.dlat, lon+t.dlon, ndep, ntime)
			if r < best {
				best = r
				lat += t.dlat
				lon += t.dlon
				dep = ndep
				otime = ntime
				improved = true
			}
		}
		if !improved {
			step /= 2
		}
	}

	out := *o
	out.Lat, out.Lon, out.Depth, out.Time = lat, lon, dep, otime
	out.Arrivals = append([]Arrival(nil), o.Arrivals...)
	if err := l.fillArrivals(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// predictedResidual returns the observed-minus-predicted residual (in
// seconds) for a single arrival at the trial hypocenter, along with
// the distance/azimuth used, or ok=false if the pick/station/travel
// time cannot be resolved.
func (l *GridLocator) predictedResidual(a *Arrival, lat, lon, dep float64, otime time.Time) (residual, delta, azimuth float64, ok bool) {
	pick, found := l.picks.Get(a.PickID)
	if !found {
		return 0, 0, 0, false
	}
	sta, found := l.dir.Lookup(pick.Net, pick.Sta, pick.Loc)
	if !found {
		return 0, 0, 0, false
	}
	delta, azimuth, _ = Delazi(lat, lon, sta.Lat, sta.Lon)
	table, err := l.tt.Compute(lat, lon, dep, sta.Lat, sta.Lon, sta.Elevation)
	if err != nil {
		return 0, 0, 0, false
	}
	arr, found := FirstArrival(table, a.Phase, delta)
	if !found {
		arr, found = FirstArrival(table, "P1", delta)
	}
	if !found {
		return 0, 0, 0, false
	}
	predicted := otime.Add(time.Duration(arr.Time * float64(time.Second)))
	return pick.Time.Sub(predicted).Seconds(), delta, azimuth, true
}

func (l *GridLocator) rms(o *Origin, lat, lon, dep float64, otime time.Time) float64 {
	sumSq, n := 0.0, 0
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if a.Excluded != NotExcluded {
			continue
		}
		r, _, _, ok := l.predictedResidual(a, lat, lon, dep, otime)
		if !ok {
			continue
		}
		sumSq += r * r
		n++
	}
	if n == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sumSq / float64(n))
}

func (l *GridLocator) fillArrivals(o *Origin) error {
	found := 0
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		r, delta, azimuth, ok := l.predictedResidual(a, o.Lat, o.Lon, o.Depth, o.Time)
		if !ok {
			continue
		}
		a.Residual = r
		a.Distance = delta
		a.Azimuth = azimuth
		found++
	}
	if found == 0 {
		return ErrDidNotConverge
	}
	return nil
}

func earliestPickTime(o *Origin, picks *PickPool) time.Time {
	var earliest time.Time
	for i := range o.Arrivals {
		p, ok := picks.Get(o.Arrivals[i].PickID)
		if !ok {
			continue
		}
		if earliest.IsZero() || p.Time.Before(earliest) {
			earliest = p.Time
		}
	}
	return earliest
}
