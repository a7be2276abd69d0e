package autoloc

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"
)

// rework runs the origin through the full pipeline the C++ source
// calls after every association or nucleation event: depth policy,
// locator call, residual trimming, distant-station exclusion, RMS
// acceptance, opportunistic pick addition, outlier removal, and a final
// PKP exclusion pass. Grounded on autoloc.cpp's rework
// path (the sequence of steps between "_tryAssociate" succeeding and
// the origin reaching the publication filter).
func (c *Core) rework(o *Origin) {
	c.dropBlacklisted(o)
	c.applyDepthPolicy(o)

	if err := c.relocate(o); err != nil {
		log.Debugf("autoloc: origin %d: relocation failed: %v", o.ID, err)
	}

	c.trimResiduals(o)
	c.excludeDistantStations(o)
	c.ensureAcceptableRMS(o)
	c.addMorePicks(o)
	c.removeWorstOutliers(o)
	c.excludePKP(o)

	o.Quality.DefiningPhaseCount = o.definingPhaseCount()
	o.Quality.AssociatedPhaseCount = len(o.Arrivals)
	c.updateQuality(o)
	o.Score = originScore(o, c.Picks, c.dir, c.nucleator.score)
}

// dropBlacklisted marks arrivals excluded when their pick has been
// blacklisted (by an operator or by the supersede step) or has fallen
// out of the pool entirely, clearing the flag again if neither holds.
func (c *Core) dropBlacklisted(o *Origin) {
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		pk, ok := c.Picks.Get(a.PickID)
		if !ok || pk.Blacklisted {
			a.Excluded |= BlacklistedPick
		} else {
			a.Excluded &^= BlacklistedPick
		}
	}
}

// applyDepthPolicy decides which of LocateFree/LocateFixedDepth/
// LocateMinDepth the upcoming relocate call should use, following the
// adoptManualDepth/adoptImportedOriginDepth/tryDefaultDepth knobs.
func (c *Core) applyDepthPolicy(o *Origin) {
	switch {
	case o.Manual && c.cfg.AdoptManualDepth:
		o.DepthType = DepthManual
	case o.Imported && c.cfg.AdoptImportedOriginDepth:
		o.DepthType = DepthImported
	case c.cfg.TryDefaultDepth && o.DepthType == DepthFree && o.Depth <= 0:
		o.Depth = c.cfg.DefaultDepth
		o.DepthType = DepthDefault
	}
	if o.Depth < c.cfg.MinimumDepth {
		o.Depth = c.cfg.MinimumDepth
	}
	if o.Depth > c.cfg.MaxDepth {
		o.Depth = c.cfg.MaxDepth
	}
}

// relocate calls the locator with the method dictated by DepthType,
// replacing o's Hypocenter in place on success.
func (c *Core) relocate(o *Origin) error {
	var (
		result *Origin
		err    error
	)
	switch o.DepthType {
	case DepthManual, DepthImported, DepthDefault:
		result, err = c.locator.LocateFixedDepth(o, o.Depth)
	case DepthMinimum:
		result, err = c.locator.LocateMinDepth(o, c.cfg.MinimumDepth)
	default:
		result, err = c.locator.LocateFree(o)
	}
	if err != nil {
		return err
	}
	o.Hypocenter = result.Hypocenter
	o.Error = result.Error
	for i := range o.Arrivals {
		if ra := result.findArrival(o.Arrivals[i].PickID); ra != nil {
			o.Arrivals[i].Residual = ra.Residual
			o.Arrivals[i].Distance = ra.Distance
			o.Arrivals[i].Azimuth = ra.Azimuth
		}
	}
	return nil
}

// trimResiduals excludes arrivals whose residual exceeds
// MaxResidualUse, following the LargeResidual exclusion flag.
func (c *Core) trimResiduals(o *Origin) {
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if absf(a.Residual) > c.cfg.MaxResidualUse {
			a.Excluded |= LargeResidual
		} else {
			a.Excluded &^= LargeResidual
		}
	}
}

// excludeDistantStations excludes arrivals from stations beyond their
// configured (or network-default) maximum location distance.
func (c *Core) excludeDistantStations(o *Origin) {
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		pk, ok := c.Picks.Get(a.PickID)
		if !ok {
			continue
		}
		sta, ok := c.dir.Lookup(pk.Net, pk.Sta, pk.Loc)
		if !ok {
			continue
		}
		limit := c.cfg.MaxStaDist
		if sta.MaxLocDist > 0 {
			limit = sta.MaxLocDist
		}
		if a.Distance > limit {
			a.Excluded |= StationDistance
		} else {
			a.Excluded &^= StationDistance
		}
	}
}

// ensureAcceptableRMS iteratively excludes the arrival with the
// largest residual until the RMS of the defining set is at or below
// MaxRMS, or too few defining arrivals remain to keep trying.
// Grounded on util.cpp's arrivalWithLargestResidual usage in the
// rework loop.
func (c *Core) ensureAcceptableRMS(o *Origin) {
	for {
		rms, n := definingRMS(o)
		if n < 4 || rms <= c.cfg.MaxRMS {
			return
		}
		worst := arrivalWithLargestResidual(o)
		if worst == nil {
			return
		}
		worst.Excluded |= DeterioratesSolution
	}
}

// arrivalWithLargestResidual returns the defining arrival with the
// largest absolute residual, or nil if none are defining.
func arrivalWithLargestResidual(o *Origin) *Arrival {
	var worst *Arrival
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if !a.Defining() {
			continue
		}
		if worst == nil || absf(a.Residual) > absf(worst.Residual) {
			worst = a
		}
	}
	return worst
}

func definingRMS(o *Origin) (rms float64, n int) {
	sumSq := 0.0
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if !a.Defining() {
			continue
		}
		sumSq += a.Residual * a.Residual
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return math.Sqrt(sumSq / float64(n)), n
}

// addMorePicks looks for additional picks in the pool that now match
// this origin (the just-relocated hypocenter may fit picks that didn't
// fit the pre-relocation position), respecting the one-P-per-station
// invariant.
func (c *Core) addMorePicks(o *Origin) {
	assocs := c.associator.FindMatchingPicks(o, c.Picks)
	for _, a := range assocs {
		if o.findArrival(a.PickID) != nil {
			continue
		}
		pk, ok := c.Picks.Get(a.PickID)
		if !ok || pk.OriginID != 0 {
			continue
		}
		if isP(a.Phase) && o.hasPFamilyArrival(pk.StationKey(), c.Picks) {
			continue
		}
		o.Arrivals = append(o.Arrivals, Arrival{
			PickID:   a.PickID,
			Phase:    a.Phase,
			Distance: a.Distance,
			Azimuth:  a.Azimuth,
			Residual: a.Residual,
		})
		pk.OriginID = o.ID
	}
}

// removeWorstOutliers temporarily excludes arrivals whose residual is
// a large multiple of the RMS of the *other* defining arrivals, a
// softer version of ensureAcceptableRMS intended to catch outliers
// that don't by themselves push the overall RMS over MaxRMS. The
// leave-one-out RMS is used rather than the whole-set RMS because a
// single dominant outlier otherwise inflates its own comparison
// baseline enough to never be flagged.
func (c *Core) removeWorstOutliers(o *Origin) {
	sumSq, n := 0.0, 0
	for i := range o.Arrivals {
		if o.Arrivals[i].Defining() {
			sumSq += o.Arrivals[i].Residual * o.Arrivals[i].Residual
			n++
		}
	}
	if n < 6 {
		return
	}
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if !a.Defining() {
			continue
		}
		otherRMS := math.Sqrt((sumSq - a.Residual*a.Residual) / float64(n-1))
		if otherRMS > 0 && absf(a.Residual) > 4*otherRMS {
			a.Excluded |= TemporarilyExcluded
		} else {
			a.Excluded &^= TemporarilyExcluded
		}
	}
}

// excludePKP marks PKP-family arrivals as UnusedPhase unless
// AggressivePKP is set, following the phaseScore=0.3 discount in
// originScore for unused PKP phases.
func (c *Core) excludePKP(o *Origin) {
	if c.cfg.AggressivePKP {
		return
	}
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if isPKP(a.Phase) {
			a.Excluded |= UnusedPhase
		} else {
			a.Excluded &^= UnusedPhase
		}
	}
}

// updateQuality recomputes the azimuthal gap fields from the defining
// arrival set.
func (c *Core) updateQuality(o *Origin) {
	var azimuths []float64
	var distances []float64
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if !a.Defining() {
			continue
		}
		azimuths = append(azimuths, a.Azimuth)
		distances = append(distances, a.Distance)
	}
	primary, secondary := determineAzimuthalGaps(azimuths)
	o.Quality.AzimuthalGap = primary
	o.Quality.SecondaryAzimuthGap = secondary
	if len(distances) > 0 {
		sort.Float64s(distances)
		o.Quality.MinimumDistance = distances[0]
		o.Quality.MaximumDistance = distances[len(distances)-1]
		o.Quality.MedianDistance = distances[len(distances)/2]
	}
	rms, _ := definingRMS(o)
	o.Quality.StandardError = rms
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
