package autoloc

// passesFilters applies the minimum-quality gate an Origin must clear
// before it is even considered for publication: enough defining
// phases, high enough score (or an explicit nucleator bypass for
// imported/manual origins), and an acceptable secondary azimuthal gap.
// Grounded on the filter stage of autoloc.cpp, run after rework and
// before the fake-origin test.
func (c *Core) passesFilters(o *Origin) bool {
	if o.Quality.DefiningPhaseCount < c.cfg.MinPhaseCount {
		return false
	}
	minScore := c.cfg.MinScore
	if o.Imported || o.Manual {
		minScore = c.cfg.MinScoreBypassNucleator
		if o.score() >= minScore {
			return true
		}
	}
	if o.Score < minScore {
		return false
	}
	if o.Quality.SecondaryAzimuthGap > c.cfg.MaxAziGapSecondary {
		return false
	}
	return true
}
