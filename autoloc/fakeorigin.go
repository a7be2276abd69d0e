package autoloc

import "math"

// fakeOriginProbability estimates the chance that o is a coincidental
// false alarm rather than a real event: thin defining-phase counts,
// wide azimuthal gaps, and poor RMS all push the estimate up. Grounded
// on the fake-origin test described for the rework/filter stages of
// autoloc.cpp; the original ties this to a configurable probability
// model keyed on the same quality metrics used here.
func (c *Core) fakeOriginProbability(o *Origin) float64 {
	n := float64(o.Quality.DefiningPhaseCount)
	if n <= 0 {
		return 1
	}

	// Fewer defining phases than the minimum required look
	// increasingly coincidental; MinPhaseCount phases is the floor at
	// which the test considers an origin "not obviously fake" on
	// phase count alone.
	phaseTerm := math.Max(0, float64(c.cfg.MinPhaseCount)-n) / float64(c.cfg.MinPhaseCount)

	gapTerm := o.Quality.SecondaryAzimuthGap / 360.0

	rmsTerm := 0.0
	if c.cfg.MaxRMS > 0 {
		rmsTerm = math.Max(0, o.Quality.StandardError-c.cfg.GoodRMS) / c.cfg.MaxRMS
	}

	p := 0.5*phaseTerm + 0.3*gapTerm + 0.2*rmsTerm
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
