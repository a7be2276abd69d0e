package autoloc

import "time"

// ProcessingStatus tracks an Origin through the core loop's lifecycle.
type ProcessingStatus int

const (
	New ProcessingStatus = iota
	Updated
	Confirmed
)

// LocationStatus records the provenance of an Origin's last
// relocation.
type LocationStatus int

const (
	Automatic LocationStatus = iota
	ManualLocation
	ImportedLocation
)

// DepthType records how the Origin's depth was determined, following
// the rework pipeline's depth policy.
type DepthType int

const (
	DepthFree DepthType = iota
	DepthDefault
	DepthMinimum
	DepthManual
	DepthImported
)

// Hypocenter is a relocatable point in space and time.
type Hypocenter struct {
	Lat   float64
	Lon   float64
	Depth float64 // km
	Time  time.Time
}

// OriginQuality mirrors datamodel.h's OriginQuality: summary statistics
// derived from the defining arrival set.
type OriginQuality struct {
	AssociatedPhaseCount int
	DefiningPhaseCount   int
	AzimuthalGap         float64 // primary gap, degrees
	SecondaryAzimuthGap  float64
	MinimumDistance      float64
	MaximumDistance      float64
	MedianDistance       float64
	StandardError        float64 // RMS residual
}

// OriginError carries the locator's formal error estimate, when the
// locator implementation reports one. All-zero means "not reported".
type OriginError struct {
	TimeError        float64
	LatError         float64
	LonError         float64
	DepthError       float64
	ConfidenceEllipse [3]float64
}

// Origin is a hypocenter plus its supporting arrivals and the
// bookkeeping the core loop needs to decide whether to keep,
// supersede, or publish it.
type Origin struct {
	ID uint64
	Hypocenter

	Quality OriginQuality
	Error   OriginError

	DepthType      DepthType
	LocationStatus LocationStatus
	Status         ProcessingStatus

	Score float64

	Arrivals []Arrival

	// Imported marks an Origin fed in directly from an external
	// system rather than produced by this Nucleator/Locator pair; its
	// score is treated as 1000 during association (see associator.go).
	Imported bool
	// Manual marks an Origin a human analyst produced or touched.
	Manual bool

	CreationTime    time.Time
	LastUpdateTime  time.Time
	PublicationTime time.Time // zero until first published

	// fakeProbability is cached by the fake-origin test (fakeorigin.go)
	// so the publication filter does not need to recompute it.
	fakeProbability float64
}

// score is imported/automatic-aware and is what the nucleator and
// associator compare candidates by.
func (o *Origin) score() float64 {
	if o.Imported {
		return 1000
	}
	return o.Score
}

// findArrival returns a pointer to the Arrival for pickID, or nil.
func (o *Origin) findArrival(pickID uint64) *Arrival {
	for i := range o.Arrivals {
		if o.Arrivals[i].PickID == pickID {
			return &o.Arrivals[i]
		}
	}
	return nil
}

// definingPhaseCount recomputes Quality.DefiningPhaseCount from the
// current Arrivals slice; call after any mutation that can change
// exclusion flags.
func (o *Origin) definingPhaseCount() int {
	n := 0
	for i := range o.Arrivals {
		if o.Arrivals[i].Defining() {
			n++
		}
	}
	return n
}

// hasPFamilyArrival reports whether sta already has a defining P-family
// arrival (any phase isP accepts: P, P1, Pn, Pg, Pb) on this origin, used to
// enforce the at-most-one-P-per-station invariant during association.
func (o *Origin) hasPFamilyArrival(stationKey string, picks *PickPool) bool {
	for i := range o.Arrivals {
		a := &o.Arrivals[i]
		if !a.Defining() {
			continue
		}
		p, ok := picks.Get(a.PickID)
		if !ok {
			continue
		}
		if p.StationKey() == stationKey && isP(a.Phase) {
			return true
		}
	}
	return false
}
