package autoloc

import "strings"

// TravelTime is a single phase arrival time prediction for a fixed
// source/receiver/depth geometry.
type TravelTime struct {
	Phase string
	Time  float64 // seconds after origin time
	Slowness float64 // s/deg, ray-parameter derived horizontal slowness
}

// TravelTimeTable is the black-box travel-time service described in
// spec.md §6: given a source location/depth and a receiver location,
// it returns every phase it can predict, sorted by Time ascending.
// Implementations are expected to be pure functions of their inputs;
// autoloc never caches across calls with different geometry.
type TravelTimeTable interface {
	Compute(srcLat, srcLon, srcDepth, rcvLat, rcvLon, rcvAlt float64) ([]TravelTime, error)
}

// maxPdiffDelta is the distance, in degrees, beyond which the P1 phase
// selector switches to PKP. Grounded on util.cpp's travelTime().
const maxPdiffDelta = 115.0

// FirstArrival implements the phase-selector semantics used by the
// nucleator and the rework pipeline: requesting "P1" returns the first
// P-type arrival below maxPdiffDelta and the first PKP-family arrival
// at or beyond it; any other phase name is looked up by exact or
// prefix match against table, which must already be sorted by Time.
func FirstArrival(table []TravelTime, phase string, delta float64) (TravelTime, bool) {
	want := phase
	if phase == "P1" {
		if delta < maxPdiffDelta {
			want = "P"
		} else {
			want = "PKP"
		}
	}
	for _, tt := range table {
		if tt.Phase == want || (want != "P" && strings.HasPrefix(tt.Phase, want)) {
			return tt, true
		}
	}
	return TravelTime{}, false
}
