package autoloc

import "math"

// simpleVp is a constant P-wave velocity, in km/s, used only by
// ConstantVelocityTable. Travel-time table internals are explicitly
// out of scope (Non-goals): production deployments are expected to
// supply a TravelTimeTable backed by a real 1-D or 3-D Earth model.
const simpleVp = 8.0

// earthRadiusKm is used to turn angular distance into a surface-path
// length for the constant-velocity approximation below.
const earthRadiusKm = 6371.0

// ConstantVelocityTable is a deliberately crude TravelTimeTable
// implementation: straight-line P and PKP arrivals at a single
// constant velocity. It exists so the pipeline has something to
// exercise in tests and in cmd/autolocd when no real travel-time
// service is configured; it is not a substitute for a real model.
type ConstantVelocityTable struct {
	VpKmS float64
}

// NewConstantVelocityTable returns a table using simpleVp.
func NewConstantVelocityTable() *ConstantVelocityTable {
	return &ConstantVelocityTable{VpKmS: simpleVp}
}

func (t *ConstantVelocityTable) Compute(srcLat, srcLon, srcDepth, rcvLat, rcvLon, _ float64) ([]TravelTime, error) {
	delta, _, _ := Delazi(srcLat, srcLon, rcvLat, rcvLon)
	surfaceKm := delta * degToRad * earthRadiusKm
	straightKm := math.Hypot(surfaceKm, srcDepth)
	tP := straightKm / t.VpKmS
	slowness := (straightKm / delta) / t.VpKmS / earthRadiusKm / degToRad // s/deg, approximate

	out := []TravelTime{{Phase: "P", Time: tP, Slowness: slowness}}
	if delta >= maxPdiffDelta {
		out = append(out, TravelTime{Phase: "PKPdf", Time: tP * 1.6, Slowness: slowness * 0.6})
	}
	return out, nil
}
