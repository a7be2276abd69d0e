package autoloc

// Locator is the black-box relocation service described in spec.md
// §4.3/§9. It takes an Origin's current arrival set (with exclusion
// flags already applied by the caller) and returns a relocated
// Origin. Implementations are expected to be side-effect free: the
// input Origin and its Arrivals are not mutated.
//
// Modeled as a capability interface the way client.Servo and
// client.Clock stand in for hardware/algorithm black boxes.
type Locator interface {
	// LocateFree relocates with depth free to vary.
	LocateFree(o *Origin) (*Origin, error)
	// LocateFixedDepth relocates with depth held fixed at depthKm.
	LocateFixedDepth(o *Origin, depthKm float64) (*Origin, error)
	// LocateMinDepth relocates with depth free but constrained to be
	// at least minDepthKm.
	LocateMinDepth(o *Origin, minDepthKm float64) (*Origin, error)
}
