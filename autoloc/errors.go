package autoloc

import "errors"

// Sentinel errors returned from the data model and locator adapter.
// None of these are ever allowed to propagate out of the core
// processing loop; ProcessPick and Tick always recover them into a
// logged rejection instead.
var (
	// ErrUnknownStation is returned when a pick references a station
	// that is not present in the Directory.
	ErrUnknownStation = errors.New("autoloc: unknown station")

	// ErrDuplicatePick is returned when a pick with the same ID is fed
	// twice.
	ErrDuplicatePick = errors.New("autoloc: duplicate pick id")

	// ErrPickNotFound is returned by PickPool lookups.
	ErrPickNotFound = errors.New("autoloc: pick not found")

	// ErrOriginNotFound is returned by OriginSet lookups.
	ErrOriginNotFound = errors.New("autoloc: origin not found")

	// ErrDidNotConverge is returned by a Locator implementation when a
	// relocation attempt fails to converge on a stable hypocenter.
	ErrDidNotConverge = errors.New("autoloc: locator did not converge")

	// ErrInsufficientArrivals is returned by a Locator implementation
	// when fewer than four defining arrivals are available.
	ErrInsufficientArrivals = errors.New("autoloc: insufficient defining arrivals")

	// ErrNoAmplitude is returned when an amplitude-dependent score
	// computation is attempted on a pick lacking an amplitude.
	ErrNoAmplitude = errors.New("autoloc: pick has no amplitude")
)
