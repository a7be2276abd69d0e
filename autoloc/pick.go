package autoloc

import "time"

// Status mirrors the picker's classification of how a pick was
// produced.
type Status int

const (
	StatusAutomatic Status = iota
	StatusManual
	StatusImported
	// StatusConfirmed marks an automatic pick an analyst has reviewed
	// and accepted without modification.
	StatusConfirmed
	// StatusIgnoredAutomatic marks an automatic pick an analyst has
	// explicitly rejected; it never participates in processing.
	StatusIgnoredAutomatic
)

func (s Status) String() string {
	switch s {
	case StatusManual:
		return "manual"
	case StatusImported:
		return "imported"
	case StatusConfirmed:
		return "confirmed"
	case StatusIgnoredAutomatic:
		return "ignored"
	default:
		return "automatic"
	}
}

// Amplitude is a single amplitude measurement attached to a Pick.
type Amplitude struct {
	Type  string
	Value float64
	// SNR is the signal-to-noise ratio used by originScore and by the
	// automatic-pick validity filter. Zero means "not measured".
	SNR float64
}

// Pick is one phase-pick observation as delivered by the Event Source.
// Picks are immutable after insertion into a PickPool except for the
// bookkeeping fields OriginID, Blacklisted (set by the supersede step)
// and XXL (set when the pick reaches the XXL detector).
type Pick struct {
	ID     uint64
	Net    string
	Sta    string
	Loc    string
	Phase  string // picker hint, usually "P"
	Time   time.Time
	Author string
	Status Status

	// Priority ranks this pick's author for the supersede step
	// (derived by Core.derivePriority from config.AuthorList): 0 means
	// the author is not in the allow-list and the pick is never
	// auto-processed; otherwise higher outranks lower when two picks
	// for the same station collide within the supersede window.
	Priority int

	// Blacklisted permanently excludes this pick from processing: set
	// either by an operator or by the supersede step when a
	// higher-priority pick takes its place.
	Blacklisted bool

	// XXL records whether this pick qualified for the XXL large-event
	// fast path at the time it was processed.
	XXL bool

	Amplitude *Amplitude // nil if none has arrived yet

	// Amp, Per and NormAmp carry the raw amplitude, dominant period and
	// network-normalized amplitude reported alongside SNR, for
	// downstream reporting only.
	Amp     float64
	Per     float64
	NormAmp float64

	// OriginID is the weak back-reference to the Origin currently
	// "owning" this pick, or 0 if unassociated. It changes as
	// associations change and exists purely to let the pool answer "which origin is
	// this pick currently part of" without walking every origin.
	OriginID uint64
}

// StationKey returns the "net.sta.loc" identity of the pick's station.
func (p *Pick) StationKey() string {
	return stationKey(p.Net, p.Sta, p.Loc)
}

func (p *Pick) manual() bool {
	return p.Status == StatusManual
}

func (p *Pick) imported() bool {
	return p.Status == StatusImported
}

// valid reports whether a pick may participate in nucleation or
// association at all, grounded on util.cpp's valid(Pick) check: an
// automatic pick needs a station, must not be blacklisted or
// ignored, and if it carries an SNR, that SNR must be in (0, 1e7] and
// at or above minPickSNR.
func (p *Pick) valid(dir *Directory, minPickSNR float64) bool {
	if p.Blacklisted || p.Status == StatusIgnoredAutomatic {
		return false
	}
	if _, ok := dir.Lookup(p.Net, p.Sta, p.Loc); !ok {
		return false
	}
	if p.Status == StatusAutomatic && p.Amplitude != nil && p.Amplitude.SNR != 0 {
		if p.Amplitude.SNR <= 0 || p.Amplitude.SNR > 1e7 {
			return false
		}
		if p.Amplitude.SNR < minPickSNR {
			return false
		}
	}
	return true
}

// ExcludeReason is a bit flag describing why an Arrival is currently
// excluded from an Origin's defining-phase count. Multiple reasons may
// apply simultaneously.
type ExcludeReason uint32

const (
	NotExcluded          ExcludeReason = 0
	LargeResidual        ExcludeReason = 1 << 0
	StationDistance      ExcludeReason = 1 << 1
	ManuallyExcluded     ExcludeReason = 1 << 2
	DeterioratesSolution ExcludeReason = 1 << 3
	UnusedPhase          ExcludeReason = 1 << 4
	TemporarilyExcluded  ExcludeReason = 1 << 5
	BlacklistedPick      ExcludeReason = 1 << 6
)

func (r ExcludeReason) String() string {
	if r == NotExcluded {
		return "ok"
	}
	names := []struct {
		bit  ExcludeReason
		name string
	}{
		{LargeResidual, "large-residual"},
		{StationDistance, "station-distance"},
		{ManuallyExcluded, "manually-excluded"},
		{DeterioratesSolution, "deteriorates-solution"},
		{UnusedPhase, "unused-phase"},
		{TemporarilyExcluded, "temporarily-excluded"},
		{BlacklistedPick, "blacklisted-pick"},
	}
	out := ""
	for _, n := range names {
		if r&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	return out
}

// Arrival binds a Pick to an Origin with the residual, distance,
// azimuth and per-arrival score computed for that association.
type Arrival struct {
	PickID    uint64
	Phase     string // resolved phase name, e.g. "P", "PKP", "PcP"
	Distance  float64 // degrees
	Azimuth   float64 // degrees, station seen from epicenter
	Residual  float64 // seconds, observed minus predicted
	Weight    float64
	Score     float64
	Excluded  ExcludeReason
}

// Defining reports whether the arrival currently counts toward the
// origin's defining-phase count.
func (a *Arrival) Defining() bool {
	return a.Excluded == NotExcluded
}
