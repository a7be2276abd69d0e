package autoloc

import (
	"math"
	"strings"
	"time"
)

// minimumAffinity is the affinity floor below which an association is
// rejected outright. Grounded on associator.cpp.
const minimumAffinity = 0.1

// PhaseRange is one entry of the associator's phase table: the
// distance/depth window within which a phase name is a plausible
// prediction.
type PhaseRange struct {
	Code string
	Dmin, Dmax float64
	Zmin, Zmax float64
}

func (r PhaseRange) contains(delta, depth float64) bool {
	if delta < r.Dmin || delta > r.Dmax {
		return false
	}
	if r.Zmax > 0 && (depth < r.Zmin || depth > r.Zmax) {
		return false
	}
	return true
}

// phaseRanges is built in exactly this order: the order determines
// which phase range "wins" in FindMatchingOrigins (first matching
// range breaks the loop), per the note in associator.cpp that "the
// order of the phases is crucial".
var phaseRanges = []PhaseRange{
	{"P", 0, 115, 0, 700},
	{"PcP", 25, 55, 0, 700},
	{"ScP", 25, 55, 0, 700},
	{"PP", 60, 160, 0, 700},
	{"PKPbc", 140, 160, 0, 700},
	{"PKPdf", 90, 180, 0, 700},
	{"PKPab", 150, 180, 0, 700},
	{"PKKP", 80, 130, 0, 700},
	{"PKiKP", 30, 120, 0, 700},
}

func isP(phase string) bool {
	return phase == "P" || phase == "P1" || strings.HasPrefix(phase, "Pn") || strings.HasPrefix(phase, "Pg") || strings.HasPrefix(phase, "Pb")
}

func isPKP(phase string) bool {
	return strings.HasPrefix(phase, "PKP")
}

// avgfn is the raised-cosine affinity bell curve: cos²(pi*x/2) for
// |x|<=1, else 0. Grounded on util.cpp.
func avgfn(x float64) float64 {
	if x < -1 || x > 1 {
		return 0
	}
	c := math.Cos(math.Pi * x / 2)
	return c * c
}

// avgfn2 is the plateau variant of avgfn: flat at 1 within
// +/-plateauWidth, then the same raised cosine taper out to +/-1.
// Grounded on util.cpp.
func avgfn2(x, plateauWidth float64) float64 {
	ax := math.Abs(x)
	if ax <= plateauWidth {
		return 1
	}
	if ax >= 1 {
		return 0
	}
	y := (ax - plateauWidth) / (1 - plateauWidth)
	c := math.Cos(math.Pi * y / 2)
	return c * c
}

// depthFactor weights origin scores so shallow events are slightly
// preferred, grounded on util.cpp: 1 + 0.0005*(200-depth).
func depthFactor(depthKm float64) float64 {
	return 1 + 0.0005*(200-depthKm)
}

// Association is a single candidate pairing produced by the
// associator: either "this pick could join this origin" or "this
// origin could claim this pick", together with the residual and
// affinity that would result.
type Association struct {
	PickID   uint64
	OriginID uint64
	Phase    string
	Distance float64
	Azimuth  float64
	Residual float64
	Affinity float64
}

// Associator matches incoming picks against live origins (and live
// origins against the pick pool) using the phase-range table and the
// affinity bell curve.
type Associator struct {
	dir *Directory
	tt  TravelTimeTable

	// considerDisabledStations mirrors associateDisabledStationsToQualifiedOrigin,
	// hardcoded true in the original with a TODO to make it
	// configurable — kept unconditional here per DESIGN.md's Open
	// Question resolution.
	considerDisabledStations bool
}

// NewAssociator returns an Associator using tt for travel-time lookups.
func NewAssociator(dir *Directory, tt TravelTimeTable) *Associator {
	return &Associator{dir: dir, tt: tt, considerDisabledStations: true}
}

func mightBeAssociated(pickTime, originTime time.Time) bool {
	dt := pickTime.Sub(originTime).Seconds()
	return dt > -10 && dt < 1300
}

// FindMatchingPicks scans every pick in pool for one that could extend
// origin, returning at most one Association per pick (its
// highest-affinity phase). Grounded on associator.cpp's
// findMatchingPicks.
func (a *Associator) FindMatchingPicks(origin *Origin, pool *PickPool) []Association {
	var out []Association
	pool.Each(func(p *Pick) {
		if p.Blacklisted {
			return
		}
		if p.Time.Before(origin.Time) || p.Time.After(origin.Time.Add(1500*time.Second)) {
			return
		}
		if p.Status == StatusAutomatic && p.Amplitude == nil {
			return
		}
		sta, ok := a.dir.Lookup(p.Net, p.Sta, p.Loc)
		if !ok {
			return
		}
		considerDisabled := a.considerDisabledStations && (origin.Imported || origin.Manual)
		if !sta.Enabled && !considerDisabled {
			return
		}

		delta, azimuth, _ := Delazi(origin.Lat, origin.Lon, sta.Lat, sta.Lon)
		x := 1 + 0.6*math.Exp(-0.003*delta*delta) + 0.5*math.Exp(-0.03*(15-delta)*(15-delta))

		table, err := a.tt.Compute(origin.Lat, origin.Lon, origin.Depth, sta.Lat, sta.Lon, sta.Elevation)
		if err != nil {
			return
		}

		best := Association{}
		haveBest := false
		for _, tt := range table {
			pr := findPhaseRange(tt.Phase)
			if pr == nil || !pr.contains(delta, origin.Depth) {
				continue
			}
			predicted := origin.Time.Add(time.Duration(tt.Time * float64(time.Second)))
			residual := p.Time.Sub(predicted).Seconds()
			weighedResidual := residual / x * 0.1
			affinity := avgfn(weighedResidual)

			phase := tt.Phase
			if isP(phase) {
				phase = "P"
			}
			weight := 1.0
			if phase == "PKPab" || phase == "PKPdf" {
				weight = 0.5
			}
			affinity *= weight
			if affinity < minimumAffinity {
				continue
			}
			if !haveBest || affinity > best.Affinity {
				best = Association{
					PickID:   p.ID,
					OriginID: origin.ID,
					Phase:    phase,
					Distance: delta,
					Azimuth:  azimuth,
					Residual: residual,
					Affinity: affinity,
				}
				haveBest = true
			}
		}
		if haveBest {
			out = append(out, best)
		}
	})
	return out
}

// FindMatchingOrigins scans every live origin for ones that could claim
// pick, in phaseRanges order, returning at most one Association per
// origin (for each origin the first phase range, in table order, that
// matches wins — origins order is not otherwise significant). Grounded
// on associator.cpp's findMatchingOrigins.
func (a *Associator) FindMatchingOrigins(pick *Pick, origins *OriginSet) []Association {
	sta, ok := a.dir.Lookup(pick.Net, pick.Sta, pick.Loc)
	if !ok {
		return nil
	}
	var out []Association
	origins.Each(func(origin *Origin) {
		if !mightBeAssociated(pick.Time, origin.Time) {
			return
		}
		considerDisabled := a.considerDisabledStations && (origin.Imported || origin.Manual)
		if !sta.Enabled && !considerDisabled {
			return
		}
		score := origin.score()
		delta, azimuth, _ := Delazi(origin.Lat, origin.Lon, sta.Lat, sta.Lon)

		table, err := a.tt.Compute(origin.Lat, origin.Lon, origin.Depth, sta.Lat, sta.Lon, sta.Elevation)
		if err != nil {
			return
		}

		for _, pr := range phaseRanges {
			minScore := 50.0
			if pr.Code == "P" {
				minScore = 20.0
			}
			if score < minScore {
				continue
			}
			if !pr.contains(delta, origin.Depth) {
				continue
			}

			var tt TravelTime
			var found bool
			x := 1.0
			if pr.Code == "P" {
				if t, ok := FirstArrival(table, "P1", delta); ok {
					tt = t
					found = true
					x = 1 + 0.6*math.Exp(-0.003*delta*delta) + 0.5*math.Exp(-0.03*(15-delta)*(15-delta))
				}
			} else {
				for _, t := range table {
					if strings.HasPrefix(t.Phase, pr.Code) {
						tt = t
						found = true
						break
					}
				}
			}
			if !found {
				continue
			}

			predicted := origin.Time.Add(time.Duration(tt.Time * float64(time.Second)))
			residual := pick.Time.Sub(predicted).Seconds()
			affinity := avgfn(residual / x / 10)
			if affinity < minimumAffinity {
				continue
			}
			out = append(out, Association{
				PickID:   pick.ID,
				OriginID: origin.ID,
				Phase:    pr.Code,
				Distance: delta,
				Azimuth:  azimuth,
				Residual: residual,
				Affinity: affinity,
			})
			break
		}
	})
	return out
}

func findPhaseRange(phase string) *PhaseRange {
	for i := range phaseRanges {
		if strings.HasPrefix(phase, phaseRanges[i].Code) {
			return &phaseRanges[i]
		}
	}
	return nil
}

// determineAzimuthalGaps returns the primary and secondary azimuthal
// gap, in degrees, for a set of station azimuths. Grounded on
// util.cpp's determineAzimuthalGaps: sort, then find the largest
// single gap (primary) and largest sum of two adjacent gaps
// (secondary), wrapping around 360.
func determineAzimuthalGaps(azimuths []float64) (primary, secondary float64) {
	n := len(azimuths)
	if n == 0 {
		return 360, 360
	}
	if n == 1 {
		return 360, 360
	}
	azi := append([]float64(nil), azimuths...)
	sortFloats(azi)

	gaps := make([]float64, n)
	for i := 0; i < n; i++ {
		next := azi[(i+1)%n]
		if i == n-1 {
			next += 360
		}
		gaps[i] = next - azi[i]
	}

	for _, g := range gaps {
		if g > primary {
			primary = g
		}
	}
	if n < 2 {
		secondary = primary
		return
	}
	for i := 0; i < n; i++ {
		two := gaps[i] + gaps[(i+1)%n]
		if two > secondary {
			secondary = two
		}
	}
	return primary, secondary
}

func sortFloats(f []float64) {
	for i := 1; i < len(f); i++ {
		for j := i; j > 0 && f[j-1] > f[j]; j-- {
			f[j-1], f[j] = f[j], f[j-1]
		}
	}
}
