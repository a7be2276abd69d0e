package autoloc

import (
	"time"
)

// XXLConfig configures the preliminary large-event nucleation path:
// a fast, locator-free alert raised as soon as enough very large
// amplitude picks cluster in time, well before the full grid search
// would normally confirm an origin. Named "XXL" after the original's
// large-event fast path.
type XXLConfig struct {
	MinAmplitude  float64
	MinSNR        float64
	MinPhaseCount int
	MaxStaDist    float64 // degrees
	DT            time.Duration
}

// DefaultXXLConfig returns conservative defaults: four large-amplitude
// picks within 4 degrees and 20 seconds of each other.
func DefaultXXLConfig() XXLConfig {
	return XXLConfig{
		MinAmplitude:  3000,
		MinSNR:        30,
		MinPhaseCount: 4,
		MaxStaDist:    4,
		DT:            20 * time.Second,
	}
}

// xxlCandidate is one pick that qualified for XXL consideration.
type xxlCandidate struct {
	pickID uint64
	sta    *Station
	t      time.Time
}

// XXLDetector watches the stream of incoming picks for a tight cluster
// of unusually large amplitudes and emits a preliminary Origin as soon
// as the cluster is large enough, without waiting for the full grid
// search or a locator call: location is the simple centroid of the
// contributing stations, depth is fixed at zero.
type XXLDetector struct {
	cfg XXLConfig
	dir *Directory

	candidates []xxlCandidate
}

// NewXXLDetector returns a detector using cfg and dir.
func NewXXLDetector(cfg XXLConfig, dir *Directory) *XXLDetector {
	return &XXLDetector{cfg: cfg, dir: dir}
}

// qualifies reports whether pick is large enough to be considered for
// XXL nucleation.
func (x *XXLDetector) qualifies(p *Pick) bool {
	if p.Amplitude == nil {
		return false
	}
	return p.Amplitude.Value >= x.cfg.MinAmplitude && p.Amplitude.SNR >= x.cfg.MinSNR
}

// Feed records pick if it qualifies, prunes candidates outside the
// clustering window, and returns a preliminary Origin once enough
// distinct stations have contributed within the window.
func (x *XXLDetector) Feed(pick *Pick) *Origin {
	if !x.qualifies(pick) {
		return nil
	}
	sta, ok := x.dir.Lookup(pick.Net, pick.Sta, pick.Loc)
	if !ok || !sta.Enabled {
		return nil
	}

	x.candidates = append(x.candidates, xxlCandidate{pickID: pick.ID, sta: sta, t: pick.Time})

	cutoff := pick.Time.Add(-x.cfg.DT)
	kept := x.candidates[:0]
	for _, c := range x.candidates {
		if c.t.After(cutoff) {
			kept = append(kept, c)
		}
	}
	x.candidates = kept

	byStation := make(map[string]xxlCandidate)
	for _, c := range x.candidates {
		byStation[c.sta.Key()] = c
	}
	if len(byStation) < x.cfg.MinPhaseCount {
		return nil
	}

	var lat, lon float64
	for _, c := range byStation {
		lat += c.sta.Lat
		lon += c.sta.Lon
	}
	n := float64(len(byStation))
	lat /= n
	lon /= n

	for _, c := range byStation {
		d, _, _ := Delazi(lat, lon, c.sta.Lat, c.sta.Lon)
		if d > x.cfg.MaxStaDist {
			return nil
		}
	}

	o := &Origin{
		Hypocenter: Hypocenter{Lat: lat, Lon: lon, Depth: 0, Time: pick.Time},
		Status:     New,
		DepthType:  DepthDefault,
	}
	for _, c := range byStation {
		delta, azimuth, _ := Delazi(lat, lon, c.sta.Lat, c.sta.Lon)
		o.Arrivals = append(o.Arrivals, Arrival{PickID: c.pickID, Phase: "P", Distance: delta, Azimuth: azimuth})
	}
	return o
}
