// Package autoloc is the real-time core of a seismic event
// nucleator/locator: it turns a stream of phase picks into hypocenters
// with supporting arrivals, following a single-threaded cooperative
// processing loop modeled on ptp/sptp/client's driver loop.
package autoloc

import (
	"context"
	"io"
	"time"

	"github.com/eclesh/welford"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/gfz-potsdam/autoloc/autoloc/config"
	"github.com/gfz-potsdam/autoloc/autoloc/stats"
)

var (
	decisionAccept = color.New(color.FgGreen)
	decisionReject = color.New(color.FgYellow)
)

// Counters is the minimal set of hooks the core loop calls into on
// every notable decision; Core.Counters may be nil, in which case
// counting is skipped. The stats package's Counters type satisfies
// this by embedding an Inc method of the same shape.
type Counters interface {
	Inc(name string)
}

// Core is the autoloc main state machine: it owns the pick pool,
// origin set, nucleator, associator, locator, rework pipeline and
// publication scheduler, and drives them from a single goroutine.
// Grounded on autoloc.cpp (the 4500-line C++ state machine) and, for
// the driver loop shape, ptp/sptp/client/sptp.go's runInternal.
type Core struct {
	cfg *config.Config
	dir *Directory

	Picks   *PickPool
	Origins *OriginSet

	nucleator *GridSearch
	associator *Associator
	locator   Locator
	xxl       *XXLDetector

	authors *config.AuthorList // nil disables author-priority filtering

	sink Sink

	residualStats map[string]*welford.Stats // per-station running SNR stats, diagnostics only
	pickHistory   map[string][]pickHistoryEntry // per-station sliding window feeding the dynamic pick threshold

	Counters Counters

	lastDynamicThresholdUpdate time.Time
	dynamicPickThreshold       float64

	publishedArrivalCount map[uint64]int
}

// pickHistoryEntry is one sample in a station's dynamic-pick-threshold
// sliding window.
type pickHistoryEntry struct {
	time time.Time
	snr  float64
}

// Sink is the publication boundary: Core calls Publish for every
// Origin it decides to announce. Grounded on spec.md §6's Event Sink.
type Sink interface {
	Publish(o *Origin) error
}

// NewCore wires together a Core ready to process picks. tt and
// locator are the two black-box services; dir must already be
// populated with every known station.
func NewCore(cfg *config.Config, dir *Directory, tt TravelTimeTable, locator Locator, sink Sink) *Core {
	score := scoreParams{NetworkSizeKm: cfg.NetworkSizeKm, MaxRMS: cfg.MaxRMS}
	picks := NewPickPool()
	if locator == nil {
		locator = NewGridLocator(tt, dir, picks)
	}
	c := &Core{
		cfg:           cfg,
		dir:           dir,
		Picks:         picks,
		Origins:       NewOriginSet(),
		nucleator:     NewGridSearch(dir, tt, locator, score),
		associator:    NewAssociator(dir, tt),
		locator:       locator,
		sink:          sink,
		residualStats: make(map[string]*welford.Stats),
		pickHistory:   make(map[string][]pickHistoryEntry),
		publishedArrivalCount: make(map[uint64]int),
	}
	if cfg.XXLEnable {
		c.xxl = NewXXLDetector(XXLConfig{
			MinAmplitude:  cfg.XXLMinAmplitude,
			MinSNR:        cfg.XXLMinSNR,
			MinPhaseCount: cfg.XXLMinPhaseCount,
			MaxStaDist:    cfg.XXLMaxStaDist,
			DT:            20 * time.Second,
		}, dir)
	}
	return c
}

// LoadGrid populates the nucleator's grid points from r. See
// GridSearch.LoadGrid for the file format.
func (c *Core) LoadGrid(r io.Reader) error {
	return c.nucleator.LoadGrid(r)
}

// LoadAuthors wires the author priority allow-list (spec.md's
// pickAuthors) used to derive Pick.Priority. A nil list (the default)
// disables author-based filtering and the supersede step's priority
// comparison becomes a no-op.
func (c *Core) LoadAuthors(al *config.AuthorList) {
	c.authors = al
}

// SnapshotOrigins returns the current live origin set in the shape the
// JSON stats server publishes at /origins. Suitable for use as a
// stats.OriginsProvider.
func (c *Core) SnapshotOrigins() []stats.OriginSnapshot {
	snaps := make([]stats.OriginSnapshot, 0, c.Origins.Len())
	// keepEventsTimespan bounds what's reported here, distinct from the
	// maxAge+1800s rule Tick's cleanup pass uses to actually drop
	// origins (spec.md testable invariant 5).
	cutoff := time.Now().Add(-time.Duration(c.cfg.KeepEventsTimespanSeconds) * time.Second)
	c.Origins.Each(func(o *Origin) {
		if o.Time.Before(cutoff) {
			return
		}
		snaps = append(snaps, stats.OriginSnapshot{
			ID:                 o.ID,
			Lat:                o.Lat,
			Lon:                o.Lon,
			Depth:              o.Depth,
			Score:              o.Score,
			DefiningPhaseCount: o.Quality.DefiningPhaseCount,
			AzimuthalGap:       o.Quality.AzimuthalGap,
		})
	})
	return snaps
}

func (c *Core) count(name string) {
	if c.Counters != nil {
		c.Counters.Inc(name)
	}
}

// ProcessPick is the entry point for a single incoming pick. It never
// returns an error to the caller: every failure mode is logged and
// counted instead, per spec.md §7's "no error escapes the core loop"
// rule.
func (c *Core) ProcessPick(p *Pick, extID string) {
	c.count("autoloc.picks.received")

	if p.Status == StatusManual && !c.cfg.UseManualPicks {
		c.count("autoloc.picks.rejected.manual_disabled")
		return
	}

	p.Priority = c.derivePriority(p)
	if p.Status == StatusAutomatic && c.authors != nil && p.Priority == 0 {
		c.count("autoloc.picks.rejected.author")
		decisionReject.Printf("reject pick %s: author %q not in allow-list\n", extID, p.Author)
		return
	}

	if !p.valid(c.dir, c.cfg.MinPickSNR) {
		c.count("autoloc.picks.rejected.invalid")
		decisionReject.Printf("reject pick %s: invalid\n", extID)
		return
	}

	if p.Status == StatusAutomatic && !c.passesDynamicThreshold(p) {
		c.count("autoloc.picks.rejected.dynamic_threshold")
		decisionReject.Printf("reject pick %s: below dynamic pick threshold\n", extID)
		return
	}

	id, err := c.Picks.Insert(p, extID)
	if err != nil {
		c.count("autoloc.picks.rejected.duplicate")
		log.Debugf("autoloc: duplicate pick %s", extID)
		return
	}
	p.ID = id

	c.updateResidualStats(p)
	c.supersede(p)

	if assoc := c.tryAssociate(p); assoc {
		c.count("autoloc.picks.associated")
		return
	}

	if o, err := c.nucleator.Feed(p, c.Picks); err == nil && o != nil {
		c.count("autoloc.origins.nucleated")
		c.adoptNewOrigin(o, "nucleator")
		return
	}

	if c.xxl != nil {
		p.XXL = c.xxl.qualifies(p)
		if o := c.xxl.Feed(p); o != nil {
			c.count("autoloc.xxl.triggered")
			c.adoptNewOrigin(o, "xxl")
			return
		}
	}

	c.count("autoloc.picks.unassociated")
}

// manualPriority is the Priority value every non-automatic pick
// carries: manual, imported and confirmed picks always outrank an
// automatic pick of any author in the supersede step.
const manualPriority = 1 << 30

// derivePriority computes Pick.Priority from spec.md's pickAuthors
// allow-list: an automatic pick from an unlisted author gets priority
// 0 ("do not auto-process"); one from a listed author gets
// AuthorList.PickPriority's trust-ordered value. Absent an allow-list
// (the default), automatic picks get priority 1 so author filtering is
// a no-op until cfg.AuthorFile is configured.
func (c *Core) derivePriority(p *Pick) int {
	if p.Status != StatusAutomatic {
		return manualPriority
	}
	if c.authors == nil {
		return 1
	}
	return c.authors.PickPriority(p.Author)
}

// supersede implements spec.md's supersede step: a higher-priority
// pick arriving within +/-supersedeWindow of an existing same-station
// pick blacklists the older pick and, if it was already part of an
// origin, swaps the arrival over to the new pick and reworks it.
const supersedeWindow = 5 * time.Second

func (c *Core) supersede(p *Pick) {
	for _, old := range c.Picks.StationPicks(p.StationKey()) {
		if old.ID == p.ID || old.Blacklisted {
			continue
		}
		dt := p.Time.Sub(old.Time)
		if dt < -supersedeWindow || dt > supersedeWindow {
			continue
		}
		if p.Priority <= old.Priority {
			continue
		}

		old.Blacklisted = true
		c.count("autoloc.picks.superseded")

		if old.OriginID == 0 {
			continue
		}
		origin, ok := c.Origins.Get(old.OriginID)
		if !ok {
			continue
		}
		a := origin.findArrival(old.ID)
		if a == nil {
			continue
		}
		a.PickID = p.ID
		p.OriginID = origin.ID
		old.OriginID = 0
		c.reworkAndPublish(origin)
	}
}

// tryAssociate looks for a live origin the pick can extend; on success
// it relocates, reworks, filters, and (if accepted) publishes the
// updated origin. Grounded on autoloc.cpp's _tryAssociate/_associate.
func (c *Core) tryAssociate(p *Pick) bool {
	assocs := c.associator.FindMatchingOrigins(p, c.Origins)
	if len(assocs) == 0 {
		return false
	}
	best := assocs[0]
	for _, a := range assocs[1:] {
		if a.Affinity > best.Affinity {
			best = a
		}
	}
	if best.Affinity < c.cfg.MinPickAffinity {
		return false
	}
	origin, ok := c.Origins.Get(best.OriginID)
	if !ok {
		return false
	}
	if origin.hasPFamilyArrival(p.StationKey(), c.Picks) && isP(best.Phase) {
		return false
	}

	origin.Arrivals = append(origin.Arrivals, Arrival{
		PickID:   p.ID,
		Phase:    best.Phase,
		Distance: best.Distance,
		Azimuth:  best.Azimuth,
		Residual: best.Residual,
	})
	p.OriginID = origin.ID
	origin.Status = Updated
	origin.LastUpdateTime = p.Time

	if origin.Imported {
		// An imported origin is locked and authoritative: a matching
		// pick is attached and republished, but never triggers
		// relocation or any other rework step.
		c.publishLockedOrigin(origin)
		return true
	}

	c.reworkAndPublish(origin)
	return true
}

// ImportOrigin registers an externally produced, authoritative origin
// (e.g. from a trusted agency feed) so that future matching picks are
// attached to it by tryAssociate without relocation. Grounded on
// spec.md's "imported origin" concept: treated as locked, never
// relocated or merged away.
func (c *Core) ImportOrigin(o *Origin) uint64 {
	o.Imported = true
	o.Status = New
	o.CreationTime = time.Now()
	o.LastUpdateTime = o.CreationTime
	c.Origins.Insert(o)
	for i := range o.Arrivals {
		if pk, ok := c.Picks.Get(o.Arrivals[i].PickID); ok {
			pk.OriginID = o.ID
		}
	}
	c.publishLockedOrigin(o)
	return o.ID
}

// publishLockedOrigin is the publication path for imported origins: it
// skips rework/merge/filter/fake-origin entirely since a locked origin
// is authoritative by definition, but still honors the publication
// throttle.
func (c *Core) publishLockedOrigin(o *Origin) {
	o.Quality.DefiningPhaseCount = len(o.Arrivals)
	o.Quality.AssociatedPhaseCount = len(o.Arrivals)
	if !c.shouldPublish(o) {
		return
	}
	if err := c.sink.Publish(o); err != nil {
		log.Errorf("autoloc: publish imported origin %d: %v", o.ID, err)
		return
	}
	o.PublicationTime = time.Now()
	c.publishedArrivalCount[o.ID] = len(o.Arrivals)
	c.count("autoloc.origins.published")
	decisionAccept.Printf("publish imported origin %d arrivals=%d\n", o.ID, len(o.Arrivals))
}

// adoptNewOrigin inserts a freshly nucleated/XXL origin into the
// origin set, reworks it, and publishes it if it survives filtering.
func (c *Core) adoptNewOrigin(o *Origin, source string) {
	o.CreationTime = time.Now()
	o.LastUpdateTime = o.CreationTime
	for i := range o.Arrivals {
		if pk, ok := c.Picks.Get(o.Arrivals[i].PickID); ok {
			pk.OriginID = 0 // assigned below once the ID is known
		}
	}
	c.Origins.Insert(o)
	for i := range o.Arrivals {
		if pk, ok := c.Picks.Get(o.Arrivals[i].PickID); ok {
			pk.OriginID = o.ID
		}
	}
	log.Debugf("autoloc: new origin %d from %s with %d arrivals", o.ID, source, len(o.Arrivals))
	c.reworkAndPublish(o)
}

// reworkAndPublish runs the rework pipeline, merges the result into
// any equivalent live origin, applies the publication filter, and
// publishes if accepted.
func (c *Core) reworkAndPublish(o *Origin) {
	c.rework(o)

	equiv := c.Origins.bestEquivalentOrigin(o, c.originsEquivalent)
	if equiv.ID != o.ID {
		c.mergeOrigins(equiv, o)
		o = equiv
	}

	if !c.passesFilters(o) {
		c.count("autoloc.origins.filtered")
		decisionReject.Printf("reject origin %d: filtered\n", o.ID)
		return
	}

	prob := c.fakeOriginProbability(o)
	o.fakeProbability = prob
	if prob > c.cfg.MaxAllowedFakeProbability {
		c.count("autoloc.origins.fake_rejected")
		decisionReject.Printf("reject origin %d: fake probability %.2f\n", o.ID, prob)
		return
	}

	if c.shouldPublish(o) {
		if err := c.sink.Publish(o); err != nil {
			log.Errorf("autoloc: publish origin %d: %v", o.ID, err)
			return
		}
		o.PublicationTime = time.Now()
		c.publishedArrivalCount[o.ID] = len(o.Arrivals)
		c.count("autoloc.origins.published")
		decisionAccept.Printf("publish origin %d score=%.1f arrivals=%d\n", o.ID, o.Score, len(o.Arrivals))
	}
}

// Tick performs periodic housekeeping: cleanup of aged picks/origins
// and recomputation of the dynamic pick threshold. It is driven by the
// caller (typically cmd/autolocd's main loop) on a fixed interval,
// mirroring ptp/sptp/client/sptp.go's ticker-driven runInternal.
func (c *Core) Tick(ctx context.Context, now time.Time) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	maxAge := time.Duration(c.cfg.MaxAgeSeconds) * time.Second
	minTime := now.Add(-maxAge)
	removedPicks := c.Picks.Cleanup(minTime)
	c.nucleator.Cleanup(minTime)
	removedOrigins := c.Origins.Cleanup(maxAge, now)
	if removedPicks > 0 || removedOrigins > 0 {
		log.Debugf("autoloc: cleanup removed %d picks, %d origins", removedPicks, removedOrigins)
	}

	interval := time.Duration(c.cfg.DynamicPickThresholdIntervalSeconds) * time.Second
	if interval > 0 && now.Sub(c.lastDynamicThresholdUpdate) >= interval {
		c.updateDynamicPickThreshold()
		c.lastDynamicThresholdUpdate = now
	}
}

// updateResidualStats feeds the per-station running SNR statistics
// (kept for diagnostics/logging via welford's online algorithm) and
// appends this pick's (time, snr) sample to the sliding window that
// passesDynamicThreshold reads for the next pick at this station.
func (c *Core) updateResidualStats(p *Pick) {
	key := p.StationKey()
	s, ok := c.residualStats[key]
	if !ok {
		s = welford.New()
		c.residualStats[key] = s
	}
	if p.Amplitude == nil {
		return
	}
	s.Add(p.Amplitude.SNR)

	history := append(c.pickHistory[key], pickHistoryEntry{time: p.Time, snr: p.Amplitude.SNR})
	interval := time.Duration(c.cfg.DynamicPickThresholdIntervalSeconds) * time.Second
	if interval > 0 {
		cutoff := p.Time.Add(-interval)
		kept := history[:0]
		for _, h := range history {
			if h.time.After(cutoff) {
				kept = append(kept, h)
			}
		}
		history = kept
	}
	c.pickHistory[key] = history
}

// stationThreshold computes spec.md's per-station dynamic pick
// threshold at time "at" from history, a sliding window of that
// station's recent (time, snr) samples: a weighted sum of the clipped
// SNR of each sample still within dynamicPickThresholdInterval,
// decayed linearly by how long ago it arrived, plus the xxlDeadTime
// guard term (the largest sample SNR decayed over the shorter
// xxlDeadTime window).
func (c *Core) stationThreshold(history []pickHistoryEntry, at time.Time) (threshold, deadTimeFloor float64) {
	interval := time.Duration(c.cfg.DynamicPickThresholdIntervalSeconds) * time.Second
	deadTime := time.Duration(c.cfg.XXLDeadTimeSeconds) * time.Second
	for _, h := range history {
		dt := at.Sub(h.time)
		if dt < 0 {
			continue
		}
		if interval > 0 && dt <= interval {
			clipped := clip(h.snr, 3, 15)
			threshold += clipped * (1 - dt.Seconds()/interval.Seconds()) * 2 * 0.07
		}
		if deadTime > 0 && dt <= deadTime {
			if v := h.snr * (1 - dt.Seconds()/deadTime.Seconds()); v > deadTimeFloor {
				deadTimeFloor = v
			}
		}
	}
	return threshold, deadTimeFloor
}

// passesDynamicThreshold gates an incoming automatic pick against its
// station's current dynamic pick threshold (spec.md §4.7 step 2): the
// new pick's SNR must clear both the weighted sliding-window sum and
// the xxlDeadTime floor computed from that station's recent history.
func (c *Core) passesDynamicThreshold(p *Pick) bool {
	if p.Amplitude == nil {
		return true
	}
	threshold, deadTimeFloor := c.stationThreshold(c.pickHistory[p.StationKey()], p.Time)
	if p.Amplitude.SNR < threshold {
		return false
	}
	if deadTimeFloor > 0 && p.Amplitude.SNR < deadTimeFloor {
		return false
	}
	return true
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// updateDynamicPickThreshold recomputes the network-average dynamic
// pick threshold for diagnostics/logging, following the same formula
// passesDynamicThreshold evaluates live per pick.
func (c *Core) updateDynamicPickThreshold() {
	var sum, n float64
	now := time.Now()
	for _, history := range c.pickHistory {
		if len(history) == 0 {
			continue
		}
		threshold, _ := c.stationThreshold(history, now)
		sum += threshold
		n++
	}
	if n == 0 {
		return
	}
	c.dynamicPickThreshold = sum / n
	log.Debugf("autoloc: dynamic pick threshold now %.2f", c.dynamicPickThreshold)
}
