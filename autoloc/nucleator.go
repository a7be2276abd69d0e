package autoloc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// minArrivalsToNucleate is the hardcoded floor on arrival count for
// any nucleated candidate, independent of a grid point's own Nmin.
// Grounded on nucleator.cpp's GridSearch::feed (`result->arrivals.size() < 6`).
const minArrivalsToNucleate = 6

// pruneScoreFraction discards relocated candidates scoring below this
// fraction of the best candidate's score before final selection.
const pruneScoreFraction = 0.6

// GridSearch is the Nucleator implementation: a fixed set of
// GridPoints fed every incoming pick, producing at most one new Origin
// candidate per call. Grounded on nucleator.cpp's GridSearch.
type GridSearch struct {
	Points  []*GridPoint
	dir     *Directory
	tt      TravelTimeTable
	locator Locator
	score   scoreParams
}

// NewGridSearch returns a GridSearch with no grid points loaded yet.
func NewGridSearch(dir *Directory, tt TravelTimeTable, locator Locator, score scoreParams) *GridSearch {
	return &GridSearch{dir: dir, tt: tt, locator: locator, score: score}
}

// LoadGrid parses the whitespace-separated grid file format: one
// "lat lon dep rad dmax nmin" record per non-comment, non-empty line,
// "#" introduces a comment. Grounded on nucleator.cpp's
// GridSearch::_readGrid.
func (gs *GridSearch) LoadGrid(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return fmt.Errorf("autoloc: grid file line %d: need 6 fields, got %d", lineNo, len(fields))
		}
		vals := make([]float64, 6)
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return fmt.Errorf("autoloc: grid file line %d: %w", lineNo, err)
			}
			vals[i] = v
		}
		gp := NewGridPoint(vals[0], vals[1], vals[2])
		gp.Radius = vals[3]
		gp.MaxStaDist = vals[4]
		gp.Nmin = int(vals[5])
		gs.Points = append(gs.Points, gp)
	}
	return sc.Err()
}

// Cleanup drops projected picks older than minTime across every grid
// point.
func (gs *GridSearch) Cleanup(minTime time.Time) {
	for _, gp := range gs.Points {
		gp.cleanup(minTime)
	}
}

// Feed projects pick onto every grid point and, if one or more
// nucleate, relocates each surviving candidate at fixed depth, prunes
// weak candidates, and returns the single best one relocated at free
// depth. Grounded on nucleator.cpp's GridSearch::feed.
func (gs *GridSearch) Feed(pick *Pick, picks *PickPool) (*Origin, error) {
	sta, ok := gs.dir.Lookup(pick.Net, pick.Sta, pick.Loc)
	if !ok || !sta.Enabled {
		return nil, nil
	}

	var relocated []*Origin
	for _, gp := range gs.Points {
		cand, ok := gp.feed(pick, sta, gs.tt, pick.Time)
		if !ok {
			continue
		}
		if len(cand.pickIDs) < minArrivalsToNucleate {
			continue
		}
		triggerPresent := false
		for _, id := range cand.pickIDs {
			if id == pick.ID {
				triggerPresent = true
				break
			}
		}
		if !triggerPresent {
			continue
		}

		o := gs.buildOrigin(gp, cand, picks)
		o = dedupeByStation(o, picks)
		if len(o.Arrivals) < minArrivalsToNucleate {
			continue
		}

		fixed, err := gs.locator.LocateFixedDepth(o, gp.Depth)
		if err != nil {
			continue
		}
		triggerArr := fixed.findArrival(pick.ID)
		if triggerArr == nil || (sta.MaxNucDist > 0 && triggerArr.Distance > sta.MaxNucDist) {
			continue
		}
		fixed.Score = originScore(fixed, picks, gs.dir, gs.score)
		relocated = append(relocated, fixed)
	}

	if len(relocated) == 0 {
		return nil, nil
	}

	best := bestOrigin(relocated)
	pruned := make([]*Origin, 0, len(relocated))
	for _, o := range relocated {
		if o.Score >= pruneScoreFraction*best.Score {
			pruned = append(pruned, o)
		}
	}
	best = bestOrigin(pruned)

	final, err := gs.locator.LocateFree(best)
	if err != nil {
		final = best
	} else {
		final.Score = originScore(final, picks, gs.dir, gs.score)
	}
	return final, nil
}

// buildOrigin turns a raw candidate's pick-ID group into an Origin
// with one provisional Arrival per pick, located at the grid point's
// own coordinates (the locator will immediately refine this).
func (gs *GridSearch) buildOrigin(gp *GridPoint, cand *candidate, picks *PickPool) *Origin {
	o := &Origin{
		Hypocenter: Hypocenter{Lat: gp.Lat, Lon: gp.Lon, Depth: gp.Depth, Time: time.Now()},
		Status:     New,
	}
	for _, id := range cand.pickIDs {
		p, ok := picks.Get(id)
		if !ok {
			continue
		}
		sta, ok := gs.dir.Lookup(p.Net, p.Sta, p.Loc)
		if !ok {
			continue
		}
		delta, azimuth, _ := Delazi(gp.Lat, gp.Lon, sta.Lat, sta.Lon)
		phase := "P"
		if p.Time.Sub(o.Time) > 960*time.Second {
			phase = "PKP"
		}
		o.Arrivals = append(o.Arrivals, Arrival{
			PickID:   id,
			Phase:    phase,
			Distance: delta,
			Azimuth:  azimuth,
		})
	}
	return o
}

// dedupeByStation keeps, for each station, only the first arrival seen
// (first-seen wins, no amplitude comparison), matching the "XXX ugly"
// dedup noted in nucleator.cpp.
func dedupeByStation(o *Origin, picks *PickPool) *Origin {
	seen := make(map[string]bool)
	out := o.Arrivals[:0]
	for _, a := range o.Arrivals {
		p, ok := picks.Get(a.PickID)
		if !ok {
			continue
		}
		key := p.StationKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	o.Arrivals = out
	return o
}

// bestOrigin returns the highest-scoring Origin in cands.
func bestOrigin(cands []*Origin) *Origin {
	if len(cands) == 0 {
		return nil
	}
	best := cands[0]
	for _, o := range cands[1:] {
		if o.Score > best.Score {
			best = o
		}
	}
	return best
}
