package autoloc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginScoreIgnoresExcludedArrivals(t *testing.T) {
	dir := NewDirectory()
	dir.Add(&Station{Net: "GE", Sta: "A", MaxNucDist: 30})
	picks := NewPickPool()

	p1 := &Pick{Net: "GE", Sta: "A", Time: time.Now(), Amplitude: &Amplitude{SNR: 20, Value: 100}}
	_, err := picks.Insert(p1, "p1")
	require.NoError(t, err)

	o := &Origin{Arrivals: []Arrival{
		{PickID: p1.ID, Distance: 10},
		{PickID: p1.ID, Distance: 10, Excluded: LargeResidual},
	}}

	params := scoreParams{MaxRMS: 1.0}
	scoreBoth := originScore(o, picks, dir, params)

	o.Arrivals = o.Arrivals[:1]
	scoreOne := originScore(o, picks, dir, params)
	assert.InDelta(t, scoreOne, scoreBoth, 1e-9, "excluded arrival must not contribute to the total")
}

func TestOriginScoreFavorsCloserStations(t *testing.T) {
	dir := NewDirectory()
	dir.Add(&Station{Net: "GE", Sta: "A", MaxNucDist: 30})
	picks := NewPickPool()
	p1 := &Pick{Net: "GE", Sta: "A", Time: time.Now(), Amplitude: &Amplitude{SNR: 20, Value: 100}}
	_, _ = picks.Insert(p1, "p1")

	params := scoreParams{MaxRMS: 1.0}

	near := &Origin{Arrivals: []Arrival{{PickID: p1.ID, Distance: 2}}}
	far := &Origin{Arrivals: []Arrival{{PickID: p1.ID, Distance: 25}}}

	assert.Greater(t, originScore(near, picks, dir, params), originScore(far, picks, dir, params))
}

func TestOriginScoreZeroForNoDefiningArrivals(t *testing.T) {
	dir := NewDirectory()
	picks := NewPickPool()
	o := &Origin{}
	assert.Equal(t, 0.0, originScore(o, picks, dir, scoreParams{}))
}
