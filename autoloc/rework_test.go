package autoloc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfz-potsdam/autoloc/autoloc/config"
)

func testCoreForRework() (*Core, *Directory) {
	dir := NewDirectory()
	dir.Add(&Station{Net: "GE", Sta: "AAA", Lat: 0, Lon: 0, Enabled: true})
	dir.Add(&Station{Net: "GE", Sta: "BBB", Lat: 1, Lon: 0, Enabled: true, MaxLocDist: 2})
	cfg := config.DefaultConfig()
	tt := NewConstantVelocityTable()
	core := NewCore(cfg, dir, tt, nil, &capturingSink{})
	return core, dir
}

func TestDropBlacklistedMarksArrivalsWithoutAPick(t *testing.T) {
	core, _ := testCoreForRework()
	id, _ := core.Picks.Insert(&Pick{Net: "GE", Sta: "AAA"}, "p1")
	o := &Origin{Arrivals: []Arrival{{PickID: id}, {PickID: 99999}}}
	core.dropBlacklisted(o)
	assert.Equal(t, NotExcluded, o.Arrivals[0].Excluded)
	assert.True(t, o.Arrivals[1].Excluded&BlacklistedPick != 0)
}

func TestApplyDepthPolicyClampsToBounds(t *testing.T) {
	core, _ := testCoreForRework()
	core.cfg.MinimumDepth = 5
	core.cfg.MaxDepth = 50
	o := &Origin{Hypocenter: Hypocenter{Depth: 1}}
	core.applyDepthPolicy(o)
	assert.Equal(t, 5.0, o.Depth)

	o2 := &Origin{Hypocenter: Hypocenter{Depth: 999}}
	core.applyDepthPolicy(o2)
	assert.Equal(t, 50.0, o2.Depth)
}

func TestApplyDepthPolicyAdoptsManualDepth(t *testing.T) {
	core, _ := testCoreForRework()
	core.cfg.AdoptManualDepth = true
	o := &Origin{Manual: true, Hypocenter: Hypocenter{Depth: 10}}
	core.applyDepthPolicy(o)
	assert.Equal(t, DepthManual, o.DepthType)
}

func TestTrimResidualsExcludesLargeResidual(t *testing.T) {
	core, _ := testCoreForRework()
	core.cfg.MaxResidualUse = 2.0
	o := &Origin{Arrivals: []Arrival{{Residual: 1.0}, {Residual: -5.0}}}
	core.trimResiduals(o)
	assert.Equal(t, NotExcluded, o.Arrivals[0].Excluded)
	assert.True(t, o.Arrivals[1].Excluded&LargeResidual != 0)
}

func TestExcludeDistantStationsUsesStationOverrideLimit(t *testing.T) {
	core, _ := testCoreForRework()
	core.cfg.MaxStaDist = 90
	idA, _ := core.Picks.Insert(&Pick{Net: "GE", Sta: "AAA"}, "a")
	idB, _ := core.Picks.Insert(&Pick{Net: "GE", Sta: "BBB"}, "b")
	o := &Origin{Arrivals: []Arrival{
		{PickID: idA, Distance: 50}, // within network default, no station override
		{PickID: idB, Distance: 3},  // beyond BBB's MaxLocDist of 2
	}}
	core.excludeDistantStations(o)
	assert.Equal(t, NotExcluded, o.Arrivals[0].Excluded)
	assert.True(t, o.Arrivals[1].Excluded&StationDistance != 0)
}

func TestEnsureAcceptableRMSExcludesWorstUntilWithinBound(t *testing.T) {
	core, _ := testCoreForRework()
	core.cfg.MaxRMS = 1.0
	o := &Origin{Arrivals: []Arrival{
		{Residual: 0.1}, {Residual: 0.2}, {Residual: 0.1}, {Residual: 5.0},
	}}
	core.ensureAcceptableRMS(o)
	rms, n := definingRMS(o)
	assert.LessOrEqual(t, rms, 1.0)
	assert.Equal(t, 3, n)
	assert.True(t, o.Arrivals[3].Excluded&DeterioratesSolution != 0)
}

func TestRemoveWorstOutliersRequiresSixDefining(t *testing.T) {
	core, _ := testCoreForRework()
	o := &Origin{Arrivals: []Arrival{{Residual: 0.1}, {Residual: 0.1}, {Residual: 0.1}, {Residual: 10}}}
	core.removeWorstOutliers(o)
	assert.Equal(t, NotExcluded, o.Arrivals[3].Excluded, "fewer than six defining arrivals must skip outlier removal")

	o2 := &Origin{Arrivals: make([]Arrival, 6)}
	for i := range o2.Arrivals[:5] {
		o2.Arrivals[i].Residual = 0.1
	}
	o2.Arrivals[5].Residual = 10
	core.removeWorstOutliers(o2)
	assert.True(t, o2.Arrivals[5].Excluded&TemporarilyExcluded != 0)
}

func TestExcludePKPMarksPKPUnlessAggressive(t *testing.T) {
	core, _ := testCoreForRework()
	o := &Origin{Arrivals: []Arrival{{Phase: "P"}, {Phase: "PKPdf"}}}
	core.excludePKP(o)
	assert.Equal(t, NotExcluded, o.Arrivals[0].Excluded)
	assert.True(t, o.Arrivals[1].Excluded&UnusedPhase != 0)

	core.cfg.AggressivePKP = true
	o2 := &Origin{Arrivals: []Arrival{{Phase: "PKPdf"}}}
	core.excludePKP(o2)
	assert.Equal(t, NotExcluded, o2.Arrivals[0].Excluded)
}

func TestUpdateQualityFillsDistanceAndGapStats(t *testing.T) {
	core, _ := testCoreForRework()
	o := &Origin{Arrivals: []Arrival{
		{Azimuth: 0, Distance: 10, Residual: 1},
		{Azimuth: 120, Distance: 20, Residual: -1},
		{Azimuth: 240, Distance: 30, Residual: 1},
	}}
	core.updateQuality(o)
	assert.Equal(t, 10.0, o.Quality.MinimumDistance)
	assert.Equal(t, 30.0, o.Quality.MaximumDistance)
	assert.Equal(t, 20.0, o.Quality.MedianDistance)
	assert.InDelta(t, 120.0, o.Quality.AzimuthalGap, 1e-6)
}

func TestAddMorePicksSkipsPicksAlreadyOwnedByAnotherOrigin(t *testing.T) {
	core, _ := testCoreForRework()
	now := time.Now()

	table, err := core.nucleator.tt.Compute(0, 0, 10, 0, 0, 0)
	require.NoError(t, err)
	arr, ok := FirstArrival(table, "P1", 0)
	require.True(t, ok)
	arrivalTime := now.Add(time.Duration(arr.Time * float64(time.Second)))

	idOwned, _ := core.Picks.Insert(&Pick{Net: "GE", Sta: "AAA", Phase: "P", Time: arrivalTime}, "owned")
	if pk, ok := core.Picks.Get(idOwned); ok {
		pk.OriginID = 999 // already claimed by a different origin
	}

	o := &Origin{ID: 1, Hypocenter: Hypocenter{Lat: 0, Lon: 0, Depth: 10, Time: now}}
	core.addMorePicks(o)

	assert.Nil(t, o.findArrival(idOwned), "a pick already owned by another origin must never be re-attached")
}
