package autoloc

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// destinationPoint returns a point distKm... actually degrees away from
// (lat,lon) at bearing azDeg, using a flat-earth approximation that is
// accurate enough at these small test distances near the equator.
func destinationPoint(lat, lon, distDeg, azDeg float64) (float64, float64) {
	rad := azDeg * math.Pi / 180
	dlat := distDeg * math.Cos(rad)
	dlon := distDeg * math.Sin(rad)
	return lat + dlat, lon + dlon
}

func TestGridSearchLoadGridParsesRecords(t *testing.T) {
	gs := NewGridSearch(NewDirectory(), NewConstantVelocityTable(), nil, scoreParams{})
	r := strings.NewReader("# comment\n10.0 20.0 5.0 4.0 90.0 6\n\n-5.5 100.25 33 4 90 6\n")
	require.NoError(t, gs.LoadGrid(r))
	require.Len(t, gs.Points, 2)
	assert.Equal(t, 10.0, gs.Points[0].Lat)
	assert.Equal(t, 20.0, gs.Points[0].Lon)
	assert.Equal(t, 6, gs.Points[0].Nmin)
	assert.Equal(t, -5.5, gs.Points[1].Lat)
}

func TestGridSearchLoadGridRejectsShortLines(t *testing.T) {
	gs := NewGridSearch(NewDirectory(), NewConstantVelocityTable(), nil, scoreParams{})
	err := gs.LoadGrid(strings.NewReader("10.0 20.0 5.0\n"))
	assert.Error(t, err)
}

func TestBestOriginPicksHighestScore(t *testing.T) {
	a := &Origin{Score: 1.0}
	b := &Origin{Score: 5.0}
	c := &Origin{Score: 3.0}
	assert.Same(t, b, bestOrigin([]*Origin{a, b, c}))
	assert.Nil(t, bestOrigin(nil))
}

func TestDedupeByStationKeepsFirstSeen(t *testing.T) {
	pool := NewPickPool()
	idA1, _ := pool.Insert(&Pick{Net: "GE", Sta: "AAA", Time: time.Now()}, "a1")
	idA2, _ := pool.Insert(&Pick{Net: "GE", Sta: "AAA", Time: time.Now()}, "a2")
	idB1, _ := pool.Insert(&Pick{Net: "GE", Sta: "BBB", Time: time.Now()}, "b1")

	o := &Origin{Arrivals: []Arrival{{PickID: idA1}, {PickID: idA2}, {PickID: idB1}}}
	o = dedupeByStation(o, pool)
	require.Len(t, o.Arrivals, 2)
	assert.Equal(t, idA1, o.Arrivals[0].PickID, "the first arrival seen for a station wins")
	assert.Equal(t, idB1, o.Arrivals[1].PickID)
}

// sixStationDirectory returns six stations spread around a full circle
// at a uniform distance from the origin at (0,0), so that a consistent
// set of picks reliably nucleates a candidate at that grid point.
func sixStationDirectory() *Directory {
	dir := NewDirectory()
	azimuths := []float64{0, 60, 120, 180, 240, 300}
	for i, az := range azimuths {
		lat, lon := destinationPoint(0, 0, 8.0, az)
		dir.Add(&Station{Net: "GE", Sta: stationName(i), Lat: lat, Lon: lon, Enabled: true})
	}
	return dir
}

func stationName(i int) string {
	names := []string{"STA0", "STA1", "STA2", "STA3", "STA4", "STA5"}
	return names[i]
}

func TestGridSearchFeedNucleatesAndLocates(t *testing.T) {
	dir := sixStationDirectory()
	tt := NewConstantVelocityTable()
	pool := NewPickPool()
	locator := NewGridLocator(tt, dir, pool)
	gs := NewGridSearch(dir, tt, locator, scoreParams{NetworkSizeKm: 1000, MaxRMS: 5})
	gs.Points = []*GridPoint{NewGridPoint(0, 0, 10)}

	otime := time.Now()
	var result *Origin
	for i := 0; i < 6; i++ {
		sta, _ := dir.Lookup("GE", stationName(i), "")
		table, err := tt.Compute(0, 0, 10, sta.Lat, sta.Lon, 0)
		require.NoError(t, err)
		arr, ok := FirstArrival(table, "P1", 0)
		require.True(t, ok)

		pick := &Pick{Net: "GE", Sta: stationName(i), Time: otime.Add(time.Duration(arr.Time * float64(time.Second))), Status: StatusAutomatic}
		id, err := pool.Insert(pick, pick.Sta)
		require.NoError(t, err)
		pick.ID = id

		o, err := gs.Feed(pick, pool)
		require.NoError(t, err)
		if o != nil {
			result = o
		}
	}

	require.NotNil(t, result, "six consistent picks around a grid point must nucleate an origin")
	assert.GreaterOrEqual(t, len(result.Arrivals), minArrivalsToNucleate)
	assert.InDelta(t, 0.0, result.Lat, 1.0)
	assert.InDelta(t, 0.0, result.Lon, 1.0)
}
