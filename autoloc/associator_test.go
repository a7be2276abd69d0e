package autoloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvgfnIsOneAtZeroAndZeroOutsideUnitWindow(t *testing.T) {
	assert.InDelta(t, 1.0, avgfn(0), 1e-9)
	assert.InDelta(t, 0.0, avgfn(1), 1e-9)
	assert.Equal(t, 0.0, avgfn(1.5))
	assert.Equal(t, 0.0, avgfn(-1.5))
}

func TestAvgfn2HasAFlatPlateau(t *testing.T) {
	assert.InDelta(t, 1.0, avgfn2(0, 0.5), 1e-9)
	assert.InDelta(t, 1.0, avgfn2(0.5, 0.5), 1e-9)
	assert.Less(t, avgfn2(0.75, 0.5), 1.0)
	assert.Equal(t, 0.0, avgfn2(1, 0.5))
}

func TestDetermineAzimuthalGapsEvenlySpacedStations(t *testing.T) {
	primary, secondary := determineAzimuthalGaps([]float64{0, 90, 180, 270})
	assert.InDelta(t, 90.0, primary, 1e-9)
	assert.InDelta(t, 180.0, secondary, 1e-9)
}

func TestDetermineAzimuthalGapsTwoStationsOnOneSide(t *testing.T) {
	primary, secondary := determineAzimuthalGaps([]float64{0, 90})
	assert.InDelta(t, 270.0, primary, 1e-9)
	assert.InDelta(t, 360.0, secondary, 1e-9)
}

func TestDetermineAzimuthalGapsSingleStationIsMaximal(t *testing.T) {
	primary, secondary := determineAzimuthalGaps([]float64{42})
	assert.Equal(t, 360.0, primary)
	assert.Equal(t, 360.0, secondary)
}

func TestFindPhaseRangeOrderPAlwaysWinsWithinItsWindow(t *testing.T) {
	r := findPhaseRange("P")
	assert.NotNil(t, r)
	assert.Equal(t, "P", r.Code)
	assert.True(t, r.contains(30, 10))
	assert.False(t, r.contains(170, 10))
}

func TestIsPAndIsPKP(t *testing.T) {
	assert.True(t, isP("P"))
	assert.True(t, isP("Pn"))
	assert.False(t, isP("PKPdf"))
	assert.True(t, isPKP("PKPdf"))
	assert.False(t, isPKP("P"))
}
