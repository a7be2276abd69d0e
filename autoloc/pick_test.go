package autoloc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testDirectory() *Directory {
	dir := NewDirectory()
	dir.Add(&Station{Net: "GE", Sta: "WLF", Loc: "", Lat: 49.9, Lon: 11.1, Enabled: true})
	return dir
}

func TestPickValidRejectsUnknownStation(t *testing.T) {
	dir := testDirectory()
	p := &Pick{Net: "GE", Sta: "UNKNOWN", Time: time.Now()}
	assert.False(t, p.valid(dir, 0))
}

func TestPickValidRejectsOutOfRangeSNR(t *testing.T) {
	dir := testDirectory()
	p := &Pick{Net: "GE", Sta: "WLF", Time: time.Now(), Status: StatusAutomatic, Amplitude: &Amplitude{SNR: -1}}
	assert.False(t, p.valid(dir, 3))

	p.Amplitude.SNR = 1e8
	assert.False(t, p.valid(dir, 3))

	p.Amplitude.SNR = 12
	assert.True(t, p.valid(dir, 3))
}

func TestPickValidIgnoresSNRForManualPicks(t *testing.T) {
	dir := testDirectory()
	p := &Pick{Net: "GE", Sta: "WLF", Time: time.Now(), Status: StatusManual, Amplitude: &Amplitude{SNR: -1}}
	assert.True(t, p.valid(dir, 3))
}

func TestPickValidEnforcesMinPickSNR(t *testing.T) {
	dir := testDirectory()
	p := &Pick{Net: "GE", Sta: "WLF", Time: time.Now(), Status: StatusAutomatic, Amplitude: &Amplitude{SNR: 2}}
	assert.False(t, p.valid(dir, 3), "an automatic pick below minPickSNR must be rejected")

	p.Amplitude.SNR = 3
	assert.True(t, p.valid(dir, 3))
}

func TestPickValidRejectsBlacklistedAndIgnored(t *testing.T) {
	dir := testDirectory()
	p := &Pick{Net: "GE", Sta: "WLF", Time: time.Now(), Blacklisted: true}
	assert.False(t, p.valid(dir, 0))

	p2 := &Pick{Net: "GE", Sta: "WLF", Time: time.Now(), Status: StatusIgnoredAutomatic}
	assert.False(t, p2.valid(dir, 0))
}

func TestArrivalDefiningOnlyWhenNotExcluded(t *testing.T) {
	a := Arrival{}
	assert.True(t, a.Defining())

	a.Excluded |= LargeResidual
	assert.False(t, a.Defining())
}

func TestExcludeReasonStringCombinesFlags(t *testing.T) {
	r := LargeResidual | BlacklistedPick
	s := r.String()
	assert.Contains(t, s, "large-residual")
	assert.Contains(t, s, "blacklisted-pick")
	assert.Equal(t, "ok", NotExcluded.String())
}

func TestOriginDefiningPhaseCount(t *testing.T) {
	o := &Origin{
		Arrivals: []Arrival{
			{PickID: 1},
			{PickID: 2, Excluded: LargeResidual},
			{PickID: 3},
		},
	}
	assert.Equal(t, 2, o.definingPhaseCount())
}

func TestOriginHasPFamilyArrivalDetectsDuplicateStationP(t *testing.T) {
	picks := NewPickPool()
	p1 := &Pick{Net: "GE", Sta: "WLF", Time: time.Now()}
	p1.ID, _ = picks.Insert(p1, "p1")

	o := &Origin{Arrivals: []Arrival{{PickID: p1.ID, Phase: "P"}}}
	assert.True(t, o.hasPFamilyArrival(p1.StationKey(), picks))
	assert.False(t, o.hasPFamilyArrival("XX.YYY.", picks))
}
