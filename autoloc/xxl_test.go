package autoloc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xxlTestDirectory() *Directory {
	dir := NewDirectory()
	dir.Add(&Station{Net: "GE", Sta: "AAA", Lat: 0.0, Lon: 0.0, Enabled: true})
	dir.Add(&Station{Net: "GE", Sta: "BBB", Lat: 0.5, Lon: 0.0, Enabled: true})
	dir.Add(&Station{Net: "GE", Sta: "CCC", Lat: 0.0, Lon: 0.5, Enabled: true})
	dir.Add(&Station{Net: "GE", Sta: "DDD", Lat: -0.5, Lon: 0.0, Enabled: true})
	dir.Add(&Station{Net: "GE", Sta: "FAR", Lat: 20.0, Lon: 20.0, Enabled: true})
	return dir
}

func largePick(net, sta string, t time.Time) *Pick {
	return &Pick{Net: net, Sta: sta, Time: t, Status: StatusAutomatic,
		Amplitude: &Amplitude{Value: 5000, SNR: 50}}
}

func TestXXLDetectorNucleatesOnFourStationCluster(t *testing.T) {
	dir := xxlTestDirectory()
	det := NewXXLDetector(DefaultXXLConfig(), dir)
	now := time.Now()

	assert.Nil(t, det.Feed(largePick("GE", "AAA", now)))
	assert.Nil(t, det.Feed(largePick("GE", "BBB", now.Add(1*time.Second))))
	assert.Nil(t, det.Feed(largePick("GE", "CCC", now.Add(2*time.Second))))

	o := det.Feed(largePick("GE", "DDD", now.Add(3*time.Second)))
	require.NotNil(t, o, "a fourth station within the clustering window must trigger an XXL origin")
	assert.Len(t, o.Arrivals, 4)
	assert.Equal(t, 0.0, o.Depth)
}

func TestXXLDetectorIgnoresSmallAmplitudes(t *testing.T) {
	dir := xxlTestDirectory()
	det := NewXXLDetector(DefaultXXLConfig(), dir)
	now := time.Now()
	small := &Pick{Net: "GE", Sta: "AAA", Time: now, Status: StatusAutomatic, Amplitude: &Amplitude{Value: 10, SNR: 50}}
	assert.Nil(t, det.Feed(small))
}

func TestXXLDetectorDropsCandidatesOutsideWindow(t *testing.T) {
	dir := xxlTestDirectory()
	det := NewXXLDetector(DefaultXXLConfig(), dir)
	now := time.Now()

	det.Feed(largePick("GE", "AAA", now))
	det.Feed(largePick("GE", "BBB", now.Add(1*time.Second)))
	det.Feed(largePick("GE", "CCC", now.Add(2*time.Second)))
	// Arrives well past the clustering window: the earlier three are
	// pruned, leaving only this one candidate.
	o := det.Feed(largePick("GE", "DDD", now.Add(time.Hour)))
	assert.Nil(t, o, "stale candidates outside DT must not count toward the cluster")
}

func TestXXLDetectorRejectsDistantCluster(t *testing.T) {
	dir := xxlTestDirectory()
	det := NewXXLDetector(DefaultXXLConfig(), dir)
	now := time.Now()

	det.Feed(largePick("GE", "AAA", now))
	det.Feed(largePick("GE", "BBB", now.Add(1*time.Second)))
	det.Feed(largePick("GE", "CCC", now.Add(2*time.Second)))
	o := det.Feed(largePick("GE", "FAR", now.Add(3*time.Second)))
	assert.Nil(t, o, "a station far from the cluster centroid must veto XXL nucleation")
}
