package autoloc

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

// OneLiner formats an Origin the way an analyst would scan a log:
// time, location, depth, score, defining phase count. Grounded on
// util.cpp's printOrigin one-line format.
func OneLiner(o *Origin) string {
	return fmt.Sprintf("%s lat=%.3f lon=%.3f dep=%.1fkm score=%.1f nph=%d/%d gap=%.0f",
		o.Time.Format("2006-01-02T15:04:05.000Z"),
		o.Lat, o.Lon, o.Depth, o.Score,
		o.Quality.DefiningPhaseCount, o.Quality.AssociatedPhaseCount,
		o.Quality.AzimuthalGap)
}

// Dump renders the full structure of an Origin, arrivals included, for
// debug logging. Grounded on the teacher's general use of go-spew for
// verbose struct dumps.
func Dump(o *Origin) string {
	return spew.Sdump(o)
}
