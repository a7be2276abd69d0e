package autoloc

import (
	"math"

	"github.com/golang/geo/s2"
)

const degToRad = math.Pi / 180.0
const radToDeg = 180.0 / math.Pi

// Delazi returns the great-circle angular distance delta, and the
// forward azimuth az (from point 1 towards point 2) and back azimuth
// baz, all in degrees. Grounded on
// Seiscomp::Math::Geo::delazi as called throughout util.cpp.
func Delazi(lat1, lon1, lat2, lon2 float64) (delta, az, baz float64) {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	delta = p1.Distance(p2).Degrees()
	az = bearing(lat1, lon1, lat2, lon2)
	baz = bearing(lat2, lon2, lat1, lon1)
	return delta, az, baz
}

// bearing computes the initial spherical bearing in degrees [0,360)
// from point 1 to point 2. s2 has no bearing primitive, so this is a
// direct application of the standard spherical trigonometry formula.
func bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dLambda := (lon2 - lon1) * degToRad

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x) * radToDeg
	return math.Mod(theta+360, 360)
}
