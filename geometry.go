package traveltime

import (
	"math"

	"github.com/soniakeys/unit"
)

// EllipsoidFlattening is the geocentric/geographic conversion factor
// spec.md 4.K requires to match Engdahl's 1962 convention exactly.
const EllipsoidFlattening = 0.993305521

// geocentricLat converts a geographic latitude to geocentric latitude
// using the fixed flattening factor, via soniakeys/unit's Angle type for
// all trig plumbing.
func geocentricLat(geographic unit.Angle) unit.Angle {
	return unit.Angle(math.Atan(EllipsoidFlattening * math.Tan(geographic.Rad())))
}

func geographicLat(geocentric unit.Angle) unit.Angle {
	return unit.Angle(math.Atan(math.Tan(geocentric.Rad()) / EllipsoidFlattening))
}

// GreatCircleDistance returns the angular separation between two
// geocentric (lat,lon) points, in radians, via the haversine formula.
func GreatCircleDistance(lat1, lon1, lat2, lon2 unit.Angle) unit.Angle {
	dLat := lat2.Rad() - lat1.Rad()
	dLon := lon2.Rad() - lon1.Rad()
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1.Rad())*math.Cos(lat2.Rad())*math.Sin(dLon/2)*math.Sin(dLon/2)
	return unit.Angle(2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)))
}

// Azimuth returns the initial bearing (radians, 0 = north, clockwise)
// from point 1 to point 2 on the geocentric sphere.
func Azimuth(lat1, lon1, lat2, lon2 unit.Angle) unit.Angle {
	dLon := lon2.Rad() - lon1.Rad()
	y := math.Sin(dLon) * math.Cos(lat2.Rad())
	x := math.Cos(lat1.Rad())*math.Sin(lat2.Rad()) - math.Sin(lat1.Rad())*math.Cos(lat2.Rad())*math.Cos(dLon)
	az := math.Atan2(y, x)
	if az < 0 {
		az += 2 * math.Pi
	}
	return unit.Angle(az)
}

// ProjLatLon performs the forward great-circle projection of spec.md
// 4.K: given a geocentric start point, an initial azimuth and an angular
// distance, returns the resulting (geocentric) (lat,lon), then converts
// back to geographic latitude to match Engdahl's 1962 convention.
func ProjLatLon(startLatGeographic, startLon, azimuth, distance unit.Angle) (lat, lon unit.Angle) {
	phi1 := geocentricLat(startLatGeographic).Rad()
	lam1 := startLon.Rad()
	az := azimuth.Rad()
	d := distance.Rad()

	sinPhi2 := math.Sin(phi1)*math.Cos(d) + math.Cos(phi1)*math.Sin(d)*math.Cos(az)
	phi2 := math.Asin(clamp(sinPhi2, -1, 1))
	y := math.Sin(az) * math.Sin(d) * math.Cos(phi1)
	x := math.Cos(d) - math.Sin(phi1)*math.Sin(phi2)
	lam2 := lam1 + math.Atan2(y, x)

	geocentricOut := unit.Angle(phi2)
	lat = geographicLat(geocentricOut)
	lon = unit.Angle(wrapLon(lam2))
	return lat, lon
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapLon(lam float64) float64 {
	for lam > math.Pi {
		lam -= 2 * math.Pi
	}
	for lam < -math.Pi {
		lam += 2 * math.Pi
	}
	return lam
}

// UnwrapDistance implements spec.md 4.I's three-candidate distance
// unwrapping on the half-circle, with the DTOL offset at the 0 and pi
// edge cases.
const DTOL = 1e-9

func UnwrapDistance(deltaDeg float64) [3]float64 {
	x0 := math.Mod(deltaDeg*math.Pi/180, 2*math.Pi)
	if x0 < 0 {
		x0 += 2 * math.Pi
	}
	if x0 > math.Pi {
		x0 = 2*math.Pi - x0
	}
	x1 := 2*math.Pi - x0
	x2 := x0 + 2*math.Pi

	if x0 < DTOL {
		x0 = DTOL
	}
	if math.Abs(x0-math.Pi) < DTOL {
		x1 = x0 - DTOL
	}
	return [3]float64{x0, x1, x2}
}
