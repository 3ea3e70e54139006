package traveltime

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
)

func TestGreatCircleDistanceZeroForSamePoint(t *testing.T) {
	lat := unit.AngleFromDeg(12.3)
	lon := unit.AngleFromDeg(45.6)
	d := GreatCircleDistance(lat, lon, lat, lon)
	if math.Abs(d.Rad()) > 1e-12 {
		t.Errorf("distance to self = %v, want 0", d.Rad())
	}
}

func TestGreatCircleDistanceAntipodal(t *testing.T) {
	lat1 := unit.AngleFromDeg(0)
	lon1 := unit.AngleFromDeg(0)
	lat2 := unit.AngleFromDeg(0)
	lon2 := unit.AngleFromDeg(180)
	d := GreatCircleDistance(lat1, lon1, lat2, lon2)
	if math.Abs(d.Rad()-math.Pi) > 1e-9 {
		t.Errorf("antipodal distance = %v, want pi", d.Rad())
	}
}

func TestProjLatLonRoundTripsDistance(t *testing.T) {
	startLat := unit.AngleFromDeg(10)
	startLon := unit.AngleFromDeg(20)
	az := unit.AngleFromDeg(47)
	dist := unit.AngleFromDeg(30)

	lat2, lon2 := ProjLatLon(startLat, startLon, az, dist)
	gotDist := GreatCircleDistance(geocentricLat(startLat), startLon, geocentricLat(lat2), lon2)
	if math.Abs(gotDist.Rad()-dist.Rad()) > 1e-6 {
		t.Errorf("round-tripped distance = %v deg, want %v deg", gotDist.Deg(), dist.Deg())
	}
}

func TestUnwrapDistanceZeroIsClampedAboveZero(t *testing.T) {
	got := UnwrapDistance(0)
	if got[0] <= 0 {
		t.Errorf("UnwrapDistance(0)[0] = %v, want > 0", got[0])
	}
}

func TestUnwrapDistanceHalfCircle(t *testing.T) {
	got := UnwrapDistance(180)
	if math.Abs(got[0]-math.Pi) > DTOL {
		t.Errorf("UnwrapDistance(180)[0] = %v, want ~pi", got[0])
	}
	// Near pi, x1 is nudged below x0 rather than coinciding with it, per
	// the single-candidate-per-branch collapse at the antipodal edge.
	if got[1] >= got[0] {
		t.Errorf("UnwrapDistance(180)[1] = %v, want < %v", got[1], got[0])
	}
}

func TestUnwrapDistanceOrdering(t *testing.T) {
	got := UnwrapDistance(60)
	if got[0] >= got[1] {
		t.Errorf("x0=%v should be < x1=%v", got[0], got[1])
	}
	if got[1] >= got[2] {
		t.Errorf("x1=%v should be < x2=%v", got[1], got[2])
	}
}
