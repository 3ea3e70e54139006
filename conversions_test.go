package traveltime

import (
	"math"
	"testing"
)

func TestConversionsFlatZRoundTrip(t *testing.T) {
	c := NewConversions(6371, 3.5)
	rNorm := c.NormR(5000)
	z := c.FlatZ(rNorm)
	gotNorm := c.RealZ(z)
	if math.Abs(gotNorm-rNorm) > 1e-12 {
		t.Errorf("RealZ(FlatZ(r)) = %v, want %v", gotNorm, rNorm)
	}
}

func TestConversionsDimRRoundTrip(t *testing.T) {
	c := NewConversions(6371, 3.5)
	r := 1234.5
	got := c.DimR(c.NormR(r))
	if math.Abs(got-r) > 1e-9 {
		t.Errorf("DimR(NormR(r)) = %v, want %v", got, r)
	}
}

func TestConversionsFlatZSurfaceIsZero(t *testing.T) {
	c := NewConversions(6371, 3.5)
	// rNorm = 1 at the surface (r == RSurface), so ln(1) == 0.
	z := c.FlatZ(c.NormR(6371))
	if math.Abs(z) > 1e-12 {
		t.Errorf("FlatZ(surface) = %v, want 0", z)
	}
}

func TestConversionsFlatZCentreIsMinusInf(t *testing.T) {
	c := NewConversions(6371, 3.5)
	if !math.IsInf(c.FlatZ(0), -1) {
		t.Error("FlatZ(0) should be -Inf")
	}
}

func TestConversionsTimeToSecondsInverse(t *testing.T) {
	c := NewConversions(6371, 3.5)
	// TimeToSeconds divides by TNorm; a non-dim time of TNorm should map to
	// exactly 1 second.
	got := c.TimeToSeconds(c.TNorm)
	if math.Abs(got-1) > 1e-12 {
		t.Errorf("TimeToSeconds(TNorm) = %v, want 1", got)
	}
}

func TestConversionsMinZSrcIsPositive(t *testing.T) {
	c := NewConversions(6371, 3.5)
	if c.MinZSrc <= 0 {
		t.Errorf("MinZSrc = %v, want > 0 (NewDepthCorrection negates it as a floor)", c.MinZSrc)
	}
}
