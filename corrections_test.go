package traveltime

import (
	"math"
	"testing"
)

func TestElevationCorrectionSurfaceWaveIsZero(t *testing.T) {
	got := ElevationCorrection("LR", 2.0, 0.05, true, false, false)
	if got != 0 {
		t.Errorf("ElevationCorrection(surface wave) = %v, want 0", got)
	}
}

func TestElevationCorrectionRSTTRegionalIsZero(t *testing.T) {
	got := ElevationCorrection("Pg", 2.0, 0.05, true, true, true)
	if got != 0 {
		t.Errorf("ElevationCorrection(RSTT regional) = %v, want 0", got)
	}
}

func TestElevationCorrectionPositiveForPositiveElevation(t *testing.T) {
	got := ElevationCorrection("P", 1.0, 0.05, true, false, false)
	if got <= 0 {
		t.Errorf("ElevationCorrection(elev=1km) = %v, want > 0", got)
	}
}

func TestElevationCorrectionClampsSupercriticalSlowness(t *testing.T) {
	// vp*p > 1 would make the radicand negative without clamping.
	got := ElevationCorrection("P", 1.0, 1.0, true, false, false)
	if math.IsNaN(got) {
		t.Error("ElevationCorrection should clamp the radicand, not produce NaN")
	}
}

func TestPwPCorrectionRequiresOceanBounce(t *testing.T) {
	if _, ok := PwPCorrection(-100); ok {
		t.Error("PwPCorrection should reject a bounce point above -1500m")
	}
	if _, ok := PwPCorrection(-1500); !ok {
		t.Error("PwPCorrection should accept a bounce point at exactly -1500m")
	}
}

func TestPwPCorrectionIncludesFixedOffset(t *testing.T) {
	corr, ok := PwPCorrection(-2000)
	if !ok {
		t.Fatal("PwPCorrection should accept a -2000m bounce point")
	}
	waterCorr := topoCorrection(-2000, DefVw)
	crustCorr := topoCorrection(-2000, DefVp)
	want := 2*(waterCorr-crustCorr) + pwPOffsetSeconds
	if math.Abs(corr-want) > 1e-12 {
		t.Errorf("PwPCorrection(-2000) = %v, want %v", corr, want)
	}
}
