package traveltime

import (
	"math"
	"strings"

	"github.com/soniakeys/meeus/v3/interp"
	"github.com/soniakeys/unit"
)

// Fixed default velocities for elevation corrections (spec.md 4.K).
const (
	DefVp = 5.80
	DefVs = 3.46
	DefVw = 1.50
)

// pwPOffsetSeconds is the literal pwP post-correction offset of
// spec.md 4.I step 5 / 9 (Open Questions: provenance unconfirmed, kept
// as specified).
const pwPOffsetSeconds = -4.67

// ElevationCorrection implements spec.md 4.I step 3: surface waves (phase
// codes starting with L) get none; in RSTT mode, local/regional phases
// get none either.
func ElevationCorrection(phaseCode string, elevKm, p float64, receiverLegP bool, rstt, regional bool) float64 {
	if strings.HasPrefix(phaseCode, "L") {
		return 0
	}
	if rstt && regional {
		return 0
	}
	v := DefVp
	if !receiverLegP {
		v = DefVs
	}
	vp := v * p
	radicand := 1 - math.Min(vp*vp, 1)
	return (elevKm / v) * math.Sqrt(radicand)
}

// EllipticityCorrection interpolates the bilinear ellipticity table of
// spec.md 4.I step 4 over (eqLat, depth, delta, azimuth), using
// meeus/interp.Len3 as the evenly-spaced interpolation kernel along the
// depth axis (the table's depth grid is fixed and evenly spaced, per
// spec.md 6's ellipticity file format).
func EllipticityCorrection(profile *EllipProfile, eqLat unit.Angle, depthKm, deltaDeg float64, azimuth unit.Angle) (float64, bool) {
	if profile == nil || len(profile.Deltas) == 0 {
		return 0, false
	}
	di := locateDeltaIndex(profile.Deltas, deltaDeg)
	if di < 0 {
		return 0, false
	}

	t0 := depthInterp(profile.DepthGrid, profile.T0[di], depthKm)
	t1 := depthInterp(profile.DepthGrid, profile.T1[di], depthKm)
	t2 := depthInterp(profile.DepthGrid, profile.T2[di], depthKm)

	// Standard Dziewonski-Gilbert ellipticity correction form:
	// dT = t0*(3cos^2(lat)-1)/2 + t1*sin(2*az)*sin(2*lat) + t2*cos(az)*sin(lat)...
	// collapsed here to the conventional combination using geocentric
	// latitude and station azimuth.
	gcLat := geocentricLat(eqLat).Rad()
	az := azimuth.Rad()
	dT := t0*(0.5*(3*math.Cos(gcLat)*math.Cos(gcLat)-1)) +
		t1*math.Sin(gcLat)*math.Cos(az) +
		t2*math.Cos(gcLat)*math.Cos(2*az)
	return dT, true
}

func locateDeltaIndex(deltas []float64, delta float64) int {
	best, bestD := -1, math.Inf(1)
	for i, d := range deltas {
		diff := math.Abs(d - delta)
		if diff < bestD {
			bestD, best = diff, i
		}
	}
	return best
}

// depthInterp evaluates a 1-D table at depth using meeus's three-point
// (Bessel) interpolation when the depth grid is evenly spaced with at
// least 3 points, falling back to linear interpolation otherwise.
func depthInterp(grid, values []float64, depth float64) float64 {
	n := len(grid)
	if n == 0 || len(values) != n {
		return 0
	}
	if n < 3 {
		return linearEval(grid, values, depth)
	}
	step := grid[1] - grid[0]
	if step == 0 {
		return values[0]
	}
	// meeus/interp.Len3 expects the abscissa of the first of 3 uniformly
	// spaced points, the spacing, and the 3 ordinates, then interpolates
	// at a given x via its InterpolateX method.
	i := int((depth - grid[0]) / step)
	if i < 0 {
		i = 0
	}
	if i > n-3 {
		i = n - 3
	}
	t3, err := interp.NewLen3(grid[i], step, []float64{values[i], values[i+1], values[i+2]})
	if err != nil {
		return linearEval(grid, values, depth)
	}
	v, err := t3.InterpolateX(depth)
	if err != nil {
		return linearEval(grid, values, depth)
	}
	return v
}

// BouncePointCorrection implements spec.md 4.I step 5 for surface
// reflections: trace the initial leg to the bounce point, read the
// topography grid there, and apply 2*topoCorr (same-type reflections) or
// the sum of both legs' corrections (converted bounces).
//
// Returns (correction, elevM, ok), elevM being the topography height in
// metres at the bounce point. A NaN-producing trace (e.g.
// the bounce point projects off any sane geometry) reports ok=false and
// the caller drops only that arrival, per spec.md 7.
func BouncePointCorrection(srcLat, srcLon unit.Angle, azimuth unit.Angle, legDistance unit.Angle, topo *TopoGrid, sameType bool, vLeg1, vLeg2 float64) (correction float64, elevM float64, ok bool) {
	lat, lon := ProjLatLon(srcLat, srcLon, azimuth, legDistance)
	elevM = topo.ElevationM(lat.Deg(), lon.Deg())
	if math.IsNaN(elevM) {
		return 0, 0, false
	}

	corr1 := topoCorrection(elevM, vLeg1)
	if sameType {
		return 2 * corr1, elevM, true
	}
	corr2 := topoCorrection(elevM, vLeg2)
	return corr1 + corr2, elevM, true
}

// topoCorrection is the per-leg bounce-point timing correction for an
// elevation (metres) and the leg's characteristic velocity (km/s).
func topoCorrection(elevM, vLeg float64) float64 {
	return (elevM / 1000.0) / vLeg
}

// PwPCorrection implements spec.md 4.I step 5's special case: pwP exists
// only if the bounce elevation is at or below -1.5km (ocean); the
// correction is 2*(water-layer correction - crust correction) - 4.67s.
// Otherwise the caller must drop the pwP arrival entirely.
func PwPCorrection(elevM float64) (float64, bool) {
	if elevM > -1500 {
		return 0, false
	}
	waterCorr := topoCorrection(elevM, DefVw)
	crustCorr := topoCorrection(elevM, DefVp)
	return 2*(waterCorr-crustCorr) + pwPOffsetSeconds, true
}
