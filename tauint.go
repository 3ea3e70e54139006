package traveltime

import "math"

// bPowerTolerance is the relative tolerance below which the Mohorovicic
// power-law exponent b is treated as zero (constant flattened slowness
// within the layer), avoiding a division by a near-zero b in the general
// closed form.
const bPowerTolerance = 1e-9

// intLayer returns the layer's tau contribution for ray parameter p
// crossing the flattened-depth interval [z1, z2], where the layer's
// flattened slowness follows the Mohorovicic power law
// s(z) = slow1 * exp(b*(z-z1)), b = ln(slow2/slow1)/(z2-z1).
//
// Both directions are legal: z2 may be the turning point itself, i.e.
// slow2 == p (a "turning-point half-layer"), in which case the general
// formula degenerates cleanly because sqrt(slow2^2-p^2) = 0 there.
//
// Preconditions: p <= min(slow1, slow2). Violating this returns
// ErrRayDoesNotBottom. z1 == z2 with slow1 != slow2 is geometrically
// impossible (a discontinuity with finite velocity change occupies zero
// depth) and returns ErrIllegalInterval.
func intLayer(p, slow1, slow2, z1, z2 float64) (tau float64, err error) {
	if p > slow1+1e-12 && p > slow2+1e-12 {
		return 0, ErrRayDoesNotBottom
	}
	if z1 == z2 {
		if slow1 != slow2 {
			return 0, ErrIllegalInterval
		}
		return 0, nil
	}
	lo := math.Min(slow1, slow2)
	if p > lo {
		p = lo // clamp: caller's turning endpoint should already equal lo
	}

	b := math.Log(slow2/slow1) / (z2 - z1)
	if math.Abs(b) < bPowerTolerance {
		eta := math.Sqrt(math.Max(slow1*slow1-p*p, 0))
		return eta * math.Abs(z2-z1), nil
	}

	f := func(s float64) float64 {
		eta := math.Sqrt(math.Max(s*s-p*p, 0))
		return eta - p*safeArccos(p/s)
	}
	tau = (f(slow2) - f(slow1)) / b
	return math.Abs(tau), nil
}

// getXLayer returns the layer's Delta (distance) contribution for the
// same interval and ray parameter as intLayer.
func getXLayer(p, slow1, slow2, z1, z2 float64) (x float64, err error) {
	if p > slow1+1e-12 && p > slow2+1e-12 {
		return 0, ErrRayDoesNotBottom
	}
	if z1 == z2 {
		if slow1 != slow2 {
			return 0, ErrIllegalInterval
		}
		return 0, nil
	}
	lo := math.Min(slow1, slow2)
	if p > lo {
		p = lo
	}

	b := math.Log(slow2/slow1) / (z2 - z1)
	if math.Abs(b) < bPowerTolerance {
		eta := math.Sqrt(math.Max(slow1*slow1-p*p, 0))
		if eta == 0 {
			return 0, nil
		}
		return (p / eta) * math.Abs(z2-z1), nil
	}

	g := func(s float64) float64 {
		return safeArccos(p / s)
	}
	x = (g(slow2) - g(slow1)) / b
	return math.Abs(x), nil
}

// safeArccos clamps its argument into [-1,1] before calling math.Acos,
// since floating point error can push p/s fractionally past 1 exactly at
// a turning point where p == s.
func safeArccos(v float64) float64 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return math.Acos(v)
}
