package traveltime

import "math"

// Conversions carries every normalisation constant derived from the
// Earth radius and surface shear velocity of one model. All internal
// tau-p math is performed in the non-dimensional units it defines.
type Conversions struct {
	RSurface float64 // km
	VSurface float64 // km/s, surface shear velocity

	// xNorm non-dimensionalises radius/distance: 1 non-dim unit == RSurface km.
	XNorm float64
	// tNorm non-dimensionalises time: 1 non-dim unit == RSurface/VSurface s.
	TNorm float64

	// MinZSrc is the margin kept between the flattened source depth and
	// the surface (z = 0): NewDepthCorrection caps z_src at -MinZSrc, so a
	// source is never placed exactly at the surface.
	MinZSrc float64
}

// NewConversions builds the conversion object for a model whose surface
// radius and surface shear velocity are known.
func NewConversions(rSurface, vSurface float64) *Conversions {
	c := &Conversions{
		RSurface: rSurface,
		VSurface: vSurface,
		XNorm:    1.0 / rSurface,
	}
	c.TNorm = c.XNorm * vSurface
	// 0.011 * xNorm, per spec.md 4.H's clamp for the non-dimensional source
	// depth floor.
	c.MinZSrc = 0.011 * c.XNorm
	return c
}

// NormR converts a dimensional radius (km) to non-dimensional radius.
func (c *Conversions) NormR(r float64) float64 { return r * c.XNorm }

// DimR converts a non-dimensional radius back to km.
func (c *Conversions) DimR(rNorm float64) float64 { return rNorm / c.XNorm }

// FlatZ applies the Earth-flattening transform to a non-dimensional
// radius: z = ln(r_norm), so the centre maps to -inf and the surface to 0.
// Flat-Earth depth-domain slowness is consistent with this definition
// because velocities are simultaneously scaled by R/r before non-
// dimensionalising (see FlatV).
func (c *Conversions) FlatZ(rNorm float64) float64 {
	if rNorm <= 0 {
		return math.Inf(-1)
	}
	return math.Log(rNorm)
}

// RealZ inverts FlatZ, returning the non-dimensional radius for a given
// flattened depth coordinate.
func (c *Conversions) RealZ(z float64) float64 {
	return math.Exp(z)
}

// FlatV applies the flat-Earth velocity scaling v_flat = v * R/r.
func (c *Conversions) FlatV(v, rNorm float64) float64 {
	return v / rNorm
}

// FlatP converts a dimensional slowness (s/km, i.e. r/v at the surface)
// into non-dimensional ray parameter units, consistent with FlatZ/FlatV.
func (c *Conversions) FlatP(rKm, vKmS float64) float64 {
	return (rKm * c.TNorm) / (vKmS * c.RSurface)
}

// RealV converts a non-dimensional flattened slowness back to a
// dimensional velocity (km/s) at the given non-dimensional radius.
func (c *Conversions) RealV(slow, rNorm float64) float64 {
	if slow == 0 {
		return math.Inf(1)
	}
	return rNorm * c.TNorm / slow
}

// TimeToSeconds converts a non-dimensional tau/time value to seconds.
// tNorm non-dimensionalises time by RSurface/VSurface, so inverting it
// recovers seconds.
func (c *Conversions) TimeToSeconds(tNonDim float64) float64 {
	return tNonDim / c.TNorm
}
