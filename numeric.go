package traveltime

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// cubicSplineEval fits a natural cubic spline through (xs, ys) — assumed
// sorted ascending — and evaluates it at x. This is the plain
// interpolation spline used for per-shell velocity profiles (model.go);
// it is unrelated to the specialised sqrt(p0-p) branch basis of the
// Spline Engine (spline.go).
func cubicSplineEval(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if n < 2 {
		if n == 1 {
			return ys[0]
		}
		return 0
	}
	if n == 2 {
		return linearEval(xs, ys, x)
	}

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
	}

	// Natural cubic spline: solve the tridiagonal system for the second
	// derivatives via Thomas algorithm.
	alpha := make([]float64, n)
	for i := 1; i < n-1; i++ {
		alpha[i] = (3/h[i])*(ys[i+1]-ys[i]) - (3/h[i-1])*(ys[i]-ys[i-1])
	}
	l := make([]float64, n)
	mu := make([]float64, n)
	z := make([]float64, n)
	l[0] = 1
	for i := 1; i < n-1; i++ {
		l[i] = 2*(xs[i+1]-xs[i-1]) - h[i-1]*mu[i-1]
		mu[i] = h[i] / l[i]
		z[i] = (alpha[i] - h[i-1]*z[i-1]) / l[i]
	}
	l[n-1] = 1
	c := make([]float64, n)
	b := make([]float64, n)
	d := make([]float64, n)
	for j := n - 2; j >= 0; j-- {
		c[j] = z[j] - mu[j]*c[j+1]
		b[j] = (ys[j+1]-ys[j])/h[j] - h[j]*(c[j+1]+2*c[j])/3
		d[j] = (c[j+1] - c[j]) / (3 * h[j])
	}

	i := sort.SearchFloat64s(xs, x) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	dx := x - xs[i]
	return ys[i] + b[i]*dx + c[i]*dx*dx + d[i]*dx*dx*dx
}

// pegasusRoot finds a root of f within [a,b] (f(a) and f(b) of opposite
// sign) using the Pegasus variant of the false-position method, to the
// given absolute tolerance on f. Used by the slowness sampler to bracket
// caustics (dDelta/dp = 0) and to refine bottoming radii.
func pegasusRoot(f func(float64) float64, a, b, tol float64, maxIter int) (float64, bool) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, true
	}
	if fb == 0 {
		return b, true
	}
	if (fa > 0) == (fb > 0) {
		return 0, false
	}
	for i := 0; i < maxIter; i++ {
		c := b - fb*(b-a)/(fb-fa)
		fc := f(c)
		if floats.EqualWithinAbs(fc, 0, tol) {
			return c, true
		}
		if (fc > 0) == (fb > 0) {
			fa = fa * fb / (fb + fc)
			b, fb = c, fc
		} else {
			a, fa = b, fb
			b, fb = c, fc
		}
	}
	return b, true
}
