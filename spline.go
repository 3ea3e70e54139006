package traveltime

import "math"

// The Spline Engine represents tau(p) over a branch's p-grid p0..p_{n-1}
// (p_{n-1} the branch's bottoming slowness) as tau(p) = sum_j c_j(p) a_j,
// where c_j are fixed basis functions in sqrt(p_{n-1}-p) and a_j are the
// branch's stored spline coefficients (spec.md 4.G). Five coefficients
// per sample point are kept so that Delta(p) = -dtau/dp and a second
// derivative are available analytically.

// basisFuncs evaluates the five fixed basis functions at the offset u;
// EvalTau passes the knot-relative u - u_k, with u = sqrt(pn-p).
func basisFuncs(u float64) [5]float64 {
	u2 := u * u
	u3 := u2 * u
	u4 := u3 * u
	return [5]float64{1, u, u2, u3, u4}
}

// basisDerivFuncs evaluates d(c_j)/dp at ray parameter p, where
// c_j(uRel) = uRel^j and uRel = u - u_k is the knot-relative variable
// EvalTau/EvalX evaluate the basis in. du/dp = -1/(2u) (u = sqrt(pn-p),
// the actual global offset at p, not u_k), and duRel/dp = du/dp since
// u_k is constant per piece.
func basisDerivFuncs(u, uRel float64) [5]float64 {
	if u == 0 {
		return [5]float64{0, 0, 0, 0, 0}
	}
	dudp := -1.0 / (2 * u)
	return [5]float64{
		0,
		dudp,
		2 * uRel * dudp,
		3 * uRel * uRel * dudp,
		4 * uRel * uRel * uRel * dudp,
	}
}

// FitBranchBasis fits the 5-coefficient basis for a branch's (p, tau)
// samples: at each knot a local expansion that matches tau and its slope
// (-x, since x = -dtau/dp) there, plus a quadratic term estimated from the
// neighbouring knots (see hermiteCoeffsAt). Samples are expected ordered by
// increasing p with p[len-1] the bottoming slowness.
func FitBranchBasis(p, tau, x []float64) [5][]float64 {
	n := len(p)
	basis := [5][]float64{}
	for j := 0; j < 5; j++ {
		basis[j] = make([]float64, n)
	}
	if n == 0 {
		return basis
	}
	pn := p[n-1]
	for i := 0; i < n; i++ {
		u := math.Sqrt(math.Max(pn-p[i], 0))
		// Local Hermite fit around this knot: tau and -x=dtau/dp fix the
		// two lowest-order basis terms (1, u), and a finite-difference
		// curvature from the neighbouring knots fixes the u^2 term.
		c := hermiteCoeffsAt(p, tau, x, i, pn)
		for j := 0; j < 5; j++ {
			basis[j][i] = c[j]
		}
	}
	return basis
}

// hermiteCoeffsAt derives local coefficients at knot i so that
// tau(p[i]) and its Delta-consistent derivative match the sample data,
// using the two nearest neighbours to estimate the quadratic term.
func hermiteCoeffsAt(p, tau, x []float64, i int, pn float64) [5]float64 {
	n := len(p)
	var c [5]float64
	c[0] = tau[i]
	u := math.Sqrt(math.Max(pn-p[i], 0))
	if u > 0 {
		// dtau/du = dtau/dp * dp/du = (-x[i]) * (-2u) = 2*u*x[i]
		c[1] = 2 * u * x[i]
	}
	// Use a finite-difference estimate of curvature from neighbouring
	// samples to populate the quadratic term, leaving cubic/quartic
	// terms (rarely significant for the smooth tau(p) this system
	// produces) at zero.
	if i > 0 && i+1 < n {
		up := math.Sqrt(math.Max(pn-p[i-1], 0))
		un := math.Sqrt(math.Max(pn-p[i+1], 0))
		if up != u && un != u {
			d2 := secondDeriv(up, u, un, tau[i-1], tau[i], tau[i+1])
			c[2] = d2 / 2
		}
	}
	return c
}

func secondDeriv(x0, x1, x2, y0, y1, y2 float64) float64 {
	h1 := x1 - x0
	h2 := x2 - x1
	if h1 == 0 || h2 == 0 {
		return 0
	}
	return 2 * ((y2-y1)/h2 - (y1-y0)/h1) / (h1 + h2)
}

// EvalTau evaluates tau(p) for a branch at the piece containing p using
// its fitted basis, piece k being [p[k], p[k+1]). The basis coefficients
// at knot k are a local Hermite expansion in u - u_k (u_k the knot's own
// sqrt(pn-p[k])), so the evaluation variable here must be that same
// offset, not the raw global u, or the curve would not pass through its
// own knot values. p at the last knot is evaluated from that knot's own
// expansion, so it too returns the stored tau.
func EvalTau(br *Branch, p float64) (tau float64, ok bool) {
	k, ok := locatePiece(br.P, p)
	if !ok {
		return 0, false
	}
	if last := len(br.P) - 1; p >= br.P[last] {
		k = last
	}
	pn := br.P[len(br.P)-1]
	uk := math.Sqrt(math.Max(pn-br.P[k], 0))
	u := math.Sqrt(math.Max(pn-p, 0))
	c := basisFuncs(u - uk)
	for j := 0; j < 5; j++ {
		tau += br.Basis[j][k] * c[j]
	}
	return tau, true
}

// EvalX evaluates Delta(p) = -dtau/dp for a branch at p, using the chain
// rule through the same u-u_k offset variable as EvalTau.
func EvalX(br *Branch, p float64) (x float64, ok bool) {
	k, ok := locatePiece(br.P, p)
	if !ok {
		return 0, false
	}
	pn := br.P[len(br.P)-1]
	uk := math.Sqrt(math.Max(pn-br.P[k], 0))
	u := math.Sqrt(math.Max(pn-p, 0))
	dc := basisDerivFuncs(u, u-uk)
	var dtaudp float64
	for j := 0; j < 5; j++ {
		dtaudp += br.Basis[j][k] * dc[j]
	}
	return -dtaudp, true
}

func locatePiece(ps []float64, p float64) (int, bool) {
	n := len(ps)
	if n == 0 {
		return 0, false
	}
	if p < ps[0]-1e-9 || p > ps[n-1]+1e-9 {
		return 0, false
	}
	lo, hi := 0, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if ps[mid] <= p {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo > 0 {
		lo--
	}
	if lo >= n-1 {
		lo = n - 2
		if lo < 0 {
			lo = 0
		}
	}
	return lo, true
}

// InvertDelta solves Delta(p) = x for a branch by Newton iteration on
// Delta(p)-x, bracketed by the branch's sample grid. Delta is guaranteed
// monotone between caustics, so Newton converges from any bracketed
// start. Returns ok=false if x is outside [XRange[0], XRange[1]].
func InvertDelta(br *Branch, x float64) (p float64, ok bool) {
	xlo, xhi := br.XRange[0], br.XRange[1]
	if xlo > xhi {
		xlo, xhi = xhi, xlo
	}
	if x < xlo-1e-9 || x > xhi+1e-9 {
		return 0, false
	}

	// Bracket via linear scan of the sample grid (monotone between
	// caustics, so a single bracketing pair suffices per sign run).
	n := len(br.P)
	for i := 0; i+1 < n; i++ {
		x0, x1 := br.X[i], br.X[i+1]
		lo, hi := math.Min(x0, x1), math.Max(x0, x1)
		if x < lo-1e-9 || x > hi+1e-9 {
			continue
		}
		p0, p1 := br.P[i], br.P[i+1]
		pg := p0 + (p1-p0)*0.5
		for iter := 0; iter < 30; iter++ {
			xv, okEval := EvalX(br, pg)
			if !okEval {
				break
			}
			f := xv - x
			if math.Abs(f) < 1e-9 {
				return pg, true
			}
			// Numerical derivative dX/dp via finite difference since
			// the analytic second derivative of X needs the basis'
			// third-order term, which degenerate fits may leave at 0.
			h := (p1 - p0) * 1e-3
			if h == 0 {
				h = 1e-6
			}
			xph, ok1 := EvalX(br, pg+h)
			xmh, ok2 := EvalX(br, pg-h)
			if !ok1 || !ok2 {
				break
			}
			deriv := (xph - xmh) / (2 * h)
			if deriv == 0 {
				break
			}
			next := pg - f/deriv
			if next < math.Min(p0, p1) || next > math.Max(p0, p1) {
				next = (p0 + p1) / 2
			}
			pg = next
		}
		return pg, true
	}
	return 0, false
}
