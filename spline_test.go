package traveltime

import (
	"math"
	"testing"
)

// syntheticBranch builds a branch over a known monotone tau(p) so
// EvalTau/EvalX/InvertDelta can be checked against values derived the
// same way FitBranchBasis would see them.
func syntheticBranch() *Branch {
	p := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	tau := make([]float64, len(p))
	x := make([]float64, len(p))
	for i, pv := range p {
		// tau(p) = 1 - p^2, so x(p) = -dtau/dp = 2p (monotone for p>0).
		tau[i] = 1 - pv*pv
		x[i] = 2 * pv
	}
	br := &Branch{
		PhaseCode: "P",
		HasDown:   true,
		P:         p, Tau: tau, X: x,
		PRange: [2]float64{p[0], p[len(p)-1]},
		XRange: xRangeOf(x),
	}
	br.Basis = FitBranchBasis(br.P, br.Tau, br.X)
	return br
}

func TestEvalTauMatchesKnotExactly(t *testing.T) {
	br := syntheticBranch()
	for i, pv := range br.P {
		got, ok := EvalTau(br, pv)
		if !ok {
			t.Fatalf("EvalTau(%v) not ok", pv)
		}
		if math.Abs(got-br.Tau[i]) > 1e-9 {
			t.Errorf("EvalTau(p[%d]=%v) = %v, want %v", i, pv, got, br.Tau[i])
		}
	}
}

func TestEvalXMatchesKnotExactly(t *testing.T) {
	br := syntheticBranch()
	// The last knot is p[n-1] = pn, where u = sqrt(pn-p) = 0 and du/dp is
	// singular by construction (this is the basis's deliberate stand-in
	// for the true caustic behaviour at a branch's bottoming slowness), so
	// only the interior knots are checked here.
	for i := 0; i < len(br.P)-1; i++ {
		pv := br.P[i]
		got, ok := EvalX(br, pv)
		if !ok {
			t.Fatalf("EvalX(%v) not ok", pv)
		}
		if math.Abs(got-br.X[i]) > 1e-6 {
			t.Errorf("EvalX(p[%d]=%v) = %v, want %v", i, pv, got, br.X[i])
		}
	}
}

func TestEvalTauOutsideRangeFails(t *testing.T) {
	br := syntheticBranch()
	if _, ok := EvalTau(br, br.P[0]-1); ok {
		t.Error("EvalTau should fail below the branch's p range")
	}
	if _, ok := EvalTau(br, br.P[len(br.P)-1]+1); ok {
		t.Error("EvalTau should fail above the branch's p range")
	}
}

func TestInvertDeltaRoundTrip(t *testing.T) {
	br := syntheticBranch()
	for _, pv := range []float64{0.15, 0.25, 0.35, 0.45} {
		x, ok := EvalX(br, pv)
		if !ok {
			t.Fatalf("EvalX(%v) not ok", pv)
		}
		gotP, ok := InvertDelta(br, x)
		if !ok {
			t.Fatalf("InvertDelta(%v) not ok", x)
		}
		if math.Abs(gotP-pv) > 1e-3 {
			t.Errorf("InvertDelta(x(%v)) = %v, want ~%v", pv, gotP, pv)
		}
	}
}

func TestInvertDeltaOutOfRange(t *testing.T) {
	br := syntheticBranch()
	lo, hi := br.XRange[0], br.XRange[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if _, ok := InvertDelta(br, lo-10); ok {
		t.Error("InvertDelta should fail for x far below XRange")
	}
	if _, ok := InvertDelta(br, hi+10); ok {
		t.Error("InvertDelta should fail for x far above XRange")
	}
}

func TestLocatePieceEmpty(t *testing.T) {
	if _, ok := locatePiece(nil, 0.1); ok {
		t.Error("locatePiece on empty grid should fail")
	}
}
