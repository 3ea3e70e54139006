package traveltime

import (
	"math"
	"testing"
)

func TestCubicSplineEvalPassesThroughKnots(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 4, 9, 16} // x^2, smooth enough for a natural spline to hit knots exactly
	for i, x := range xs {
		got := cubicSplineEval(xs, ys, x)
		if math.Abs(got-ys[i]) > 1e-9 {
			t.Errorf("cubicSplineEval(%v) = %v, want %v", x, got, ys[i])
		}
	}
}

func TestCubicSplineEvalTwoPointsIsLinear(t *testing.T) {
	xs := []float64{0, 2}
	ys := []float64{0, 10}
	got := cubicSplineEval(xs, ys, 1)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("cubicSplineEval midpoint = %v, want 5", got)
	}
}

func TestCubicSplineEvalSinglePoint(t *testing.T) {
	got := cubicSplineEval([]float64{1}, []float64{7}, 5)
	if got != 7 {
		t.Errorf("cubicSplineEval single point = %v, want 7", got)
	}
}

func TestPegasusRootFindsKnownRoot(t *testing.T) {
	f := func(x float64) float64 { return x*x - 2 }
	root, ok := pegasusRoot(f, 0, 2, 1e-10, 100)
	if !ok {
		t.Fatal("pegasusRoot did not converge")
	}
	if math.Abs(root-math.Sqrt2) > 1e-6 {
		t.Errorf("root = %v, want sqrt(2) = %v", root, math.Sqrt2)
	}
}

func TestPegasusRootSameSignFails(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	_, ok := pegasusRoot(f, 0, 2, 1e-10, 50)
	if ok {
		t.Error("pegasusRoot should fail to bracket a root when f has constant sign")
	}
}

func TestPegasusRootExactEndpoint(t *testing.T) {
	f := func(x float64) float64 { return x - 1 }
	root, ok := pegasusRoot(f, 1, 2, 1e-10, 10)
	if !ok || root != 1 {
		t.Errorf("root = %v, ok = %v, want 1, true", root, ok)
	}
}
