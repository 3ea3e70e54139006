package traveltime

import (
	"reflect"
	"testing"
)

// buildTestRef runs the same per-model pipeline buildAllBrnRef does
// (model -> critical slownesses -> adaptive sampling -> integration ->
// standard branches), against the small synthetic model also used by
// model_test.go, so depth-correction and branch-inversion tests have a
// real (if physically crude) AllBrnRef to work against.
func buildTestRef(t *testing.T) *AllBrnRef {
	t.Helper()
	m, err := NewRadialModel("test", ak135LikeRows(), 5701, 6336, 6351)
	if err != nil {
		t.Fatalf("NewRadialModel: %v", err)
	}

	pCrit := ComputeCriticalSlownesses(m, WaveP)
	sCrit := ComputeCriticalSlownesses(m, WaveS)
	allCrit := append(append([]CriticalSlowness(nil), pCrit...), sCrit...)

	pSamples := SampleWaveType(m, WaveP, pCrit)
	sSamples := SampleWaveType(m, WaveS, sCrit)
	merged := MergeSlownessLists(pSamples, sSamples, allCrit)
	if len(merged) == 0 {
		t.Fatal("MergeSlownessLists produced no samples")
	}

	imP := Integrate(m, WaveP, merged)
	imS := Integrate(m, WaveS, merged)

	pCMB := shellBoundarySlowness(m, WaveP, CoreMantleBoundary)
	pICB := shellBoundarySlowness(m, WaveP, InnerCoreBoundary)

	var branches []*Branch
	for _, spec := range StandardBranchSpecs() {
		if br := BuildBranch(spec, imP, imS, pCMB, pICB); br != nil {
			branches = append(branches, br)
		}
	}
	if len(branches) == 0 {
		t.Fatal("no branches built from synthetic model")
	}

	return &AllBrnRef{
		Model: m, IntegratedP: imP, IntegratedS: imS,
		Branches: branches, PCMB: pCMB, PICB: pICB,
	}
}

func TestNewDepthCorrectionIsDeterministic(t *testing.T) {
	ref := buildTestRef(t)
	v1 := NewDepthCorrection(ref, 100)
	v2 := NewDepthCorrection(ref, 100)
	if v1.BadDepth != v2.BadDepth {
		t.Fatalf("BadDepth differs across runs: %v vs %v", v1.BadDepth, v2.BadDepth)
	}
	if !reflect.DeepEqual(v1.PSource, v2.PSource) {
		t.Errorf("PSource differs across runs: %v vs %v", v1.PSource, v2.PSource)
	}
	if !reflect.DeepEqual(v1.UpTau, v2.UpTau) {
		t.Error("UpTau differs across identical depth corrections")
	}
	if len(v1.Branches) != len(v2.Branches) {
		t.Fatalf("branch count differs: %d vs %d", len(v1.Branches), len(v2.Branches))
	}
	for i := range v1.Branches {
		if !reflect.DeepEqual(v1.Branches[i].P, v2.Branches[i].P) {
			t.Errorf("branch %d P grid differs across identical depth corrections", i)
		}
		if !reflect.DeepEqual(v1.Branches[i].Tau, v2.Branches[i].Tau) {
			t.Errorf("branch %d Tau grid differs across identical depth corrections", i)
		}
	}
}

func TestNewDepthCorrectionRejectsOutOfRangeDepth(t *testing.T) {
	ref := buildTestRef(t)
	vol := NewDepthCorrection(ref, -5)
	if !vol.BadDepth {
		t.Error("negative depth should set BadDepth")
	}
	vol = NewDepthCorrection(ref, earthquakeMaxDepthKm+1)
	if !vol.BadDepth {
		t.Error("depth beyond earthquakeMaxDepthKm should set BadDepth")
	}
}

func TestShortenBranchNeverLengthensPRange(t *testing.T) {
	ref := buildTestRef(t)
	vol := NewDepthCorrection(ref, 300)
	for i, br := range vol.Branches {
		orig := ref.Branches[i]
		if br.PRange[1] > orig.PRange[1]+1e-9 {
			t.Errorf("branch %s: shortened PRange[1]=%v exceeds original %v", br.PhaseCode, br.PRange[1], orig.PRange[1])
		}
	}
}

func TestGetTTOnBadDepthReturnsNil(t *testing.T) {
	ref := buildTestRef(t)
	sess := newSession(ref, -1)
	if got := sess.getTT(QueryRequest{DeltaDeg: 30}); got != nil {
		t.Errorf("getTT on a bad-depth session = %v, want nil", got)
	}
}
