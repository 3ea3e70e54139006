package traveltime

import "testing"

func buildTestIntegratedModels(t *testing.T) (m *RadialModel, imP, imS *IntegratedModel) {
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
	imP = Integrate(m, WaveP, merged)
	imS = Integrate(m, WaveS, merged)
	return m, imP, imS
}

func TestIntegrateProducesNonNegativeTauX(t *testing.T) {
	_, imP, _ := buildTestIntegratedModels(t)
	for i, sp := range imP.Partials {
		if sp.Tau() < -1e-9 {
			t.Errorf("Partials[%d].Tau() = %v, want >= 0", i, sp.Tau())
		}
		if sp.X() < -1e-9 {
			t.Errorf("Partials[%d].X() = %v, want >= 0", i, sp.X())
		}
	}
}

func TestIntegrateSnapshotsCMBAndICB(t *testing.T) {
	_, imP, _ := buildTestIntegratedModels(t)
	if len(imP.CMB) == 0 {
		t.Error("Integrate should snapshot shell partials at the CMB")
	}
	if len(imP.ICB) == 0 {
		t.Error("Integrate should snapshot shell partials at the ICB")
	}
	if len(imP.Center) != len(imP.P) {
		t.Errorf("Center snapshot length = %d, want %d (one per merged ray parameter)", len(imP.Center), len(imP.P))
	}
}

func TestIntegrateCMBPrecedesCenterInAccumulation(t *testing.T) {
	_, imP, _ := buildTestIntegratedModels(t)
	// The CMB snapshot is taken partway through the walk to the centre, so
	// its accumulated tau for any given ray parameter can never exceed the
	// final (centre) accumulation for that same ray parameter.
	for i := range imP.CMB {
		if imP.CMB[i].Tau() > imP.Center[i].Tau()+1e-9 {
			t.Errorf("p[%d]: CMB tau %v exceeds final tau %v", i, imP.CMB[i].Tau(), imP.Center[i].Tau())
		}
	}
}

func TestIntegrateRecordsEarthquakeDepthSnapshots(t *testing.T) {
	_, imP, _ := buildTestIntegratedModels(t)
	if len(imP.Depths) == 0 {
		t.Error("Integrate should record at least one earthquake-eligible depth snapshot")
	}
	for i, d := range imP.Depths {
		if len(d.Tau) != len(imP.P) || len(d.X) != len(imP.P) {
			t.Errorf("Depths[%d] tau/x length mismatch with merged P grid", i)
		}
	}
}

func TestShellBucketClassifiesCoreRegions(t *testing.T) {
	if shellBucket(InnerCore) != 2 {
		t.Error("InnerCore should bucket to 2")
	}
	if shellBucket(OuterCore) != 1 {
		t.Error("OuterCore should bucket to 1")
	}
	if shellBucket(LowerMantle) != 0 {
		t.Error("any other shell should bucket to 0 (mantle/crust)")
	}
}

func TestShellPartialsTauXSumComponents(t *testing.T) {
	sp := ShellPartials{TauMantle: 1, TauOC: 2, TauIC: 3, XMantle: 0.1, XOC: 0.2, XIC: 0.3}
	if sp.Tau() != 6 {
		t.Errorf("Tau() = %v, want 6", sp.Tau())
	}
	if sp.X() != 0.6 {
		t.Errorf("X() = %v, want 0.6", sp.X())
	}
}
