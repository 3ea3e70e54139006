package traveltime

import "testing"

func TestFilterDefDropsChatter(t *testing.T) {
	arrivals := []TTime{
		{PhaseCode: "P", Tt: 100.000},
		{PhaseCode: "P", Tt: 100.003}, // within DTCHATTER of the first
		{PhaseCode: "P", Tt: 101.0},   // distinct arrival
	}
	out := filterDef(arrivals)
	if len(out) != 2 {
		t.Fatalf("filterDef kept %d arrivals, want 2: %+v", len(out), out)
	}
	if out[0].Tt != 100.000 || out[1].Tt != 101.0 {
		t.Errorf("unexpected survivors: %+v", out)
	}
}

func TestFilterDefKeepsDifferentPhases(t *testing.T) {
	arrivals := []TTime{
		{PhaseCode: "P", Tt: 100.000},
		{PhaseCode: "S", Tt: 100.001}, // different phase, must survive despite tiny dt
	}
	out := filterDef(arrivals)
	if len(out) != 2 {
		t.Fatalf("filterDef kept %d arrivals, want 2", len(out))
	}
}

func TestFilterBackKeepsFirstOccurrencePerPhase(t *testing.T) {
	arrivals := []TTime{
		{PhaseCode: "PP", Tt: 200},
		{PhaseCode: "PP", Tt: 250}, // a repeated back-branch arrival
		{PhaseCode: "P", Tt: 100},
	}
	out := filterBack(arrivals)
	if len(out) != 2 {
		t.Fatalf("filterBack kept %d arrivals, want 2: %+v", len(out), out)
	}
	for _, a := range out {
		if a.PhaseCode == "PP" && a.Tt != 200 {
			t.Errorf("filterBack kept the wrong PP occurrence: %+v", a)
		}
	}
}

func TestRenameTectonicRenamesCrustalCodes(t *testing.T) {
	// PbK/SbK-qualified codes must survive the rename untouched: they are
	// exactly the codes filterTect is meant to preserve, and an
	// unconditional rename would corrupt them before filterTect ever sees
	// the original Pb/Sb substring.
	arrivals := []TTime{{PhaseCode: "Pb"}, {PhaseCode: "Sb"}, {PhaseCode: "PbKP"}, {PhaseCode: "SbKS"}}
	out := renameTectonic(arrivals)
	want := []string{"Pg", "Sg", "PbKP", "SbKS"}
	for i, w := range want {
		if out[i].PhaseCode != w {
			t.Errorf("renameTectonic[%d] = %q, want %q", i, out[i].PhaseCode, w)
		}
	}
}

func TestHasUnqualifiedCrustalB(t *testing.T) {
	cases := map[string]bool{
		"Pb":    true,
		"Sb":    true,
		"PbK":   false,
		"SbKP":  false,
		"P":     false,
		"PbPbK": true, // the first "Pb" is not followed by K
	}
	for code, want := range cases {
		if got := hasUnqualifiedCrustalB(code); got != want {
			t.Errorf("hasUnqualifiedCrustalB(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestFilterTectStripsUnqualifiedCrustalPhases(t *testing.T) {
	arrivals := []TTime{{PhaseCode: "Pb"}, {PhaseCode: "PbK"}, {PhaseCode: "P"}}
	out := filterTect(arrivals)
	if len(out) != 2 {
		t.Fatalf("filterTect kept %d arrivals, want 2: %+v", len(out), out)
	}
	for _, a := range out {
		if a.PhaseCode == "Pb" {
			t.Error("filterTect should have stripped the unqualified Pb arrival")
		}
	}
}

func TestTapeObservabilityTapersCloseArrivals(t *testing.T) {
	arrivals := []TTime{
		{PhaseCode: "P", Tt: 100, Observ: 10},
		{PhaseCode: "pP", Tt: 100.5, Observ: 10}, // within DTOBSERV, should be tapered down
		{PhaseCode: "PP", Tt: 200, Observ: 10},   // far away, untouched
	}
	out := tapeObservability(arrivals)
	if out[1].Observ >= 10 {
		t.Errorf("tapered Observ = %v, want < 10", out[1].Observ)
	}
	if out[2].Observ != 10 {
		t.Errorf("distant arrival Observ = %v, want unchanged 10", out[2].Observ)
	}
}

func TestPhaseSelectedEmptyListSelectsAll(t *testing.T) {
	if !phaseSelected("PKPdf", nil, false) {
		t.Error("empty phase list should select everything")
	}
}

func TestPhaseSelectedPrefixMatch(t *testing.T) {
	if !phaseSelected("PKPdf", []string{"PKP"}, false) {
		t.Error("PKPdf should match prefix PKP")
	}
	if phaseSelected("SKS", []string{"PKP"}, false) {
		t.Error("SKS should not match prefix PKP")
	}
}

func TestLegIsUpGoingExplicitUpPrefix(t *testing.T) {
	br := &Branch{HasUp: true, HasDown: false}
	if !legIsUpGoing(br, 0.9, 0.1) {
		t.Error("a branch whose code starts with a lowercase up-prefix should always report up-going, regardless of p")
	}
}

func TestLegIsUpGoingDynamicBelowSourceSlowness(t *testing.T) {
	br := &Branch{HasUp: false, HasDown: true}
	if !legIsUpGoing(br, 0.1, 0.2) {
		t.Error("p below the source's own slowness means the ray cannot turn beneath the source: should be up-going")
	}
	if legIsUpGoing(br, 0.3, 0.2) {
		t.Error("p above the source's own slowness can turn beneath the source: should be down-going")
	}
}

func TestDepthDerivativeSignMatchesLegDirection(t *testing.T) {
	ref := buildTestRef(t)
	vol := NewDepthCorrection(ref, 100)
	for _, br := range vol.Branches {
		if len(br.P) == 0 {
			continue
		}
		p := br.P[0]
		wave := br.TypeSeg[1]
		if br.HasUp && !br.HasDown {
			wave = br.TypeSeg[0]
		}
		slowSrc, ok := vol.PSource[wave]
		if !ok {
			continue
		}
		dz := depthDerivative(vol, br, p)
		up := legIsUpGoing(br, p, slowSrc)
		if up && dz < 0 {
			t.Errorf("branch %s: up-going leg has dT/dZ=%v, want >= 0", br.PhaseCode, dz)
		}
		if !up && dz > 0 {
			t.Errorf("branch %s: down-going leg has dT/dZ=%v, want <= 0", br.PhaseCode, dz)
		}
	}
}
