package traveltime

import "testing"

func TestClassifyPhaseCode(t *testing.T) {
	cases := map[string]PhasePattern{
		"P":      PatternDirect,
		"S":      PatternDirect,
		"PKiKP":  PatternICBReflection,
		"PcP":    PatternCoreReflection,
		"ScS":    PatternCoreReflection,
		"PKKP":   PatternUndersideCMB,
		"PKP":    PatternCoreConversion,
		"pP":     PatternSurfaceReflection,
		"PP":     PatternSurfaceReflection,
		"SP":     PatternSurfaceConverted,
		"PS":     PatternSurfaceConverted,
	}
	for code, want := range cases {
		if got := ClassifyPhaseCode(code); got != want {
			t.Errorf("ClassifyPhaseCode(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestLegShellCountsDirectPhase(t *testing.T) {
	c := legShellCounts(PatternDirect, "P")
	if c != (ShellCounts{Mantle: 1, OuterCore: 1, InnerCore: 1}) {
		t.Errorf("legShellCounts(direct) = %+v", c)
	}
}

func TestLegShellCountsUndersideCMBCountsKs(t *testing.T) {
	c := legShellCounts(PatternUndersideCMB, "PKKKP")
	if c.OuterCore != 3 {
		t.Errorf("OuterCore = %d, want 3 (one per K)", c.OuterCore)
	}
}

func TestRefinePhaseCodeTriplicationSuffixes(t *testing.T) {
	pICB, pCMB := 0.2, 0.5
	if got := refinePhaseCode("PKP", 0, 0.1, pCMB, pICB); got != "PKPdf" {
		t.Errorf("got %q, want PKPdf", got)
	}
	if got := refinePhaseCode("PKP", 0.25, 0.45, pCMB, pICB); got != "PKPbc" {
		t.Errorf("got %q, want PKPbc", got)
	}
	if got := refinePhaseCode("PKP", 0.1, 0.6, pCMB, pICB); got != "PKPab" {
		t.Errorf("got %q, want PKPab", got)
	}
}

func TestRemapTriplicationSuffixOnlyAffectsSPbc(t *testing.T) {
	if got := remapTriplicationSuffix("SPKPbc"); got != "SPKPab" {
		t.Errorf("SPKPbc should remap to SPKPab, got %q", got)
	}
	if got := remapTriplicationSuffix("PKPbc"); got != "PKPbc" {
		t.Errorf("plain PKPbc (no SP) must not be remapped, got %q", got)
	}
}
