package traveltime

import (
	"math"
	"testing"
)

func TestEvalSegmentsClampsBelowMin(t *testing.T) {
	segs := []StatSegment{{DeltaMin: 10, DeltaMax: 20, Slope: 1, Offset: 0}}
	got, ok := evalSegments(segs, 5)
	if !ok {
		t.Fatal("evalSegments should succeed for a non-empty segment list")
	}
	want := segs[0].Offset + segs[0].Slope*segs[0].DeltaMin
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("evalSegments(below min) = %v, want %v", got, want)
	}
}

func TestEvalSegmentsInterpolatesWithinRange(t *testing.T) {
	segs := []StatSegment{{DeltaMin: 0, DeltaMax: 100, Slope: 0.5, Offset: 1}}
	got, _ := evalSegments(segs, 40)
	want := 1 + 0.5*40
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("evalSegments(40) = %v, want %v", got, want)
	}
}

func TestEvalSegmentsEmptyFails(t *testing.T) {
	if _, ok := evalSegments(nil, 10); ok {
		t.Error("evalSegments on an empty segment list should fail")
	}
}

func TestGroupsForFindsPairByPrimaryOrAuxiliary(t *testing.T) {
	g := &PhaseGroups{
		Pairs: []GroupPair{
			{Primary: "P", Auxiliary: "PKP", PrimaryPhases: []string{"P", "Pdiff"}, AuxiliaryPhases: []string{"PKPdf", "PKPab"}},
		},
	}
	p, a := g.GroupsFor("Pdiff")
	if p != "P" || a != "PKP" {
		t.Errorf("GroupsFor(primary match) = (%q,%q)", p, a)
	}
	p, a = g.GroupsFor("PKPab")
	if p != "P" || a != "PKP" {
		t.Errorf("GroupsFor(auxiliary match) = (%q,%q)", p, a)
	}
	p, a = g.GroupsFor("unknown")
	if p != "" || a != "" {
		t.Errorf("GroupsFor(no match) = (%q,%q), want empty", p, a)
	}
}

func TestTopoGridElevationMBilinear(t *testing.T) {
	tg := &TopoGrid{
		NRows: 2, NCols: 2,
		LatStart: 0, LonStart: 0, Step: 1,
		Heights: []int16{0, 100, 200, 300}, // row0: (0,0)=0 (0,1)=100; row1: (1,0)=200 (1,1)=300
	}
	got := tg.ElevationM(0.5, 0.5)
	want := (0.0 + 100 + 200 + 300) / 4
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("ElevationM(centre) = %v, want %v", got, want)
	}
	if got := tg.ElevationM(0, 0); got != 0 {
		t.Errorf("ElevationM(0,0) = %v, want 0", got)
	}
}

func TestTopoGridElevationMNilSafe(t *testing.T) {
	var tg *TopoGrid
	if got := tg.ElevationM(1, 1); got != 0 {
		t.Errorf("ElevationM on a nil grid = %v, want 0", got)
	}
}
