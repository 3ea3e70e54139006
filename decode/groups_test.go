package decode

import (
	"bytes"
	"reflect"
	"testing"
)

func TestReadGroupsPreservesDeclarationOrder(t *testing.T) {
	data := "Regional: Pg Sg -\nDepth: pP sP -\nP: P Pdiff PKP -\n"
	got, err := ReadGroups(bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("ReadGroups: %v", err)
	}
	want := []GroupRecord{
		{Name: "Regional", Phases: []string{"Pg", "Sg"}},
		{Name: "Depth", Phases: []string{"pP", "sP"}},
		{Name: "P", Phases: []string{"P", "Pdiff", "PKP"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadGroups = %+v, want %+v", got, want)
	}
}

func TestReadGroupsStopsAtDashSentinel(t *testing.T) {
	data := "X: A B - C D\n"
	got, err := ReadGroups(bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("ReadGroups: %v", err)
	}
	if len(got) != 1 || len(got[0].Phases) != 2 {
		t.Errorf("got %+v, want phases truncated at the dash sentinel", got)
	}
}

func TestReadGroupsMalformedLineErrors(t *testing.T) {
	_, err := ReadGroups(bytes.NewReader([]byte("no colon here\n")))
	if err == nil {
		t.Fatal("expected error for a line with no colon")
	}
}
