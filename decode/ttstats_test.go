package decode

import (
	"bytes"
	"testing"
)

func TestReadStatsParsesBlocksAndBreaks(t *testing.T) {
	data := "P 0 100\n10 0.5 1.2 0.9\n20 0.6 * 1.3 0.95 *\nS 0 100\n15 0.2 0.8 0.7\n"
	blocks, err := ReadStats(bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].Phase != "P" || blocks[0].DeltaMin != 0 || blocks[0].DeltaMax != 100 {
		t.Errorf("block[0] header = %+v", blocks[0])
	}
	if len(blocks[0].Rows) != 2 {
		t.Fatalf("block[0] has %d rows, want 2", len(blocks[0].Rows))
	}
	row1 := blocks[0].Rows[1]
	if !row1.ResBreak || row1.SpdBreak || !row1.ObsBreak {
		t.Errorf("row1 breaks = res:%v spd:%v obs:%v, want true false true", row1.ResBreak, row1.SpdBreak, row1.ObsBreak)
	}
	if row1.Spd != 1.3 || row1.Obs != 0.95 {
		t.Errorf("row1 values = %+v", row1)
	}
}

func TestReadStatsRowBeforeHeaderErrors(t *testing.T) {
	_, err := ReadStats(bytes.NewReader([]byte("10 0.5 1.2 0.9\n")))
	if err == nil {
		t.Fatal("expected error for a data row with no preceding header")
	}
}

func TestIsStatHeaderRejectsDataRows(t *testing.T) {
	if isStatHeader([]string{"10", "0.5", "1.2"}) {
		t.Error("a three-number row should not be mistaken for a header")
	}
	if !isStatHeader([]string{"P", "0", "100"}) {
		t.Error("a name+two-number line should be recognised as a header")
	}
}
