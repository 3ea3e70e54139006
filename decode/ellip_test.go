package decode

import (
	"bytes"
	"testing"
)

func TestReadEllipParsesBlockAndTriples(t *testing.T) {
	data := "P 2 0 100\n" +
		"10 1 2 3 4 5 6 7 8 9\n" +
		"20 1.1 2.1 3.1 4.1 5.1 6.1 7.1 8.1 9.1\n"
	blocks, err := ReadEllip(bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("ReadEllip: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Phase != "P" || blocks[0].N != 2 {
		t.Fatalf("blocks = %+v", blocks)
	}
	row := blocks[0].Rows[0]
	if row.Delta != 10 {
		t.Errorf("row.Delta = %v, want 10", row.Delta)
	}
	if len(row.T0) != 3 || row.T0[0] != 1 || row.T0[2] != 3 {
		t.Errorf("row.T0 = %v", row.T0)
	}
	if len(row.T2) != 3 || row.T2[0] != 7 || row.T2[2] != 9 {
		t.Errorf("row.T2 = %v", row.T2)
	}
}

func TestReadEllipTruncatedBlockErrors(t *testing.T) {
	data := "P 2 0 100\n10 1 2 3 4 5 6 7 8 9\n" // declares 2 rows, only supplies 1
	_, err := ReadEllip(bytes.NewReader([]byte(data)))
	if err == nil {
		t.Fatal("expected error for a truncated ellipticity block")
	}
}

func TestReadEllipMalformedHeaderErrors(t *testing.T) {
	_, err := ReadEllip(bytes.NewReader([]byte("P 2 0\n")))
	if err == nil {
		t.Fatal("expected error for a header missing a field")
	}
}
