package decode

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestReadTopoDecodesBigEndianGrid(t *testing.T) {
	var buf bytes.Buffer
	want := []int16{-100, 0, 8848, -10911}
	for _, v := range want {
		_ = binary.Write(&buf, binary.BigEndian, v)
	}
	grid, err := ReadTopo(bytes.NewReader(buf.Bytes()), 2, 2, -90, -180, 5.0/60)
	if err != nil {
		t.Fatalf("ReadTopo: %v", err)
	}
	if grid.NRows != 2 || grid.NCols != 2 {
		t.Errorf("grid dims = %dx%d, want 2x2", grid.NRows, grid.NCols)
	}
	for i, v := range want {
		if grid.Heights[i] != v {
			t.Errorf("Heights[%d] = %d, want %d", i, grid.Heights[i], v)
		}
	}
}

func TestReadTopoTruncatedErrors(t *testing.T) {
	_, err := ReadTopo(bytes.NewReader([]byte{0, 1}), 2, 2, 0, 0, 1)
	if err == nil {
		t.Fatal("expected error for truncated topography data")
	}
}
