package decode

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadModelParsesHeaderAndRows(t *testing.T) {
	data := strings.Join([]string{
		"testmodel 2 6371.0 5701.0 6336.0 6351.0",
		"0 0.0 13.0 11.0 11.0 3.5 3.5 1.0 100 1000",
		"1 6371.0 2.7 5.8 5.8 3.3 3.3 1.0 80 500",
	}, "\n")
	hdr, rows, err := ReadModel(bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("ReadModel: %v", err)
	}
	if hdr.Name != "testmodel" || hdr.N != 2 || hdr.RSurface != 6371.0 {
		t.Errorf("header = %+v, want name=testmodel N=2 RSurface=6371.0", hdr)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1].R != 6371.0 || rows[1].Vpv != 5.8 {
		t.Errorf("row[1] = %+v", rows[1])
	}
}

func TestReadModelEmptyFileErrors(t *testing.T) {
	_, _, err := ReadModel(bytes.NewReader(nil))
	if err == nil {
		t.Fatal("expected error on empty model file")
	}
}

func TestReadModelMalformedHeaderErrors(t *testing.T) {
	_, _, err := ReadModel(bytes.NewReader([]byte("only three fields here\n")))
	if err == nil {
		t.Fatal("expected error on malformed header")
	}
}

func TestReadModelShortRowErrors(t *testing.T) {
	data := "m 1 6371 5701 6336 6351\n0 1 2 3\n"
	_, _, err := ReadModel(bytes.NewReader([]byte(data)))
	if err == nil {
		t.Fatal("expected error on truncated row")
	}
}
