package decode

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// EllipRow is one sampled distance of an ellipticity profile: the distance
// plus the three depth-profile triples (spec.md 6).
type EllipRow struct {
	Delta  float64
	T0, T1, T2 []float64
}

// EllipBlock is one phase's full ellipticity table.
type EllipBlock struct {
	Phase             string
	N                 int
	DeltaMin, DeltaMax float64
	Rows              []EllipRow
}

// ReadEllip parses an ellipticity file per spec.md 6: repeated blocks, each
// a `<phaseCode> nΔ Δmin Δmax` header followed by nΔ rows of `Δ t0... t1... t2...`.
func ReadEllip(s Stream) ([]EllipBlock, error) {
	sc := bufio.NewScanner(s)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var blocks []EllipBlock
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("decode: malformed ellipticity header %q", line)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("decode: ellipticity nDelta: %w", err)
		}
		dmin, err1 := strconv.ParseFloat(fields[2], 64)
		dmax, err2 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("decode: malformed ellipticity range %q", line)
		}
		blk := EllipBlock{Phase: fields[0], N: n, DeltaMin: dmin, DeltaMax: dmax}

		for i := 0; i < n; i++ {
			if !sc.Scan() {
				return nil, fmt.Errorf("decode: ellipticity block %s truncated", blk.Phase)
			}
			rowFields := strings.Fields(strings.TrimSpace(sc.Text()))
			if len(rowFields) < 10 {
				return nil, fmt.Errorf("decode: malformed ellipticity row %q", sc.Text())
			}
			vals, err := parseFloats(rowFields)
			if err != nil {
				return nil, fmt.Errorf("decode: ellipticity row values: %w", err)
			}
			blk.Rows = append(blk.Rows, EllipRow{
				Delta: vals[0],
				T0:    vals[1:4],
				T1:    vals[4:7],
				T2:    vals[7:10],
			})
		}
		blocks = append(blocks, blk)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode: scanning ellipticity file: %w", err)
	}
	return blocks, nil
}
