package decode

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ModelHeader carries the non-tabular fields of a model file's first line.
type ModelHeader struct {
	Name                                 string
	N                                    int
	RSurface, RUpperMantle, RMoho, RConrad float64
}

// ModelRow is one decoded row of a model file, before isotropic collapse
// (spec.md 6): `i r rho vpv vph vsv vsh eta qMu qKappa`.
type ModelRow struct {
	I                                            int
	R, Rho, Vpv, Vph, Vsv, Vsh, Eta, QMu, QKappa float64
}

// ReadModel parses a radial Earth model text file per spec.md 6: a header
// line `<name> <N> <rSurface> <rUpperMantle> <rMoho> <rConrad>` followed by
// N whitespace-separated data rows. Rows must be radius-monotone
// non-decreasing; that invariant is not checked here, and NewRadialModel
// does not check it either.
func ReadModel(s Stream) (ModelHeader, []ModelRow, error) {
	var hdr ModelHeader
	sc := bufio.NewScanner(s)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	if !sc.Scan() {
		return hdr, nil, fmt.Errorf("decode: empty model file")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 6 {
		return hdr, nil, fmt.Errorf("decode: malformed model header %q", sc.Text())
	}
	hdr.Name = fields[0]
	var err error
	if hdr.N, err = strconv.Atoi(fields[1]); err != nil {
		return hdr, nil, fmt.Errorf("decode: model header N: %w", err)
	}
	nums, err := parseFloats(fields[2:6])
	if err != nil {
		return hdr, nil, fmt.Errorf("decode: model header radii: %w", err)
	}
	hdr.RSurface, hdr.RUpperMantle, hdr.RMoho, hdr.RConrad = nums[0], nums[1], nums[2], nums[3]

	rows := make([]ModelRow, 0, hdr.N)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 10 {
			return hdr, nil, fmt.Errorf("decode: malformed model row %q", line)
		}
		i, err := strconv.Atoi(f[0])
		if err != nil {
			return hdr, nil, fmt.Errorf("decode: model row index: %w", err)
		}
		vals, err := parseFloats(f[1:10])
		if err != nil {
			return hdr, nil, fmt.Errorf("decode: model row values: %w", err)
		}
		rows = append(rows, ModelRow{
			I: i, R: vals[0], Rho: vals[1], Vpv: vals[2], Vph: vals[3],
			Vsv: vals[4], Vsh: vals[5], Eta: vals[6], QMu: vals[7], QKappa: vals[8],
		})
	}
	if err := sc.Err(); err != nil {
		return hdr, nil, fmt.Errorf("decode: scanning model file: %w", err)
	}
	return hdr, rows, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
