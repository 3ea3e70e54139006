package decode

import (
	"encoding/binary"
	"fmt"
)

// TopoGrid is the decoded global topography/bathymetry grid: signed
// 16-bit metres, row-major, big-endian (spec.md 6).
type TopoGrid struct {
	NRows, NCols             int
	LatStart, LonStart, Step float64
	Heights                  []int16
}

// ReadTopo reads a binary topography grid. The coordinate metadata (grid
// origin, spacing, dimensions) is carried in the ellipticity file header
// per spec.md 6, so it is supplied by the caller rather than decoded here.
func ReadTopo(s Stream, nRows, nCols int, latStart, lonStart, step float64) (*TopoGrid, error) {
	n := nRows * nCols
	heights := make([]int16, n)
	if err := binary.Read(s, binary.BigEndian, &heights); err != nil {
		return nil, fmt.Errorf("decode: reading topography grid: %w", err)
	}
	return &TopoGrid{
		NRows: nRows, NCols: nCols,
		LatStart: latStart, LonStart: lonStart, Step: step,
		Heights: heights,
	}, nil
}
