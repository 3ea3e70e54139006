package traveltime

import (
	"github.com/usgs/neic-traveltime-sub004/decode"
)

// readGroupsFile loads and reshapes a decoded phase-group file into the
// fixed Regional/Depth/DownWeight/CanUse/Chaff groups plus the ordered
// primary/auxiliary pairs, per spec.md 6/9.
func readGroupsFile(path string) (*PhaseGroups, error) {
	src, err := decode.OpenSource(path, "", true)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	recs, err := decode.ReadGroups(src)
	if err != nil {
		return nil, err
	}

	g := &PhaseGroups{}
	fixed := []*[]string{&g.Regional, &g.Depth, &g.DownWeight, &g.CanUse, &g.Chaff}
	for i := 0; i < len(fixed) && i < len(recs); i++ {
		*fixed[i] = recs[i].Phases
	}
	for i := len(fixed); i+1 < len(recs); i += 2 {
		g.Pairs = append(g.Pairs, GroupPair{
			Primary: recs[i].Name, PrimaryPhases: recs[i].Phases,
			Auxiliary: recs[i+1].Name, AuxiliaryPhases: recs[i+1].Phases,
		})
	}
	return g, nil
}

// readStatsFile loads a decoded statistics file into piecewise-linear
// bias/spread/observability segments per phase (spec.md 4.J/6): a `*`
// break marks the last row of a segment, and the next segment starts at
// the following row (see fitSegments).
func readStatsFile(path string) (*TtStats, error) {
	src, err := decode.OpenSource(path, "", true)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	blocks, err := decode.ReadStats(src)
	if err != nil {
		return nil, err
	}

	stats := &TtStats{Phases: make(map[string]*PhaseStats, len(blocks))}
	for _, blk := range blocks {
		ps := &PhaseStats{Phase: blk.Phase, DeltaMin: blk.DeltaMin, DeltaMax: blk.DeltaMax}
		ps.Bias = fitSegments(blk.Rows, func(r decode.StatRow) (float64, bool) { return r.Res, r.ResBreak })
		ps.Spread = fitSegments(blk.Rows, func(r decode.StatRow) (float64, bool) { return r.Spd, r.SpdBreak })
		ps.Observ = fitSegments(blk.Rows, func(r decode.StatRow) (float64, bool) { return r.Obs, r.ObsBreak })
		stats.Phases[blk.Phase] = ps
	}
	return stats, nil
}

// fitSegments turns a sequence of (delta, value, breakFlag) samples into
// piecewise-linear StatSegment fits: each run up to and including a break
// row is fit by its two endpoints (or held flat if it has only one row).
func fitSegments(rows []decode.StatRow, pick func(decode.StatRow) (float64, bool)) []StatSegment {
	var segs []StatSegment
	start := 0
	for i, r := range rows {
		_, brk := pick(r)
		if !brk && i != len(rows)-1 {
			continue
		}
		if i == start {
			v, _ := pick(r)
			segs = append(segs, StatSegment{DeltaMin: r.Delta, DeltaMax: r.Delta, Slope: 0, Offset: v})
			start = i + 1
			continue
		}
		first, last := rows[start], rows[i]
		v0, _ := pick(first)
		v1, _ := pick(last)
		slope := 0.0
		if last.Delta != first.Delta {
			slope = (v1 - v0) / (last.Delta - first.Delta)
		}
		offset := v0 - slope*first.Delta
		segs = append(segs, StatSegment{DeltaMin: first.Delta, DeltaMax: last.Delta, Slope: slope, Offset: offset})
		start = i + 1
	}
	return segs
}

// readEllipFile loads a decoded ellipticity file into EllipTables, keying
// the two reserved up-going-P and up-going-S tables by their well-known
// phase codes "Up" / "Us" and everything else by phase code directly
// (spec.md 4.J).
func readEllipFile(path string) (*EllipTables, error) {
	src, err := decode.OpenSource(path, "", true)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	blocks, err := decode.ReadEllip(src)
	if err != nil {
		return nil, err
	}

	tables := &EllipTables{Phases: make(map[string]*EllipProfile, len(blocks))}
	for _, blk := range blocks {
		profile := &EllipProfile{Phase: blk.Phase, DeltaMin: blk.DeltaMin, DeltaMax: blk.DeltaMax}
		if len(blk.Rows) > 0 {
			profile.DepthGrid = []float64{0, 1, 2} // index placeholder for the fixed 3-point profile grid
		}
		for _, row := range blk.Rows {
			profile.Deltas = append(profile.Deltas, row.Delta)
			profile.T0 = append(profile.T0, row.T0)
			profile.T1 = append(profile.T1, row.T1)
			profile.T2 = append(profile.T2, row.T2)
		}
		switch blk.Phase {
		case "Up":
			tables.UpP = profile
		case "Us":
			tables.UpS = profile
		default:
			tables.Phases[blk.Phase] = profile
		}
	}
	return tables, nil
}

// readTopoFile loads the binary topography grid. The grid geometry is a
// fixed standard 5-minute global grid; the ellipticity tables passed in
// are not consulted.
func readTopoFile(path string, _ *EllipTables) (*TopoGrid, error) {
	src, err := decode.OpenSource(path, "", true)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	const step = 5.0 / 60.0 // 5 arc-minutes, degrees
	nRows := int(180/step) + 1
	nCols := int(360/step) + 1

	grid, err := decode.ReadTopo(src, nRows, nCols, -90, -180, step)
	if err != nil {
		return nil, err
	}
	return &TopoGrid{
		NRows: grid.NRows, NCols: grid.NCols,
		LatStart: grid.LatStart, LonStart: grid.LonStart, Step: grid.Step,
		Heights: grid.Heights,
	}, nil
}
