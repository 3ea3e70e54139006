package traveltime

import "sort"

// PhaseGroups holds the ordered phase-group declarations of groups.txt,
// per spec.md 4.J/6. The first five groups are fixed: Regional, Depth,
// DownWeight, CanUse, Chaff; the remainder alternate primary/auxiliary
// pairs. Order is preserved (spec.md 9: iteration-order dependence in
// phase-group lookups must not switch to an unordered container).
type PhaseGroups struct {
	Regional, Depth, DownWeight, CanUse, Chaff []string
	Pairs []GroupPair
}

// GroupPair is one primary/auxiliary group pair, e.g. (P, PKP).
type GroupPair struct {
	Primary, Auxiliary string
	PrimaryPhases, AuxiliaryPhases []string
}

func (g *PhaseGroups) contains(list []string, phase string) bool {
	for _, p := range list {
		if p == phase {
			return true
		}
	}
	return false
}

func (g *PhaseGroups) IsRegional(phase string) bool   { return g.contains(g.Regional, phase) }
func (g *PhaseGroups) IsDepthSensitive(phase string) bool { return g.contains(g.Depth, phase) }
func (g *PhaseGroups) IsDownWeighted(phase string) bool { return g.contains(g.DownWeight, phase) }
func (g *PhaseGroups) IsCanUse(phase string) bool     { return g.contains(g.CanUse, phase) }
func (g *PhaseGroups) IsChaff(phase string) bool      { return g.contains(g.Chaff, phase) }

// GroupsFor returns the (primary, auxiliary) group names for a phase,
// searching the ordered pair list (first match wins, preserving file
// order).
func (g *PhaseGroups) GroupsFor(phase string) (primary, auxiliary string) {
	for _, pair := range g.Pairs {
		if g.contains(pair.PrimaryPhases, phase) {
			return pair.Primary, pair.Auxiliary
		}
		if g.contains(pair.AuxiliaryPhases, phase) {
			return pair.Primary, pair.Auxiliary
		}
	}
	return "", ""
}

// StatSegment is one piecewise-linear fit segment for one statistical
// variable (bias, spread or observability) of one phase, per spec.md
// 4.J/6.
type StatSegment struct {
	DeltaMin, DeltaMax float64
	Slope, Offset      float64
}

// PhaseStats holds the fitted segments for bias/spread/observability of
// one phase, plus separate up-going variants.
type PhaseStats struct {
	Phase                     string
	DeltaMin, DeltaMax        float64
	Bias, Spread, Observ      []StatSegment
	BiasUp, SpreadUp, ObservUp []StatSegment
}

// evalSegments interpolates a piecewise-linear fit at distance delta (degrees),
// clamping below DeltaMin to the minimum-distance value (spec.md 4.J).
func evalSegments(segs []StatSegment, delta float64) (float64, bool) {
	if len(segs) == 0 {
		return 0, false
	}
	if delta <= segs[0].DeltaMin {
		return segs[0].Offset + segs[0].Slope*segs[0].DeltaMin, true
	}
	for _, s := range segs {
		if delta >= s.DeltaMin-1e-9 && delta <= s.DeltaMax+1e-9 {
			return s.Offset + s.Slope*delta, true
		}
	}
	last := segs[len(segs)-1]
	return last.Offset + last.Slope*last.DeltaMax, true
}

// TtStats is the full set of per-phase statistics, keyed by phase code.
type TtStats struct {
	Phases map[string]*PhaseStats
}

func (t *TtStats) For(phase string) (*PhaseStats, bool) {
	p, ok := t.Phases[phase]
	return p, ok
}

// EllipProfile holds one phase's bilinear table over a fixed depth grid
// and phase-specific distance range (spec.md 4.J/6): for each distance
// sample, three depth-profile triples (t0,t1,t2) used by the standard
// Dziewonski-Gilbert ellipticity correction formula.
type EllipProfile struct {
	Phase          string
	DeltaMin, DeltaMax float64
	Deltas         []float64
	T0, T1, T2     [][]float64 // indexed [deltaIdx][depthIdx]
	DepthGrid      []float64
}

// EllipTables is the full set of ellipticity profiles, keyed by phase.
type EllipTables struct {
	Phases map[string]*EllipProfile
	UpP, UpS *EllipProfile // separate up-going P/S tables
}

// TopoGrid is the global topography/bathymetry grid: signed 16-bit
// metres, row-major over a fixed (lat,lon) grid at 5-minute resolution
// (spec.md 4.J/6).
type TopoGrid struct {
	NRows, NCols int
	LatStart, LonStart, Step float64 // degrees
	Heights []int16               // row-major
}

// ElevationM bilinearly interpolates the topography grid at (lat,lon) in
// degrees, returning metres.
func (tg *TopoGrid) ElevationM(lat, lon float64) float64 {
	if tg == nil || tg.NRows == 0 || tg.NCols == 0 {
		return 0
	}
	fr := (lat - tg.LatStart) / tg.Step
	fc := (lon - tg.LonStart) / tg.Step
	r0 := int(fr)
	c0 := int(fc)
	r0 = clampInt(r0, 0, tg.NRows-2)
	c0 = clampInt(c0, 0, tg.NCols-2)
	tr := fr - float64(r0)
	tc := fc - float64(c0)

	h00 := float64(tg.at(r0, c0))
	h10 := float64(tg.at(r0+1, c0))
	h01 := float64(tg.at(r0, c0+1))
	h11 := float64(tg.at(r0+1, c0+1))

	return h00*(1-tr)*(1-tc) + h10*tr*(1-tc) + h01*(1-tr)*tc + h11*tr*tc
}

func (tg *TopoGrid) at(r, c int) int16 {
	r = clampInt(r, 0, tg.NRows-1)
	c = clampInt(c, 0, tg.NCols-1)
	return tg.Heights[r*tg.NCols+c]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AuxData bundles the immutable auxiliary structures read once per
// process (spec.md 4.J).
type AuxData struct {
	Groups *PhaseGroups
	Stats  *TtStats
	Ellip  *EllipTables
	Topo   *TopoGrid
}

// sortedPhaseNames lists the phase codes of stats in sorted order. It is
// unexported and nothing in the package calls it.
func sortedPhaseNames(stats *TtStats) []string {
	names := make([]string, 0, len(stats.Phases))
	for k := range stats.Phases {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
