package traveltime

import (
	"sort"
	"strings"
)

// BranchSpec describes one phase to build: its code and the reference
// wave type whose IntegratedModel supplies the slowness grid and, for
// single-type phases, the shell partials. Mixed-type phases (SP, PKS, ...)
// sum mantle partials from both wave types' models (see BuildBranch).
type BranchSpec struct {
	Code string
	Wave WaveType
}

// StandardBranchSpecs is the closed set of phase codes this build
// supports directly, grouped by the grammar table of spec.md 4.E.
func StandardBranchSpecs() []BranchSpec {
	return []BranchSpec{
		{"P", WaveP}, {"S", WaveS},
		{"pP", WaveP}, {"sP", WaveP}, {"pS", WaveS}, {"sS", WaveS},
		{"PP", WaveP}, {"SS", WaveS},
		{"SP", WaveS}, {"PS", WaveP},
		{"PcP", WaveP}, {"ScS", WaveS}, {"ScP", WaveS}, {"PcS", WaveP},
		{"PKiKP", WaveP}, {"sPKiKP", WaveP},
		{"PKKP", WaveP}, {"SKKS", WaveS},
		{"SKP", WaveS}, {"PKS", WaveP}, {"PKP", WaveP}, {"SKS", WaveS},
	}
}

// BuildBranch assembles one Branch from the integrated shell partials for
// its reference wave type, per spec.md 4.E. pCMB/pICB are the boundary
// slownesses of the reference wave's model (used to bound mixed-phase
// p-ranges and to drive PKP triplication suffixing). imP/imS are the
// full-model integrations for both wave types: a branch whose leg adjacent
// to the source differs from its leg adjacent to the receiver (SP, PS,
// PcS, ScP, SKP, PKS) is a true wave-type conversion and is built by
// summing the down-going leg's one-way mantle integral (from its own
// wave's model) with the up-going leg's one-way mantle integral (from
// its own wave's model), plus any outer/inner-core crossing (always
// P-type, since the fluid outer core carries no S energy); every other
// branch keeps the single-wave-type sum it always used.
func BuildBranch(spec BranchSpec, imP, imS *IntegratedModel, pCMB, pICB float64) *Branch {
	pattern := ClassifyPhaseCode(spec.Code)
	counts := legShellCounts(pattern, spec.Code)
	seg := legTypeSeg(spec.Code)
	mixed := seg[1] != seg[2]

	im := imP
	if spec.Wave == WaveS {
		im = imS
	}

	p := append([]float64(nil), im.P...)
	sort.Float64s(p) // ascending: spline/decimation convention (p[last] = bottoming slowness)

	pMin, pMax := pRangeForPattern(pattern, pCMB, pICB, p)

	var pp, tau, x []float64
	if mixed {
		downIm, upIm := imP, imP
		if seg[1] == WaveS {
			downIm = imS
		}
		if seg[2] == WaveS {
			upIm = imS
		}
		downLookup := cmbLookup(downIm)
		upLookup := cmbLookup(upIm)
		coreLookup := make(map[float64]ShellPartials, len(imP.Partials))
		for _, sp := range imP.Partials {
			coreLookup[roundKey(sp.P)] = sp
		}
		for _, pv := range p {
			if pv < pMin-1e-12 || pv > pMax+1e-12 {
				continue
			}
			dsp, ok1 := downLookup[roundKey(pv)]
			usp, ok2 := upLookup[roundKey(pv)]
			if !ok1 || !ok2 {
				continue
			}
			t := dsp.TauMantle + usp.TauMantle
			xx := dsp.XMantle + usp.XMantle
			if csp, ok3 := coreLookup[roundKey(pv)]; ok3 {
				t += float64(counts.OuterCore)*csp.TauOC + float64(counts.InnerCore)*csp.TauIC
				xx += float64(counts.OuterCore)*csp.XOC + float64(counts.InnerCore)*csp.XIC
			}
			pp = append(pp, pv)
			tau = append(tau, t)
			x = append(x, xx)
		}
	} else {
		lookup := make(map[float64]ShellPartials, len(im.Partials))
		for _, sp := range im.Partials {
			lookup[roundKey(sp.P)] = sp
		}
		for _, pv := range p {
			if pv < pMin-1e-12 || pv > pMax+1e-12 {
				continue
			}
			sp, ok := lookup[roundKey(pv)]
			if !ok {
				continue
			}
			t := float64(counts.Mantle)*sp.TauMantle + float64(counts.OuterCore)*sp.TauOC + float64(counts.InnerCore)*sp.TauIC
			xx := float64(counts.Mantle)*sp.XMantle + float64(counts.OuterCore)*sp.XOC + float64(counts.InnerCore)*sp.XIC
			pp = append(pp, pv)
			tau = append(tau, t)
			x = append(x, xx)
		}
	}
	if len(pp) < 2 {
		return nil
	}

	code := spec.Code
	if pattern == PatternCoreConversion {
		code = refinePhaseCode(code, pMin, pMax, pCMB, pICB)
		code = remapTriplicationSuffix(code)
	}

	br := &Branch{
		PhaseCode: code,
		TypeSeg:   seg,
		Counts:    counts,
		P:         pp, Tau: tau, X: x,
		PRange: [2]float64{pp[0], pp[len(pp)-1]},
	}
	br.XRange = xRangeOf(x)

	dxTarget := branchDxTarget(pattern, 150, 150, maxCount(counts))
	var mask []bool
	if pattern == PatternDirect {
		mask = DecimateFast(br.P, br.X, dxTarget)
	} else {
		mask = DecimateBalanced(br.X, dxTarget)
	}
	filtered := ApplyKeepMask(mask, br.P, br.Tau, br.X)
	br.P, br.Tau, br.X = filtered[0], filtered[1], filtered[2]
	if len(br.P) < 2 {
		return nil
	}
	br.PRange = [2]float64{br.P[0], br.P[len(br.P)-1]}
	br.XRange = xRangeOf(br.X)

	br.Basis = FitBranchBasis(br.P, br.Tau, br.X)

	hasUp := strings.IndexFunc(spec.Code, func(r rune) bool { return r == 'p' || r == 's' }) == 0
	br.HasUp = hasUp
	br.HasDown = !hasUp || len(spec.Code) > 2

	return br
}

func maxCount(c ShellCounts) int {
	m := c.Mantle
	if c.OuterCore > m {
		m = c.OuterCore
	}
	if c.InnerCore > m {
		m = c.InnerCore
	}
	return m
}

func xRangeOf(x []float64) [2]float64 {
	if len(x) == 0 {
		return [2]float64{}
	}
	lo, hi := x[0], x[0]
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return [2]float64{lo, hi}
}

// pRangeForPattern bounds the legal ray-parameter range for a branch by
// pattern: core reflections, ICB reflections, surface-converted phases
// (SP, PS) and core conversions are capped at pCMB; direct phases,
// surface reflections and every other pattern keep the full span of p.
// No bound depends on which leg is P or S.
func pRangeForPattern(pattern PhasePattern, pCMB, pICB float64, p []float64) (pMin, pMax float64) {
	if len(p) == 0 {
		return 0, 0
	}
	pMin, pMax = p[0], p[len(p)-1]
	switch pattern {
	case PatternCoreReflection, PatternICBReflection:
		pMax = pCMB
	case PatternSurfaceConverted:
		pMax = pCMB
	case PatternCoreConversion:
		// Straight-through core phases only exist for p <= pICB for df
		// legs, but the branch as a whole spans up to pCMB.
		pMax = pCMB
	}
	return pMin, pMax
}

// cmbLookup indexes an IntegratedModel's CMB snapshot by ray parameter.
// Because Integrate walks the model once from the surface to the centre,
// CMB[k].TauMantle/XMantle already equals the one-way mantle-only tau/x
// integral for that ray parameter, whether the ray turns within the
// mantle or reaches the core-mantle boundary — exactly the per-leg
// contribution a mixed-type branch needs for its down-going or up-going
// half.
func cmbLookup(im *IntegratedModel) map[float64]ShellPartials {
	lookup := make(map[float64]ShellPartials, len(im.CMB))
	for i, sp := range im.CMB {
		if i < len(im.P) {
			sp.P = im.P[i]
		}
		lookup[roundKey(sp.P)] = sp
	}
	return lookup
}

func roundKey(p float64) float64 {
	// Merged slowness grids are built from exact shared float64 values
	// (never independently re-derived per wave), so direct equality
	// after a coarse rounding is safe and avoids float noise in map
	// lookups.
	return float64(int64(p*1e9)) / 1e9
}
