package traveltime

import "math"

// AllBrnRef is the per-model immutable reference tables: the radial
// model, the integrated tau-x tables per wave type, and the reference
// branch array, built once per model and shared across sessions
// (spec.md 3, "Lifecycles").
type AllBrnRef struct {
	Model       *RadialModel
	IntegratedP *IntegratedModel
	IntegratedS *IntegratedModel
	Branches    []*Branch
	PCMB, PICB  float64
	Aux         *AuxData
}

// AllBrnVol is the volatile, per-depth state derived from an AllBrnRef: a
// corrected up-going tau snapshot and every down-going branch shortened
// and re-splined for the new source depth (spec.md 3, 4.H).
type AllBrnVol struct {
	Ref      *AllBrnRef
	DepthKm  float64
	ZSrc     float64
	PSource  map[WaveType]float64
	InLVZ    bool
	BadDepth bool

	UpTau map[WaveType][]float64 // indexed like Ref.Integrated*.P
	UpX   map[WaveType][]float64

	Branches []*Branch // copies of Ref.Branches, shortened at pSource
}

// NewDepthCorrection computes the volatile state for a requested source
// depth, per spec.md 4.H. The flattened source depth is capped at
// -Conversions.MinZSrc (about 0.011 km below the surface), so depth 0 is
// clamped like any other very shallow depth; it gets no separate handling.
func NewDepthCorrection(ref *AllBrnRef, depthKm float64) *AllBrnVol {
	vol := &AllBrnVol{Ref: ref, DepthKm: depthKm}
	if depthKm < 0 || depthKm > earthquakeMaxDepthKm {
		vol.BadDepth = true
		return vol
	}

	conv := ref.Model.Conv
	rSrc := ref.Model.Samples[len(ref.Model.Samples)-1].R - depthKm
	rSrcNorm := conv.NormR(rSrc)
	zSrc := conv.FlatZ(rSrcNorm)
	if zSrc > -conv.MinZSrc {
		zSrc = -conv.MinZSrc
	}
	vol.ZSrc = zSrc

	vol.PSource = map[WaveType]float64{
		WaveP: slownessAtRadius(ref.Model, WaveP, rSrc),
		WaveS: slownessAtRadius(ref.Model, WaveS, rSrc),
	}

	pMaxAboveP := maxSlownessAbove(ref.Model, WaveP, rSrc)
	pMaxAboveS := maxSlownessAbove(ref.Model, WaveS, rSrc)
	vol.InLVZ = pMaxAboveP > vol.PSource[WaveP]
	pMaxAbove := map[WaveType]float64{WaveP: pMaxAboveP, WaveS: pMaxAboveS}
	inLVZ := map[WaveType]bool{
		WaveP: pMaxAboveP > vol.PSource[WaveP],
		WaveS: pMaxAboveS > vol.PSource[WaveS],
	}

	vol.UpTau = map[WaveType][]float64{}
	vol.UpX = map[WaveType][]float64{}
	for _, wave := range []WaveType{WaveP, WaveS} {
		im := ref.IntegratedP
		if wave == WaveS {
			im = ref.IntegratedS
		}
		vol.UpTau[wave], vol.UpX[wave] = correctUpgoing(ref.Model, im, wave, vol.PSource[wave], zSrc)
	}

	vol.Branches = make([]*Branch, 0, len(ref.Branches))
	for _, br := range ref.Branches {
		vol.Branches = append(vol.Branches, shortenBranch(ref.Model, br, vol.PSource, zSrc, inLVZ, pMaxAbove))
	}
	return vol
}

// slownessAtRadius interpolates slow(r) for a wave type at dimensional
// radius r, used to compute pSource = slow(z_src) (spec.md 4.H step 1).
func slownessAtRadius(m *RadialModel, wave WaveType, r float64) float64 {
	mf := modelField{m: m, wave: wave}
	return mf.slownessAt(r)
}

// maxSlownessAbove returns the largest slowness value at any radius
// shallower than r (used to detect whether the source sits in an LVZ).
func maxSlownessAbove(m *RadialModel, wave WaveType, r float64) float64 {
	max := 0.0
	for _, s := range m.Samples {
		if s.R < r {
			continue
		}
		v := s.SlowP
		if wave == WaveS {
			v = s.SlowS
		}
		if v > max {
			max = v
		}
	}
	return max
}

// correctUpgoing subtracts the partial-layer tau/x integral from the
// surface-to-source column from every existing up-going record above
// z_src (spec.md 4.H step 2), returning the corrected (tau,x) arrays
// indexed like im.P.
func correctUpgoing(m *RadialModel, im *IntegratedModel, wave WaveType, pSource, zSrc float64) (tau, x []float64) {
	n := len(im.P)
	tau = make([]float64, n)
	x = make([]float64, n)

	// Find the model sample nearest the source in flattened depth (above
	// or below it) to serve as the "iSrc" endpoint of the correction
	// integral.
	srcIdx := nearestSampleIndex(m, zSrc)

	for i, p := range im.P {
		if p > pSource+1e-12 {
			continue
		}
		full := im.Partials[i]
		tauTotal := full.Tau()
		xTotal := full.X()

		if srcIdx >= 0 && srcIdx < len(m.Samples) {
			s := m.Samples[srcIdx]
			dTau, err1 := intLayer(p, pSource, slowOf(s, wave), zSrc, s.Z)
			dX, err2 := getXLayer(p, pSource, slowOf(s, wave), zSrc, s.Z)
			if err1 == nil && err2 == nil {
				tauTotal -= dTau
				xTotal -= dX
			}
		}
		tau[i] = tauTotal
		x[i] = xTotal
	}
	return tau, x
}

func slowOf(s ModelSample, wave WaveType) float64 {
	if wave == WaveP {
		return s.SlowP
	}
	return s.SlowS
}

func nearestSampleIndex(m *RadialModel, zSrc float64) int {
	best := -1
	bestD := math.Inf(1)
	for i, s := range m.Samples {
		d := math.Abs(s.Z - zSrc)
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

// nearestSlownessIndex finds the sample at or shallower than aboveIdx whose
// slowness for wave is closest to target, used to locate the depth where
// the LVZ's peak slowness occurs (the shallowest ray that can still turn
// above a source sitting in the low-velocity zone).
func nearestSlownessIndex(m *RadialModel, wave WaveType, target float64, aboveIdx int) int {
	best := -1
	bestD := math.Inf(1)
	for i := aboveIdx; i < len(m.Samples); i++ {
		d := math.Abs(slowOf(m.Samples[i], wave) - target)
		if d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

// sourceEndIntegrals computes the three closed-form "end integrals" of
// spec.md 4.H step 3, all evaluated at p = pSource via the layer closed
// forms (intLayer/getXLayer) rather than by interpolating any branch's own
// spline: (a) tauEndUp/xEndUp, the mantle-to-source partial layer for the
// branch's own wave type; (b) tauEndLvz/xEndLvz, the additional partial
// layer from the source down to the shallowest ray that can still turn
// when the source sits inside a low-velocity zone; (c) tauEndCnv/xEndCnv,
// the same partial layer evaluated against the opposite wave type, for
// branches whose near-source leg converts.
func sourceEndIntegrals(m *RadialModel, wave WaveType, pSource, zSrc float64, inLVZ bool, pMaxAbove float64) (tauEndUp, xEndUp, tauEndLvz, xEndLvz, tauEndCnv, xEndCnv float64) {
	srcIdx := nearestSampleIndex(m, zSrc)
	if srcIdx < 0 || srcIdx >= len(m.Samples) {
		return 0, 0, 0, 0, 0, 0
	}
	s := m.Samples[srcIdx]

	if t, err := intLayer(pSource, pSource, slowOf(s, wave), zSrc, s.Z); err == nil {
		tauEndUp = t
	}
	if x, err := getXLayer(pSource, pSource, slowOf(s, wave), zSrc, s.Z); err == nil {
		xEndUp = x
	}

	other := WaveS
	if wave == WaveS {
		other = WaveP
	}
	if t, err := intLayer(pSource, pSource, slowOf(s, other), zSrc, s.Z); err == nil {
		tauEndCnv = t
	}
	if x, err := getXLayer(pSource, pSource, slowOf(s, other), zSrc, s.Z); err == nil {
		xEndCnv = x
	}

	if inLVZ {
		if lvzIdx := nearestSlownessIndex(m, wave, pMaxAbove, srcIdx); lvzIdx >= 0 {
			lz := m.Samples[lvzIdx]
			if t, err := intLayer(pSource, pSource, slowOf(lz, wave), zSrc, lz.Z); err == nil {
				tauEndLvz = t
			}
			if x, err := getXLayer(pSource, pSource, slowOf(lz, wave), zSrc, lz.Z); err == nil {
				xEndLvz = x
			}
		}
	}
	return
}

// shortenBranch implements spec.md 4.H step 4: if the branch's p-max is
// >= pSource for the wave type of its leg nearest the source, shorten the
// branch at pSource and insert one endpoint sample built from the
// closed-form end integrals of step 3 (tauEndUp+tauEndLvz, xEndUp+xEndLvz
// for same-type branches; the cross-type integral substituted in for
// converted branches), then refit the spline basis for the shortened grid.
func shortenBranch(m *RadialModel, br *Branch, pSource map[WaveType]float64, zSrc float64, inLVZ map[WaveType]bool, pMaxAbove map[WaveType]float64) *Branch {
	wave := br.TypeSeg[1]
	ps := pSource[wave]
	if br.PRange[1] < ps {
		return cloneBranch(br)
	}

	var p, tau, x []float64
	for i, pv := range br.P {
		if pv > ps+1e-12 {
			continue
		}
		p = append(p, pv)
		tau = append(tau, br.Tau[i])
		x = append(x, br.X[i])
	}
	if len(p) == 0 || p[len(p)-1] < ps-1e-9 {
		out := cloneBranch(br)
		tauEndUp, xEndUp, tauEndLvz, xEndLvz, tauEndCnv, xEndCnv := sourceEndIntegrals(m, wave, ps, zSrc, inLVZ[wave], pMaxAbove[wave])

		tauEnd, xEnd := tauEndUp, xEndUp
		if br.TypeSeg[1] != br.TypeSeg[2] {
			// The near-source leg itself converts (e.g. SP's S leg
			// returning as P): the closed-form end sample must use the
			// cross-type integral, not the same-type one.
			tauEnd, xEnd = tauEndCnv, xEndCnv
		}
		if inLVZ[wave] {
			tauEnd += tauEndLvz
			xEnd += xEndLvz
		}

		out.P = append(p, ps)
		out.Tau = append(tau, tauEnd)
		out.X = append(x, xEnd)
		out.PRange[1] = ps
		out.XRange = xRangeOf(out.X)
		out.Basis = FitBranchBasis(out.P, out.Tau, out.X)
		return out
	}

	out := cloneBranch(br)
	out.P, out.Tau, out.X = p, tau, x
	out.PRange = [2]float64{p[0], p[len(p)-1]}
	out.XRange = xRangeOf(x)
	out.Basis = FitBranchBasis(out.P, out.Tau, out.X)
	return out
}

func cloneBranch(br *Branch) *Branch {
	cp := *br
	cp.P = append([]float64(nil), br.P...)
	cp.Tau = append([]float64(nil), br.Tau...)
	cp.X = append([]float64(nil), br.X...)
	for j := 0; j < 5; j++ {
		cp.Basis[j] = append([]float64(nil), br.Basis[j]...)
	}
	return &cp
}
