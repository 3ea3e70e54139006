package traveltime

import "math"

// earthquakeMaxDepthKm is the default deepest supported source depth
// (spec.md 1, Non-goals).
const earthquakeMaxDepthKm = 800.0

// ShellPartials holds, for one ray parameter, the tau/x contributions
// accumulated separately across the mantle, outer core and inner core,
// so Branch Builder can weight them by shellCounts.
type ShellPartials struct {
	P                  float64
	TauMantle, XMantle float64
	TauOC, XOC         float64
	TauIC, XIC         float64
}

func (sp ShellPartials) Tau() float64 { return sp.TauMantle + sp.TauOC + sp.TauIC }
func (sp ShellPartials) X() float64   { return sp.XMantle + sp.XOC + sp.XIC }

func cloneShellPartials(in []ShellPartials) []ShellPartials {
	out := make([]ShellPartials, len(in))
	copy(out, in)
	return out
}

// IntegratedModel is the per-wave-type output of the Integrator: the
// shell partials for every merged ray parameter, the earthquake-eligible
// depth records, and the three whole-shell special integrals.
type IntegratedModel struct {
	Wave     WaveType
	P        []float64       // merged slowness grid
	Partials []ShellPartials // final (whole-model) partials, parallel to P

	Depths []TauXSample // one per earthquake-eligible sample depth

	CMB, ICB, Center []ShellPartials // full accumulator snapshots at each boundary, parallel to P
}

// shellBucket classifies a continuous shell into the three major regions
// the branch builder cares about: 0 = mantle/crust, 1 = outer core,
// 2 = inner core.
func shellBucket(name ShellName) int {
	switch name {
	case InnerCore:
		return 2
	case OuterCore:
		return 1
	default:
		return 0
	}
}

// Integrate walks the depth-ordered model samples (surface -> centre) and
// accumulates tau/x for every merged ray parameter across all depth
// layers, per spec.md 4.D. Snapshots are recorded at earthquake-eligible
// depths and at the CMB, ICB and centre.
func Integrate(m *RadialModel, wave WaveType, mergedP []float64) *IntegratedModel {
	im := &IntegratedModel{Wave: wave, P: append([]float64(nil), mergedP...)}

	n := len(m.Samples)
	acc := make([]ShellPartials, len(mergedP))
	for i, p := range mergedP {
		acc[i].P = p
	}

	rSurface := m.Samples[n-1].R
	lvz := false

	for i := n - 1; i > 0; i-- {
		top := m.Samples[i]   // shallower endpoint (iterating surface -> centre)
		bot := m.Samples[i-1] // deeper endpoint

		if top.R == bot.R {
			if IsLVZCrossing(m, i-1, wave) {
				lvz = true
			}
			// A discontinuity crossing: snapshot special integrals if
			// this is the CMB or ICB.
			sh := discShellAt(m, top.R)
			switch sh {
			case CoreMantleBoundary:
				im.CMB = cloneShellPartials(acc)
			case InnerCoreBoundary:
				im.ICB = cloneShellPartials(acc)
			}
			continue
		}

		midNorm := m.Conv.NormR((top.R + bot.R) / 2)
		sh, ok := m.ShellFor(midNorm, false)
		bucket := 0
		if ok {
			bucket = shellBucket(sh.Name)
		}

		var slowTop, slowBot float64
		if wave == WaveP {
			slowTop, slowBot = top.SlowP, bot.SlowP
		} else {
			slowTop, slowBot = top.SlowS, bot.SlowS
		}

		for k, p := range mergedP {
			lo := math.Min(slowTop, slowBot)
			if p > lo+1e-12 {
				continue
			}
			tau, err := intLayer(p, slowTop, slowBot, top.Z, bot.Z)
			if err != nil {
				continue
			}
			x, err := getXLayer(p, slowTop, slowBot, top.Z, bot.Z)
			if err != nil {
				continue
			}
			addPartial(&acc[k], bucket, tau, x)
		}

		depthKm := rSurface - bot.R
		if depthKm <= earthquakeMaxDepthKm && depthKm >= 0 {
			im.Depths = append(im.Depths, snapshotDepth(acc, lvz))
		}
		lvz = false
	}

	im.Center = cloneShellPartials(acc)
	im.Partials = acc
	return im
}

func addPartial(sp *ShellPartials, bucket int, tau, x float64) {
	switch bucket {
	case 2:
		sp.TauIC += tau
		sp.XIC += x
	case 1:
		sp.TauOC += tau
		sp.XOC += x
	default:
		sp.TauMantle += tau
		sp.XMantle += x
	}
}

func snapshotDepth(acc []ShellPartials, lvz bool) TauXSample {
	tx := TauXSample{Lvz: lvz}
	tx.Tau = make([]float64, len(acc))
	tx.X = make([]float64, len(acc))
	for i, a := range acc {
		tx.Tau[i] = a.Tau()
		tx.X[i] = a.X()
	}
	return tx
}

// discShellAt returns the name of the zero-thickness shell whose radius
// matches r, if any.
func discShellAt(m *RadialModel, r float64) ShellName {
	for _, sh := range m.Shells {
		if sh.IsDisc && math.Abs(sh.RBot-r) < 1e-6 {
			return sh.Name
		}
	}
	return ShellUnknown
}
