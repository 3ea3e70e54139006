package traveltime

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Sampler tuning constants from spec.md 4.C.
const (
	deltaPMax = 0.01  // non-dim units
	deltaRMax = 75.0  // km
	causticTol = 5e-6 // delta-x tolerance for Pegasus bisection
)

// SampledSlowness is one entry of a per-wave-type adaptive slowness grid.
type SampledSlowness struct {
	Slow float64
	R    float64 // bottoming radius, km
}

// modelField supplies the minimum the sampler needs from a RadialModel:
// the slowness(r) function for one wave type, and delta(p)/depth lookups
// via layer integration across the whole model.
type modelField struct {
	m    *RadialModel
	wave WaveType
}

// slownessAt returns the non-dimensional slowness of this wave type at
// dimensional radius r, via shell-local interpolation.
func (mf modelField) slownessAt(r float64) float64 {
	for _, sh := range mf.m.Shells {
		if sh.IsDisc {
			continue
		}
		if r >= sh.RBot-1e-6 && r <= sh.RTop+1e-6 {
			vp, vs, err := mf.m.interpolate(sh, r)
			if err != nil {
				continue
			}
			if mf.wave == WaveP {
				return mf.m.Conv.FlatP(r, vp)
			}
			return mf.m.Conv.FlatP(r, vs)
		}
	}
	return math.NaN()
}

// deltaForP computes the whole-model (surface to centre) distance x(p) by
// summing intLayer/getXLayer across every shell the ray can cross, for use
// by the caustic/target-distance solvers. This is a coarse, sampler-local
// integral — the authoritative accumulation happens in Integrator.
func (mf modelField) deltaForP(p float64) float64 {
	total := 0.0
	samples := mf.m.Samples
	for i := 0; i+1 < len(samples); i++ {
		s1, s2 := samples[i], samples[i+1]
		var slow1, slow2 float64
		if mf.wave == WaveP {
			slow1, slow2 = s1.SlowP, s2.SlowP
		} else {
			slow1, slow2 = s1.SlowS, s2.SlowS
		}
		lo := math.Min(slow1, slow2)
		if p > lo+1e-12 {
			continue
		}
		x, err := getXLayer(p, slow1, slow2, s1.Z, s2.Z)
		if err == nil {
			total += x
		}
	}
	return total
}

// SampleWaveType produces the adaptive slowness sampling for one wave
// type honouring spec.md 4.C's four conditions, walking critical
// slownesses from the deepest branch ends outward.
func SampleWaveType(m *RadialModel, wave WaveType, criticals []CriticalSlowness) []SampledSlowness {
	var crit []float64
	for _, c := range criticals {
		if c.Type == wave {
			crit = append(crit, c.Slowness)
		}
	}
	sort.Float64s(crit)
	crit = dedupSorted(crit)
	if len(crit) < 2 {
		return nil
	}

	mf := modelField{m: m, wave: wave}

	var out []SampledSlowness
	// Walk from deepest (largest slowness, smallest radius) outward to
	// the surface (smallest slowness).
	for i := len(crit) - 1; i > 0; i-- {
		slowBot := crit[i]
		slowTop := crit[i-1]
		seg := sampleInterval(mf, slowTop, slowBot)
		out = append(out, seg...)
	}
	out = append(out, SampledSlowness{Slow: crit[0], R: bottomingRadius(mf, crit[0])})

	out = insertSpacingGuards(mf, out)
	return out
}

func dedupSorted(xs []float64) []float64 {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x-out[len(out)-1] > 1e-12 {
			out = append(out, x)
		}
	}
	return out
}

// sampleInterval builds the quadratic initial grid for one
// [slowTop, slowBot] interval between consecutive critical slownesses and
// adds the caustics refineCaustics finds in it.
func sampleInterval(mf modelField, slowTop, slowBot float64) []SampledSlowness {
	xTop := mf.deltaForP(slowTop)
	xBot := mf.deltaForP(slowBot)
	dxTarget := 300.0 / mf.m.Conv.RSurface // non-dim target spacing, conservative default

	n := int(math.Max(1, math.Abs(xTop-xBot)/dxTarget))
	if n < 1 {
		n = 1
	}

	// Quadratic initial grid, denser near slowTop (bottoming-angle
	// ambiguity is larger near the shell top).
	raw := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		raw[i] = slowTop + (slowBot-slowTop)*t*t
	}

	samples := make([]SampledSlowness, len(raw))
	for i, p := range raw {
		samples[i] = SampledSlowness{Slow: p, R: bottomingRadius(mf, p)}
	}

	samples = refineCaustics(mf, samples)
	return samples
}

// refineCaustics brackets a caustic wherever the first difference of
// Delta(p) changes sign between consecutive samples, bisects with Pegasus
// to find dDelta/dp=0 and inserts the root as an extra sample. It does not
// refine the caustic-bounded segments to a target Delta spacing.
func refineCaustics(mf modelField, samples []SampledSlowness) []SampledSlowness {
	if len(samples) < 3 {
		return samples
	}
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = mf.deltaForP(s.Slow)
	}
	for i := 1; i+1 < len(samples); i++ {
		d1 := xs[i] - xs[i-1]
		d2 := xs[i+1] - xs[i]
		if (d1 > 0) != (d2 > 0) {
			// Sign change brackets a caustic; bisect dDelta/dp=0 via
			// Pegasus on a centred finite-difference derivative.
			dDdp := func(p float64) float64 {
				h := (samples[i+1].Slow - samples[i-1].Slow) / 100
				if h == 0 {
					return 0
				}
				return (mf.deltaForP(p+h) - mf.deltaForP(p-h)) / (2 * h)
			}
			if root, ok := pegasusRoot(dDdp, samples[i-1].Slow, samples[i+1].Slow, causticTol, 50); ok {
				samples = insertSample(samples, i, SampledSlowness{Slow: root, R: bottomingRadius(mf, root)})
			}
		}
	}
	return samples
}

func insertSample(samples []SampledSlowness, at int, s SampledSlowness) []SampledSlowness {
	out := make([]SampledSlowness, 0, len(samples)+1)
	out = append(out, samples[:at+1]...)
	out = append(out, s)
	out = append(out, samples[at+1:]...)
	return out
}

// insertSpacingGuards implements step 4: while walking, insert
// intermediate samples wherever |dp| > deltaPMax or |dr| > deltaRMax.
func insertSpacingGuards(mf modelField, samples []SampledSlowness) []SampledSlowness {
	if len(samples) < 2 {
		return samples
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Slow < samples[j].Slow })
	out := []SampledSlowness{samples[0]}
	for i := 1; i < len(samples); i++ {
		prev := out[len(out)-1]
		cur := samples[i]
		dp := cur.Slow - prev.Slow
		dr := math.Abs(cur.R - prev.R)
		if dp > deltaPMax || dr > deltaRMax {
			nSub := int(math.Max(dp/deltaPMax, dr/deltaRMax)) + 1
			for k := 1; k < nSub; k++ {
				t := float64(k) / float64(nSub)
				p := prev.Slow + dp*t
				out = append(out, SampledSlowness{Slow: p, R: bottomingRadius(mf, p)})
			}
		}
		out = append(out, cur)
	}
	return out
}

// bottomingRadius refines the bottoming radius for slowness p by
// Pegasus-solving slow(r) = p on the continuous interpolated model
// (spec.md 4.C step 5).
func bottomingRadius(mf modelField, p float64) float64 {
	for _, sh := range mf.m.Shells {
		if sh.IsDisc {
			continue
		}
		loS := mf.slownessAt(sh.RBot)
		hiS := mf.slownessAt(sh.RTop)
		if math.IsNaN(loS) || math.IsNaN(hiS) {
			continue
		}
		lo, hi := math.Min(loS, hiS), math.Max(loS, hiS)
		if p < lo-1e-9 || p > hi+1e-9 {
			continue
		}
		f := func(r float64) float64 { return mf.slownessAt(r) - p }
		if root, ok := pegasusRoot(f, sh.RBot, sh.RTop, 1e-6, 50); ok {
			return root
		}
	}
	return math.NaN()
}

// MergeSlownessLists merges independently sampled P and S slowness grids
// per spec.md 4.C: for each interval between consecutive critical
// slownesses (union of both types), choose whichever sub-list has more
// samples in that interval and append it, ordered surface -> centre.
func MergeSlownessLists(pSamples, sSamples []SampledSlowness, criticals []CriticalSlowness) []float64 {
	var critSlows []float64
	for _, c := range criticals {
		critSlows = append(critSlows, c.Slowness)
	}
	sort.Float64s(critSlows)
	critSlows = dedupSorted(critSlows)
	if len(critSlows) == 0 {
		return nil
	}

	var merged []float64
	for i := 0; i+1 < len(critSlows); i++ {
		lo, hi := critSlows[i], critSlows[i+1]
		pCount := countInRange(pSamples, lo, hi)
		sCount := countInRange(sSamples, lo, hi)
		if pCount >= sCount {
			merged = append(merged, slowsInRange(pSamples, lo, hi)...)
		} else {
			merged = append(merged, slowsInRange(sSamples, lo, hi)...)
		}
	}
	merged = append(merged, critSlows[len(critSlows)-1])
	sort.Sort(sort.Reverse(sort.Float64Slice(merged)))
	merged = dedupSortedDesc(merged)
	return merged
}

func countInRange(s []SampledSlowness, lo, hi float64) int {
	n := 0
	for _, v := range s {
		if v.Slow >= lo-1e-12 && v.Slow < hi-1e-12 {
			n++
		}
	}
	return n
}

func slowsInRange(s []SampledSlowness, lo, hi float64) []float64 {
	var out []float64
	for _, v := range s {
		if v.Slow >= lo-1e-12 && v.Slow < hi-1e-12 {
			out = append(out, v.Slow)
		}
	}
	return out
}

func dedupSortedDesc(xs []float64) []float64 {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if out[len(out)-1]-x > 1e-12 {
			out = append(out, x)
		}
	}
	return out
}

// minmaxSlow is a small gonum-backed helper returning the extreme
// slownesses of a raw sample set without re-deriving sort order. Nothing
// in the package calls it.
func minmaxSlow(vals []float64) (min, max float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	return floats.Min(vals), floats.Max(vals)
}
