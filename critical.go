package traveltime

import "sort"

// ComputeCriticalSlownesses finds the set of slownesses that must be
// sampled exactly for one wave type: every shell-boundary slowness, plus
// local maxima that mark entries/exits of low-velocity zones. Ordered
// ascending; duplicates collapsed.
func ComputeCriticalSlownesses(m *RadialModel, wave WaveType) []CriticalSlowness {
	var out []CriticalSlowness

	for shellIdx, sh := range m.Shells {
		addBoundary := func(idx int) {
			s := m.Samples[idx]
			slow := s.SlowP
			if wave == WaveS {
				slow = s.SlowS
			}
			loc := LocShell
			if sh.IsDisc {
				loc = LocBoundary
			}
			out = append(out, CriticalSlowness{
				Type: wave, Slowness: slow,
				PShellIdx: shellIdx, SShellIdx: shellIdx,
				Loc: loc,
			})
		}
		addBoundary(sh.IBot)
		addBoundary(sh.ITop)
	}

	// LVZ extrema: a local maximum of slowness with depth (i.e. velocity
	// locally decreasing going deeper, a high-slowness / low-velocity
	// zone) within a continuous shell.
	for _, sh := range m.Shells {
		if sh.IsDisc {
			continue
		}
		for i := sh.IBot + 1; i < sh.ITop; i++ {
			prev, cur, next := m.Samples[i-1], m.Samples[i], m.Samples[i+1]
			var sp, sc, sn float64
			if wave == WaveP {
				sp, sc, sn = prev.SlowP, cur.SlowP, next.SlowP
			} else {
				sp, sc, sn = prev.SlowS, cur.SlowS, next.SlowS
			}
			if sc > sp && sc > sn {
				out = append(out, CriticalSlowness{
					Type: wave, Slowness: sc,
					PShellIdx: -1, SShellIdx: -1,
					Loc: LocShell,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Slowness < out[j].Slowness })
	return dedupCritical(out)
}

func dedupCritical(in []CriticalSlowness) []CriticalSlowness {
	if len(in) == 0 {
		return in
	}
	out := in[:1]
	for _, c := range in[1:] {
		last := out[len(out)-1]
		if c.Type == last.Type && c.Slowness-last.Slowness < 1e-12 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// IsLVZCrossing reports whether the downward step from sample i+1 to i
// (samples are ordered bottom-up) is a discontinuity where slowness
// increases (a high-slowness zone entry), per spec.md 4.D's LVZ flag rule.
func IsLVZCrossing(m *RadialModel, i int, wave WaveType) bool {
	if i+1 >= len(m.Samples) {
		return false
	}
	a, b := m.Samples[i], m.Samples[i+1]
	if a.R != b.R {
		return false
	}
	if wave == WaveP {
		return a.SlowP > b.SlowP
	}
	return a.SlowS > b.SlowS
}
