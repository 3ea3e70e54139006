package traveltime

import (
	"math"
	"sort"
)

// velocityTolerance is the relative velocity tolerance spec.md 4.A uses
// to decide whether two samples straddling a shell boundary should be
// bridged (forced exactly equal) before flattening.
const velocityTolerance = 2e-5

// RadialModel owns a spherically symmetric radial Earth model together
// with the flat-Earth depth-domain slowness samples derived from it, and
// the one Conversions object carrying every normalisation constant.
type RadialModel struct {
	Name    string
	Samples []ModelSample
	Shells  []Shell
	Conv    *Conversions

	RUpperMantle, RMoho, RConrad float64
}

// NewRadialModel builds a RadialModel from decoded rows. Rows must already
// be ordered bottom-up by radius; qualifying discontinuities are pairs of
// consecutive rows with identical radius.
//
// vpv, vph, vsv, vsh, eta are the raw (possibly anisotropic) columns from
// the model file; they are collapsed here to isotropic Vp/Vs using a
// Voigt-style average, since the tau-p math downstream is isotropic only
// (spec.md 1, Non-goals: "anisotropy propagation ... collapsed to
// isotropic at load time").
func NewRadialModel(name string, rows []RawModelRow, rUpperMantle, rMoho, rConrad float64) (*RadialModel, error) {
	if len(rows) < 2 {
		return nil, ErrModelMalformed
	}
	samples := make([]ModelSample, len(rows))
	for i, row := range rows {
		vp := math.Sqrt((2*row.Vpv*row.Vpv + row.Vph*row.Vph) / 3)
		vs := math.Sqrt((2*row.Vsv*row.Vsv + row.Vsh*row.Vsh) / 3)
		if vs <= 0 {
			// Fluid layer: S slowness is finite but equal to P, per
			// spec.md 3 (Model sample invariants).
			vs = vp
		}
		samples[i] = ModelSample{
			R:      row.R,
			Vp:     vp,
			Vs:     vs,
			QMu:    row.QMu,
			QKappa: row.QKappa,
		}
	}
	rSurface := samples[len(samples)-1].R
	vSurfaceShear := samples[len(samples)-1].Vs
	if vSurfaceShear <= 0 {
		return nil, ErrModelMalformed
	}
	conv := NewConversions(rSurface, vSurfaceShear)

	bridgeDiscontinuities(samples)

	for i := range samples {
		rNorm := conv.NormR(samples[i].R)
		samples[i].Z = conv.FlatZ(rNorm)
		samples[i].SlowP = conv.FlatP(samples[i].R, samples[i].Vp)
		samples[i].SlowS = conv.FlatP(samples[i].R, samples[i].Vs)
	}

	m := &RadialModel{
		Name:         name,
		Samples:      samples,
		Conv:         conv,
		RUpperMantle: rUpperMantle,
		RMoho:        rMoho,
		RConrad:      rConrad,
	}
	m.refineBoundaries()
	return m, nil
}

// RawModelRow is one decoded row of the model file, before isotropic
// collapse. Populated by decode.ReadModel.
type RawModelRow struct {
	R, Rho, Vpv, Vph, Vsv, Vsh, Eta, QMu, QKappa float64
}

// bridgeDiscontinuities forces equal velocities across any shell boundary
// where successive samples differ by less than velocityTolerance,
// per spec.md 4.A's invariant.
func bridgeDiscontinuities(samples []ModelSample) {
	for i := 0; i+1 < len(samples); i++ {
		if samples[i].R != samples[i+1].R {
			continue
		}
		bridgeIfClose(&samples[i].Vp, &samples[i+1].Vp)
		bridgeIfClose(&samples[i].Vs, &samples[i+1].Vs)
	}
}

func bridgeIfClose(a, b *float64) {
	if *a == 0 {
		return
	}
	if math.Abs(*a-*b)/math.Abs(*a) < velocityTolerance {
		*b = *a
	}
}

// interpolate returns (vp, vs) at radius r within the given shell, using a
// piecewise cubic spline when the shell holds >= 3 samples and linear
// interpolation otherwise. Returns ErrRadiusOutOfShell if r lies outside
// [RBot, RTop].
func (m *RadialModel) interpolate(shell Shell, r float64) (vp, vs float64, err error) {
	if r < shell.RBot-1e-9 || r > shell.RTop+1e-9 {
		return 0, 0, ErrRadiusOutOfShell
	}
	n := shell.ITop - shell.IBot + 1
	if n < 2 {
		return 0, 0, ErrModelMalformed
	}
	xs := make([]float64, n)
	vps := make([]float64, n)
	vss := make([]float64, n)
	for i := 0; i < n; i++ {
		s := m.Samples[shell.IBot+i]
		xs[i] = s.R
		vps[i] = s.Vp
		vss[i] = s.Vs
	}
	if n >= 3 {
		vp = cubicSplineEval(xs, vps, r)
		vs = cubicSplineEval(xs, vss, r)
	} else {
		vp = linearEval(xs, vps, r)
		vs = linearEval(xs, vss, r)
	}
	return vp, vs, nil
}

func linearEval(xs, ys []float64, x float64) float64 {
	n := len(xs)
	i := sort.SearchFloat64s(xs, x)
	if i <= 0 {
		i = 1
	}
	if i >= n {
		i = n - 1
	}
	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x1 == x0 {
		return y0
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// refineBoundaries matches the model's discontinuity radii to the closest
// target depths for inner core, outer core, upper mantle, Moho, Conrad and
// the surface, naming those shells and tagging continuous intervals by
// region, per spec.md 4.A.
func (m *RadialModel) refineBoundaries() {
	// Collect discontinuity indices (i where R[i] == R[i+1]) plus the
	// first and last sample, forming the shell boundary list bottom-up.
	var boundaries []int
	boundaries = append(boundaries, 0)
	for i := 0; i+1 < len(m.Samples); i++ {
		if m.Samples[i].R == m.Samples[i+1].R {
			boundaries = append(boundaries, i)
			boundaries = append(boundaries, i+1)
		}
	}
	boundaries = append(boundaries, len(m.Samples)-1)

	var shells []Shell
	for i := 0; i+1 < len(boundaries); i += 2 {
		ib, it := boundaries[i], boundaries[i+1]
		if ib == it {
			continue
		}
		shells = append(shells, Shell{
			IBot: ib, ITop: it,
			RBot: m.Samples[ib].R, RTop: m.Samples[it].R,
			IsDisc: false,
		})
	}
	// Discontinuity shells: zero-thickness, one per repeated radius.
	for i := 0; i+1 < len(m.Samples); i++ {
		if m.Samples[i].R == m.Samples[i+1].R {
			shells = append(shells, Shell{
				IBot: i, ITop: i + 1,
				RBot: m.Samples[i].R, RTop: m.Samples[i+1].R,
				IsDisc: true,
			})
		}
	}
	sort.Slice(shells, func(a, b int) bool { return shells[a].RBot < shells[b].RBot })

	// Name continuous shells by region using radius thresholds derived
	// from the refined boundary set: centre..ICB -> inner core,
	// ICB..CMB -> outer core, CMB..upper-mantle -> lower mantle,
	// upper-mantle..Moho -> upper mantle, Moho..Conrad -> lower crust,
	// Conrad..surface -> upper crust.
	rICB, rCMB := m.findCoreBoundaries(shells)
	for i := range shells {
		sh := &shells[i]
		mid := (sh.RBot + sh.RTop) / 2
		switch {
		case sh.IsDisc:
			sh.Name, sh.DxTarget = m.nameDiscontinuity(sh, rICB, rCMB)
		case mid < rICB:
			sh.Name, sh.DxTarget = InnerCore, 300
		case mid < rCMB:
			sh.Name, sh.DxTarget = OuterCore, 300
		case mid < m.RUpperMantle:
			sh.Name, sh.DxTarget = LowerMantle, 150
		case mid < m.RMoho:
			sh.Name, sh.DxTarget = UpperMantle, 150
		case mid < m.RConrad:
			sh.Name, sh.DxTarget = LowerCrust, 100
		default:
			sh.Name, sh.DxTarget = UpperCrust, 100
		}
	}
	m.Shells = shells
}

// findCoreBoundaries locates the ICB/CMB radii as the two deepest
// discontinuities in the shell list (inner/outer core are always the two
// deepest shells of a whole-Earth model).
func (m *RadialModel) findCoreBoundaries(shells []Shell) (rICB, rCMB float64) {
	var discs []float64
	for _, sh := range shells {
		if sh.IsDisc {
			discs = append(discs, sh.RBot)
		}
	}
	sort.Float64s(discs)
	if len(discs) >= 2 {
		rICB, rCMB = discs[0], discs[1]
	} else if len(discs) == 1 {
		rCMB = discs[0]
	}
	return
}

func (m *RadialModel) nameDiscontinuity(sh *Shell, rICB, rCMB float64) (ShellName, float64) {
	switch {
	case math.Abs(sh.RBot-rICB) < 1e-6:
		return InnerCoreBoundary, 300
	case math.Abs(sh.RBot-rCMB) < 1e-6:
		return CoreMantleBoundary, 150
	case math.Abs(sh.RBot-m.RMoho) < 50:
		return Moho, 100
	case math.Abs(sh.RBot-m.RConrad) < 50:
		return Conrad, 100
	default:
		return ShellUnknown, 150
	}
}

// ShellFor returns the shell containing non-dimensional radius rNorm. With
// preferDisc it searches the zero-thickness discontinuity shells first and
// falls back to continuous shells; otherwise it searches continuous shells
// only.
func (m *RadialModel) ShellFor(rNorm float64, preferDisc bool) (Shell, bool) {
	r := m.Conv.DimR(rNorm)
	var found Shell
	ok := false
	for _, sh := range m.Shells {
		if sh.IsDisc != preferDisc {
			continue
		}
		if r >= sh.RBot-1e-6 && r <= sh.RTop+1e-6 {
			found = sh
			ok = true
			break
		}
	}
	if !ok && preferDisc {
		return m.ShellFor(rNorm, false)
	}
	return found, ok
}
