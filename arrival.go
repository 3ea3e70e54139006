package traveltime

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/soniakeys/unit"
)

// DTCHATTER and DTOBSERV are the fixed filtering/tapering windows of
// spec.md 4.I step 7.
const (
	DTCHATTER = 0.005 // seconds
	DTOBSERV  = 3.0   // seconds
)

// GenerateArrivals implements the Arrival Generator (spec.md 4.I): branch
// iteration, distance unwrapping, correction dispatch, filtering and
// sorting.
func GenerateArrivals(vol *AllBrnVol, req QueryRequest) []TTime {
	if vol.BadDepth {
		return nil
	}

	candidates := UnwrapDistance(req.DeltaDeg)
	var arrivals []TTime

	for _, br := range vol.Branches {
		if !phaseSelected(br.PhaseCode, req.PhaseList, req.ReturnAllPhases) {
			continue
		}
		for ci, xi := range candidates {
			if ci == 2 && req.DeltaDeg != 180 {
				// x2 candidate only matters for wraparound arrivals past
				// a full half-circle; most branches never reach it, but
				// we still try since some upper-mantle multiples can.
			}
			p, ok := InvertDelta(br, xi)
			if !ok {
				continue
			}
			tt := buildArrival(vol, br, p, xi, req)
			if tt != nil {
				arrivals = append(arrivals, *tt)
			}
		}
	}

	arrivals = filterDef(arrivals)
	if req.Tectonic {
		arrivals = renameTectonic(arrivals)
		arrivals = filterTect(arrivals)
	}
	if !req.ReturnBackBranches {
		arrivals = filterBack(arrivals)
	}
	arrivals = tapeObservability(arrivals)

	sort.SliceStable(arrivals, func(i, j int) bool { return arrivals[i].Tt < arrivals[j].Tt })
	return arrivals
}

func phaseSelected(code string, phaseList []string, returnAll bool) bool {
	if len(phaseList) == 0 {
		return true
	}
	for _, want := range phaseList {
		if strings.HasPrefix(code, want) {
			return true
		}
		if returnAll && (strings.HasPrefix(code, "p"+want) || strings.HasPrefix(code, "s"+want)) {
			return true
		}
	}
	return false
}

func buildArrival(vol *AllBrnVol, br *Branch, p, x float64, req QueryRequest) *TTime {
	tau, ok := EvalTau(br, p)
	if !ok {
		return nil
	}
	conv := vol.Ref.Model.Conv
	ttSec := conv.TimeToSeconds(tau + p*x)

	deltaDeg := x * 180 / math.Pi
	dTdD := p * math.Pi / 180 * conv.TimeToSeconds(1) // s per degree, scaled from non-dim p
	dTdZ := depthDerivative(vol, br, p)

	receiverIsP := receiverLegIsP(br.PhaseCode)
	regional := vol.Ref.Aux != nil && vol.Ref.Aux.Groups != nil && vol.Ref.Aux.Groups.IsRegional(br.PhaseCode)
	elevCorr := ElevationCorrection(br.PhaseCode, req.ElevKm, p, receiverIsP, req.UseRSTT, regional)
	ttSec += elevCorr

	if req.Geographic {
		ttSec += applyEllipticity(vol, br, req, deltaDeg)
		corr, ok := applyBounce(vol, br, req, x)
		if !ok {
			return nil
		}
		ttSec += corr
	}

	stat, bias, spread, observ, window := lookupStats(vol.Ref.Aux, br.PhaseCode, deltaDeg, isUpgoing(br))
	if stat != nil {
		ttSec += bias
	}

	primary, aux := "", ""
	canUse := false
	if vol.Ref.Aux != nil && vol.Ref.Aux.Groups != nil {
		primary, aux = vol.Ref.Aux.Groups.GroupsFor(br.PhaseCode)
		canUse = vol.Ref.Aux.Groups.IsCanUse(br.PhaseCode)
	}
	if stat == nil {
		canUse = false
	}

	return &TTime{
		PhaseCode:  br.PhaseCode,
		Tt:         ttSec,
		DTdD:       dTdD,
		DTdZ:       dTdZ,
		Spread:     spread,
		Observ:     observ,
		Window:     window,
		PhaseGroup: primary,
		AuxGroup:   aux,
		Regional:   regional,
		Depth:      vol.Ref.Aux != nil && vol.Ref.Aux.Groups != nil && vol.Ref.Aux.Groups.IsDepthSensitive(br.PhaseCode),
		CanUse:     canUse,
	}
}

func receiverLegIsP(code string) bool {
	if len(code) == 0 {
		return true
	}
	return code[len(code)-1] == 'P'
}

func isUpgoing(br *Branch) bool {
	return br.HasUp
}

// depthDerivative computes dT/dZ at the source depth: not a slope along
// the branch's own (p,tau) curve (that gives d(tau)/dp, i.e. -distance),
// but the partial of travel time with respect to source depth at fixed p,
// dT/dz_src = +-eta_src, where eta_src = sqrt(slowSrc(p)^2 - p^2) is the
// source's own vertical slowness for the leg adjacent to the source
// (spec.md 4.I step 5, 4.H). The sign follows the leg direction: deepening
// the source shortens a down-going leg (negative) and lengthens an
// up-going one (positive).
func depthDerivative(vol *AllBrnVol, br *Branch, p float64) float64 {
	wave := br.TypeSeg[1]
	if br.HasUp && !br.HasDown {
		wave = br.TypeSeg[0]
	}
	slowSrc, ok := vol.PSource[wave]
	if !ok {
		return 0
	}
	eta := math.Sqrt(math.Max(slowSrc*slowSrc-p*p, 0))

	model := vol.Ref.Model
	rSrc := model.Samples[len(model.Samples)-1].R - vol.DepthKm
	if rSrc <= 0 {
		return 0
	}
	magnitude := model.Conv.TimeToSeconds(eta) / rSrc

	if legIsUpGoing(br, p, slowSrc) {
		return magnitude
	}
	return -magnitude
}

// legIsUpGoing reports whether the leg adjacent to the source travels
// upward from it: explicitly, for phases whose code begins with a
// lowercase p/s (pP, sP, ...), or dynamically whenever this arrival's ray
// parameter is below the source's own slowness, since a ray that slow
// cannot turn beneath a source where the medium is locally that fast and
// must instead leave upward toward a shallower turning point.
func legIsUpGoing(br *Branch, p, slowSrc float64) bool {
	if br.HasUp && !br.HasDown {
		return true
	}
	return p < slowSrc
}

func applyEllipticity(vol *AllBrnVol, br *Branch, req QueryRequest, deltaDeg float64) float64 {
	if vol.Ref.Aux == nil || vol.Ref.Aux.Ellip == nil {
		return 0
	}
	var profile *EllipProfile
	if br.HasUp && !br.HasDown {
		if receiverLegIsP(br.PhaseCode) {
			profile = vol.Ref.Aux.Ellip.UpP
		} else {
			profile = vol.Ref.Aux.Ellip.UpS
		}
	} else {
		profile = vol.Ref.Aux.Ellip.Phases[br.PhaseCode]
	}
	eqLat := unit.AngleFromDeg(req.SrcLat)
	az := unit.AngleFromDeg(req.RcvAzimuth)
	corr, ok := EllipticityCorrection(profile, eqLat, vol.DepthKm, deltaDeg, az)
	if !ok {
		return 0
	}
	return corr
}

// applyBounce returns the bounce-point correction for surface reflections
// and 0 for every other phase. ok=false means the arrival is dropped: the
// bounce-point trace failed, or a pwP bounce point is not deep enough.
func applyBounce(vol *AllBrnVol, br *Branch, req QueryRequest, x float64) (float64, bool) {
	pattern := ClassifyPhaseCode(br.PhaseCode)
	if pattern != PatternSurfaceReflection && pattern != PatternSurfaceConverted {
		return 0, true
	}
	if vol.Ref.Aux == nil || vol.Ref.Aux.Topo == nil {
		return 0, true
	}
	srcLat := unit.AngleFromDeg(req.SrcLat)
	srcLon := unit.AngleFromDeg(req.SrcLon)
	az := unit.AngleFromDeg(req.RcvAzimuth)
	legDist := unit.AngleFromDeg(x * 180 / math.Pi / 2)

	sameType := pattern == PatternSurfaceReflection
	v1, v2 := DefVp, DefVp
	if strings.HasPrefix(br.PhaseCode, "s") || strings.HasPrefix(br.PhaseCode, "S") {
		v1 = DefVs
	}
	corr, elevM, ok := BouncePointCorrection(srcLat, srcLon, az, legDist, vol.Ref.Aux.Topo, sameType, v1, v2)
	if !ok {
		return 0, false
	}

	if strings.HasPrefix(br.PhaseCode, "pwP") {
		pwp, pwpOK := PwPCorrection(elevM)
		if !pwpOK {
			return 0, false // pwP dropped silently by design (spec.md 7)
		}
		return pwp, true
	}
	return corr, true
}

// lookupStats interpolates bias/spread/observ for a phase at a distance,
// choosing the up-going variant when relevant, per spec.md 4.I step 6.
// PhaseNotFound is recovered per spec.md 7: returns a neutral (0) bias,
// arrival still emitted, canUse forced false by the nil return.
func lookupStats(aux *AuxData, phase string, deltaDeg float64, upgoing bool) (stat *PhaseStats, bias, spread, observ, window float64) {
	if aux == nil || aux.Stats == nil {
		return nil, 0, 0, 0, 2.5
	}
	ps, ok := aux.Stats.For(phase)
	if !ok {
		return nil, 0, 0, 0, 2.5
	}
	biasSegs, spreadSegs, observSegs := ps.Bias, ps.Spread, ps.Observ
	if upgoing && len(ps.BiasUp) > 0 {
		biasSegs, spreadSegs, observSegs = ps.BiasUp, ps.SpreadUp, ps.ObservUp
	}
	b, _ := evalSegments(biasSegs, deltaDeg)
	s, _ := evalSegments(spreadSegs, deltaDeg)
	o, _ := evalSegments(observSegs, deltaDeg)
	window = 2.5 * s
	return ps, b, s, o, window
}

// filterDef removes consecutive entries sharing a phase code whose
// arrival times differ by <= DTCHATTER, per spec.md 4.I step 7 / 8.
func filterDef(arrivals []TTime) []TTime {
	sort.SliceStable(arrivals, func(i, j int) bool {
		if arrivals[i].PhaseCode != arrivals[j].PhaseCode {
			return arrivals[i].PhaseCode < arrivals[j].PhaseCode
		}
		return arrivals[i].Tt < arrivals[j].Tt
	})
	var out []TTime
	for _, a := range arrivals {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.PhaseCode == a.PhaseCode && math.Abs(a.Tt-last.Tt) <= DTCHATTER {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// filterBack strips repeated phase codes regardless of time separation,
// keeping the first (earliest, after filterDef's sort by tt below).
func filterBack(arrivals []TTime) []TTime {
	seen := map[string]bool{}
	return lo.Filter(arrivals, func(a TTime, _ int) bool {
		if seen[a.PhaseCode] {
			return false
		}
		seen[a.PhaseCode] = true
		return true
	})
}

// renameTectonic renames Pb->Pg and Sb->Sg in tectonic mode, leaving
// K-qualified codes like PbKP/SbKS untouched: those name a crustal leg
// that continues through the core, not the plain crustal refraction Pg/Sg
// renames. GenerateArrivals runs it before filterTect, so every code
// filterTect would drop has already been renamed and filterTect removes
// nothing; K-qualified codes survive both.
func renameTectonic(arrivals []TTime) []TTime {
	return lo.Map(arrivals, func(a TTime, _ int) TTime {
		a.PhaseCode = replaceUnqualifiedCrustalB(a.PhaseCode, "Pb", "Pg")
		a.PhaseCode = replaceUnqualifiedCrustalB(a.PhaseCode, "Sb", "Sg")
		return a
	})
}

// replaceUnqualifiedCrustalB replaces every occurrence of tag in code with
// repl, except where tag is immediately followed by "K".
func replaceUnqualifiedCrustalB(code, tag, repl string) string {
	var b strings.Builder
	for {
		idx := strings.Index(code, tag)
		if idx < 0 {
			b.WriteString(code)
			break
		}
		b.WriteString(code[:idx])
		rest := code[idx+len(tag):]
		if strings.HasPrefix(rest, "K") {
			b.WriteString(tag)
		} else {
			b.WriteString(repl)
		}
		code = rest
	}
	return b.String()
}

// filterTect strips back-branch crustal phases in tectonic mode: no
// arrival may have a phase code containing "Pb" or "Sb" unless a K
// follows (spec.md 8).
func filterTect(arrivals []TTime) []TTime {
	return lo.Filter(arrivals, func(a TTime, _ int) bool {
		return !hasUnqualifiedCrustalB(a.PhaseCode)
	})
}

func hasUnqualifiedCrustalB(code string) bool {
	for _, tag := range []string{"Pb", "Sb"} {
		idx := strings.Index(code, tag)
		if idx < 0 {
			continue
		}
		rest := code[idx+len(tag):]
		if !strings.HasPrefix(rest, "K") {
			return true
		}
	}
	return false
}

// tapeObservability modulates the observability of later phases within
// DTOBSERV seconds of a preceding arrival by a half-cosine taper
// (spec.md 4.I step 7). It changes Observ only; CanUse and Window keep the
// values buildArrival gave them.
func tapeObservability(arrivals []TTime) []TTime {
	sort.SliceStable(arrivals, func(i, j int) bool { return arrivals[i].Tt < arrivals[j].Tt })
	for i := 1; i < len(arrivals); i++ {
		dt := arrivals[i].Tt - arrivals[i-1].Tt
		if dt >= 0 && dt < DTOBSERV {
			taper := 0.5 * (1 + math.Cos(math.Pi*dt/DTOBSERV))
			arrivals[i].Observ *= (1 - taper)
		}
	}
	return arrivals
}
