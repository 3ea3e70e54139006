package traveltime

import "strings"

// PhasePattern classifies a phase code against the grammar of
// spec.md 4.E's table.
type PhasePattern uint8

const (
	PatternDirect PhasePattern = iota
	PatternSurfaceReflection
	PatternSurfaceConverted
	PatternCoreReflection  // XcY
	PatternICBReflection   // XKiKY
	PatternUndersideCMB    // XK...KY
	PatternCoreConversion  // XKY
	PatternUnknown
)

// ClassifyPhaseCode determines which branch-construction rule applies to
// a phase code, per the grammar table in spec.md 4.E.
func ClassifyPhaseCode(code string) PhasePattern {
	switch {
	case code == "P" || code == "S":
		return PatternDirect
	case strings.Contains(code, "KiK"):
		return PatternICBReflection
	case strings.Contains(code, "c"):
		return PatternCoreReflection
	case strings.Count(code, "K") >= 2 && !strings.Contains(code, "KiK"):
		return PatternUndersideCMB
	case strings.Contains(code, "K"):
		return PatternCoreConversion
	case isSurfaceReflection(code):
		return PatternSurfaceReflection
	case isSurfaceConverted(code):
		return PatternSurfaceConverted
	default:
		return PatternUnknown
	}
}

// isSurfaceReflection matches xY patterns with any x in {p,s} and Y in
// {P,S} (pP, sP, pS, sS) and the same-type XY patterns PP, SS.
func isSurfaceReflection(code string) bool {
	if len(code) != 2 {
		return false
	}
	a, b := code[0], code[1]
	if a == 'p' || a == 's' {
		return b == 'P' || b == 'S'
	}
	upA, upB := toUpperType(a), toUpperType(b)
	return upA == upB
}

// isSurfaceConverted matches mixed same-length-2 codes: SP, PS.
func isSurfaceConverted(code string) bool {
	if len(code) != 2 {
		return false
	}
	a, b := code[0], code[1]
	return (a == 'P' || a == 'S') && (b == 'P' || b == 'S') && a != b
}

func toUpperType(c byte) byte {
	if c == 'p' {
		return 'P'
	}
	if c == 's' {
		return 'S'
	}
	return c
}

// legShellCounts returns the (mantle, outerCore, innerCore) shell-crossing
// counts implied by the phase-code grammar table for the given pattern
// and code.
func legShellCounts(pattern PhasePattern, code string) ShellCounts {
	switch pattern {
	case PatternDirect:
		return ShellCounts{Mantle: 1, OuterCore: 1, InnerCore: 1}
	case PatternSurfaceReflection:
		return ShellCounts{Mantle: 2, OuterCore: 2, InnerCore: 2}
	case PatternSurfaceConverted:
		return ShellCounts{Mantle: 1, OuterCore: 0, InnerCore: 0}
	case PatternCoreReflection:
		return ShellCounts{Mantle: 1, OuterCore: 0, InnerCore: 0}
	case PatternICBReflection:
		return ShellCounts{Mantle: 1, OuterCore: 1, InnerCore: 0}
	case PatternUndersideCMB:
		return ShellCounts{Mantle: 1, OuterCore: strings.Count(code, "K"), InnerCore: 0}
	case PatternCoreConversion:
		return ShellCounts{Mantle: 1, OuterCore: 1, InnerCore: 1}
	default:
		return ShellCounts{}
	}
}

// legTypeOf maps a phase-code letter (p/P/s/S) to its WaveType; any other
// byte (c, i, K, digits) defaults to WaveP, since the only legs that ever
// carry S energy are named with an explicit p/P/s/S letter.
func legTypeOf(c byte) WaveType {
	if c == 's' || c == 'S' {
		return WaveS
	}
	return WaveP
}

// legTypeSeg derives a branch's [up, down, return] leg types from the
// phase-code grammar of spec.md 4.E: a lowercase prefix names a genuine
// initial up-going leg, with the following letter giving the down-going
// leg that follows the free-surface bounce near the source; otherwise the
// code starts down-going and "up" mirrors "down" (there is no distinct
// initial leg to report). "return" is always the final letter's type,
// i.e. the leg arriving at the receiver.
func legTypeSeg(code string) [3]WaveType {
	if len(code) == 0 {
		return [3]WaveType{}
	}
	var up, down WaveType
	first := code[0]
	if first == 'p' || first == 's' {
		up = legTypeOf(first)
		if len(code) > 1 {
			down = legTypeOf(code[1])
		} else {
			down = up
		}
	} else {
		down = legTypeOf(first)
		up = down
	}
	ret := legTypeOf(code[len(code)-1])
	return [3]WaveType{up, down, ret}
}

// refinePhaseCode appends triplication-ending suffixes (ab/bc/df) for PKP
// branches, per spec.md 4.E, and changes nothing else; the bc->ab remap
// for SP codes is done separately by remapTriplicationSuffix.
func refinePhaseCode(base string, pMin, pMax, pCMB, pICB float64) string {
	if !strings.Contains(base, "PKP") {
		return base
	}
	switch {
	case pMax <= pICB:
		return base + "df"
	case pMin >= pICB && pMax <= pCMB:
		return base + "bc"
	default:
		return base + "ab"
	}
}

// remapTriplicationSuffix implements the documented heuristic
// substitution bc -> ab for SP+S' triplication endings (spec.md 9, Open
// Questions: flagged as heuristic, kept as specified pending
// confirmation against a reference model).
func remapTriplicationSuffix(code string) string {
	if strings.HasSuffix(code, "bc") && strings.Contains(code, "SP") {
		return strings.TrimSuffix(code, "bc") + "ab"
	}
	return code
}
