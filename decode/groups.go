package decode

import (
	"bufio"
	"fmt"
	"strings"
)

// GroupRecord is one declared line of a phase-group file: `NAME: ph1 ph2 ... -`.
type GroupRecord struct {
	Name    string
	Phases  []string
}

// ReadGroups parses a phase-group file per spec.md 6. The first five
// records are the fixed Regional/Depth/DownWeight/CanUse/Chaff groups; the
// remainder alternate primary/auxiliary pairs. Order is preserved exactly
// as declared (spec.md 9: iteration-order dependence must not be lost).
func ReadGroups(s Stream) ([]GroupRecord, error) {
	sc := bufio.NewScanner(s)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []GroupRecord
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		name, rest, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("decode: malformed group line %q", line)
		}
		fields := strings.Fields(rest)
		var phases []string
		for _, f := range fields {
			if f == "-" {
				break
			}
			phases = append(phases, f)
		}
		out = append(out, GroupRecord{Name: strings.TrimSpace(name), Phases: phases})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode: scanning group file: %w", err)
	}
	return out, nil
}
