package decode

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// StatRow is one parsed data row of a statistics file: `Δ res [*] spd [*] obs [*]`,
// where a `*` after a field's value marks this row as the last row of a
// linear-fit segment for that field; the next segment begins at the
// following row (spec.md 6).
type StatRow struct {
	Delta                    float64
	Res, Spd, Obs            float64
	ResBreak, SpdBreak, ObsBreak bool
}

// StatBlock is one phase's full statistics record: header plus rows.
type StatBlock struct {
	Phase          string
	DeltaMin, DeltaMax float64
	Rows           []StatRow
}

// ReadStats parses a statistics file per spec.md 6: repeated blocks, each a
// `<phaseCode> Δmin Δmax` header followed by data rows until the next
// header (recognised by its three-field, phase-code-leading shape).
func ReadStats(s Stream) ([]StatBlock, error) {
	sc := bufio.NewScanner(s)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var blocks []StatBlock
	var cur *StatBlock
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if isStatHeader(fields) {
			if cur != nil {
				blocks = append(blocks, *cur)
			}
			dmin, err1 := strconv.ParseFloat(fields[1], 64)
			dmax, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("decode: malformed stats header %q", line)
			}
			cur = &StatBlock{Phase: fields[0], DeltaMin: dmin, DeltaMax: dmax}
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("decode: stats row before header %q", line)
		}
		row, err := parseStatRow(fields)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		cur.Rows = append(cur.Rows, row)
	}
	if cur != nil {
		blocks = append(blocks, *cur)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode: scanning stats file: %w", err)
	}
	return blocks, nil
}

// isStatHeader distinguishes a phase header (name + two numbers) from a
// data row (delta + three break-annotated values) by field count and the
// non-numeric first token.
func isStatHeader(fields []string) bool {
	if len(fields) != 3 {
		return false
	}
	if _, err := strconv.ParseFloat(fields[0], 64); err == nil {
		return false
	}
	_, err1 := strconv.ParseFloat(fields[1], 64)
	_, err2 := strconv.ParseFloat(fields[2], 64)
	return err1 == nil && err2 == nil
}

func parseStatRow(fields []string) (StatRow, error) {
	var row StatRow
	if len(fields) < 4 {
		return row, fmt.Errorf("malformed stats row, want >= 4 fields, got %d", len(fields))
	}
	idx := 0
	val, err := strconv.ParseFloat(fields[idx], 64)
	if err != nil {
		return row, err
	}
	row.Delta = val
	idx++

	readValue := func() (float64, bool, error) {
		if idx >= len(fields) {
			return 0, false, fmt.Errorf("truncated stats row")
		}
		v, err := strconv.ParseFloat(fields[idx], 64)
		idx++
		brk := false
		if idx < len(fields) && fields[idx] == "*" {
			brk = true
			idx++
		}
		return v, brk, err
	}

	if row.Res, row.ResBreak, err = readValue(); err != nil {
		return row, err
	}
	if row.Spd, row.SpdBreak, err = readValue(); err != nil {
		return row, err
	}
	if row.Obs, row.ObsBreak, err = readValue(); err != nil {
		return row, err
	}
	return row, nil
}
