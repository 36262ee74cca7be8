package sheets

import (
	"fmt"
	"strings"

	"gradecalc/internal/core"
)

// findKey returns the 1-based sheet row holding key and its value.
func findKey(values [][]any, key string) (row int, value string, ok bool) {
	for i, r := range values {
		cells := toStrings(r)
		if len(cells) == 0 || cells[0] != key {
			continue
		}
		if len(cells) > 1 {
			value = cells[1]
		}
		return i + 1, value, true
	}
	return 0, "", false
}

// mirrorValues renders rows as a header plus one "Sem N" line per semester.
func mirrorValues(rows []core.SemesterRow) [][]any {
	out := make([][]any, 0, len(rows)+1)
	out = append(out, []any{"Sem", "GPA", "Credit"})
	for i, r := range rows {
		out = append(out, []any{fmt.Sprintf("Sem %d", i+1), r.GPA, r.Credit})
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
