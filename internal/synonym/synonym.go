// Package synonym resolves semantic fields against arbitrary export headers.
package synonym

import "strings"

// Cell is one labelled value of a data row.
type Cell struct {
	Label string
	Value string
}

// Row is a data row with its header labels, in column order.
type Row []Cell

// NewRow pairs header labels with cell values. Missing cells are empty;
// surplus cells are dropped.
func NewRow(headers, cells []string) Row {
	row := make(Row, 0, len(headers))
	for i, h := range headers {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		row = append(row, Cell{Label: h, Value: v})
	}
	return row
}

// Get returns the value for an exact (normalized) label.
func (r Row) Get(label string) string {
	want := normalize(label)
	for _, c := range r {
		if normalize(c.Label) == want {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

const labelCutset = " \t\r\n\"'　"

func normalize(s string) string {
	return strings.Trim(s, labelCutset)
}

// Resolve returns the value of the first candidate label found in row.
// Each candidate is tried as an exact label, then as a substring of a label,
// before moving to the next candidate. Empty values and values starting with
// "[" never match. Returns "" when nothing matches.
func Resolve(row Row, candidates []string) string {
	type entry struct {
		label string
		value string
	}
	norm := make([]entry, 0, len(row))
	seen := make(map[string]bool, len(row))
	for _, c := range row {
		k := normalize(c.Label)
		if seen[k] {
			continue
		}
		seen[k] = true
		norm = append(norm, entry{label: k, value: strings.TrimSpace(c.Value)})
	}

	usable := func(v string) bool {
		return v != "" && !strings.HasPrefix(v, "[")
	}

	for _, cand := range candidates {
		c := normalize(cand)
		if c == "" {
			continue
		}
		for _, e := range norm {
			if e.label == c && usable(e.value) {
				return e.value
			}
		}
		for _, e := range norm {
			if strings.Contains(e.label, c) && usable(e.value) {
				return e.value
			}
		}
	}
	return ""
}
