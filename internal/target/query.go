package target

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Filter selects stored rows. Empty fields match everything; dates are
// inclusive YYYYMMDD bounds.
type Filter struct {
	Source   string `form:"source"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
	Type     string `form:"type"`
	Currency string `form:"currency"`
}

// Match reports whether r passes the filter.
func (f Filter) Match(r Record) bool {
	if f.Source != "" && !strings.Contains(r.Source, f.Source) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Currency != "" && !strings.EqualFold(r.Currency, f.Currency) {
		return false
	}
	day := r.Canonical().DateKey()
	if f.DateFrom != "" && day < digits(f.DateFrom) {
		return false
	}
	if f.DateTo != "" && day > digits(f.DateTo) {
		return false
	}
	return true
}

// Apply returns the matching rows in their original order.
func (f Filter) Apply(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// Totals aggregates a group of rows.
type Totals struct {
	Count  int             `json:"count"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

func (t *Totals) add(r Record) {
	t.Count++
	t.Debit = t.Debit.Add(r.Debit)
	t.Credit = t.Credit.Add(r.Credit)
}

// Stats summarizes rows overall, per source and per type.
type Stats struct {
	Total    Totals            `json:"total"`
	BySource map[string]Totals `json:"by_source"`
	ByType   map[string]Totals `json:"by_type"`
}

// Summarize computes Stats over records.
func Summarize(records []Record) Stats {
	s := Stats{BySource: map[string]Totals{}, ByType: map[string]Totals{}}
	for _, r := range records {
		s.Total.add(r)

		src := s.BySource[r.Source]
		src.add(r)
		s.BySource[r.Source] = src

		typ := r.Type
		if typ == "" {
			typ = "(none)"
		}
		tt := s.ByType[typ]
		tt.add(r)
		s.ByType[typ] = tt
	}
	return s
}

// Sources returns the distinct sources of records, sorted.
func Sources(records []Record) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		if !seen[r.Source] {
			seen[r.Source] = true
			out = append(out, r.Source)
		}
	}
	sort.Strings(out)
	return out
}
