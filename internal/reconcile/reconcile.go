// Package reconcile compares freshly parsed source records with the rows
// already in the target table.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/company"
	"github.com/cleared-dev/bankflow/internal/fingerprint"
	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/target"
)

// Tolerance bounds the allowed drift between summed amounts.
var Tolerance = decimal.RequireFromString("0.01")

// TargetRecord is a stored target row.
type TargetRecord = target.Record

// Severity grades a field difference. SeverityNormal differences are
// expected and never fail a pair.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
	SeverityNormal Severity = "normal"
)

// Compared fields.
const (
	FieldCurrency            = "currency"
	FieldOwnAccountNumber    = "own_account_number"
	FieldOwnAccountName      = "own_account_name"
	FieldCounterpartyName    = "counterparty_name"
	FieldCounterpartyAccount = "counterparty_account"
	FieldDate                = "date"
	FieldDebit               = "debit"
	FieldCredit              = "credit"
	FieldSummary             = "summary"
	FieldMemo                = "memo"
	FieldReference           = "reference"
	FieldType                = "type"
	FieldSource              = "source"
)

// Difference is one field that disagrees between a paired source and target.
type Difference struct {
	Field    string   `json:"field"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Severity Severity `json:"severity"`
}

// Mismatch is a paired source/target with at least one real difference.
type Mismatch struct {
	SourceFile  string       `json:"source_file"`
	Source      model.Record `json:"-"`
	TargetID    string       `json:"target_id"`
	Differences []Difference `json:"differences"`
}

// TypeUpdate records a matched pair whose type was reclassified.
type TypeUpdate struct {
	TargetID   string `json:"target_id"`
	Source     string `json:"source"`
	Account    string `json:"account"`
	Date       string `json:"date"`
	SourceType string `json:"source_type"`
	TargetType string `json:"target_type"`
}

// DuplicateGroup is a base key held by more than one target row.
type DuplicateGroup struct {
	Key       fingerprint.BaseKey `json:"key"`
	RecordIDs []string            `json:"record_ids"`
}

// FileStats aggregates one source file.
type FileStats struct {
	Records    int             `json:"records"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Matched    int             `json:"matched"`
	Mismatched int             `json:"mismatched"`
}

// Result is the outcome of one validation pass.
type Result struct {
	TotalSource int `json:"total_source"`
	TotalTarget int `json:"total_target"`
	Matched     int `json:"matched"`
	Mismatched  int `json:"mismatched"`
	SourceOnly  int `json:"source_only"`
	TargetOnly  int `json:"target_only"`

	SourceDebit  decimal.Decimal `json:"source_debit"`
	SourceCredit decimal.Decimal `json:"source_credit"`
	TargetDebit  decimal.Decimal `json:"target_debit"`
	TargetCredit decimal.Decimal `json:"target_credit"`

	Differences     []Mismatch           `json:"differences"`
	TypeUpdates     []TypeUpdate         `json:"type_updates"`
	DuplicateGroups []DuplicateGroup     `json:"duplicate_groups"`
	DuplicateCount  int                  `json:"duplicate_count"`
	FileStats       map[string]FileStats `json:"file_stats"`
	DateRange       string               `json:"date_range"`

	IsValid bool     `json:"is_valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// RemovableIDs returns every duplicate target ID except the first of each
// group.
func (r *Result) RemovableIDs() []string {
	var ids []string
	for _, g := range r.DuplicateGroups {
		if len(g.RecordIDs) > 1 {
			ids = append(ids, g.RecordIDs[1:]...)
		}
	}
	return ids
}

// group keeps insertion order of keys.
type group[T any] struct {
	order []fingerprint.BaseKey
	items map[fingerprint.BaseKey][]T
}

func newGroup[T any]() *group[T] {
	return &group[T]{items: map[fingerprint.BaseKey][]T{}}
}

func (g *group[T]) add(k fingerprint.BaseKey, v T) {
	if _, ok := g.items[k]; !ok {
		g.order = append(g.order, k)
	}
	g.items[k] = append(g.items[k], v)
}

// Validate reconciles source records against target rows. Only the record
// count and the debit and credit totals decide IsValid; everything else is
// diagnostic.
func Validate(source []model.Record, targets []TargetRecord, profile company.Lookup) *Result {
	res := &Result{
		TotalSource: len(source),
		TotalTarget: len(targets),
		FileStats:   map[string]FileStats{},
	}
	if profile == nil {
		profile = company.NewProfile(nil)
	}

	accountFor := func(r model.Record) string {
		e, _ := profile.Expected(r)
		return e.Account
	}

	src := newGroup[model.Record]()
	for _, r := range source {
		src.add(fingerprint.Of(r, accountFor), r)
	}
	tgt := newGroup[TargetRecord]()
	for _, t := range targets {
		tgt.add(t.BaseKey(), t)
	}

	res.DuplicateGroups = duplicateGroups(tgt)
	for _, g := range res.DuplicateGroups {
		res.DuplicateCount += len(g.RecordIDs) - 1
	}

	for _, k := range src.order {
		srcRecs := src.items[k]
		tgtRecs := tgt.items[k]
		for i, s := range srcRecs {
			st := res.FileStats[s.SourceFile]
			st.Records++
			st.Debit = st.Debit.Add(s.Debit)
			st.Credit = st.Credit.Add(s.Credit)

			if i >= len(tgtRecs) {
				res.SourceOnly++
				res.FileStats[s.SourceFile] = st
				continue
			}
			t := tgtRecs[i]
			diffs := Compare(s, t, profile)
			if matches(diffs) {
				res.Matched++
				st.Matched++
				for _, d := range diffs {
					if d.Severity == SeverityNormal {
						res.TypeUpdates = append(res.TypeUpdates, TypeUpdate{
							TargetID:   t.ID,
							Source:     s.SourceFile,
							Account:    s.OwnAccountNumber,
							Date:       s.DateKey(),
							SourceType: d.Source,
							TargetType: d.Target,
						})
					}
				}
			} else {
				res.Mismatched++
				st.Mismatched++
				res.Differences = append(res.Differences, Mismatch{
					SourceFile:  s.SourceFile,
					Source:      s,
					TargetID:    t.ID,
					Differences: diffs,
				})
			}
			res.FileStats[s.SourceFile] = st
		}
	}
	for _, k := range tgt.order {
		if extra := len(tgt.items[k]) - len(src.items[k]); extra > 0 {
			res.TargetOnly += extra
		}
	}

	for _, r := range source {
		res.SourceDebit = res.SourceDebit.Add(r.Debit)
		res.SourceCredit = res.SourceCredit.Add(r.Credit)
	}
	for _, t := range targets {
		res.TargetDebit = res.TargetDebit.Add(t.Debit)
		res.TargetCredit = res.TargetCredit.Add(t.Credit)
	}

	res.Reasons = reasons(res)
	res.IsValid = len(res.Reasons) == 0
	res.DateRange = DateRange(source)
	return res
}

func reasons(r *Result) []string {
	var out []string
	if r.TotalSource != r.TotalTarget {
		out = append(out, fmt.Sprintf("record count mismatch: source %d, target %d", r.TotalSource, r.TotalTarget))
	}
	if r.SourceDebit.Sub(r.TargetDebit).Abs().GreaterThanOrEqual(Tolerance) {
		out = append(out, fmt.Sprintf("debit total mismatch: source %s, target %s",
			r.SourceDebit.StringFixed(2), r.TargetDebit.StringFixed(2)))
	}
	if r.SourceCredit.Sub(r.TargetCredit).Abs().GreaterThanOrEqual(Tolerance) {
		out = append(out, fmt.Sprintf("credit total mismatch: source %s, target %s",
			r.SourceCredit.StringFixed(2), r.TargetCredit.StringFixed(2)))
	}
	return out
}

func duplicateGroups(tgt *group[TargetRecord]) []DuplicateGroup {
	var out []DuplicateGroup
	for _, k := range tgt.order {
		recs := tgt.items[k]
		if len(recs) < 2 {
			continue
		}
		ids := make([]string, len(recs))
		for i, r := range recs {
			ids[i] = r.ID
		}
		out = append(out, DuplicateGroup{Key: k, RecordIDs: ids})
	}
	return out
}

func matches(diffs []Difference) bool {
	for _, d := range diffs {
		if d.Severity != SeverityNormal {
			return false
		}
	}
	return true
}

// DateRange formats the min and max source dates as
// "YYYY-MM-DD ~ YYYY-MM-DD", or "-" when there are none.
func DateRange(records []model.Record) string {
	var lo, hi string
	for _, r := range records {
		d := r.DateKey()
		if len(d) != 8 {
			continue
		}
		if lo == "" || d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if lo == "" {
		return "-"
	}
	return dashed(lo) + " ~ " + dashed(hi)
}

func dashed(d string) string {
	return d[:4] + "-" + d[4:6] + "-" + d[6:8]
}

// SourceDuplicate is a base key repeated inside the source set.
type SourceDuplicate struct {
	Key     fingerprint.BaseKey `json:"key"`
	Count   int                 `json:"count"`
	Records []model.Record      `json:"-"`
}

// SourceDuplicates groups source records by base key and returns groups
// with more than one member, in encounter order.
func SourceDuplicates(records []model.Record, account fingerprint.AccountFunc) []SourceDuplicate {
	g := newGroup[model.Record]()
	for _, r := range records {
		g.add(fingerprint.Of(r, account), r)
	}
	var out []SourceDuplicate
	for _, k := range g.order {
		if recs := g.items[k]; len(recs) > 1 {
			out = append(out, SourceDuplicate{Key: k, Count: len(recs), Records: recs})
		}
	}
	return out
}

// normalizeCurrency folds currency spellings for comparison.
func normalizeCurrency(v string) string {
	s := strings.ReplaceAll(strings.ToUpper(v), " ", "")
	switch {
	case strings.Contains(s, "USD"), strings.Contains(s, "美元"), strings.Contains(s, "DOLLAR"):
		return "USD"
	case strings.Contains(s, "CNY"), strings.Contains(s, "RMB"), strings.Contains(s, "人民币"), strings.Contains(s, "元"):
		return "RMB"
	}
	return s
}
