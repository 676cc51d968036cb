package reconcile

import (
	"strings"

	"github.com/cleared-dev/bankflow/internal/company"
	"github.com/cleared-dev/bankflow/internal/model"
)

// Compare checks the thirteen reconciled fields of a source record against
// its paired target row. Owner identity is checked against the profile, not
// against the parsed source.
func Compare(s model.Record, t TargetRecord, profile company.Lookup) []Difference {
	var diffs []Difference
	add := func(field, src, tgt string, sev Severity) {
		diffs = append(diffs, Difference{Field: field, Source: src, Target: tgt, Severity: sev})
	}
	tc := t.Canonical()

	srcCcy, tgtCcy := strings.TrimSpace(string(s.Currency)), strings.TrimSpace(t.Currency)
	if normalizeCurrency(srcCcy) != normalizeCurrency(tgtCcy) {
		sev := SeverityMedium
		if strings.Contains(s.SourceFile, "OCBC") || strings.Contains(s.SourceFile, "USD") {
			sev = SeverityHigh
		}
		add(FieldCurrency, srcCcy, tgtCcy, sev)
	}

	if expected, ok := profile.Expected(s); ok {
		if got := strings.TrimSpace(tc.OwnAccountNumber); expected.Account != "" && expected.Account != got {
			add(FieldOwnAccountNumber, expected.Account, got, SeverityHigh)
		}
		if got := strings.TrimSpace(tc.OwnAccountName); expected.Name != "" && expected.Name != got {
			add(FieldOwnAccountName, expected.Name, got, SeverityMedium)
		}
	}

	same := func(field, src, tgt string, sev Severity) {
		src, tgt = strings.TrimSpace(src), strings.TrimSpace(tgt)
		if src != tgt {
			add(field, src, tgt, sev)
		}
	}
	same(FieldCounterpartyName, s.CounterpartyName, t.Counterparty, SeverityMedium)
	same(FieldCounterpartyAccount, s.CounterpartyAccount, t.CounterpartyAccount, SeverityLow)
	same(FieldDate, s.DateKey(), tc.DateKey(), SeverityHigh)
	same(FieldDebit, s.DebitString(), tc.DebitString(), SeverityHigh)
	same(FieldCredit, s.CreditString(), tc.CreditString(), SeverityHigh)

	if sum := strings.TrimSpace(s.Summary); sum != "" && !strings.Contains(t.Summary, sum) {
		add(FieldSummary, truncate(sum, 50), truncate(strings.TrimSpace(t.Summary), 50), SeverityLow)
	}
	if src, tgt := strings.TrimSpace(s.Memo), strings.TrimSpace(t.Memo); src != tgt {
		add(FieldMemo, truncate(src, 50), truncate(tgt, 50), SeverityLow)
	}
	same(FieldReference, s.Reference, t.Reference, SeverityMedium)
	same(FieldType, s.Type, t.Type, SeverityNormal)
	same(FieldSource, s.SourceFile, t.Source, SeverityHigh)
	return diffs
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
