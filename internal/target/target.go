// Package target maps canonical records to and from the rows of the
// destination table.
package target

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/company"
	"github.com/cleared-dev/bankflow/internal/fingerprint"
	"github.com/cleared-dev/bankflow/internal/model"
)

// SummarySep joins counterparty and summary in the table's summary column.
const SummarySep = " | "

// Fields is one row of the destination table, keyed by its column names.
type Fields struct {
	OwnAccountName      string          `json:"我方账户"`
	OwnAccount          string          `json:"我方账号"`
	Counterparty        string          `json:"对方账户"`
	CounterpartyAccount string          `json:"对方账号"`
	Type                string          `json:"类型"`
	Currency            string          `json:"货币"`
	Debit               decimal.Decimal `json:"支出"`
	Credit              decimal.Decimal `json:"收入"`
	Summary             string          `json:"摘要"`
	Memo                string          `json:"备注"`
	Source              string          `json:"来源"`
	Reference           string          `json:"交易流水号,omitempty"`
	DateMillis          int64           `json:"交易日期"`

	// Legacy aliases of OwnAccountName/OwnAccount kept for older views.
	LegacyAccountName string `json:"账户"`
	LegacyAccount     string `json:"账号"`
}

// Record is a stored row with its table-assigned ID.
type Record struct {
	ID string `json:"record_id"`
	Fields
}

// ToFields maps a classified record and its expected owner identity to a
// table row.
func ToFields(r model.Record, owner company.Entry) Fields {
	return Fields{
		OwnAccountName:      owner.Name,
		OwnAccount:          owner.Account,
		Counterparty:        r.CounterpartyName,
		CounterpartyAccount: r.CounterpartyAccount,
		Type:                r.Type,
		Currency:            string(model.NormalizeCurrency(string(r.Currency))),
		Debit:               r.Debit,
		Credit:              r.Credit,
		Summary:             JoinSummary(r.CounterpartyName, r.Summary),
		Memo:                r.Memo,
		Source:              r.SourceFile,
		Reference:           strings.TrimSpace(r.Reference),
		DateMillis:          DateToMillis(r.Date),
		LegacyAccountName:   owner.Name,
		LegacyAccount:       owner.Account,
	}
}

// JoinSummary builds the table summary "counterparty | summary".
func JoinSummary(counterparty, summary string) string {
	if summary == "" {
		return strings.TrimSpace(counterparty)
	}
	return strings.TrimSpace(counterparty + SummarySep + summary)
}

// SplitSummary returns the bank summary part of a table summary.
func SplitSummary(s string) string {
	if i := strings.Index(s, SummarySep); i >= 0 {
		return strings.TrimSpace(s[i+len(SummarySep):])
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "|"))
}

// DateToMillis returns epoch milliseconds of local midnight on d's date.
func DateToMillis(d time.Time) int64 {
	if d.IsZero() {
		return 0
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local).UnixMilli()
}

// MillisToDate converts a stored timestamp back to a UTC midnight date.
func MillisToDate(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	t := time.UnixMilli(ms).In(time.Local)
	return model.NewDate(t.Year(), t.Month(), t.Day())
}

// OwnAccountNumber returns the owner account, falling back to the legacy
// alias.
func (f Fields) OwnAccountNumber() string {
	if f.OwnAccount != "" {
		return f.OwnAccount
	}
	return f.LegacyAccount
}

// Canonical re-expresses a stored row as a canonical record. The summary
// keeps its "counterparty | summary" form.
func (f Fields) Canonical() model.Record {
	name := f.OwnAccountName
	if name == "" {
		name = f.LegacyAccountName
	}
	return model.Record{
		SourceFile:          f.Source,
		OwnAccountNumber:    f.OwnAccountNumber(),
		OwnAccountName:      name,
		Date:                MillisToDate(f.DateMillis),
		Debit:               f.Debit,
		Credit:              f.Credit,
		Currency:            model.Currency(f.Currency),
		CounterpartyName:    f.Counterparty,
		CounterpartyAccount: f.CounterpartyAccount,
		Summary:             f.Summary,
		Memo:                f.Memo,
		Reference:           f.Reference,
		Type:                f.Type,
	}
}

// keyAccount is the account used in dedup keys. The legacy alias wins so
// rows written before the owner columns existed keep their keys.
func (f Fields) keyAccount() string {
	if f.LegacyAccount != "" {
		return f.LegacyAccount
	}
	return f.OwnAccount
}

// BaseKey is the dedup key of a stored row.
func (f Fields) BaseKey() fingerprint.BaseKey {
	return fingerprint.NewBaseKey(f.Source, f.keyAccount(), f.Canonical().DateKey(), f.Debit, f.Credit, f.Counterparty)
}

// ExistingKeys numbers the base keys of rows in the order given.
func ExistingKeys(records []Record) fingerprint.KeySet {
	keys := make([]fingerprint.BaseKey, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.BaseKey())
	}
	return fingerprint.KeySetFromBase(keys)
}

// ParseDateField reads a stored date given either as epoch milliseconds or
// as a string whose leading digits are YYYYMMDD.
func ParseDateField(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	d := digits(s)
	if len(d) == 8 {
		if t, err := model.ParseDateKey(d); err == nil {
			return DateToMillis(t)
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms
	}
	if len(d) >= 8 {
		if t, err := model.ParseDateKey(d[:8]); err == nil {
			return DateToMillis(t)
		}
	}
	return 0
}
