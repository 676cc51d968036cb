package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the settlement currency of a record.
type Currency string

const (
	CurrencyRMB Currency = "RMB"
	CurrencyUSD Currency = "USD"
)

// NormalizeCurrency maps free-form currency text to RMB or USD.
// Anything that does not mention a dollar currency is RMB.
func NormalizeCurrency(s string) Currency {
	u := strings.ToUpper(strings.TrimSpace(s))
	if strings.Contains(u, "USD") || strings.Contains(u, "美元") || strings.Contains(u, "DOLLAR") {
		return CurrencyUSD
	}
	return CurrencyRMB
}

// DateKeyFormat is the canonical YYYYMMDD form of a transaction date.
const DateKeyFormat = "20060102"

// Record is one canonical bank transaction produced by a format parser.
// Records are values; WithSequence and WithType return modified copies.
type Record struct {
	SourceFile          string
	OwnAccountNumber    string
	OwnAccountName      string
	Date                time.Time       // UTC midnight
	Debit               decimal.Decimal // zero if credit side
	Credit              decimal.Decimal // zero if debit side
	Currency            Currency
	CounterpartyName    string
	CounterpartyAccount string
	Summary             string
	Memo                string
	Reference           string
	Type                string
	SequenceIndex       int
}

// DateKey returns the date as YYYYMMDD, or "" for a zero date.
func (r Record) DateKey() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(DateKeyFormat)
}

// IsExpense reports whether money left the account.
func (r Record) IsExpense() bool {
	return r.Debit.IsPositive()
}

// DebitString renders the debit with two decimals, or "" when empty.
func (r Record) DebitString() string {
	return amountString(r.Debit)
}

// CreditString renders the credit with two decimals, or "" when empty.
func (r Record) CreditString() string {
	return amountString(r.Credit)
}

// Valid reports whether exactly one side carries an amount and a date is set.
func (r Record) Valid() bool {
	if r.Date.IsZero() {
		return false
	}
	return r.Debit.IsPositive() != r.Credit.IsPositive()
}

// WithSequence returns a copy with SequenceIndex set.
func (r Record) WithSequence(i int) Record {
	r.SequenceIndex = i
	return r
}

// WithType returns a copy with Type set.
func (r Record) WithType(t string) Record {
	r.Type = t
	return r
}

// Prefix returns the source prefix of the record's originating file.
func (r Record) Prefix() string {
	return SourcePrefix(r.SourceFile)
}

func amountString(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// NewDate builds a UTC midnight date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDateKey parses a YYYYMMDD string.
func ParseDateKey(s string) (time.Time, error) {
	return time.ParseInLocation(DateKeyFormat, s, time.UTC)
}
