// Package fingerprint builds the dedup keys that make repeated syncs
// idempotent.
package fingerprint

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/model"
)

const (
	accountKeyLen      = 30
	counterpartyKeyLen = 50
)

// BaseKey identifies a transaction without disambiguating identical rows.
type BaseKey struct {
	Source       string
	Account      string
	Date         string // YYYYMMDD
	Debit        string // two decimals, "0.00" when empty
	Credit       string
	Counterparty string
}

func (k BaseKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s", k.Source, k.Account, k.Date, k.Debit, k.Credit, k.Counterparty)
}

// FullKey is a BaseKey plus the occurrence index within its source.
type FullKey struct {
	BaseKey
	Seq int
}

// NewBaseKey builds a key from its parts, truncating the free-text fields.
func NewBaseKey(source, account, date string, debit, credit decimal.Decimal, counterparty string) BaseKey {
	return BaseKey{
		Source:       source,
		Account:      truncate(account, accountKeyLen),
		Date:         date,
		Debit:        debit.StringFixed(2),
		Credit:       credit.StringFixed(2),
		Counterparty: truncate(counterparty, counterpartyKeyLen),
	}
}

// AccountFunc returns the own-account number used in keys for a record.
// It lets callers substitute the configured account for the parsed one.
type AccountFunc func(model.Record) string

// RawAccount keys records by their parsed own-account number.
func RawAccount(r model.Record) string { return r.OwnAccountNumber }

// Of returns the base key of a record.
func Of(r model.Record, account AccountFunc) BaseKey {
	if account == nil {
		account = RawAccount
	}
	return NewBaseKey(r.SourceFile, account(r), r.DateKey(), r.Debit, r.Credit, r.CounterpartyName)
}

// Full returns the full key of a record, using its SequenceIndex.
func Full(r model.Record, account AccountFunc) FullKey {
	return FullKey{BaseKey: Of(r, account), Seq: r.SequenceIndex}
}

// Sequence numbers records that share a base key 0,1,2... in encounter
// order. It returns copies; the input is not modified.
func Sequence(records []model.Record, account AccountFunc) []model.Record {
	out := make([]model.Record, len(records))
	seen := make(map[BaseKey]int, len(records))
	for i, r := range records {
		k := Of(r, account)
		out[i] = r.WithSequence(seen[k])
		seen[k]++
	}
	return out
}

// truncate cuts s to at most n characters (runes, not bytes).
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
