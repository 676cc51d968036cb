package importer

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/synonym"
)

// StandardParser reads header-plus-rows exports (CSV, xls, xlsx) whose
// columns are found by synonym.
type StandardParser struct {
	fields synonym.FieldMap
}

// Format returns FormatStandard.
func (p *StandardParser) Format() Format { return FormatStandard }

// Parse locates the header row and converts each data row.
func (p *StandardParser) Parse(name string, rows [][]string) Result {
	return parseTabular(FormatStandard, name, rows, tabular{
		fields: p.fields,
		label:  func(s string) string { return s },
		amount: func(s string) string { return s },
	})
}

// tabular holds the knobs that differ between header-based layouts.
type tabular struct {
	fields synonym.FieldMap
	label  func(string) string
	amount func(string) string
}

func parseTabular(f Format, name string, rows [][]string, t tabular) Result {
	if len(rows) < 2 {
		return empty(f, "fewer than two rows")
	}
	hdrIdx, headers := findHeader(rows)
	for i, h := range headers {
		headers[i] = t.label(h)
	}
	fileCcy, hasFileCcy := fileCurrency(rows)

	res := Result{Format: f}
	for _, cells := range rows[hdrIdx+1:] {
		res.Rows++
		row := synonym.NewRow(headers, cells)

		date, ok := NormalizeDate(t.fields.Lookup(row, synonym.FieldDate))
		if !ok {
			continue
		}
		debit, credit, ok := rowAmounts(row, t)
		if !ok {
			continue
		}

		ccy := model.CurrencyRMB
		if v := t.fields.Lookup(row, synonym.FieldCurrency); v != "" {
			ccy = model.NormalizeCurrency(v)
		} else if hasFileCcy {
			ccy = fileCcy
		}

		rec := model.Record{
			SourceFile:          name,
			OwnAccountNumber:    t.fields.Lookup(row, synonym.FieldAccount),
			OwnAccountName:      t.fields.Lookup(row, synonym.FieldAccountName),
			Date:                date,
			Debit:               debit,
			Credit:              credit,
			Currency:            ccy,
			CounterpartyName:    t.fields.Lookup(row, synonym.FieldCounterparty),
			CounterpartyAccount: t.fields.Lookup(row, synonym.FieldCounterpartyAccount),
			Summary:             t.fields.Lookup(row, synonym.FieldSummary),
			Memo:                t.fields.Lookup(row, synonym.FieldMemo),
			Reference:           t.fields.Lookup(row, synonym.FieldReference),
		}
		if !rec.Valid() {
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// rowAmounts reads the debit/credit columns, falling back to a single signed
// amount column. ok is false when the row carries no usable amount.
func rowAmounts(row synonym.Row, t tabular) (decimal.Decimal, decimal.Decimal, bool) {
	debit, _ := parseAmount(t.amount(t.fields.Lookup(row, synonym.FieldDebit)))
	credit, _ := parseAmount(t.amount(t.fields.Lookup(row, synonym.FieldCredit)))
	debit, credit = debit.Abs(), credit.Abs()

	if debit.IsZero() && credit.IsZero() {
		n, ok := parseAmount(t.amount(t.fields.Lookup(row, synonym.FieldAmount)))
		if !ok || n.IsZero() {
			return decimal.Zero, decimal.Zero, false
		}
		debit, credit = splitSigned(n)
	}
	return debit, credit, true
}
