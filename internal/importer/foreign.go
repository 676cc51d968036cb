package importer

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/synonym"
)

// ForeignAConfig configures the dollar-account export of the first foreign
// bank: a titled sheet whose header sits on a fixed row.
type ForeignAConfig struct {
	HeaderRow      int      `yaml:"header_row"`
	DateLabels     []string `yaml:"date_labels"`
	DebitLabels    []string `yaml:"debit_labels"`
	CreditLabels   []string `yaml:"credit_labels"`
	DefaultAccount string   `yaml:"default_account"`
}

// DefaultForeignAConfig returns the layout of the OCBC sheet export.
func DefaultForeignAConfig() ForeignAConfig {
	return ForeignAConfig{
		HeaderRow:      2,
		DateLabels:     []string{"交易日期", "记账日期", "日期"},
		DebitLabels:    []string{"支出"},
		CreditLabels:   []string{"收入"},
		DefaultAccount: "NRA7300079913",
	}
}

// ForeignAParser reads the OCBC sheet layout. Every record is in USD.
type ForeignAParser struct {
	fields synonym.FieldMap
	cfg    ForeignAConfig
}

// Format returns FormatForeignBankA.
func (p *ForeignAParser) Format() Format { return FormatForeignBankA }

// Parse reads data rows below the fixed header row.
func (p *ForeignAParser) Parse(name string, rows [][]string) Result {
	if len(rows) < p.cfg.HeaderRow+2 {
		return empty(FormatForeignBankA, "too few rows for header layout")
	}
	headers := headerLabels(rows[p.cfg.HeaderRow])

	res := Result{Format: FormatForeignBankA}
	for _, cells := range rows[p.cfg.HeaderRow+1:] {
		res.Rows++
		row := synonym.NewRow(headers, cells)

		date, ok := NormalizeDate(synonym.Resolve(row, p.cfg.DateLabels))
		if !ok {
			continue
		}
		debit, dok := optionalAmount(synonym.Resolve(row, p.cfg.DebitLabels))
		credit, cok := optionalAmount(synonym.Resolve(row, p.cfg.CreditLabels))
		if !dok || !cok {
			continue
		}

		account := p.fields.Lookup(row, synonym.FieldAccount)
		if account == "" {
			account = p.cfg.DefaultAccount
		}
		rec := model.Record{
			SourceFile:          name,
			OwnAccountNumber:    account,
			OwnAccountName:      p.fields.Lookup(row, synonym.FieldAccountName),
			Date:                date,
			Debit:               debit.Abs(),
			Credit:              credit.Abs(),
			Currency:            model.CurrencyUSD,
			CounterpartyName:    p.fields.Lookup(row, synonym.FieldCounterparty),
			CounterpartyAccount: p.fields.Lookup(row, synonym.FieldCounterpartyAccount),
			Summary:             p.fields.Lookup(row, synonym.FieldSummary),
			Memo:                p.fields.Lookup(row, synonym.FieldMemo),
		}
		if !rec.Valid() {
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// ForeignBConfig configures the positional export of the second foreign bank.
type ForeignBConfig struct {
	HeaderRow    int    `yaml:"header_row"`
	AmountCol    int    `yaml:"amount_col"`
	DateCols     []int  `yaml:"date_cols"`
	Counterparty int    `yaml:"counterparty_col"`
	SummaryCol   int    `yaml:"summary_col"`
	Account      string `yaml:"account"`
	AccountName  string `yaml:"account_name"`
}

// DefaultForeignBConfig returns the layout of the VTB sheet export.
func DefaultForeignBConfig() ForeignBConfig {
	return ForeignBConfig{
		HeaderRow:    3,
		AmountCol:    9,
		DateCols:     []int{0, 11},
		Counterparty: 6,
		SummaryCol:   12,
		Account:      "40807156000610031039",
		AccountName:  "青岛瑞拓思进出口有限公司",
	}
}

// ForeignBParser reads the VTB sheet layout: one signed amount column,
// positive for money in. The owner identity is fixed.
type ForeignBParser struct {
	cfg ForeignBConfig
}

// Format returns FormatForeignBankB.
func (p *ForeignBParser) Format() Format { return FormatForeignBankB }

// Parse reads data rows below the fixed header row.
func (p *ForeignBParser) Parse(name string, rows [][]string) Result {
	if len(rows) < p.cfg.HeaderRow+2 {
		return empty(FormatForeignBankB, "too few rows for header layout")
	}

	res := Result{Format: FormatForeignBankB}
	for _, row := range rows[p.cfg.HeaderRow+1:] {
		if blankRow(row, 15) {
			continue
		}
		res.Rows++

		amt, ok := parseAmount(cell(row, p.cfg.AmountCol))
		if !ok || amt.IsZero() {
			continue
		}
		var date time.Time
		found := false
		for _, c := range p.cfg.DateCols {
			if t, ok := NormalizeDate(cell(row, c)); ok {
				date, found = t, true
				break
			}
		}
		if !found {
			continue
		}

		debit, credit := splitSigned(amt)
		res.Records = append(res.Records, model.Record{
			SourceFile:       name,
			OwnAccountNumber: p.cfg.Account,
			OwnAccountName:   p.cfg.AccountName,
			Date:             date,
			Debit:            debit,
			Credit:           credit,
			Currency:         model.CurrencyRMB,
			CounterpartyName: cell(row, p.cfg.Counterparty),
			Summary:          cell(row, p.cfg.SummaryCol),
		})
	}
	return res
}

// optionalAmount parses a possibly blank amount cell. Blank is zero; text
// that is not a number is an error.
func optionalAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, true
	}
	return parseAmount(s)
}
