package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/model"
)

const (
	markerInbound  = "来账"
	markerOutbound = "往账"
)

// LedgerSide lists the column positions used for one transfer direction.
type LedgerSide struct {
	Account             int   `yaml:"account"`
	AccountName         int   `yaml:"account_name"`
	CounterpartyName    int   `yaml:"counterparty_name"`
	CounterpartyAccount int   `yaml:"counterparty_account"`
	Summary             int   `yaml:"summary"`
	Amount              []int `yaml:"amount"`
}

// LedgerColumns is the positional layout of a directional ledger export.
type LedgerColumns struct {
	Inbound  LedgerSide `yaml:"inbound"`
	Outbound LedgerSide `yaml:"outbound"`
	Date     int        `yaml:"date"`
	MinCells int        `yaml:"min_cells"`
}

// DefaultLedgerColumns returns the layout of the bank's statement export:
// payer in columns 4-5, payee in 8-9.
func DefaultLedgerColumns() LedgerColumns {
	return LedgerColumns{
		Inbound: LedgerSide{
			Account: 8, AccountName: 9,
			CounterpartyName: 5, CounterpartyAccount: 4,
			Summary: 1, Amount: []int{13, 14},
		},
		Outbound: LedgerSide{
			Account: 4, AccountName: 5,
			CounterpartyName: 9, CounterpartyAccount: 8,
			Summary: 1, Amount: []int{13, 14},
		},
		Date:     10,
		MinCells: 14,
	}
}

// LedgerParser reads exports where every row is tagged inbound or outbound
// and the owner's identity switches columns with the direction.
type LedgerParser struct {
	cols LedgerColumns
}

// Format returns FormatDirectionalLedger.
func (p *LedgerParser) Format() Format { return FormatDirectionalLedger }

// Parse converts every direction-tagged row; all other rows are ignored.
func (p *LedgerParser) Parse(name string, rows [][]string) Result {
	res := Result{Format: FormatDirectionalLedger}
	dateCol, amountCol := ledgerNamedColumns(rows)

	for _, row := range rows {
		inbound, ok := ledgerDirection(row)
		if !ok {
			continue
		}
		res.Rows++
		if len(row) < p.cols.MinCells {
			continue
		}
		side := p.cols.Outbound
		if inbound {
			side = p.cols.Inbound
		}

		date, ok := p.rowDate(row, dateCol)
		if !ok {
			continue
		}
		amt, ok := rowLedgerAmount(row, amountCol, side.Amount)
		if !ok {
			continue
		}

		rec := model.Record{
			SourceFile:          name,
			OwnAccountNumber:    cell(row, side.Account),
			OwnAccountName:      cell(row, side.AccountName),
			Date:                date,
			Currency:            model.CurrencyRMB,
			CounterpartyName:    cell(row, side.CounterpartyName),
			CounterpartyAccount: cell(row, side.CounterpartyAccount),
			Summary:             cell(row, side.Summary),
		}
		if inbound {
			rec.Credit = amt.Abs()
		} else {
			rec.Debit = amt.Abs()
		}
		if mentionsUSD(row) {
			rec.Currency = model.CurrencyUSD
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func (p *LedgerParser) rowDate(row []string, named int) (time.Time, bool) {
	if named >= 0 {
		if t, ok := NormalizeDate(cell(row, named)); ok {
			return t, true
		}
	}
	if t, ok := NormalizeDate(cell(row, p.cols.Date)); ok && isDateLike(cell(row, p.cols.Date)) {
		return t, true
	}
	for _, c := range row {
		c = strings.TrimSpace(c)
		if isEightDigits(c) {
			if t, ok := NormalizeDate(c); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// rowLedgerAmount prefers the named or configured amount columns and falls
// back to the first amount-looking cell in the row.
func rowLedgerAmount(row []string, named int, cols []int) (decimal.Decimal, bool) {
	if named >= 0 {
		if n, ok := parseLedgerAmount(cell(row, named)); ok {
			return n, true
		}
	}
	for _, c := range cols {
		if n, ok := parseLedgerAmount(cell(row, c)); ok {
			return n, true
		}
	}
	for _, c := range row {
		if isEightDigits(strings.TrimSpace(c)) {
			continue
		}
		if n, ok := parseLedgerAmount(c); ok {
			return n, true
		}
	}
	return decimal.Zero, false
}

// ledgerDirection reports whether a row is an inbound (true) or outbound
// (false) transfer; ok is false for rows without a direction tag.
func ledgerDirection(row []string) (inbound bool, ok bool) {
	lead := cell(row, 0)
	switch {
	case strings.Contains(lead, markerInbound):
		return true, true
	case strings.Contains(lead, markerOutbound):
		return false, true
	}
	for _, c := range row {
		switch {
		case strings.Contains(c, markerInbound):
			return true, true
		case strings.Contains(c, markerOutbound):
			return false, true
		}
	}
	return false, false
}

// hasLedgerRows reports whether any row leads with a direction tag. Tags
// elsewhere in a row are ordinary summary text.
func hasLedgerRows(rows [][]string) bool {
	for _, row := range rows {
		lead := leadingCell(row)
		if strings.HasPrefix(lead, markerInbound) || strings.HasPrefix(lead, markerOutbound) {
			return true
		}
	}
	return false
}

func leadingCell(row []string) string {
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

// ledgerNamedColumns finds the bilingual date and amount headers of the
// sheet variant. Missing columns are -1.
func ledgerNamedColumns(rows [][]string) (date, amount int) {
	date, amount = -1, -1
	for r := 0; r < len(rows) && r < headerScanRows; r++ {
		for i, c := range rows[r] {
			c = normalizeLabel(c)
			switch {
			case date < 0 && (strings.Contains(c, "Transaction Date") || c == "交易日期"):
				date = i
			case amount < 0 && (strings.Contains(c, "Trade Amount") || c == "交易金额"):
				amount = i
			}
		}
		if date >= 0 || amount >= 0 {
			return date, amount
		}
	}
	return date, amount
}

func isEightDigits(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isDateLike rejects bare numbers that only parse as Excel serials.
func isDateLike(s string) bool {
	return datePartsRe.MatchString(s) || dateDigitsRe.MatchString(s)
}

func mentionsUSD(row []string) bool {
	for _, c := range row {
		if strings.Contains(strings.ToUpper(c), "USD") || strings.Contains(c, "美元") {
			return true
		}
	}
	return false
}
