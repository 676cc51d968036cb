package importer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/model"
)

var (
	datePartsRe  = regexp.MustCompile(`(\d{4})[-/]?(\d{1,2})[-/]?(\d{1,2})`)
	dateDigitsRe = regexp.MustCompile(`(\d{8})`)
	nonAmountRe  = regexp.MustCompile(`[^\d.+\-]`)
)

// Excel serials outside this window are not treated as dates.
const (
	excelSerialMin = 30000
	excelSerialMax = 50000
)

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// NormalizeDate turns the date spellings seen in bank exports into a UTC
// midnight date. It accepts YYYY-MM-DD, YYYY/M/D, YYYYMMDD (with or without
// a trailing time), any embedded 8-digit run, and Excel serial numbers.
func NormalizeDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := datePartsRe.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := dateDigitsRe.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1][:4], m[1][4:6], m[1][6:]); ok {
			return t, true
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && n > excelSerialMin && n < excelSerialMax {
		return excelEpoch.AddDate(0, 0, int(n)), true
	}
	return time.Time{}, false
}

func buildDate(y, m, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := model.NewDate(year, time.Month(month), day)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseAmount reads a signed decimal, ignoring thousands separators and
// blanks. Empty or malformed text reports ok=false.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.NewReplacer(",", "", " ", "", "，", "").Replace(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// cleanAmount keeps only digits, dot and sign characters.
func cleanAmount(s string) string {
	return nonAmountRe.ReplaceAllString(strings.Trim(strings.TrimSpace(s), `",`), "")
}

var ledgerAmountRe = regexp.MustCompile(`^[+-]?[\d,]+\.?\d*$`)

var (
	ledgerAmountMin = decimal.RequireFromString("0.01")
	ledgerAmountMax = decimal.NewFromInt(100000000)
)

// parseLedgerAmount is parseAmount restricted to plausible transaction
// values, so account numbers and dates in the same row are not mistaken for
// amounts.
func parseLedgerAmount(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if !ledgerAmountRe.MatchString(s) {
		return decimal.Zero, false
	}
	d, ok := parseAmount(s)
	if !ok {
		return decimal.Zero, false
	}
	abs := d.Abs()
	if abs.LessThan(ledgerAmountMin) || !abs.LessThan(ledgerAmountMax) {
		return decimal.Zero, false
	}
	return d, true
}

// splitSigned maps a signed amount to (debit, credit).
func splitSigned(n decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if n.IsNegative() {
		return n.Abs(), decimal.Zero
	}
	return decimal.Zero, n
}

// detectCurrency reports the currency mentioned anywhere in cells.
func detectCurrency(cells []string) (model.Currency, bool) {
	for _, c := range cells {
		u := strings.ToUpper(c)
		if strings.Contains(u, "USD") || strings.Contains(c, "美元") || strings.Contains(u, "DOLLAR") {
			return model.CurrencyUSD, true
		}
		if strings.Contains(u, "CNY") || strings.Contains(u, "RMB") || strings.Contains(c, "人民币") || strings.Contains(c, "元") {
			return model.CurrencyRMB, true
		}
	}
	return "", false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string, limit int) bool {
	for i, c := range row {
		if i >= limit {
			break
		}
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
