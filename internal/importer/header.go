package importer

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/bankflow/internal/model"
)

// headerScanRows bounds how far into a file the header row is searched.
const headerScanRows = 25

// currencyScanRows is how many leading rows may carry account-level metadata.
const currencyScanRows = 5

var (
	dateHints   = []string{"交易日期", "记账日期", "日期", "Date", "Value Date", "起息日期", "ValueDate"}
	amountHints = []string{
		"支出", "收入", "借方", "贷方", "支取", "Debit", "Credit", "Amount",
		"交易金额", "Transaction Amount", "Dr", "Cr",
	}
	currencyLabels = []string{"币种", "CURRENCY", "CCY"} // matched upper-cased
)

// findHeader returns the index and labels of the first row mentioning both a
// date column and an amount column. Falls back to row 0.
func findHeader(rows [][]string) (int, []string) {
	for r := 0; r < len(rows) && r < headerScanRows; r++ {
		combined := strings.Join(rows[r], " ")
		if containsAnyOf(combined, dateHints) && containsAnyOf(combined, amountHints) {
			return r, headerLabels(rows[r])
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return 0, headerLabels(rows[0])
}

// headerLabels trims labels and names empty ones col_<i>.
func headerLabels(row []string) []string {
	labels := make([]string, len(row))
	for i, v := range row {
		v = strings.TrimSpace(v)
		if v == "" {
			v = fmt.Sprintf("col_%d", i)
		}
		labels[i] = v
	}
	return labels
}

// normalizeLabel strips the tab, quote and comma noise some sheet exports
// wrap around header text.
func normalizeLabel(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\t\",")
}

// fileCurrency looks for an account-level currency declaration in the
// leading metadata rows.
func fileCurrency(rows [][]string) (model.Currency, bool) {
	for r := 0; r < len(rows) && r < currencyScanRows; r++ {
		combined := strings.ToUpper(strings.Join(rows[r], " "))
		if !containsAnyOf(combined, currencyLabels) {
			continue
		}
		if c, ok := detectCurrency(rows[r]); ok {
			return c, true
		}
	}
	return "", false
}

func containsAnyOf(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
