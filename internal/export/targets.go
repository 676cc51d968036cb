package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/bankflow/internal/target"
)

// TargetColumns are the target table columns, in export order.
var TargetColumns = []string{
	"record_id", "我方账户", "我方账号", "对方账户", "对方账号", "类型", "货币",
	"支出", "收入", "摘要", "备注", "来源", "交易流水号", "交易日期", "账户", "账号",
}

// WriteTargets writes target rows with a header. Dates are written as
// epoch milliseconds, the table's native form.
func WriteTargets(w io.Writer, records []target.Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(TargetColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		row := []string{
			r.ID, r.OwnAccountName, r.OwnAccount, r.Counterparty, r.CounterpartyAccount,
			r.Type, r.Currency, r.Debit.StringFixed(2), r.Credit.StringFixed(2), r.Summary,
			r.Memo, r.Source, r.Reference, strconv.FormatInt(r.DateMillis, 10),
			r.LegacyAccountName, r.LegacyAccount,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadTargets reads target rows from a CSV export of the table. Columns are
// located by header name and may appear in any order; missing columns read
// as empty. Dates may be epoch milliseconds or YYYYMMDD text.
func ReadTargets(r io.Reader) ([]target.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading target CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	get := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []target.Record
	for n, row := range rows[1:] {
		debit, err := optionalDecimal(get(row, "支出"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing 支出: %w", n+2, err)
		}
		credit, err := optionalDecimal(get(row, "收入"))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing 收入: %w", n+2, err)
		}
		out = append(out, target.Record{
			ID: get(row, "record_id"),
			Fields: target.Fields{
				OwnAccountName:      get(row, "我方账户"),
				OwnAccount:          get(row, "我方账号"),
				Counterparty:        get(row, "对方账户"),
				CounterpartyAccount: get(row, "对方账号"),
				Type:                get(row, "类型"),
				Currency:            get(row, "货币"),
				Debit:               debit,
				Credit:              credit,
				Summary:             get(row, "摘要"),
				Memo:                get(row, "备注"),
				Source:              get(row, "来源"),
				Reference:           get(row, "交易流水号"),
				DateMillis:          target.ParseDateField(get(row, "交易日期")),
				LegacyAccountName:   get(row, "账户"),
				LegacyAccount:       get(row, "账号"),
			},
		})
	}
	return out, nil
}
