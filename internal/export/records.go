// Package export reads and writes canonical records and target rows as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/model"
)

// RecordHeader is the CSV header of canonical record files.
const RecordHeader = "source_file,own_account_number,own_account_name,date,debit,credit,currency,counterparty_name,counterparty_account,summary,memo,reference,type,sequence_index"

const (
	numRecordFields = 14
	colSource       = 0
	colAccount      = 1
	colAccountName  = 2
	colDate         = 3
	colDebit        = 4
	colCredit       = 5
	colCurrency     = 6
	colCparty       = 7
	colCpartyAcct   = 8
	colSummary      = 9
	colMemo         = 10
	colRef          = 11
	colType         = 12
	colSeq          = 13
)

// WriteRecords writes records with a header row.
func WriteRecords(w io.Writer, records []model.Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(RecordHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadRecords reads a file written by WriteRecords.
func ReadRecords(r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numRecordFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading records CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var out []model.Record
	for i, row := range rows[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// MarshalRecord converts a record to a CSV row. Zero amounts are blank.
func MarshalRecord(r model.Record) []string {
	row := make([]string, numRecordFields)
	row[colSource] = r.SourceFile
	row[colAccount] = r.OwnAccountNumber
	row[colAccountName] = r.OwnAccountName
	row[colDate] = r.DateKey()
	row[colDebit] = r.DebitString()
	row[colCredit] = r.CreditString()
	row[colCurrency] = string(r.Currency)
	row[colCparty] = r.CounterpartyName
	row[colCpartyAcct] = r.CounterpartyAccount
	row[colSummary] = r.Summary
	row[colMemo] = r.Memo
	row[colRef] = r.Reference
	row[colType] = r.Type
	row[colSeq] = strconv.Itoa(r.SequenceIndex)
	return row
}

// UnmarshalRecord converts a CSV row to a record.
func UnmarshalRecord(row []string) (model.Record, error) {
	if len(row) != numRecordFields {
		return model.Record{}, fmt.Errorf("expected %d fields, got %d", numRecordFields, len(row))
	}

	rec := model.Record{
		SourceFile:          row[colSource],
		OwnAccountNumber:    row[colAccount],
		OwnAccountName:      row[colAccountName],
		Currency:            model.Currency(row[colCurrency]),
		CounterpartyName:    row[colCparty],
		CounterpartyAccount: row[colCpartyAcct],
		Summary:             row[colSummary],
		Memo:                row[colMemo],
		Reference:           row[colRef],
		Type:                row[colType],
	}

	var err error
	if row[colDate] != "" {
		if rec.Date, err = model.ParseDateKey(row[colDate]); err != nil {
			return model.Record{}, fmt.Errorf("parsing date %q: %w", row[colDate], err)
		}
	}
	if rec.Debit, err = optionalDecimal(row[colDebit]); err != nil {
		return model.Record{}, fmt.Errorf("parsing debit %q: %w", row[colDebit], err)
	}
	if rec.Credit, err = optionalDecimal(row[colCredit]); err != nil {
		return model.Record{}, fmt.Errorf("parsing credit %q: %w", row[colCredit], err)
	}
	if row[colSeq] != "" {
		if rec.SequenceIndex, err = strconv.Atoi(row[colSeq]); err != nil {
			return model.Record{}, fmt.Errorf("parsing sequence_index %q: %w", row[colSeq], err)
		}
	}
	return rec, nil
}

func optionalDecimal(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
