package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// LoadGrid reads a file export into rows of trimmed cell text. Workbooks are
// read from their active (xlsx) or first (xls) sheet; anything else is read
// as delimited text.
func LoadGrid(name string, data []byte) ([][]string, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return loadXLSX(data)
	case ".xls":
		return loadXLS(data)
	default:
		return loadCSV(data)
	}
}

func loadXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading xlsx sheet %q: %w", sheet, err)
	}
	if err := resolveDateCells(f, sheet, rows); err != nil {
		return nil, err
	}
	return trimGrid(rows), nil
}

// resolveDateCells rewrites date-formatted serials as YYYY-MM-DD using the
// workbook's own epoch. Raw values of 1904-based workbooks are 1462 days
// behind the 1900 system.
func resolveDateCells(f *excelize.File, sheet string, rows [][]string) error {
	props, err := f.GetWorkbookProps()
	if err != nil {
		return fmt.Errorf("reading workbook properties: %w", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	dateStyle := map[int]bool{}
	for i, row := range rows {
		for j, c := range row {
			n, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil || n <= 0 {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			idx, err := f.GetCellStyle(sheet, axis)
			if err != nil {
				return fmt.Errorf("reading style of %s: %w", axis, err)
			}
			isDate, seen := dateStyle[idx]
			if !seen {
				isDate = styleIsDate(f, idx)
				dateStyle[idx] = isDate
			}
			if !isDate {
				continue
			}
			t, err := excelize.ExcelDateToTime(n, date1904)
			if err != nil {
				continue
			}
			row[j] = t.Format("2006-01-02")
		}
	}
	return nil
}

func styleIsDate(f *excelize.File, idx int) bool {
	if idx == 0 {
		return false
	}
	st, err := f.GetStyle(idx)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return numFmtIsDate(*st.CustomNumFmt)
	}
	return builtinDateFmt(st.NumFmt)
}

// builtinDateFmt covers the built-in date ids, including the CJK ones.
func builtinDateFmt(id int) bool {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return true
	case id >= 27 && id <= 31, id == 36, id >= 50 && id <= 58:
		return true
	}
	return false
}

var (
	numFmtLiteralRe = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)
	numFmtDateRe    = regexp.MustCompile(`[yYdD]|年|月|日`)
)

func numFmtIsDate(code string) bool {
	return numFmtDateRe.MatchString(numFmtLiteralRe.ReplaceAllString(code, ""))
}

func loadXLS(data []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("opening xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls has no sheets")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return trimGrid(rows), nil
}

func loadCSV(data []byte) ([][]string, error) {
	text := decodeText(data)
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		rows = append(rows, rec)
	}
	return trimGrid(rows), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText tries UTF-8 (with or without BOM), then GBK, then falls back to
// UTF-8 with invalid bytes replaced.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	if out, err := simplifiedchinese.GBK.NewDecoder().Bytes(data); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// trimGrid strips cell padding the way banks export it: blanks, tabs and
// stray quotes.
func trimGrid(rows [][]string) [][]string {
	for _, row := range rows {
		for j, c := range row {
			row[j] = strings.Trim(c, " \t\r\n\"")
		}
	}
	return rows
}
