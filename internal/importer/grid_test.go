package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/bankflow/internal/model"
)

// dateWorkbook writes a two-row sheet whose date column holds a raw serial
// formatted as a date, next to an unformatted number of the same value.
func dateWorkbook(t *testing.T, date1904 bool, serial float64) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetWorkbookProps(&excelize.WorkbookPropsOptions{Date1904: &date1904}))
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"交易日期", "借方发生额", "贷方发生额", "对方户名", "摘要"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{serial, "", serial, "ABC贸易", "货款"}))

	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "A2", "A2", style))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadGrid_XLSXDateEpochs(t *testing.T) {
	tests := []struct {
		name     string
		date1904 bool
		serial   float64
	}{
		{"1900", false, 46078},
		{"1904", true, 46078 - 1462},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := LoadGrid("book.xlsx", dateWorkbook(t, tt.date1904, tt.serial))
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, "2026-02-25", rows[1][0])
			assert.NotEqual(t, "2026-02-25", rows[1][2])
		})
	}
}

func TestImporter_XLSX1904Dates(t *testing.T) {
	data := dateWorkbook(t, true, 46078-1462)
	res := newTestImporter().Parse(Input{Name: "QD_JH_RMB_20260225.xlsx", Kind: model.KindFile, Data: data})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "20260225", res.Records[0].Date.Format("20060102"))
}
