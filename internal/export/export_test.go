package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/target"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRecordsRoundTrip(t *testing.T) {
	in := []model.Record{
		{
			SourceFile:       "QD_JH_RMB_20260225.csv",
			OwnAccountNumber: "3712",
			OwnAccountName:   "青岛瑞拓思",
			Date:             model.NewDate(2026, 2, 25),
			Debit:            dec("1234.5"),
			Currency:         model.CurrencyRMB,
			CounterpartyName: "ABC, Ltd",
			Summary:          "货款",
			Type:             "货款支付",
			SequenceIndex:    1,
		},
		{
			SourceFile: "HK_OCBC_USD_20260225",
			Date:       model.NewDate(2026, 2, 26),
			Credit:     dec("70"),
			Currency:   model.CurrencyUSD,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), RecordHeader+"\n"))
	assert.Contains(t, buf.String(), "1234.50")

	out, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ABC, Ltd", out[0].CounterpartyName)
	assert.True(t, out[0].Debit.Equal(dec("1234.5")))
	assert.True(t, out[0].Credit.IsZero())
	assert.Equal(t, 1, out[0].SequenceIndex)
	assert.Equal(t, "20260226", out[1].DateKey())
	assert.Equal(t, model.CurrencyUSD, out[1].Currency)
}

func TestUnmarshalRecord_Errors(t *testing.T) {
	_, err := UnmarshalRecord([]string{"a"})
	assert.Error(t, err)

	row := MarshalRecord(model.Record{Date: model.NewDate(2026, 1, 1)})
	row[colDebit] = "abc"
	_, err = UnmarshalRecord(row)
	assert.ErrorContains(t, err, "debit")

	row = MarshalRecord(model.Record{})
	row[colDate] = "2026-13"
	_, err = UnmarshalRecord(row)
	assert.ErrorContains(t, err, "date")
}

func TestReadRecords_Empty(t *testing.T) {
	out, err := ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTargetsRoundTrip(t *testing.T) {
	ms := target.DateToMillis(model.NewDate(2026, 2, 25))
	in := []target.Record{{
		ID: "r1",
		Fields: target.Fields{
			OwnAccountName: "青岛瑞拓思",
			OwnAccount:     "3712",
			Counterparty:   "ABC",
			Type:           "货款支付",
			Currency:       "RMB",
			Debit:          dec("300"),
			Summary:        "ABC | 货款",
			Source:         "QD_JH_RMB_20260225.csv",
			DateMillis:     ms,
			LegacyAccount:  "3712",
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteTargets(&buf, in))

	out, err := ReadTargets(&buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r1", out[0].ID)
	assert.Equal(t, ms, out[0].DateMillis)
	assert.True(t, out[0].Debit.Equal(dec("300")))
	assert.True(t, out[0].Credit.IsZero())
	assert.Equal(t, "3712", out[0].LegacyAccount)
}

func TestReadTargets_ReorderedColumns(t *testing.T) {
	in := "\ufeff来源,交易日期,支出,收入,我方账号\n" +
		"QD_JH_RMB_20260225.csv,2026-02-25,\"1,200.00\",,3712\n"

	out, err := ReadTargets(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "QD_JH_RMB_20260225.csv", out[0].Source)
	assert.Equal(t, target.DateToMillis(model.NewDate(2026, 2, 25)), out[0].DateMillis)
	assert.True(t, out[0].Debit.Equal(dec("1200")))
	assert.Equal(t, "3712", out[0].OwnAccount)
	assert.Empty(t, out[0].Memo)
}

func TestReadTargets_BadAmount(t *testing.T) {
	_, err := ReadTargets(strings.NewReader("支出\nxyz\n"))
	assert.ErrorContains(t, err, "row 2")
}
