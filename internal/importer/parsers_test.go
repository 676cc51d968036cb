package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bankflow/internal/model"
)

func newTestRegistry() *Registry {
	return DefaultRegistry(DefaultOptions())
}

func ledgerRow(direction, summary, cpAcct, cpName, ownAcct, ownName, date, amount string) []string {
	row := make([]string, 15)
	row[0] = direction
	row[1] = summary
	row[4], row[5] = cpAcct, cpName
	row[8], row[9] = ownAcct, ownName
	row[10] = date
	row[13] = amount
	return row
}

func TestLedgerParser_Inbound(t *testing.T) {
	p := newTestRegistry().Get(FormatDirectionalLedger)
	rows := [][]string{
		ledgerRow("来账", "货款", "6222000011112222", "ABC贸易", "4000123456", "青岛瑞拓思进出口有限公司", "20260225", "+246,000.00"),
	}
	res := p.Parse("QD_ZH_RMB_20260225.csv", rows)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "246000.00", r.CreditString())
	assert.Equal(t, "", r.DebitString())
	assert.Equal(t, "20260225", r.DateKey())
	assert.Equal(t, "4000123456", r.OwnAccountNumber)
	assert.Equal(t, "青岛瑞拓思进出口有限公司", r.OwnAccountName)
	assert.Equal(t, "ABC贸易", r.CounterpartyName)
	assert.Equal(t, "6222000011112222", r.CounterpartyAccount)
	assert.Equal(t, "货款", r.Summary)
	assert.Equal(t, model.CurrencyRMB, r.Currency)
}

func TestLedgerParser_OutboundSwapsColumns(t *testing.T) {
	p := newTestRegistry().Get(FormatDirectionalLedger)
	// Outbound: payer (us) in 4-5, payee in 8-9.
	rows := [][]string{
		ledgerRow("往账", "运费", "4000123456", "青岛瑞拓思", "7777", "物流公司", "20260226", "-1,500.00"),
	}
	res := p.Parse("QD_ZH_RMB_20260226.csv", rows)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "1500.00", r.DebitString())
	assert.Equal(t, "", r.CreditString())
	assert.Equal(t, "4000123456", r.OwnAccountNumber)
	assert.Equal(t, "物流公司", r.CounterpartyName)
	assert.Equal(t, "7777", r.CounterpartyAccount)
}

func TestLedgerParser_SkipsShortAndUntaggedRows(t *testing.T) {
	p := newTestRegistry().Get(FormatDirectionalLedger)
	rows := [][]string{
		{"交易类型", "摘要"},
		{"来账", "short", "20260225", "100"},
		ledgerRow("来账", "no date", "1", "A", "2", "B", "", "100.00"),
		ledgerRow("往账", "ok", "1", "A", "2", "B", "20260225", "100.00"),
	}
	res := p.Parse("QD_ZH_RMB_20260225.csv", rows)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "ok", res.Records[0].Summary)
	assert.Equal(t, 3, res.Rows)
}

func TestLedgerParser_DateAndAmountFallbacks(t *testing.T) {
	p := newTestRegistry().Get(FormatDirectionalLedger)
	row := ledgerRow("来账", "usd wire", "1", "A", "2", "B", "", "")
	row[3] = "20260301"
	row[12] = "USD"
	row[14] = "880.25"
	res := p.Parse("QD_ZH_USD_20260301.csv", [][]string{row})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "20260301", res.Records[0].DateKey())
	assert.Equal(t, "880.25", res.Records[0].CreditString())
	assert.Equal(t, model.CurrencyUSD, res.Records[0].Currency)
}

func TestLedgerParser_NamedSheetColumns(t *testing.T) {
	p := newTestRegistry().Get(FormatDirectionalLedger)
	header := make([]string, 15)
	header[0] = "交易类型[ Transaction Type ]"
	header[10] = "交易日期[ Transaction Date ]"
	header[13] = "交易金额[ Trade Amount ]"
	rows := make([][]string, 0, 9)
	for i := 0; i < 7; i++ {
		rows = append(rows, []string{"meta"})
	}
	rows = append(rows, header)
	rows = append(rows, ledgerRow("往账", "手续费", "4000", "我方", "9999", "银行", "2026-02-27", "25.00"))

	res := p.Parse("QD_ZH_RMB_20260227", rows)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "20260227", res.Records[0].DateKey())
	assert.Equal(t, "25.00", res.Records[0].DebitString())
}

func TestStandardParser_DebitCreditColumns(t *testing.T) {
	p := newTestRegistry().Get(FormatStandard)
	rows := [][]string{
		{"交易日期", "借方发生额（支取）", "贷方发生额（收入）", "对方户名", "摘要", "币种", "交易流水号"},
		{"2026-02-25", "300.00", "", "ABC贸易", "货款支付", "人民币", "T001"},
		{"2026/2/26", "", "1,200.50", "Foreign Buyer", "国外汇款", "美元", "T002"},
		{"合计", "300.00", "1200.50", "", "", "", ""},
		{"2026-02-27", "", "", "nobody", "", "", ""},
	}
	res := p.Parse("QD_JH_RMB_20260227.csv", rows)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 4, res.Rows)

	assert.Equal(t, "300.00", res.Records[0].DebitString())
	assert.Equal(t, "ABC贸易", res.Records[0].CounterpartyName)
	assert.Equal(t, "T001", res.Records[0].Reference)
	assert.Equal(t, model.CurrencyRMB, res.Records[0].Currency)

	assert.Equal(t, "1200.50", res.Records[1].CreditString())
	assert.Equal(t, "20260226", res.Records[1].DateKey())
	assert.Equal(t, model.CurrencyUSD, res.Records[1].Currency)
}

func TestStandardParser_SignedAmountColumn(t *testing.T) {
	p := newTestRegistry().Get(FormatStandard)
	rows := [][]string{
		{"Statement of account"},
		{"Date", "Description", "Amount", "Reference"},
		{"2026-01-10", "Supplier Ltd", "-99.90", "R1"},
		{"2026-01-11", "Customer Inc", "150", "R2"},
		{"2026-01-12", "Nothing", "0", "R3"},
	}
	res := p.Parse("BJ_VTB_RMB_20260112.csv", rows)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "99.90", res.Records[0].DebitString())
	assert.Equal(t, "Supplier Ltd", res.Records[0].CounterpartyName)
	assert.Equal(t, "150.00", res.Records[1].CreditString())
}

func TestStandardParser_FileCurrency(t *testing.T) {
	p := newTestRegistry().Get(FormatStandard)
	rows := [][]string{
		{"账号", "NRA7300079913", "币种", "美元"},
		{},
		{"日期", "摘要", "支出", "收入", "对方户名"},
		{"2026-01-05", "Wire", "", "5,000.00", "ACME"},
	}
	res := p.Parse("HK_OCBC_USD_20260105.xls", rows)
	require.Len(t, res.Records, 1)
	assert.Equal(t, model.CurrencyUSD, res.Records[0].Currency)
	assert.Equal(t, "5000.00", res.Records[0].CreditString())
}

func TestStandardParser_TooFewRows(t *testing.T) {
	p := newTestRegistry().Get(FormatStandard)
	res := p.Parse("x.csv", [][]string{{"交易日期", "支出"}})
	assert.Empty(t, res.Records)
	assert.NotEmpty(t, res.Reason)
}

func TestSheetParser_NoisyHeadersAndAmounts(t *testing.T) {
	p := newTestRegistry().Get(FormatGenericSheet)
	rows := [][]string{
		{"中国建设银行账户明细"},
		{"\t\"交易日期\"", "借方发生额,", "贷方发生额,", "对方户名", "摘要"},
		{"20260201", `"¥1,000.00"`, "", "房东", "房租"},
		{"20260202", "", "2,500.00元", "客户", "服务费"},
	}
	res := p.Parse("QD_JH_RMB_20260202", rows)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "1000.00", res.Records[0].DebitString())
	assert.Equal(t, "房东", res.Records[0].CounterpartyName)
	assert.Equal(t, "2500.00", res.Records[1].CreditString())
}

func TestForeignAParser(t *testing.T) {
	p := newTestRegistry().Get(FormatForeignBankA)
	rows := [][]string{
		{"OCBC Statement"},
		{},
		{"交易日期", "摘要", "对方户名", "支出", "收入"},
		{"2026-01-05", "Wire", "ACME Corp", "", "5,000.00"},
		{"2026-01-06", "Fee", "", "25.00", ""},
		{"2026-01-07", "zero", "", "0", "0"},
		{"2026-01-08", "bad", "", "abc", ""},
		{"", "no date", "", "1.00", ""},
	}
	res := p.Parse("SG_OCBC_USD_20260108", rows)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "NRA7300079913", res.Records[0].OwnAccountNumber)
	assert.Equal(t, "5000.00", res.Records[0].CreditString())
	assert.Equal(t, "ACME Corp", res.Records[0].CounterpartyName)
	assert.Equal(t, model.CurrencyUSD, res.Records[0].Currency)

	assert.Equal(t, "25.00", res.Records[1].DebitString())
	assert.Equal(t, "Fee", res.Records[1].Summary)
}

func TestForeignAParser_TooFewRows(t *testing.T) {
	p := newTestRegistry().Get(FormatForeignBankA)
	res := p.Parse("SG_OCBC_USD_20260108", [][]string{{"a"}, {"b"}, {"c"}})
	assert.Empty(t, res.Records)
	assert.NotEmpty(t, res.Reason)
}

func TestForeignBParser(t *testing.T) {
	p := newTestRegistry().Get(FormatForeignBankB)
	data := func(date0, date11, cp, amt, summary string) []string {
		row := make([]string, 13)
		row[0], row[11] = date0, date11
		row[6], row[9], row[12] = cp, amt, summary
		return row
	}
	rows := [][]string{
		{"VTB Bank"},
		{"Account No", "40807156000610031039"},
		{},
		{"Date", "", "", "", "", "", "Counterparty", "", "", "Amount of transaction"},
		data("2026-01-10", "", "OOO Partner", "-1,500.50", "Payment for goods"),
		data("", "2026-01-11", "Buyer", "2000", "Receipt"),
		data("2026-01-12", "", "Zero", "0", ""),
		make([]string, 13),
	}
	res := p.Parse("QD_VTB_RMB_20260112", rows)
	require.Len(t, res.Records, 2)

	assert.Equal(t, "1500.50", res.Records[0].DebitString())
	assert.Equal(t, "40807156000610031039", res.Records[0].OwnAccountNumber)
	assert.Equal(t, "青岛瑞拓思进出口有限公司", res.Records[0].OwnAccountName)
	assert.Equal(t, "OOO Partner", res.Records[0].CounterpartyName)
	assert.Equal(t, "Payment for goods", res.Records[0].Summary)
	assert.Equal(t, model.CurrencyRMB, res.Records[0].Currency)

	assert.Equal(t, "20260111", res.Records[1].DateKey())
	assert.Equal(t, "2000.00", res.Records[1].CreditString())
}

func TestParsers_NeverEmitBothSides(t *testing.T) {
	p := newTestRegistry().Get(FormatStandard)
	rows := [][]string{
		{"交易日期", "支出", "收入"},
		{"2026-01-01", "10", "20"},
		{"2026-01-02", "10", ""},
	}
	res := p.Parse("x_20260102.csv", rows)
	require.Len(t, res.Records, 1)
	for _, r := range res.Records {
		assert.True(t, r.Valid())
	}
}
