package target

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bankflow/internal/company"
	"github.com/cleared-dev/bankflow/internal/fingerprint"
	"github.com/cleared-dev/bankflow/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample() model.Record {
	return model.Record{
		SourceFile:          "QD_JH_RMB_20260225.csv",
		OwnAccountNumber:    "raw-account",
		OwnAccountName:      "raw-name",
		Date:                model.NewDate(2026, 2, 25),
		Debit:               dec("300"),
		Currency:            model.CurrencyRMB,
		CounterpartyName:    "ABC贸易",
		CounterpartyAccount: "6222",
		Summary:             "货款支付",
		Memo:                "m",
		Reference:           " T001 ",
		Type:                "货款支付",
	}
}

func TestToFields(t *testing.T) {
	f := ToFields(sample(), company.Entry{Name: "青岛瑞拓思", Account: "3712"})
	assert.Equal(t, "青岛瑞拓思", f.OwnAccountName)
	assert.Equal(t, "3712", f.OwnAccount)
	assert.Equal(t, "青岛瑞拓思", f.LegacyAccountName)
	assert.Equal(t, "3712", f.LegacyAccount)
	assert.Equal(t, "ABC贸易 | 货款支付", f.Summary)
	assert.Equal(t, "T001", f.Reference)
	assert.Equal(t, "RMB", f.Currency)
	assert.True(t, f.Debit.Equal(dec("300")))
	assert.True(t, f.Credit.IsZero())
	assert.Equal(t, "QD_JH_RMB_20260225.csv", f.Source)
	assert.NotZero(t, f.DateMillis)
}

func TestJoinSplitSummary(t *testing.T) {
	assert.Equal(t, "A | s", JoinSummary("A", "s"))
	assert.Equal(t, "A", JoinSummary("A", ""))
	assert.Equal(t, "| s", JoinSummary("", "s"))

	assert.Equal(t, "s", SplitSummary("A | s"))
	assert.Equal(t, "s | t", SplitSummary("A | s | t"))
	assert.Equal(t, "s", SplitSummary("| s"))
	assert.Equal(t, "plain", SplitSummary("plain"))
}

func TestDateRoundTrip(t *testing.T) {
	d := model.NewDate(2026, 2, 25)
	assert.Equal(t, d, MillisToDate(DateToMillis(d)))
	assert.Equal(t, int64(0), DateToMillis(model.Record{}.Date))
	assert.True(t, MillisToDate(0).IsZero())
}

func TestCanonical(t *testing.T) {
	f := ToFields(sample(), company.Entry{Name: "青岛瑞拓思", Account: "3712"})
	c := f.Canonical()
	assert.Equal(t, "3712", c.OwnAccountNumber)
	assert.Equal(t, "青岛瑞拓思", c.OwnAccountName)
	assert.Equal(t, "20260225", c.DateKey())
	assert.Equal(t, "ABC贸易 | 货款支付", c.Summary)
	assert.Equal(t, "货款支付", c.Type)

	legacy := Fields{LegacyAccount: "L1", LegacyAccountName: "LN"}.Canonical()
	assert.Equal(t, "L1", legacy.OwnAccountNumber)
	assert.Equal(t, "LN", legacy.OwnAccountName)
}

func TestBaseKeyMatchesSourceKey(t *testing.T) {
	r := sample()
	f := ToFields(r, company.Entry{Name: "n", Account: "3712"})
	src := fingerprint.Of(r, func(model.Record) string { return "3712" })
	assert.Equal(t, src, f.BaseKey())
}

func TestExistingKeys(t *testing.T) {
	f := ToFields(sample(), company.Entry{Account: "3712"})
	set := ExistingKeys([]Record{{ID: "a", Fields: f}, {ID: "b", Fields: f}})
	assert.Len(t, set, 2)
	assert.True(t, set.Has(fingerprint.FullKey{BaseKey: f.BaseKey(), Seq: 1}))
}

func records() []Record {
	mk := func(id, src, typ, ccy string, day int, debit, credit string) Record {
		return Record{ID: id, Fields: Fields{
			Source:     src,
			Type:       typ,
			Currency:   ccy,
			DateMillis: DateToMillis(model.NewDate(2026, 2, day)),
			Debit:      dec(debit),
			Credit:     dec(credit),
		}}
	}
	return []Record{
		mk("1", "QD_JH_RMB_20260228.csv", "货款支付", "RMB", 1, "100", "0"),
		mk("2", "QD_JH_RMB_20260228.csv", "销售回款", "RMB", 10, "0", "500"),
		mk("3", "HK_OCBC_USD_20260228", "销售回款", "USD", 20, "0", "70"),
	}
}

func TestFilter(t *testing.T) {
	rs := records()
	assert.Len(t, Filter{}.Apply(rs), 3)
	assert.Len(t, Filter{Source: "QD_JH"}.Apply(rs), 2)
	assert.Len(t, Filter{Type: "销售回款"}.Apply(rs), 2)
	assert.Len(t, Filter{Currency: "usd"}.Apply(rs), 1)

	got := Filter{DateFrom: "2026-02-05", DateTo: "20260220"}.Apply(rs)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestSummarize(t *testing.T) {
	s := Summarize(records())
	assert.Equal(t, 3, s.Total.Count)
	assert.True(t, s.Total.Debit.Equal(dec("100")))
	assert.True(t, s.Total.Credit.Equal(dec("570")))
	assert.Equal(t, 2, s.BySource["QD_JH_RMB_20260228.csv"].Count)
	assert.Equal(t, 2, s.ByType["销售回款"].Count)
	assert.Equal(t, []string{"HK_OCBC_USD_20260228", "QD_JH_RMB_20260228.csv"}, Sources(records()))
}

func TestParseDateField(t *testing.T) {
	want := DateToMillis(model.NewDate(2026, 2, 25))
	assert.Equal(t, want, ParseDateField("20260225"))
	assert.Equal(t, want, ParseDateField("2026-02-25"))
	assert.Equal(t, want, ParseDateField("2026-02-25 10:00:00"))
	assert.Equal(t, want, ParseDateField(strconv.FormatInt(want, 10)))
	assert.Equal(t, int64(0), ParseDateField(""))
	assert.Equal(t, int64(0), ParseDateField("n/a"))
}

func TestBaseKeyPrefersLegacyAccount(t *testing.T) {
	f := ToFields(sample(), company.Entry{Account: "3712"})
	f.OwnAccount = "changed"
	assert.Equal(t, "3712", f.BaseKey().Account)
	assert.Equal(t, "changed", f.OwnAccountNumber())

	f.LegacyAccount = ""
	assert.Equal(t, "changed", f.BaseKey().Account)
}
