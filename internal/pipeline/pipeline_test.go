package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bankflow/internal/classify"
	"github.com/cleared-dev/bankflow/internal/config"
	"github.com/cleared-dev/bankflow/internal/runlog"
	"github.com/cleared-dev/bankflow/internal/source"
	"github.com/cleared-dev/bankflow/internal/store"
	"github.com/cleared-dev/bankflow/internal/target"
)

const statement = "交易日期,借方发生额（支取）,贷方发生额（收入）,对方户名,摘要\n" +
	"2026-02-25,300.00,,ABC贸易,货款支付\n" +
	"2026-02-26,,\"1,200.50\",Foreign Buyer,国外汇款\n"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Companies = []config.Company{{
		Key:  "qd",
		Name: "青岛瑞拓思",
		Accounts: []config.CompanyAccount{
			{SourcePrefix: "QD_JH_RMB", Account: "3712000001"},
		},
	}}
	return cfg
}

type fixture struct {
	dir   string
	store *store.Memory
	log   *runlog.Log
	out   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "QD_JH_RMB_20260224.csv", "交易日期,支出\n2026-02-24,1.00\n")
	writeFile(t, dir, "QD_JH_RMB_20260226.csv", statement)
	writeFile(t, dir, "notes.txt", "ignored")
	return &fixture{dir: dir, store: store.NewMemory(), log: runlog.New(t.TempDir()), out: &bytes.Buffer{}}
}

func (f *fixture) session(ts store.TableStore) *Session {
	if ts == nil {
		ts = f.store
	}
	return NewSession(Deps{
		Config: testConfig(),
		Source: source.NewDir(f.dir),
		Store:  ts,
		RunLog: f.log,
		Logger: slog.New(slog.NewTextHandler(f.out, nil)),
	})
}

func TestSync_WritesLatestFileOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rep, err := f.session(nil).Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	require.Len(t, rep.Files, 1)
	assert.Equal(t, "QD_JH_RMB_20260226.csv", rep.Files[0].Name)
	assert.Equal(t, 2, rep.Parsed)
	assert.Equal(t, 2, rep.Written)

	rows := f.store.Records()
	require.Len(t, rows, 2)
	assert.Equal(t, "青岛瑞拓思", rows[0].OwnAccountName)
	assert.Equal(t, "3712000001", rows[0].OwnAccount)
	assert.Equal(t, "ABC贸易 | 货款支付", rows[0].Summary)
	assert.Equal(t, classify.TypeGoodsPayment, rows[0].Type)

	rep, err = f.session(nil).Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Existing)
	assert.Equal(t, 0, rep.Written)

	rep, err = f.session(nil).Sync(ctx, SyncOptions{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Written)
	assert.Len(t, f.store.Records(), 4)

	entries, err := f.log.Read()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "sync", entries[0].Action)
	assert.Equal(t, "full", entries[2].Details)
}

func TestSync_OnlyFilter(t *testing.T) {
	f := newFixture(t)
	rep, err := f.session(nil).Sync(context.Background(), SyncOptions{Only: "bj_"})
	require.NoError(t, err)
	assert.Empty(t, rep.Files)
	assert.Empty(t, f.store.Records())
}

func TestSync_ValidateAfterWrite(t *testing.T) {
	f := newFixture(t)
	rep, err := f.session(nil).Sync(context.Background(), SyncOptions{Validate: true})
	require.NoError(t, err)
	require.NotNil(t, rep.Validation)
	assert.True(t, rep.Validation.IsValid)
	assert.Equal(t, 2, rep.Validation.Matched)
	assert.Empty(t, rep.Validation.Differences)
}

type brokenList struct{ *store.Memory }

func (b brokenList) List(context.Context, string, int) (store.Page, error) {
	return store.Page{}, errors.New("table unavailable")
}

func TestSync_ToleratesUnreadableTarget(t *testing.T) {
	f := newFixture(t)
	rep, err := f.session(brokenList{f.store}).Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Written)
	assert.Contains(t, f.out.String(), "table unavailable")
}

func TestSync_WarnsUnknownPrefixOnce(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.dir, "SZ_JH_RMB_20260226.csv", statement)

	s := f.session(nil)
	_, err := s.Sync(context.Background(), SyncOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"SZ_JH_RMB"}, s.Warned())
	assert.Len(t, f.store.Records(), 4)
}

func TestVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.session(nil).Verify(ctx, VerifyOptions{})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, 2, res.SourceOnly)
	assert.NotEmpty(t, res.Reasons)

	_, err = f.session(nil).Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	res, err = f.session(nil).Verify(ctx, VerifyOptions{})
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, "2026-02-25 ~ 2026-02-26", res.DateRange)

	res, err = f.session(nil).Verify(ctx, VerifyOptions{Targets: f.store.Records()[:1]})
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, 1, res.SourceOnly)
}

func TestVerify_NoSources(t *testing.T) {
	s := NewSession(Deps{Source: source.NewDir(t.TempDir()), Store: store.NewMemory()})
	_, err := s.Verify(context.Background(), VerifyOptions{})
	assert.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestSourceDuplicates(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.dir, "QD_JH_RMB_20260226.csv", statement+"2026-02-25,300.00,,ABC贸易,货款支付\n")
	dups, err := f.session(nil).SourceDuplicates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, 2, dups[0].Count)
}

func TestParseBytes_Sequences(t *testing.T) {
	f := newFixture(t)
	res := f.session(nil).ParseBytes("QD_JH_RMB_20260226.csv", []byte(statement+"2026-02-25,300.00,,ABC贸易,货款支付\n"))
	require.Len(t, res.Records, 3)
	assert.Equal(t, 0, res.Records[0].SequenceIndex)
	assert.Equal(t, 1, res.Records[2].SequenceIndex)
}

func TestReclassify(t *testing.T) {
	f := newFixture(t)
	f.store = store.NewMemory(
		target.Record{ID: "fee", Fields: target.Fields{Summary: "银行 | 手续费", Debit: dec("15"), Source: "BJ_JH_RMB_20260225.csv", Type: classify.TypeOtherExpense}},
		target.Record{ID: "ok", Fields: target.Fields{Summary: "ABC | 货款", Debit: dec("10"), Source: "BJ_JH_RMB_20260225.csv", Type: classify.TypeGoodsPayment}},
		target.Record{ID: "cp", Fields: target.Fields{Summary: "手续费代收 | 转账", Credit: dec("10"), Source: "BJ_JH_RMB_20260225.csv", Type: classify.TypeBankFee}},
	)
	ctx := context.Background()

	rep, err := f.session(nil).Reclassify(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Checked)
	require.Len(t, rep.Changes, 2)
	assert.Equal(t, TypeChange{ID: "fee", From: classify.TypeOtherExpense, To: classify.TypeBankFee}, rep.Changes[0])
	assert.Equal(t, TypeChange{ID: "cp", From: classify.TypeBankFee, To: classify.TypeOtherIncome}, rep.Changes[1])
	assert.Len(t, rep.Distribution, 2)
	assert.Equal(t, classify.TypeOtherExpense, f.store.Records()[0].Type)

	rep, err = f.session(nil).Reclassify(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Updated)
	assert.Equal(t, classify.TypeBankFee, f.store.Records()[0].Type)
	assert.Equal(t, classify.TypeOtherIncome, f.store.Records()[2].Type)
}

func TestRemoveDuplicates(t *testing.T) {
	f := newFixture(t)
	dup := target.Fields{Source: "QD_JH_RMB_20260226.csv", LegacyAccount: "1", Debit: dec("5"), Counterparty: "X"}
	f.store = store.NewMemory(
		target.Record{ID: "a", Fields: dup},
		target.Record{ID: "b", Fields: dup},
		target.Record{ID: "c", Fields: target.Fields{Source: "QD_JH_RMB_20260226.csv", Debit: dec("6")}},
	)
	ctx := context.Background()

	rep, err := f.session(nil).RemoveDuplicates(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, rep.IDs)
	assert.Len(t, f.store.Records(), 3)

	rep, err = f.session(nil).RemoveDuplicates(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deleted)
	require.Len(t, f.store.Records(), 2)
	assert.Equal(t, "a", f.store.Records()[0].ID)
}

func TestDeleteBySource(t *testing.T) {
	f := newFixture(t)
	f.store = store.NewMemory(
		target.Record{Fields: target.Fields{Source: "A_20260101.csv"}},
		target.Record{Fields: target.Fields{Source: "B_20260101.csv"}},
		target.Record{Fields: target.Fields{Source: "A_20260101.csv"}},
	)
	ctx := context.Background()

	matched, deleted, err := f.session(nil).DeleteBySource(ctx, "A_20260101.csv", true)
	require.NoError(t, err)
	assert.Equal(t, 2, matched)
	assert.Equal(t, 0, deleted)

	matched, deleted, err = f.session(nil).DeleteBySource(ctx, "A_20260101.csv", false)
	require.NoError(t, err)
	assert.Equal(t, 2, matched)
	assert.Equal(t, 2, deleted)
	assert.Len(t, f.store.Records(), 1)
}

func TestRecordsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.session(nil).Sync(ctx, SyncOptions{})
	require.NoError(t, err)

	rows, err := f.session(nil).Records(ctx, target.Filter{Type: classify.TypeSalesReceipt})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Credit.Equal(dec("1200.50")))

	st, err := f.session(nil).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total.Count)
	assert.Equal(t, 2, st.BySource["QD_JH_RMB_20260226.csv"].Count)
}
