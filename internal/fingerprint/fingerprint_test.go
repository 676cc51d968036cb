package fingerprint

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bankflow/internal/model"
)

func rec(source string, debit string, cp string) model.Record {
	return model.Record{
		SourceFile:       source,
		OwnAccountNumber: "6222000011112222",
		Date:             model.NewDate(2026, 2, 25),
		Debit:            decimal.RequireFromString(debit),
		CounterpartyName: cp,
	}
}

func TestOf(t *testing.T) {
	k := Of(rec("QD_JH_RMB_20260225.csv", "300", "ABC贸易"), nil)
	assert.Equal(t, BaseKey{
		Source:       "QD_JH_RMB_20260225.csv",
		Account:      "6222000011112222",
		Date:         "20260225",
		Debit:        "300.00",
		Credit:       "0.00",
		Counterparty: "ABC贸易",
	}, k)
}

func TestOf_TruncatesByCharacter(t *testing.T) {
	r := rec("s", "1", strings.Repeat("贸", 60))
	r.OwnAccountNumber = strings.Repeat("9", 40)
	k := Of(r, nil)
	assert.Equal(t, 30, len(k.Account))
	assert.Equal(t, 50, len([]rune(k.Counterparty)))
}

func TestOf_AccountFunc(t *testing.T) {
	k := Of(rec("s", "1", "x"), func(model.Record) string { return "CONFIGURED" })
	assert.Equal(t, "CONFIGURED", k.Account)
}

func TestSequence(t *testing.T) {
	in := []model.Record{
		rec("s", "100", "A"),
		rec("s", "100", "A"),
		rec("s", "200", "A"),
		rec("s", "100", "A"),
	}
	out := Sequence(in, nil)
	require.Len(t, out, 4)
	assert.Equal(t, []int{0, 1, 0, 2}, []int{out[0].SequenceIndex, out[1].SequenceIndex, out[2].SequenceIndex, out[3].SequenceIndex})
	for _, r := range in {
		assert.Equal(t, 0, r.SequenceIndex)
	}
}

func TestPlanner_IdenticalRowsBothWritten(t *testing.T) {
	records := Sequence([]model.Record{rec("s", "100", "A"), rec("s", "100", "A")}, nil)
	p := NewPlanner(nil, nil)

	var written int
	for _, r := range records {
		if p.IsNew(r) {
			p.MarkWritten(r)
			written++
		}
	}
	assert.Equal(t, 2, written)

	// Second run over the same file writes nothing.
	p2 := NewPlanner(KeySetFromBase([]BaseKey{Of(records[0], nil), Of(records[1], nil)}), nil)
	assert.Empty(t, p2.Plan(records))
}

func TestPlanner_PartialExisting(t *testing.T) {
	records := Sequence([]model.Record{
		rec("s", "100", "A"),
		rec("s", "100", "A"),
		rec("s", "100", "A"),
	}, nil)
	// Target holds one copy.
	p := NewPlanner(KeySetFromBase([]BaseKey{Of(records[0], nil)}), nil)
	plan := p.Plan(records)
	require.Len(t, plan, 2)
	assert.Equal(t, 1, plan[0].SequenceIndex)
	assert.Equal(t, 2, plan[1].SequenceIndex)
}

func TestPlanner_MarkWrittenPreventsRepeat(t *testing.T) {
	r := rec("s", "5", "B")
	p := NewPlanner(KeySet{}, nil)
	assert.True(t, p.IsNew(r))
	p.MarkWritten(r)
	assert.False(t, p.IsNew(r))
	assert.Equal(t, 1, p.Len())
}

func TestPlanner_DifferentSourcesDistinct(t *testing.T) {
	a := rec("QD_JH_RMB_20260225.csv", "100", "A")
	b := rec("QD_JH_RMB_20260226.csv", "100", "A")
	p := NewPlanner(nil, nil)
	p.MarkWritten(a)
	assert.True(t, p.IsNew(b))
}
