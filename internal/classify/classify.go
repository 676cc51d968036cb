// Package classify assigns a business category to a canonical record.
package classify

import (
	"strings"

	"github.com/cleared-dev/bankflow/internal/model"
)

// Rule maps any of its keywords to a category.
type Rule struct {
	Keywords []string `yaml:"keywords"`
	Type     string   `yaml:"type"`
}

// RuleSet is the full classification configuration. Rules are evaluated in
// slice order; the first match wins.
type RuleSet struct {
	InternalSettlement   []string
	SalaryCounterparties []string
	ShareCounterparties  []string
	IncomeBySource       map[string]string
	LocalPrefixes        []string
	ForeignUSDIncomeType string
	Expense              []Rule
	Income               []Rule
}

// Input carries the record attributes the engine looks at.
type Input struct {
	Summary      string
	Counterparty string
	Memo         string
	IsExpense    bool
	SourcePrefix string
	Currency     model.Currency
}

// InputFor builds an Input from a record.
func InputFor(r model.Record) Input {
	return Input{
		Summary:      r.Summary,
		Counterparty: r.CounterpartyName,
		Memo:         r.Memo,
		IsExpense:    r.IsExpense(),
		SourcePrefix: r.Prefix(),
		Currency:     r.Currency,
	}
}

// Engine classifies records against a RuleSet.
type Engine struct {
	rules RuleSet
}

// NewEngine creates an Engine. A nil rule set uses DefaultRuleSet.
func NewEngine(rules *RuleSet) *Engine {
	if rules == nil {
		d := DefaultRuleSet()
		rules = &d
	}
	return &Engine{rules: *rules}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// Classify returns the category for in. It always returns a non-empty type.
func (e *Engine) Classify(in Input) string {
	cp := in.Counterparty

	if containsAny(cp, e.rules.InternalSettlement) {
		return TypeInternalSettlement
	}
	if in.IsExpense && containsAny(cp, e.rules.SalaryCounterparties) {
		return TypeSalary
	}
	if !in.IsExpense {
		if containsAny(cp, e.rules.ShareCounterparties) {
			return TypeRevenueShare
		}
		if t, ok := e.rules.IncomeBySource[in.SourcePrefix]; ok && t != "" {
			return t
		}
		if e.isForeignUSD(in) {
			return e.rules.ForeignUSDIncomeType
		}
	}

	text := strings.ToLower(in.Summary + " " + cp + " " + in.Memo)
	rules := e.rules.Income
	fallback := TypeOtherIncome
	if in.IsExpense {
		rules = e.rules.Expense
		fallback = TypeOtherExpense
	}
	for _, r := range rules {
		for _, k := range r.Keywords {
			if k != "" && strings.Contains(text, strings.ToLower(k)) {
				return r.Type
			}
		}
	}
	return fallback
}

// ClassifyRecord is Classify over a record's own fields.
func (e *Engine) ClassifyRecord(r model.Record) string {
	return e.Classify(InputFor(r))
}

func (e *Engine) isForeignUSD(in Input) bool {
	if e.rules.ForeignUSDIncomeType == "" || in.Currency != model.CurrencyUSD || in.SourcePrefix == "" {
		return false
	}
	upper := strings.ToUpper(in.SourcePrefix)
	for _, p := range e.rules.LocalPrefixes {
		if p != "" && strings.Contains(upper, strings.ToUpper(p)) {
			return false
		}
	}
	return true
}

func containsAny(s string, names []string) bool {
	if s == "" {
		return false
	}
	for _, n := range names {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}
