package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/bankflow/internal/classify"
	"github.com/cleared-dev/bankflow/internal/importer"
	"github.com/cleared-dev/bankflow/internal/synonym"
)

// fieldKeys maps the column keys used in field_mapping.yaml to fields.
// English field names are accepted too.
var fieldKeys = map[string]synonym.Field{
	"账号":    synonym.FieldAccount,
	"账户名":   synonym.FieldAccountName,
	"交易日":   synonym.FieldDate,
	"支取":    synonym.FieldDebit,
	"收入":    synonym.FieldCredit,
	"金额":    synonym.FieldAmount,
	"币种":    synonym.FieldCurrency,
	"对方户名":  synonym.FieldCounterparty,
	"对方账号":  synonym.FieldCounterpartyAccount,
	"摘要":    synonym.FieldSummary,
	"备注":    synonym.FieldMemo,
	"交易流水号": synonym.FieldReference,
}

func fieldFor(key string) (synonym.Field, bool) {
	if f, ok := fieldKeys[key]; ok {
		return f, true
	}
	for _, f := range synonym.Fields {
		if string(f) == key {
			return f, true
		}
	}
	return "", false
}

func keyFor(f synonym.Field) string {
	for k, v := range fieldKeys {
		if v == f {
			return k
		}
	}
	return string(f)
}

// ledgerSideFile is one direction of zh_parts.
type ledgerSideFile struct {
	Account             int   `yaml:"账号"`
	AccountName         int   `yaml:"账户名"`
	CounterpartyName    int   `yaml:"对方户名"`
	CounterpartyAccount int   `yaml:"对方账号"`
	Summary             int   `yaml:"摘要"`
	Amount              []int `yaml:"金额"`
}

func sideFile(s importer.LedgerSide) ledgerSideFile {
	return ledgerSideFile(s)
}

type ledgerLayoutFile struct {
	Date     int `yaml:"date"`
	MinCells int `yaml:"min_cells"`
}

type fieldMappingFile struct {
	FieldMap     map[string][]string        `yaml:"field_map"`
	ZhParts      map[string]*ledgerSideFile `yaml:"zh_parts"`
	LedgerLayout *ledgerLayoutFile          `yaml:"ledger_layout,omitempty"`
	ForeignA     *importer.ForeignAConfig   `yaml:"foreign_bank_a,omitempty"`
	ForeignB     *importer.ForeignBConfig   `yaml:"foreign_bank_b,omitempty"`
}

const (
	zhInbound  = "来账"
	zhOutbound = "往账"
)

// applyFieldMapping merges field_mapping.yaml. Sections decode onto the
// current values so absent keys keep their defaults.
func (c *Config) applyFieldMapping(data []byte) error {
	in := c.fieldMappingFile()
	in.FieldMap = nil
	in.ZhParts = nil
	if err := yaml.Unmarshal(data, &in); err != nil {
		return err
	}

	override := synonym.FieldMap{}
	for k, labels := range in.FieldMap {
		f, ok := fieldFor(k)
		if !ok {
			return fmt.Errorf("unknown field %q", k)
		}
		override[f] = labels
	}
	c.Fields = c.Fields.Merge(override)

	if err := c.applyZhParts(data); err != nil {
		return err
	}
	if in.LedgerLayout != nil {
		c.Ledger.Date = in.LedgerLayout.Date
		c.Ledger.MinCells = in.LedgerLayout.MinCells
	}
	if in.ForeignA != nil {
		c.ForeignA = *in.ForeignA
	}
	if in.ForeignB != nil {
		c.ForeignB = *in.ForeignB
	}
	return nil
}

// applyZhParts decodes each direction of zh_parts onto its current layout,
// so a file naming one column keeps the others.
func (c *Config) applyZhParts(data []byte) error {
	var in struct {
		ZhParts map[string]yaml.Node `yaml:"zh_parts"`
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return err
	}
	for key, side := range map[string]*importer.LedgerSide{
		zhInbound:  &c.Ledger.Inbound,
		zhOutbound: &c.Ledger.Outbound,
	} {
		node, ok := in.ZhParts[key]
		if !ok {
			continue
		}
		f := sideFile(*side)
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("zh_parts %s: %w", key, err)
		}
		*side = importer.LedgerSide(f)
	}
	return nil
}

func (c *Config) fieldMappingFile() fieldMappingFile {
	fm := make(map[string][]string, len(c.Fields))
	for f, labels := range c.Fields {
		fm[keyFor(f)] = labels
	}
	in, out := sideFile(c.Ledger.Inbound), sideFile(c.Ledger.Outbound)
	fa, fb := c.ForeignA, c.ForeignB
	return fieldMappingFile{
		FieldMap:     fm,
		ZhParts:      map[string]*ledgerSideFile{zhInbound: &in, zhOutbound: &out},
		LedgerLayout: &ledgerLayoutFile{Date: c.Ledger.Date, MinCells: c.Ledger.MinCells},
		ForeignA:     &fa,
		ForeignB:     &fb,
	}
}

type companyFile struct {
	Name     string           `yaml:"name"`
	Accounts []CompanyAccount `yaml:"accounts"`
}

type companyProfileFile struct {
	Companies map[string]companyFile `yaml:"companies"`
}

func (c *Config) applyCompanyProfile(data []byte) error {
	var in companyProfileFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Companies = sortedCompanies(in.Companies)
	return nil
}

func (c *Config) companyProfileFile() companyProfileFile {
	out := companyProfileFile{Companies: map[string]companyFile{}}
	for _, comp := range c.Companies {
		out.Companies[comp.Key] = companyFile{Name: comp.Name, Accounts: comp.Accounts}
	}
	return out
}

type typeClassificationFile struct {
	InternalSettlement   []string          `yaml:"internal_settlement_counterparty,omitempty"`
	SalaryCounterparties []string          `yaml:"expense_counterparty_salary,omitempty"`
	ShareCounterparties  []string          `yaml:"income_counterparty_share,omitempty"`
	IncomeBySource       map[string]string `yaml:"income_by_source,omitempty"`
	LocalPrefixes        []string          `yaml:"local_prefixes,omitempty"`
	ForeignUSDIncomeType string            `yaml:"foreign_usd_income_type,omitempty"`
	Expense              []classify.Rule   `yaml:"expense"`
	Income               []classify.Rule   `yaml:"income"`
}

// applyTypeClassification merges type_classification.yaml. A present file
// turns on the foreign USD income rule unless it names its own type.
func (c *Config) applyTypeClassification(data []byte) error {
	in := c.typeClassificationFile()
	if in.ForeignUSDIncomeType == "" {
		in.ForeignUSDIncomeType = classify.TypeSalesReceipt
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Rules = classify.RuleSet(in)
	if c.Rules.IncomeBySource == nil {
		c.Rules.IncomeBySource = map[string]string{}
	}
	return nil
}

func (c *Config) typeClassificationFile() typeClassificationFile {
	return typeClassificationFile(c.Rules)
}
