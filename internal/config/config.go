// Package config loads the domain configuration: field synonyms, parser
// layouts, the company profile and the classification rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/bankflow/internal/classify"
	"github.com/cleared-dev/bankflow/internal/company"
	"github.com/cleared-dev/bankflow/internal/importer"
	"github.com/cleared-dev/bankflow/internal/synonym"
)

// Config file names inside the config directory.
const (
	FieldMappingFile       = "field_mapping.yaml"
	CompanyProfileFile     = "company_profile.yaml"
	TypeClassificationFile = "type_classification.yaml"
)

// Config is the typed domain configuration.
type Config struct {
	Fields    synonym.FieldMap
	Ledger    importer.LedgerColumns
	ForeignA  importer.ForeignAConfig
	ForeignB  importer.ForeignBConfig
	Companies []Company
	Rules     classify.RuleSet
}

// Company is one legal entity and the source accounts it owns.
type Company struct {
	Key      string
	Name     string
	Accounts []CompanyAccount
}

// CompanyAccount binds a source prefix to an official account number.
type CompanyAccount struct {
	SourcePrefix string `yaml:"source_prefix"`
	Account      string `yaml:"account"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Fields:   synonym.DefaultFieldMap(),
		Ledger:   importer.DefaultLedgerColumns(),
		ForeignA: importer.DefaultForeignAConfig(),
		ForeignB: importer.DefaultForeignBConfig(),
		Rules:    classify.DefaultRuleSet(),
	}
}

// Load reads the config files in dir over the defaults. Missing files keep
// the defaults; malformed files are errors.
func Load(dir string) (*Config, error) {
	cfg := Default()

	if data, ok, err := readOptional(filepath.Join(dir, FieldMappingFile)); err != nil {
		return nil, err
	} else if ok {
		if err := cfg.applyFieldMapping(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FieldMappingFile, err)
		}
	}

	if data, ok, err := readOptional(filepath.Join(dir, CompanyProfileFile)); err != nil {
		return nil, err
	} else if ok {
		if err := cfg.applyCompanyProfile(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", CompanyProfileFile, err)
		}
	}

	if data, ok, err := readOptional(filepath.Join(dir, TypeClassificationFile)); err != nil {
		return nil, err
	} else if ok {
		if err := cfg.applyTypeClassification(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", TypeClassificationFile, err)
		}
	}
	return cfg, nil
}

func readOptional(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading config: %w", err)
	}
	return data, true, nil
}

// Save writes cfg as the three config files in dir.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	files := map[string]any{
		FieldMappingFile:       cfg.fieldMappingFile(),
		CompanyProfileFile:     cfg.companyProfileFile(),
		TypeClassificationFile: cfg.typeClassificationFile(),
	}
	for name, v := range files {
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// Profile builds the prefix lookup from the configured companies. A prefix
// listed twice keeps its last entry.
func (c *Config) Profile() *company.Profile {
	entries := map[string]company.Entry{}
	for _, comp := range c.Companies {
		for _, acc := range comp.Accounts {
			if acc.SourcePrefix == "" {
				continue
			}
			entries[acc.SourcePrefix] = company.Entry{Name: comp.Name, Account: acc.Account}
		}
	}
	return company.NewProfile(entries)
}

// ImporterOptions returns the parser settings.
func (c *Config) ImporterOptions() importer.Options {
	return importer.Options{
		Fields:   c.Fields,
		Ledger:   c.Ledger,
		ForeignA: c.ForeignA,
		ForeignB: c.ForeignB,
	}
}

// Engine returns a classifier over the configured rules.
func (c *Config) Engine() *classify.Engine {
	rules := c.Rules
	return classify.NewEngine(&rules)
}

func sortedCompanies(m map[string]companyFile) []Company {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Company, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		out = append(out, Company{Key: k, Name: v.Name, Accounts: v.Accounts})
	}
	return out
}
