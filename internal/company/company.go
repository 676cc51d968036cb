// Package company maps source prefixes to the official owner identity.
package company

import (
	"log/slog"
	"sort"

	"github.com/cleared-dev/bankflow/internal/model"
)

// Unconfigured is the account name written for prefixes with no profile.
const Unconfigured = "未配置"

// Entry is the official identity of one source account.
type Entry struct {
	Name    string `yaml:"name"`
	Account string `yaml:"account"`
}

// Lookup resolves the identity a record should carry in the target.
type Lookup interface {
	Expected(r model.Record) (Entry, bool)
}

// Profile provides lookup over configured source prefixes.
type Profile struct {
	byPrefix map[string]Entry
}

// NewProfile creates a Profile from prefix -> entry pairs.
func NewProfile(entries map[string]Entry) *Profile {
	byPrefix := make(map[string]Entry, len(entries))
	for k, v := range entries {
		byPrefix[k] = v
	}
	return &Profile{byPrefix: byPrefix}
}

// Get returns the entry for a prefix.
func (p *Profile) Get(prefix string) (Entry, bool) {
	if p == nil {
		return Entry{}, false
	}
	e, ok := p.byPrefix[prefix]
	return e, ok
}

// Exists reports whether a prefix is configured.
func (p *Profile) Exists(prefix string) bool {
	_, ok := p.Get(prefix)
	return ok
}

// Prefixes returns the configured prefixes, sorted.
func (p *Profile) Prefixes() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.byPrefix))
	for k := range p.byPrefix {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Expected returns the own-account identity a record should carry in the
// target: the configured entry, or the parsed account with the Unconfigured
// name.
func (p *Profile) Expected(r model.Record) (Entry, bool) {
	if e, ok := p.Get(r.Prefix()); ok {
		return e, true
	}
	return Entry{Name: Unconfigured, Account: r.OwnAccountNumber}, false
}

// AccountFor returns the own-account number used in dedup keys.
func (p *Profile) AccountFor(r model.Record) string {
	e, _ := p.Expected(r)
	return e.Account
}

// Resolver wraps a Profile with per-run warning state: each unknown prefix
// is logged once.
type Resolver struct {
	profile *Profile
	logger  *slog.Logger
	warned  map[string]bool
}

// NewResolver creates a Resolver for one run.
func NewResolver(profile *Profile, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{profile: profile, logger: logger, warned: make(map[string]bool)}
}

// Profile returns the underlying profile.
func (r *Resolver) Profile() *Profile {
	return r.profile
}

// Resolve returns the expected identity for rec, warning on the first
// unknown prefix.
func (r *Resolver) Resolve(rec model.Record) Entry {
	e, ok := r.profile.Expected(rec)
	if !ok {
		prefix := rec.Prefix()
		if !r.warned[prefix] {
			r.warned[prefix] = true
			r.logger.Warn("source prefix has no company profile; writing parsed account",
				"prefix", prefix, "account", rec.OwnAccountNumber)
		}
	}
	return e
}

// Warned returns the prefixes warned about so far, sorted.
func (r *Resolver) Warned() []string {
	out := make([]string, 0, len(r.warned))
	for k := range r.warned {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
