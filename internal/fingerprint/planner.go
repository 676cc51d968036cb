package fingerprint

import "github.com/cleared-dev/bankflow/internal/model"

// KeySet is a set of full keys already present in the target.
type KeySet map[FullKey]struct{}

// KeySetFromBase numbers base keys in the order given and returns the
// resulting full-key set. Callers pass keys in target fetch order.
func KeySetFromBase(keys []BaseKey) KeySet {
	set := make(KeySet, len(keys))
	seen := make(map[BaseKey]int, len(keys))
	for _, k := range keys {
		set[FullKey{BaseKey: k, Seq: seen[k]}] = struct{}{}
		seen[k]++
	}
	return set
}

// Has reports whether k is in the set.
func (s KeySet) Has(k FullKey) bool {
	_, ok := s[k]
	return ok
}

// Planner decides which records still need writing. The zero value is not
// usable; use NewPlanner.
type Planner struct {
	existing KeySet
	account  AccountFunc
}

// NewPlanner creates a planner over existing keys. A nil set means the
// target is empty (or could not be read) and everything is new.
func NewPlanner(existing KeySet, account AccountFunc) *Planner {
	if existing == nil {
		existing = KeySet{}
	}
	if account == nil {
		account = RawAccount
	}
	return &Planner{existing: existing, account: account}
}

// Key returns the full key the planner uses for r.
func (p *Planner) Key(r model.Record) FullKey {
	return Full(r, p.account)
}

// IsNew reports whether r has not been written yet.
func (p *Planner) IsNew(r model.Record) bool {
	return !p.existing.Has(p.Key(r))
}

// MarkWritten records a successful write of r.
func (p *Planner) MarkWritten(r model.Record) {
	p.existing[p.Key(r)] = struct{}{}
}

// Plan returns the records of one sequenced file that are not yet written.
func (p *Planner) Plan(records []model.Record) []model.Record {
	var out []model.Record
	for _, r := range records {
		if p.IsNew(r) {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of known keys.
func (p *Planner) Len() int {
	return len(p.existing)
}
