package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/cleared-dev/bankflow/internal/classify"
	"github.com/cleared-dev/bankflow/internal/reconcile"
	"github.com/cleared-dev/bankflow/internal/store"
	"github.com/cleared-dev/bankflow/internal/target"
)

// DeleteBatchSize bounds the IDs passed to one DeleteMany call.
const DeleteBatchSize = 500

// TypeChange is one record whose type the current rules disagree with.
type TypeChange struct {
	ID   string `json:"record_id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Transition counts changes between one pair of types.
type Transition struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// ReclassifyReport is the outcome of a reclassify pass.
type ReclassifyReport struct {
	Checked      int          `json:"checked"`
	Changes      []TypeChange `json:"changes"`
	Distribution []Transition `json:"distribution"`
	Updated      int          `json:"updated"`
	Failed       int          `json:"failed"`
}

// Reclassify re-runs the rules over every target record and updates the
// ones whose type changed. With dryRun nothing is written.
func (s *Session) Reclassify(ctx context.Context, dryRun bool) (*ReclassifyReport, error) {
	rows, err := store.FetchAll(ctx, s.store, s.PageSize)
	if err != nil {
		return nil, fmt.Errorf("reading target records: %w", err)
	}

	report := &ReclassifyReport{Checked: len(rows)}
	counts := map[[2]string]int{}
	for _, r := range rows {
		typ := s.engine.Classify(classifyInput(r))
		if typ == r.Type {
			continue
		}
		report.Changes = append(report.Changes, TypeChange{ID: r.ID, From: r.Type, To: typ})
		counts[[2]string{r.Type, typ}]++
	}
	report.Distribution = transitions(counts)

	if dryRun {
		s.logger.Info("reclassify dry run", "checked", report.Checked, "changes", len(report.Changes))
		return report, nil
	}
	for _, c := range report.Changes {
		if err := s.store.UpdateType(ctx, c.ID, c.To); err != nil {
			s.logger.Warn("updating type", "record_id", c.ID, "error", err)
			report.Failed++
			continue
		}
		report.Updated++
	}
	s.logger.Info("reclassify finished", "checked", report.Checked, "updated", report.Updated, "failed", report.Failed)
	return report, nil
}

// classifyInput rebuilds the engine input of a stored row. The stored
// summary carries the counterparty in front; only the bank summary counts.
func classifyInput(r target.Record) classify.Input {
	in := classify.InputFor(r.Canonical())
	in.Summary = target.SplitSummary(r.Summary)
	return in
}

func transitions(counts map[[2]string]int) []Transition {
	out := make([]Transition, 0, len(counts))
	for k, n := range counts {
		out = append(out, Transition{From: k[0], To: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// DedupeReport is the outcome of a duplicate removal pass.
type DedupeReport struct {
	Groups  []reconcile.DuplicateGroup `json:"groups"`
	IDs     []string                   `json:"ids"`
	Deleted int                        `json:"deleted"`
}

// RemoveDuplicates deletes every target row that repeats an earlier row's
// base key, keeping the first.
func (s *Session) RemoveDuplicates(ctx context.Context, dryRun bool) (*DedupeReport, error) {
	rows, err := store.FetchAll(ctx, s.store, s.PageSize)
	if err != nil {
		return nil, fmt.Errorf("reading target records: %w", err)
	}

	res := reconcile.Validate(nil, rows, s.profile)
	report := &DedupeReport{Groups: res.DuplicateGroups, IDs: res.RemovableIDs()}
	if dryRun || len(report.IDs) == 0 {
		return report, nil
	}

	report.Deleted, err = store.DeleteBatched(ctx, s.store, report.IDs, DeleteBatchSize)
	if err != nil {
		return report, fmt.Errorf("deleting duplicates: %w", err)
	}
	s.logger.Info("duplicates removed", "groups", len(report.Groups), "deleted", report.Deleted)
	return report, nil
}

// DeleteBySource deletes every target row whose source equals name and
// returns the number of rows matched and deleted.
func (s *Session) DeleteBySource(ctx context.Context, name string, dryRun bool) (matched, deleted int, err error) {
	rows, err := store.FetchAll(ctx, s.store, s.PageSize)
	if err != nil {
		return 0, 0, fmt.Errorf("reading target records: %w", err)
	}

	var ids []string
	for _, r := range rows {
		if r.Source == name {
			ids = append(ids, r.ID)
		}
	}
	if dryRun || len(ids) == 0 {
		return len(ids), 0, nil
	}

	deleted, err = store.DeleteBatched(ctx, s.store, ids, DeleteBatchSize)
	if err != nil {
		return len(ids), deleted, fmt.Errorf("deleting records of %s: %w", name, err)
	}
	s.logger.Info("source purged", "source", name, "deleted", deleted)
	return len(ids), deleted, nil
}

// Records returns the target rows passing f.
func (s *Session) Records(ctx context.Context, f target.Filter) ([]target.Record, error) {
	rows, err := store.FetchAll(ctx, s.store, s.PageSize)
	if err != nil {
		return nil, fmt.Errorf("reading target records: %w", err)
	}
	return f.Apply(rows), nil
}

// Stats summarizes the target rows.
func (s *Session) Stats(ctx context.Context) (target.Stats, error) {
	rows, err := store.FetchAll(ctx, s.store, s.PageSize)
	if err != nil {
		return target.Stats{}, fmt.Errorf("reading target records: %w", err)
	}
	return target.Summarize(rows), nil
}
