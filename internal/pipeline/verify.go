package pipeline

import (
	"context"

	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/reconcile"
	"github.com/cleared-dev/bankflow/internal/runlog"
	"github.com/cleared-dev/bankflow/internal/store"
	"github.com/cleared-dev/bankflow/internal/target"
)

// VerifyOptions controls a verify pass.
type VerifyOptions struct {
	Only string
	// Targets replaces the table contents, e.g. rows read from an export.
	Targets []target.Record
}

// Verify parses the latest source files and reconciles them against the
// target rows.
func (s *Session) Verify(ctx context.Context, opts VerifyOptions) (*reconcile.Result, error) {
	records, err := s.SourceRecords(ctx, opts.Only)
	if err != nil {
		return nil, err
	}

	targets := opts.Targets
	if targets == nil {
		targets, err = store.FetchAll(ctx, s.store, s.PageSize)
		if err != nil {
			s.logger.Warn("reading target records; validating partial set", "read", len(targets), "error", err)
		}
	}

	res := reconcile.Validate(records, targets, s.profile)
	s.logger.Info("verify finished",
		"source", res.TotalSource, "target", res.TotalTarget,
		"matched", res.Matched, "mismatched", res.Mismatched,
		"duplicates", res.DuplicateCount, "valid", res.IsValid)
	for _, reason := range res.Reasons {
		s.logger.Warn("verify failed", "reason", reason)
	}

	s.audit(runlog.Entry{
		Action:  "verify",
		Details: res.DateRange,
		Parsed:  res.TotalSource,
		Written: res.TotalTarget,
		Valid:   res.IsValid,
	})
	return res, nil
}

// SourceRecords parses every latest source file, skipping unreadable ones.
func (s *Session) SourceRecords(ctx context.Context, only string) ([]model.Record, error) {
	files, err := s.latestSources(ctx, only)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoSourceFiles
	}

	var records []model.Record
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := s.parseSource(ctx, f)
		if err != nil {
			s.logger.Warn("skipping source", "file", f.Name, "error", err)
			continue
		}
		records = append(records, res.Records...)
	}
	return records, nil
}

// SourceDuplicates reports base keys repeated inside the latest sources.
func (s *Session) SourceDuplicates(ctx context.Context, only string) ([]reconcile.SourceDuplicate, error) {
	records, err := s.SourceRecords(ctx, only)
	if err != nil {
		return nil, err
	}
	return reconcile.SourceDuplicates(records, s.account), nil
}
