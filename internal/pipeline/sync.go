package pipeline

import (
	"context"
	"fmt"

	"github.com/cleared-dev/bankflow/internal/fingerprint"
	"github.com/cleared-dev/bankflow/internal/reconcile"
	"github.com/cleared-dev/bankflow/internal/runlog"
	"github.com/cleared-dev/bankflow/internal/store"
	"github.com/cleared-dev/bankflow/internal/target"
)

// SyncOptions controls a sync pass.
type SyncOptions struct {
	// Full writes every parsed record without reading existing keys.
	Full bool
	// Only keeps files whose name contains this text, case-insensitively.
	Only string
	// Validate runs a verify pass after writing.
	Validate bool
}

// FileReport is the outcome of one source file.
type FileReport struct {
	Name    string `json:"name"`
	Format  string `json:"format,omitempty"`
	Parsed  int    `json:"parsed"`
	Written int    `json:"written"`
	Failed  int    `json:"failed"`
	Error   string `json:"error,omitempty"`
}

// SyncReport is the outcome of a sync pass.
type SyncReport struct {
	RunID      string            `json:"run_id"`
	Existing   int               `json:"existing"`
	Files      []FileReport      `json:"files"`
	Parsed     int               `json:"parsed"`
	Written    int               `json:"written"`
	Failed     int               `json:"failed"`
	Validation *reconcile.Result `json:"validation,omitempty"`
}

// Sync writes the not-yet-written records of the latest source files to
// the target. Unreadable files and failed writes are logged and skipped.
func (s *Session) Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	report := &SyncReport{RunID: s.ID}

	files, err := s.latestSources(ctx, opts.Only)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Info("no source files to sync", "only", opts.Only)
		return report, nil
	}

	var existing fingerprint.KeySet
	if !opts.Full {
		rows, err := store.FetchAll(ctx, s.store, s.PageSize)
		if err != nil {
			s.logger.Warn("reading existing records; continuing with partial key set", "read", len(rows), "error", err)
		}
		existing = target.ExistingKeys(rows)
		report.Existing = len(rows)
	}
	planner := fingerprint.NewPlanner(existing, s.account)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		fr := FileReport{Name: f.Name}
		res, err := s.parseSource(ctx, f)
		if err != nil {
			s.logger.Warn("skipping source", "file", f.Name, "error", err)
			fr.Error = err.Error()
			report.Files = append(report.Files, fr)
			continue
		}
		fr.Format = res.Format.String()
		fr.Parsed = len(res.Records)

		for _, r := range planner.Plan(res.Records) {
			fields := target.ToFields(r, s.resolver.Resolve(r))
			if _, err := s.store.Create(ctx, fields); err != nil {
				s.logger.Warn("writing record", "file", f.Name, "date", r.DateKey(), "error", err)
				fr.Failed++
				continue
			}
			planner.MarkWritten(r)
			fr.Written++
		}

		report.Parsed += fr.Parsed
		report.Written += fr.Written
		report.Failed += fr.Failed
		report.Files = append(report.Files, fr)
	}

	s.logger.Info("sync finished", "files", len(report.Files), "parsed", report.Parsed, "written", report.Written, "failed", report.Failed)
	s.audit(runlog.Entry{
		Action:  "sync",
		Details: syncDetails(opts),
		Parsed:  report.Parsed,
		Written: report.Written,
		Valid:   report.Failed == 0,
	})

	if opts.Validate {
		res, err := s.Verify(ctx, VerifyOptions{})
		if err != nil {
			return report, fmt.Errorf("validating after sync: %w", err)
		}
		report.Validation = res
	}
	return report, nil
}

func syncDetails(opts SyncOptions) string {
	d := "incremental"
	if opts.Full {
		d = "full"
	}
	if opts.Only != "" {
		d += " only=" + opts.Only
	}
	return d
}
