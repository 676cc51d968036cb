// Package pipeline runs sync, verify and maintenance passes between a
// source of bank exports and the target table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/bankflow/internal/classify"
	"github.com/cleared-dev/bankflow/internal/company"
	"github.com/cleared-dev/bankflow/internal/config"
	"github.com/cleared-dev/bankflow/internal/fingerprint"
	"github.com/cleared-dev/bankflow/internal/importer"
	"github.com/cleared-dev/bankflow/internal/model"
	"github.com/cleared-dev/bankflow/internal/runlog"
	"github.com/cleared-dev/bankflow/internal/source"
	"github.com/cleared-dev/bankflow/internal/store"
)

// ErrNoSourceFiles is returned when a pass needs source files and none
// follow the naming convention.
var ErrNoSourceFiles = errors.New("no source files found")

// Deps are the collaborators of a session. Source and Store are required.
type Deps struct {
	Config *config.Config
	Source source.Source
	Store  store.TableStore
	RunLog *runlog.Log
	Logger *slog.Logger
}

// Session holds the state of one invocation: its run ID, the warned
// prefixes and the parsing setup. Create one per run.
type Session struct {
	ID       string
	cfg      *config.Config
	src      source.Source
	store    store.TableStore
	importer *importer.Importer
	engine   *classify.Engine
	profile  *company.Profile
	resolver *company.Resolver
	runlog   *runlog.Log
	logger   *slog.Logger
	now      func() time.Time

	// PageSize bounds target list pages.
	PageSize int
}

// NewSession creates a session with a fresh run ID.
func NewSession(d Deps) *Session {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	id := uuid.NewString()
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", id)

	engine := cfg.Engine()
	profile := cfg.Profile()
	return &Session{
		ID:       id,
		cfg:      cfg,
		src:      d.Source,
		store:    d.Store,
		importer: importer.New(importer.DefaultRegistry(cfg.ImporterOptions()), engine),
		engine:   engine,
		profile:  profile,
		resolver: company.NewResolver(profile, logger),
		runlog:   d.RunLog,
		logger:   logger,
		now:      time.Now,
		PageSize: store.DefaultPageSize,
	}
}

// Warned returns the source prefixes that had no company profile so far.
func (s *Session) Warned() []string {
	return s.resolver.Warned()
}

// account is the own-account number used in dedup keys.
func (s *Session) account(r model.Record) string {
	return s.profile.AccountFor(r)
}

// ParseBytes parses one export held in memory and numbers its duplicates.
func (s *Session) ParseBytes(name string, data []byte) importer.Result {
	res := s.importer.Parse(importer.Input{Name: name, Kind: model.KindFile, Data: data})
	res.Records = fingerprint.Sequence(res.Records, s.account)
	return res
}

// parseSource fetches and parses one source file.
func (s *Session) parseSource(ctx context.Context, f model.SourceFile) (importer.Result, error) {
	in := importer.Input{Name: f.Name, Kind: f.Kind}
	if f.Kind == model.KindSheet {
		rows, err := s.src.SheetRows(ctx, f, source.MergesAllSheets(f))
		if err != nil {
			return importer.Result{}, fmt.Errorf("reading sheet %s: %w", f.Name, err)
		}
		if len(rows) == 0 {
			return importer.Result{}, fmt.Errorf("sheet %s has no rows", f.Name)
		}
		in.Rows = rows
	} else {
		data, err := s.src.Download(ctx, f)
		if err != nil {
			return importer.Result{}, fmt.Errorf("downloading %s: %w", f.Name, err)
		}
		in.Data = data
	}

	res := s.importer.Parse(in)
	res.Records = fingerprint.Sequence(res.Records, s.account)
	s.logger.Info("parsed source", "file", f.Name, "format", res.Format.String(), "records", len(res.Records))
	if len(res.Records) == 0 {
		s.logger.Warn("source produced no records", "file", f.Name, "reason", res.Reason)
	}
	return res, nil
}

// latestSources lists the newest file per prefix, narrowed by only.
func (s *Session) latestSources(ctx context.Context, only string) ([]model.SourceFile, error) {
	files, err := s.src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	latest := source.FilterOnly(source.LatestPerGroup(files), only)
	s.logger.Info("selected sources", "listed", len(files), "selected", len(latest))
	return latest, nil
}

func (s *Session) audit(e runlog.Entry) {
	e.Timestamp = s.now()
	e.RunID = s.ID
	if err := s.runlog.Append(e); err != nil {
		s.logger.Warn("writing run log", "error", err)
	}
}
