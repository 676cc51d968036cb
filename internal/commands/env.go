package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/cleared-dev/bankflow/internal/config"
	"github.com/cleared-dev/bankflow/internal/pipeline"
	"github.com/cleared-dev/bankflow/internal/runlog"
	"github.com/cleared-dev/bankflow/internal/source"
	"github.com/cleared-dev/bankflow/internal/store"
)

// env holds the collaborators shared by the sessions of one process.
type env struct {
	cfg    *config.Config
	src    source.Source
	store  *store.SQLite
	runlog *runlog.Log
	logger *slog.Logger
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.GetString(keyConfigDir))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func openEnv(ctx context.Context, v *viper.Viper) (*env, error) {
	logger := slog.Default()

	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}

	var src source.Source
	if folder := v.GetString(keyDriveFolder); folder != "" {
		d, err := source.NewDrive(ctx, v.GetString(keyCredentials), folder)
		if err != nil {
			return nil, fmt.Errorf("connecting to drive: %w", err)
		}
		src = d
	} else {
		src = source.NewDir(v.GetString(keySourceDir))
	}

	db, err := store.OpenSQLite(v.GetString(keyStorePath), logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return &env{
		cfg:    cfg,
		src:    src,
		store:  db,
		runlog: runlog.New(v.GetString(keyRunLogDir)),
		logger: logger,
	}, nil
}

func (e *env) session() *pipeline.Session {
	return pipeline.NewSession(pipeline.Deps{
		Config: e.cfg,
		Source: e.src,
		Store:  e.store,
		RunLog: e.runlog,
		Logger: e.logger,
	})
}

func (e *env) Close() error {
	return e.store.Close()
}
