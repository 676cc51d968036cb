package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bankflow/internal/target"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const recordColumns = `id, own_account_name, own_account, counterparty, counterparty_account,
	type, currency, debit, credit, summary, memo, source, reference, date_ms,
	legacy_account_name, legacy_account`

// SQLite is a TableStore backed by a local SQLite database.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path. Call Migrate
// before use.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &SQLite{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// List implements TableStore. Page tokens are the last row sequence seen.
func (s *SQLite) List(ctx context.Context, pageToken string, pageSize int) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	after := int64(0)
	if pageToken != "" {
		n, err := strconv.ParseInt(pageToken, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("invalid page token %q: %w", pageToken, err)
		}
		after = n
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, `+recordColumns+` FROM records WHERE seq > ? ORDER BY seq LIMIT ?`,
		after, pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("querying records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var page Page
	var last int64
	for rows.Next() {
		var r target.Record
		var debit, credit string
		if err := rows.Scan(&last, &r.ID, &r.OwnAccountName, &r.OwnAccount, &r.Counterparty,
			&r.CounterpartyAccount, &r.Type, &r.Currency, &debit, &credit, &r.Summary,
			&r.Memo, &r.Source, &r.Reference, &r.DateMillis,
			&r.LegacyAccountName, &r.LegacyAccount); err != nil {
			return Page{}, fmt.Errorf("scanning record: %w", err)
		}
		if r.Debit, err = decimal.NewFromString(debit); err != nil {
			return Page{}, fmt.Errorf("record %s debit: %w", r.ID, err)
		}
		if r.Credit, err = decimal.NewFromString(credit); err != nil {
			return Page{}, fmt.Errorf("record %s credit: %w", r.ID, err)
		}
		page.Items = append(page.Items, r)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterating records: %w", err)
	}
	if len(page.Items) == pageSize {
		page.NextToken = strconv.FormatInt(last, 10)
	}
	return page, nil
}

// Create implements TableStore.
func (s *SQLite) Create(ctx context.Context, f target.Fields) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, f.OwnAccountName, f.OwnAccount, f.Counterparty, f.CounterpartyAccount,
		f.Type, f.Currency, f.Debit.String(), f.Credit.String(), f.Summary, f.Memo,
		f.Source, f.Reference, f.DateMillis, f.LegacyAccountName, f.LegacyAccount)
	if err != nil {
		return "", fmt.Errorf("inserting record: %w", err)
	}
	return id, nil
}

// UpdateType implements TableStore.
func (s *SQLite) UpdateType(ctx context.Context, id, typ string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE records SET type = ? WHERE id = ?`, typ, id)
	if err != nil {
		return fmt.Errorf("updating record %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating record %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany implements TableStore. Unknown IDs are ignored.
func (s *SQLite) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}
