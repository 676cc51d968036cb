// Package store persists destination table rows.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cleared-dev/bankflow/internal/target"
)

// DefaultPageSize is the page size used when reading the whole table.
const DefaultPageSize = 500

// ErrNotFound is returned when a record ID does not exist.
var ErrNotFound = errors.New("record not found")

// Page is one page of a listing. An empty NextToken ends the listing.
type Page struct {
	Items     []target.Record
	NextToken string
}

// TableStore is a paged, append-mostly table of target rows.
type TableStore interface {
	List(ctx context.Context, pageToken string, pageSize int) (Page, error)
	Create(ctx context.Context, fields target.Fields) (string, error)
	UpdateType(ctx context.Context, id, typ string) error
	DeleteMany(ctx context.Context, ids []string) error
}

// FetchAll reads every page. On error it returns the rows read so far
// together with the error.
func FetchAll(ctx context.Context, s TableStore, pageSize int) ([]target.Record, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	var out []target.Record
	token := ""
	for {
		page, err := s.List(ctx, token, pageSize)
		if err != nil {
			return out, fmt.Errorf("listing records after %d rows: %w", len(out), err)
		}
		out = append(out, page.Items...)
		if page.NextToken == "" || len(page.Items) == 0 {
			return out, nil
		}
		token = page.NextToken
	}
}

// DeleteBatched deletes ids in chunks of batch, returning how many IDs were
// submitted in batches that succeeded.
func DeleteBatched(ctx context.Context, s TableStore, ids []string, batch int) (int, error) {
	if batch <= 0 {
		batch = DefaultPageSize
	}
	deleted := 0
	for start := 0; start < len(ids); start += batch {
		end := min(start+batch, len(ids))
		if err := s.DeleteMany(ctx, ids[start:end]); err != nil {
			return deleted, fmt.Errorf("deleting batch at %d: %w", start, err)
		}
		deleted += end - start
	}
	return deleted, nil
}
