package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/hay-kot/quire/internal/core/library"
	"github.com/hay-kot/quire/internal/data/db"
)

// DocumentStore implements library.Store using SQLite.
type DocumentStore struct {
	db *db.DB
}

var _ library.Store = (*DocumentStore)(nil)

// NewDocumentStore creates a new SQLite-backed document store.
func NewDocumentStore(db *db.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// RecordOpen upserts the document and bumps its open count.
func (s *DocumentStore) RecordOpen(ctx context.Context, e library.Entry, at time.Time) error {
	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO documents (id, title, content_type, bytes, open_count, last_opened_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content_type = excluded.content_type,
			bytes = excluded.bytes,
			open_count = documents.open_count + 1,
			last_opened_at = excluded.last_opened_at
	`, e.ID, e.Title, e.ContentType, e.Bytes, at.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record open of %q: %w", e.ID, err)
	}
	return nil
}

// Get returns the record for id, or library.ErrNotFound.
func (s *DocumentStore) Get(ctx context.Context, id string) (library.Entry, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, title, content_type, bytes, open_count, last_opened_at
		FROM documents WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if IsNotFoundError(err) {
		return library.Entry{}, library.ErrNotFound
	}
	if err != nil {
		return library.Entry{}, fmt.Errorf("failed to get document: %w", err)
	}
	return e, nil
}

// Recent returns up to limit documents, newest first. A limit of zero or
// less returns everything.
func (s *DocumentStore) Recent(ctx context.Context, limit int) ([]library.Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, title, content_type, bytes, open_count, last_opened_at
		FROM documents
		ORDER BY last_opened_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []library.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Forget removes the record for id. Missing records are not an error.
func (s *DocumentStore) Forget(ctx context.Context, id string) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to forget document: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (library.Entry, error) {
	var (
		e      library.Entry
		opened int64
	)
	if err := sc.Scan(&e.ID, &e.Title, &e.ContentType, &e.Bytes, &e.OpenCount, &opened); err != nil {
		return library.Entry{}, err
	}
	e.LastOpened = time.Unix(0, opened)
	return e, nil
}
