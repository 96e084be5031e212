// Package library defines the record of documents the reader has opened.
package library

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when no record exists for a document ID.
var ErrNotFound = errors.New("document not found")

// Entry is one opened document.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	ContentType string    `json:"content_type"`
	Bytes       int       `json:"bytes"`
	OpenCount   int       `json:"open_count"`
	LastOpened  time.Time `json:"last_opened"`
}

// DisplayName returns the title, or the base name of the ID when the
// document has no title.
func (e Entry) DisplayName() string {
	if t := strings.TrimSpace(e.Title); t != "" {
		return t
	}
	return path.Base(strings.TrimPrefix(e.ID, "file://"))
}

// Store records document opens.
type Store interface {
	// RecordOpen upserts the entry and increments its open count. OpenCount
	// and LastOpened on the argument are ignored.
	RecordOpen(ctx context.Context, e Entry, at time.Time) error
	Get(ctx context.Context, id string) (Entry, error)
	// Recent returns up to limit entries, most recently opened first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Forget(ctx context.Context, id string) error
}
