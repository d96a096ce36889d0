// Package remote is the server side of studyplan: the per-user state
// document store and the study group tables, both kept in PostgreSQL.
package remote

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/studyplan/pkg/planner"
)

var (
	// ErrNotFound is returned when a record does not exist. For user state it
	// is the expected answer for a new user.
	ErrNotFound = errors.New("remote: not found")
	// ErrForbidden is returned when the caller does not own or belong to the
	// record it tries to touch.
	ErrForbidden = errors.New("remote: forbidden")
)

// Document is the stored state of one user.
type Document struct {
	UserID    string
	Email     string
	Data      planner.State
	FullName  string
	UpdatedAt time.Time
}

// DocumentStore reads and writes whole state documents keyed by user id. The
// last write wins.
type DocumentStore interface {
	Fetch(ctx context.Context, userID string) (Document, error)
	Upsert(ctx context.Context, doc Document) error
}
