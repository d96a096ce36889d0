package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/planner"
)

type userStateRow struct {
	bun.BaseModel `bun:"table:user_states,alias:us"`

	UserID    string         `bun:"user_id,pk"`
	Email     string         `bun:"email"`
	Data      *planner.State `bun:"data,type:jsonb"`
	FullName  string         `bun:"full_name"`
	UpdatedAt time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Postgres is the DocumentStore backed by the user_states table.
type Postgres struct {
	db     bun.IDB
	logger *zap.Logger
}

var _ DocumentStore = (*Postgres)(nil)

// NewPostgres returns a document store using db.
func NewPostgres(db bun.IDB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

// Fetch returns the document of userID, or ErrNotFound.
func (p *Postgres) Fetch(ctx context.Context, userID string) (Document, error) {
	row := new(userStateRow)
	err := p.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("remote: fetch state: %w", err)
	}
	doc := Document{
		UserID:    row.UserID,
		Email:     row.Email,
		FullName:  row.FullName,
		UpdatedAt: row.UpdatedAt,
		Data:      planner.Default(),
	}
	if row.Data != nil {
		doc.Data = *row.Data
	}
	return doc, nil
}

// Upsert writes doc, replacing any stored document of the same user.
func (p *Postgres) Upsert(ctx context.Context, doc Document) error {
	if doc.UserID == "" {
		return errors.New("remote: upsert state: missing user id")
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	data := doc.Data
	row := &userStateRow{
		UserID:    doc.UserID,
		Email:     doc.Email,
		Data:      &data,
		FullName:  doc.FullName,
		UpdatedAt: doc.UpdatedAt,
	}
	_, err := p.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("email = EXCLUDED.email").
		Set("data = EXCLUDED.data").
		Set("full_name = EXCLUDED.full_name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remote: upsert state: %w", err)
	}
	p.logger.Debug("Upserted user state", zap.String("user_id", doc.UserID))
	return nil
}
