package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionTTL = 30 * 24 * time.Hour
	resetTTL   = time.Hour
)

type userRow struct {
	bun.BaseModel `bun:"table:auth_users,alias:au"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash []byte    `bun:"password_hash"`
	FullName     string    `bun:"full_name"`
	Provider     string    `bun:"provider,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:auth_sessions,alias:sess"`

	Token     string    `bun:"token,pk"`
	UserID    string    `bun:"user_id,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type resetRow struct {
	bun.BaseModel `bun:"table:auth_resets,alias:ar"`

	Token     string    `bun:"token,pk"`
	UserID    string    `bun:"user_id,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
}

// Models lists the tables the Postgres backend needs, for schema creation.
func Models() []any {
	return []any{(*userRow)(nil), (*sessionRow)(nil), (*resetRow)(nil)}
}

// Postgres is a Backend storing accounts and sessions with bun. Passwords
// are kept as bcrypt hashes.
type Postgres struct {
	db     *bun.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ Backend = (*Postgres)(nil)

// NewPostgres returns a backend using db.
func NewPostgres(db *bun.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger, now: time.Now}
}

func (p *Postgres) SignUp(ctx context.Context, email, password, fullName string) (Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("identity: hash password: %w", err)
	}
	u := userRow{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Provider:     "email",
		CreatedAt:    p.now().UTC(),
	}
	res, err := p.db.NewInsert().Model(&u).On("CONFLICT (email) DO NOTHING").Exec(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("identity: sign up: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Session{}, ErrUserExists
	}
	return p.newSession(ctx, u)
}

func (p *Postgres) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := p.userBy(ctx, "email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("identity: sign in: %w", err)
	}
	if len(u.PasswordHash) == 0 || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return p.newSession(ctx, u)
}

func (p *Postgres) SignInExternal(ctx context.Context, provider, email, fullName string) (Session, error) {
	u, err := p.userBy(ctx, "email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		u = userRow{
			ID:        uuid.NewString(),
			Email:     email,
			FullName:  fullName,
			Provider:  provider,
			CreatedAt: p.now().UTC(),
		}
		if _, err := p.db.NewInsert().Model(&u).Exec(ctx); err != nil {
			return Session{}, fmt.Errorf("identity: create external user: %w", err)
		}
		p.logger.Info("Created user from oauth", zap.String("provider", provider), zap.String("user_id", u.ID))
	} else if err != nil {
		return Session{}, fmt.Errorf("identity: sign in: %w", err)
	}
	return p.newSession(ctx, u)
}

func (p *Postgres) Restore(ctx context.Context, token string) (Session, error) {
	var row sessionRow
	err := p.db.NewSelect().Model(&row).Where("token = ?", token).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("identity: restore session: %w", err)
	}
	if p.now().After(row.ExpiresAt) {
		return Session{}, ErrNoSession
	}
	u, err := p.userBy(ctx, "id = ?", row.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("identity: restore session: %w", err)
	}
	return Session{UserID: u.ID, Email: u.Email, FullName: u.FullName, Token: row.Token, ExpiresAt: row.ExpiresAt}, nil
}

func (p *Postgres) SignOut(ctx context.Context, token string) error {
	if _, err := p.db.NewDelete().Model((*sessionRow)(nil)).Where("token = ?", token).Exec(ctx); err != nil {
		return fmt.Errorf("identity: sign out: %w", err)
	}
	return nil
}

func (p *Postgres) RequestReset(ctx context.Context, email string) (string, error) {
	u, err := p.userBy(ctx, "email = ?", email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("identity: request reset: %w", err)
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}
	row := resetRow{Token: token, UserID: u.ID, ExpiresAt: p.now().Add(resetTTL).UTC()}
	if _, err := p.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return "", fmt.Errorf("identity: request reset: %w", err)
	}
	return token, nil
}

func (p *Postgres) ResetPassword(ctx context.Context, token, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}
	return p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row resetRow
		err := tx.NewSelect().Model(&row).Where("token = ?", token).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && p.now().After(row.ExpiresAt)) {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("identity: reset password: %w", err)
		}
		if _, err := tx.NewUpdate().Model((*userRow)(nil)).
			Set("password_hash = ?", hash).
			Where("id = ?", row.UserID).
			Exec(ctx); err != nil {
			return fmt.Errorf("identity: reset password: %w", err)
		}
		// A new password ends every open session.
		if _, err := tx.NewDelete().Model((*sessionRow)(nil)).Where("user_id = ?", row.UserID).Exec(ctx); err != nil {
			return fmt.Errorf("identity: reset password: %w", err)
		}
		_, err = tx.NewDelete().Model((*resetRow)(nil)).Where("token = ?", token).Exec(ctx)
		return err
	})
}

func (p *Postgres) userBy(ctx context.Context, where string, arg any) (userRow, error) {
	var u userRow
	err := p.db.NewSelect().Model(&u).Where(where, arg).Limit(1).Scan(ctx)
	return u, err
}

func (p *Postgres) newSession(ctx context.Context, u userRow) (Session, error) {
	token, err := newToken()
	if err != nil {
		return Session{}, err
	}
	row := sessionRow{Token: token, UserID: u.ID, ExpiresAt: p.now().Add(sessionTTL).UTC(), CreatedAt: p.now().UTC()}
	if _, err := p.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return Session{}, fmt.Errorf("identity: create session: %w", err)
	}
	return Session{UserID: u.ID, Email: u.Email, FullName: u.FullName, Token: token, ExpiresAt: row.ExpiresAt}, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("identity: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
