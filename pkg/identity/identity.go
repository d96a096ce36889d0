// Package identity signs users in and keeps the current session on the
// device. Accounts live behind a Backend; the session and the sign-in
// lockout counters live in local device storage.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid email or password")
	ErrUserExists         = errors.New("identity: user already registered")
	ErrNoSession          = errors.New("identity: no active session")
	ErrWeakPassword       = errors.New("identity: password must have at least 6 characters")
	ErrLocked             = errors.New("identity: too many failed attempts")
	ErrInvalidToken       = errors.New("identity: invalid or expired token")
	ErrUnknownProvider    = errors.New("identity: unknown oauth provider")
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// Session is a signed in user.
type Session struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// LockedError is returned while sign-in is locked out.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s, try again at %s", ErrLocked, e.Until.Local().Format("15:04"))
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// Event names an auth state transition.
type Event string

const (
	EventInitialSession   Event = "INITIAL_SESSION"
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// Listener is told about auth state transitions. session is nil on sign-out.
type Listener func(event Event, session *Session)

// Backend is the account service.
type Backend interface {
	SignUp(ctx context.Context, email, password, fullName string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	// SignInExternal signs in, creating the account when needed, a user
	// whose email was verified by an OAuth provider.
	SignInExternal(ctx context.Context, provider, email, fullName string) (Session, error)
	Restore(ctx context.Context, token string) (Session, error)
	SignOut(ctx context.Context, token string) error
	// RequestReset returns a one-time reset token. An unknown email yields ""
	// and no error.
	RequestReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
}

// KV is the device storage the client keeps its session and counters in.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}
