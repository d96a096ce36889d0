package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const sessionKey = "auth/session"

// Client is the device side of identity: it talks to the Backend, keeps the
// current session in local storage and fans out auth events.
type Client struct {
	backend Backend
	kv      KV
	lockout *Lockout
	oauth   map[string]*oauth2.Config
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	session   *Session
	listeners map[int]Listener
	nextID    int
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLockout replaces the default lockout limits.
func WithLockout(maxAttempts int, window, duration time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.lockout.MaxAttempts = maxAttempts
		}
		if window > 0 {
			c.lockout.Window = window
		}
		if duration > 0 {
			c.lockout.Duration = duration
		}
	}
}

// WithOAuth registers an OAuth provider.
func WithOAuth(provider string, cfg *oauth2.Config) Option {
	return func(c *Client) {
		if cfg != nil && cfg.ClientID != "" {
			c.oauth[strings.ToLower(provider)] = cfg
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
		c.lockout.now = now
	}
}

// NewClient returns a client for backend storing device state in kv.
func NewClient(backend Backend, kv KV, opts ...Option) *Client {
	c := &Client{
		backend:   backend,
		kv:        kv,
		lockout:   NewLockout(kv),
		oauth:     map[string]*oauth2.Config{},
		logger:    zap.NewNop(),
		now:       time.Now,
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lockout exposes the sign-in lockout counters.
func (c *Client) Lockout() *Lockout {
	return c.lockout
}

// OnAuthStateChange registers l and returns a function removing it.
func (c *Client) OnAuthStateChange(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) emit(event Event, s *Session) {
	c.mu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()
	for _, l := range listeners {
		var cp *Session
		if s != nil {
			v := *s
			cp = &v
		}
		l(event, cp)
	}
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" {
		return Session{}, ErrInvalidCredentials
	}
	if len(password) < MinPasswordLength {
		return Session{}, ErrWeakPassword
	}
	s, err := c.backend.SignUp(ctx, email, password, strings.TrimSpace(fullName))
	if err != nil {
		return Session{}, err
	}
	c.logger.Info("Signed up", zap.String("user_id", s.UserID))
	return s, c.establish(s)
}

// SignInWithPassword signs in, honouring the device lockout.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	if err := c.lockout.Check(); err != nil {
		return Session{}, err
	}
	s, err := c.backend.SignIn(ctx, normalizeEmail(email), password)
	if errors.Is(err, ErrInvalidCredentials) {
		if lerr := c.lockout.Fail(); lerr != nil {
			c.logger.Warn("Sign-in locked", zap.Error(lerr))
			return Session{}, lerr
		}
		return Session{}, err
	}
	if err != nil {
		return Session{}, err
	}
	c.lockout.Reset()
	c.logger.Info("Signed in", zap.String("user_id", s.UserID))
	return s, c.establish(s)
}

// ResetPasswordForEmail starts a password reset. Delivering the token to the
// user is the mail system's job; it is returned for that purpose and is ""
// for unknown addresses.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) (string, error) {
	token, err := c.backend.RequestReset(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	c.emit(EventPasswordRecovery, nil)
	return token, nil
}

// CompletePasswordReset sets a new password using a reset token.
func (c *Client) CompletePasswordReset(ctx context.Context, token, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return c.backend.ResetPassword(ctx, token, password)
}

// GetSession returns the current session, restoring it from device storage
// on first use. A session the backend no longer knows is dropped. When the
// backend cannot be reached the stored session is trusted.
func (c *Client) GetSession(ctx context.Context) (Session, error) {
	c.mu.Lock()
	if c.session != nil {
		s := *c.session
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	stored, err := c.loadSession()
	if err != nil {
		return Session{}, err
	}
	if stored.Expired(c.now()) {
		c.clearSession()
		return Session{}, ErrNoSession
	}
	s := stored
	if c.backend != nil {
		fresh, err := c.backend.Restore(ctx, stored.Token)
		switch {
		case errors.Is(err, ErrNoSession), errors.Is(err, ErrInvalidToken):
			c.clearSession()
			return Session{}, ErrNoSession
		case err != nil:
			c.logger.Warn("Could not verify stored session, using it offline", zap.Error(err))
		default:
			s = fresh
		}
	}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	c.emit(EventInitialSession, &s)
	return s, nil
}

// SignOut ends the session on the backend and on the device.
func (c *Client) SignOut(ctx context.Context) error {
	s, err := c.GetSession(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.backend != nil {
		if err := c.backend.SignOut(ctx, s.Token); err != nil {
			c.logger.Warn("Backend sign-out failed", zap.Error(err))
		}
	}
	c.clearSession()
	c.logger.Info("Signed out", zap.String("user_id", s.UserID))
	c.emit(EventSignedOut, nil)
	return nil
}

func (c *Client) establish(s Session) error {
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()
	if c.kv != nil {
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("identity: encode session: %w", err)
		}
		if err := c.kv.Put(sessionKey, b); err != nil {
			return fmt.Errorf("identity: store session: %w", err)
		}
	}
	c.emit(EventSignedIn, &s)
	return nil
}

func (c *Client) loadSession() (Session, error) {
	if c.kv == nil {
		return Session{}, ErrNoSession
	}
	b, err := c.kv.Get(sessionKey)
	if err != nil || len(b) == 0 {
		return Session{}, ErrNoSession
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil || s.UserID == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (c *Client) clearSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	if c.kv != nil {
		_ = c.kv.Delete(sessionKey)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
