package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryKV() *memoryKV { return &memoryKV{data: map[string][]byte{}} }

func (m *memoryKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("no key %s", key)
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryKV) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type memoryBackend struct {
	users    map[string]string // email -> password
	sessions map[string]Session
	restore  error
	counter  int
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{users: map[string]string{}, sessions: map[string]Session{}}
}

func (m *memoryBackend) session(email string) Session {
	m.counter++
	s := Session{UserID: "user-" + email, Email: email, Token: fmt.Sprintf("tok-%d", m.counter)}
	m.sessions[s.Token] = s
	return s
}

func (m *memoryBackend) SignUp(_ context.Context, email, password, _ string) (Session, error) {
	if _, ok := m.users[email]; ok {
		return Session{}, ErrUserExists
	}
	m.users[email] = password
	return m.session(email), nil
}

func (m *memoryBackend) SignIn(_ context.Context, email, password string) (Session, error) {
	if pw, ok := m.users[email]; !ok || pw != password {
		return Session{}, ErrInvalidCredentials
	}
	return m.session(email), nil
}

func (m *memoryBackend) SignInExternal(_ context.Context, _, email, _ string) (Session, error) {
	return m.session(email), nil
}

func (m *memoryBackend) Restore(_ context.Context, token string) (Session, error) {
	if m.restore != nil {
		return Session{}, m.restore
	}
	s, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *memoryBackend) SignOut(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func (m *memoryBackend) RequestReset(_ context.Context, email string) (string, error) {
	if _, ok := m.users[email]; !ok {
		return "", nil
	}
	return "reset-" + email, nil
}

func (m *memoryBackend) ResetPassword(_ context.Context, token, password string) error {
	return nil
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv, backend := newMemoryKV(), newMemoryBackend()
	c := NewClient(backend, kv)
	var events []Event
	c.OnAuthStateChange(func(e Event, _ *Session) { events = append(events, e) })

	if _, err := c.SignUp(ctx, " Ana@Example.com ", "secret1", "Ana"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	restarted := NewClient(backend, kv)
	s, err := restarted.GetSession(ctx)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s.Email != "ana@example.com" {
		t.Fatalf("unexpected session %+v", s)
	}

	if err := restarted.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := NewClient(backend, kv).GetSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected no session after sign out, got %v", err)
	}
	if len(events) != 1 || events[0] != EventSignedIn {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestGetSessionOfflineKeepsStoredSession(t *testing.T) {
	ctx := context.Background()
	kv, backend := newMemoryKV(), newMemoryBackend()
	if _, err := NewClient(backend, kv).SignUp(ctx, "a@b.c", "secret1", ""); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	backend.restore = errors.New("dial tcp: connection refused")
	if _, err := NewClient(backend, kv).GetSession(ctx); err != nil {
		t.Fatalf("expected stored session offline, got %v", err)
	}
	backend.restore = ErrNoSession
	if _, err := NewClient(backend, kv).GetSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected revoked session dropped, got %v", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	c := NewClient(newMemoryBackend(), newMemoryKV())
	if _, err := c.SignUp(context.Background(), "a@b.c", "123", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	kv, backend := newMemoryKV(), newMemoryBackend()
	backend.users["a@b.c"] = "right-password"

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	c := NewClient(backend, kv, WithClock(func() time.Time { return now }))

	for i := 0; i < 4; i++ {
		if _, err := c.SignInWithPassword(ctx, "a@b.c", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i+1, err)
		}
		now = now.Add(time.Minute)
	}
	if got := c.Lockout().Remaining(); got != 1 {
		t.Fatalf("expected 1 attempt left, got %d", got)
	}
	_, err := c.SignInWithPassword(ctx, "a@b.c", "wrong")
	var locked *LockedError
	if !errors.As(err, &locked) || !errors.Is(err, ErrLocked) {
		t.Fatalf("expected lockout on the fifth failure, got %v", err)
	}
	if _, err := c.SignInWithPassword(ctx, "a@b.c", "right-password"); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected correct password to be refused while locked, got %v", err)
	}

	// The lockout is kept in device storage, so a new client sees it too.
	other := NewClient(backend, kv, WithClock(func() time.Time { return now }))
	if err := other.Lockout().Check(); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected persisted lockout, got %v", err)
	}

	now = now.Add(15 * time.Minute)
	if _, err := c.SignInWithPassword(ctx, "a@b.c", "right-password"); err != nil {
		t.Fatalf("expected sign-in after the lockout expired, got %v", err)
	}
	if got := c.Lockout().Remaining(); got != DefaultMaxAttempts {
		t.Fatalf("expected counters reset, got %d", got)
	}
}

func TestLockoutWindowRolls(t *testing.T) {
	kv := newMemoryKV()
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	l := NewLockout(kv)
	l.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		if err := l.Fail(); err != nil {
			t.Fatalf("unexpected lockout at %d", i)
		}
	}
	now = now.Add(16 * time.Minute)
	if err := l.Fail(); err != nil {
		t.Fatalf("old failures should have left the window, got %v", err)
	}
}

func TestOAuthUnknownProvider(t *testing.T) {
	c := NewClient(newMemoryBackend(), newMemoryKV())
	if _, err := c.SignInWithOAuth("myspace", "state"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected unknown provider, got %v", err)
	}
	cfg, err := ProviderConfig(ProviderGoogle, "client", "secret", "http://localhost/callback")
	if err != nil {
		t.Fatalf("provider config: %v", err)
	}
	c = NewClient(newMemoryBackend(), newMemoryKV(), WithOAuth(ProviderGoogle, cfg))
	url, err := c.SignInWithOAuth("Google", "xyz")
	if err != nil {
		t.Fatalf("sign in with oauth: %v", err)
	}
	if want := "https://accounts.google.com/o/oauth2/auth?"; len(url) < len(want) || url[:len(want)] != want {
		t.Fatalf("unexpected url %s", url)
	}
}
