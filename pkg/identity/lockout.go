package identity

import (
	"encoding/json"
	"time"
)

const (
	lockoutKey = "auth/lockout"

	DefaultMaxAttempts     = 5
	DefaultLockoutWindow   = 15 * time.Minute
	DefaultLockoutDuration = 15 * time.Minute
)

// Lockout counts failed sign-ins on this device. MaxAttempts failures within
// Window lock sign-in for Duration. It is a courtesy to the user, not a
// security boundary: clearing local storage resets it.
type Lockout struct {
	kv          KV
	MaxAttempts int
	Window      time.Duration
	Duration    time.Duration
	now         func() time.Time
}

type lockoutState struct {
	Failures    []time.Time `json:"failures"`
	LockedUntil time.Time   `json:"lockedUntil"`
}

// NewLockout returns a lockout with the default limits stored in kv.
func NewLockout(kv KV) *Lockout {
	return &Lockout{
		kv:          kv,
		MaxAttempts: DefaultMaxAttempts,
		Window:      DefaultLockoutWindow,
		Duration:    DefaultLockoutDuration,
		now:         time.Now,
	}
}

func (l *Lockout) load() lockoutState {
	var st lockoutState
	if l.kv == nil {
		return st
	}
	b, err := l.kv.Get(lockoutKey)
	if err != nil || len(b) == 0 {
		return st
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return lockoutState{}
	}
	return st
}

func (l *Lockout) save(st lockoutState) {
	if l.kv == nil {
		return
	}
	if len(st.Failures) == 0 && st.LockedUntil.IsZero() {
		_ = l.kv.Delete(lockoutKey)
		return
	}
	b, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = l.kv.Put(lockoutKey, b)
}

// Check returns a *LockedError while sign-in is locked.
func (l *Lockout) Check() error {
	st := l.load()
	if now := l.now(); now.Before(st.LockedUntil) {
		return &LockedError{Until: st.LockedUntil}
	}
	return nil
}

// Fail records a failed attempt and returns a *LockedError when it triggers
// the lockout.
func (l *Lockout) Fail() error {
	now := l.now()
	st := l.load()
	if !st.LockedUntil.IsZero() && !now.Before(st.LockedUntil) {
		st = lockoutState{}
	}
	kept := st.Failures[:0]
	for _, f := range st.Failures {
		if now.Sub(f) < l.Window {
			kept = append(kept, f)
		}
	}
	st.Failures = append(kept, now)
	if len(st.Failures) >= l.MaxAttempts {
		st.LockedUntil = now.Add(l.Duration)
		st.Failures = nil
		l.save(st)
		return &LockedError{Until: st.LockedUntil}
	}
	l.save(st)
	return nil
}

// Remaining is how many attempts are left before a lockout.
func (l *Lockout) Remaining() int {
	now := l.now()
	st := l.load()
	if now.Before(st.LockedUntil) {
		return 0
	}
	n := 0
	for _, f := range st.Failures {
		if now.Sub(f) < l.Window {
			n++
		}
	}
	return l.MaxAttempts - n
}

// Reset clears the counters after a successful sign-in.
func (l *Lockout) Reset() {
	l.save(lockoutState{})
}
