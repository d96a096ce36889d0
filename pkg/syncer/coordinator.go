// Package syncer keeps the planner state of a signed in user in step with the
// remote document store: pulls replace the local state wholesale, local
// edits are pushed after a quiet period, and failures become notifications
// instead of errors.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/identity"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/remote"
)

// DefaultDelay is the quiet period after the last edit before a push.
const DefaultDelay = 3 * time.Second

// State is the coordinator's sync state.
type State int

const (
	Idle State = iota
	PullPending
	PushPending
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PullPending:
		return "pull pending"
	case PushPending:
		return "push pending"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Op names the operation a Result or Notification is about.
type Op string

const (
	OpPull  Op = "pull"
	OpPush  Op = "push"
	OpSave  Op = "save"
	OpFlush Op = "flush"
)

// Result is the outcome of one pull or push.
type Result struct {
	Op      Op
	OK      bool
	Busy    bool
	Kind    ErrorKind
	Message string
	At      time.Time
}

// Timer is the part of *time.Timer the coordinator uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// realAfterFunc; tests inject a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Status is a snapshot of the coordinator.
type Status struct {
	State        State     `json:"-"`
	StateName    string    `json:"state"`
	UserID       string    `json:"userId,omitempty"`
	LastSyncedAt time.Time `json:"lastSyncedAt,omitempty"`
	LastError    string    `json:"lastError,omitempty"`
	Pending      bool      `json:"pending"`
	Busy         bool      `json:"busy"`
	SkipNext     bool      `json:"skipNext"`
}

// Coordinator debounces pushes of local edits and applies pulls.
type Coordinator struct {
	store     *planner.Store
	docs      remote.DocumentStore
	delay     time.Duration
	logger    *zap.Logger
	notifier  Notifier
	now       func() time.Time
	afterFunc AfterFunc
	online    func() bool

	mu           sync.Mutex
	session      *identity.Session
	state        State
	skipNext     bool
	timer        Timer
	generation   uint64
	busy         bool
	lastSyncedAt time.Time
	lastErr      string
	// epoch changes whenever the signed in user changes.
	epoch uint64

	// swapMu orders store replacements against the reset on sign out.
	swapMu sync.Mutex
	// pushMu keeps at most one upsert in flight.
	pushMu      sync.Mutex
	wg          sync.WaitGroup
	unsubscribe func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithNotifier sets where notifications go.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithClock replaces time.Now and time.AfterFunc.
func WithClock(now func() time.Time, after AfterFunc) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
		if after != nil {
			c.afterFunc = after
		}
	}
}

// WithConnectivity sets a probe reporting whether the device is online.
// Failures while offline are reported as connection failures.
func WithConnectivity(online func() bool) Option {
	return func(c *Coordinator) {
		c.online = online
	}
}

// New returns a coordinator watching store and syncing with docs.
func New(store *planner.Store, docs remote.DocumentStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		docs:      docs,
		delay:     DefaultDelay,
		logger:    zap.NewNop(),
		notifier:  NotifierFunc(func(Notification) {}),
		now:       time.Now,
		afterFunc: realAfterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.unsubscribe = store.Subscribe(c.onChange)
	return c
}

// Status returns a snapshot of the sync state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		State:        c.state,
		StateName:    c.state.String(),
		LastSyncedAt: c.lastSyncedAt,
		LastError:    c.lastErr,
		Pending:      c.timer != nil,
		Busy:         c.busy,
		SkipNext:     c.skipNext,
	}
	if c.session != nil {
		st.UserID = c.session.UserID
	}
	return st
}

// SetSession attaches a session without pulling.
func (c *Coordinator) SetSession(s identity.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.UserID != s.UserID {
		c.epoch++
	}
	c.session = &s
}

// SessionStarted attaches the session and pulls in the background.
func (c *Coordinator) SessionStarted(ctx context.Context, s identity.Session) {
	c.SetSession(s)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Pull(ctx)
	}()
}

// SessionEnded drops the session, cancels a pending push and resets the
// state to defaults.
func (c *Coordinator) SessionEnded() {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	c.mu.Lock()
	c.cancelTimerLocked()
	c.session = nil
	c.epoch++
	c.skipNext = false
	c.state = Idle
	c.lastErr = ""
	c.mu.Unlock()
	c.store.Replace(planner.Default(), planner.OriginReset)
	c.logger.Info("Sync session ended")
}

// Pull fetches the remote document and replaces the local state with it. A
// user without a document gets the defaults. A document fetched for a
// session that has since ended or changed is dropped.
func (c *Coordinator) Pull(ctx context.Context) Result {
	c.mu.Lock()
	sess, epoch := c.session, c.epoch
	if sess == nil {
		c.mu.Unlock()
		return c.noSession(OpPull)
	}
	c.state = PullPending
	c.cancelTimerLocked()
	c.mu.Unlock()

	doc, err := c.docs.Fetch(ctx, sess.UserID)
	if c.epochChanged(epoch) {
		return c.stale(OpPull, sess.UserID)
	}
	var next planner.State
	switch {
	case errors.Is(err, remote.ErrNotFound):
		c.logger.Info("No remote state yet, using defaults", zap.String("user_id", sess.UserID))
		next = planner.DefaultFor(sess.FullName)
	case err != nil:
		return c.fail(OpPull, err)
	default:
		next = doc.Data
		if next.UserName == "" {
			next = next.SetUserName(firstNonEmpty(doc.FullName, sess.FullName))
		}
	}

	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	if c.epochChanged(epoch) {
		return c.stale(OpPull, sess.UserID)
	}
	c.mu.Lock()
	c.skipNext = true
	c.mu.Unlock()
	c.store.Replace(next, planner.OriginRemote)
	return c.succeed(OpPull)
}

// PushNow pushes immediately, cancelling a pending debounced push. It is
// refused while another push is in flight.
func (c *Coordinator) PushNow(ctx context.Context) Result {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return c.noSession(OpSave)
	}
	if c.busy {
		c.mu.Unlock()
		res := Result{Op: OpSave, Busy: true, Message: "a save is already in progress", At: c.now()}
		c.notify(res)
		return res
	}
	c.cancelTimerLocked()
	c.mu.Unlock()
	return c.push(ctx, OpSave)
}

// Close flushes a pending debounced push, waits for background pulls and
// stops watching the store.
func (c *Coordinator) Close(ctx context.Context) Result {
	c.mu.Lock()
	pending := c.timer != nil
	c.cancelTimerLocked()
	c.mu.Unlock()

	res := Result{Op: OpFlush, OK: true, At: c.now()}
	if pending {
		res = c.push(ctx, OpFlush)
	}
	c.wg.Wait()
	// Wait for a push started by a timer that fired before the cancel.
	c.pushMu.Lock()
	c.pushMu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	return res
}

func (c *Coordinator) onChange(_, _ planner.State, origin planner.Origin) {
	if origin != planner.OriginLocal {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}
	if c.skipNext {
		c.skipNext = false
		c.logger.Debug("Skipping push of the first edit after a pull")
		return
	}
	c.cancelTimerLocked()
	gen := c.generation
	c.timer = c.afterFunc(c.delay, func() { c.fire(gen) })
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	c.push(context.Background(), OpPush)
}

// cancelTimerLocked stops the pending push. A timer whose callback already
// started sees the bumped generation and does nothing.
func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Coordinator) push(ctx context.Context, op Op) Result {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	// The state is read under swapMu so it belongs to sess.
	c.swapMu.Lock()
	c.mu.Lock()
	sess, epoch := c.session, c.epoch
	if sess == nil {
		c.mu.Unlock()
		c.swapMu.Unlock()
		return c.noSession(op)
	}
	c.state = PushPending
	c.busy = true
	c.mu.Unlock()
	st := c.store.State()
	c.swapMu.Unlock()

	err := c.docs.Upsert(ctx, remote.Document{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Data:      st,
		FullName:  firstNonEmpty(st.UserName, sess.FullName),
		UpdatedAt: c.now().UTC(),
	})

	c.mu.Lock()
	c.busy = false
	changed := c.epoch != epoch
	c.mu.Unlock()
	if changed {
		return c.stale(op, sess.UserID)
	}
	if err != nil {
		return c.fail(op, err)
	}
	return c.succeed(op)
}

func (c *Coordinator) epochChanged(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch != epoch
}

// stale reports an operation whose session ended while it ran. Nothing is
// recorded and no notification is sent.
func (c *Coordinator) stale(op Op, userID string) Result {
	c.logger.Info("Dropping sync result of a previous session",
		zap.String("op", string(op)),
		zap.String("user_id", userID))
	return Result{Op: op, Kind: KindServer, Message: identity.ErrNoSession.Error(), At: c.now()}
}

func (c *Coordinator) succeed(op Op) Result {
	now := c.now()
	c.mu.Lock()
	c.state = Idle
	c.lastSyncedAt = now
	c.lastErr = ""
	c.mu.Unlock()
	c.logger.Debug("Sync succeeded", zap.String("op", string(op)))
	res := Result{Op: op, OK: true, At: now}
	c.notify(res)
	return res
}

func (c *Coordinator) fail(op Op, err error) Result {
	kind := Classify(err)
	if c.online != nil && !c.online() {
		kind = KindNetwork
	}
	msg := err.Error()
	if kind == KindNetwork {
		msg = ConnectionFailure
	}
	c.mu.Lock()
	c.state = Error
	c.lastErr = msg
	c.mu.Unlock()
	c.logger.Warn("Sync failed",
		zap.String("op", string(op)),
		zap.String("kind", string(kind)),
		zap.Error(err))
	res := Result{Op: op, Kind: kind, Message: msg, At: c.now()}
	c.notify(res)
	return res
}

func (c *Coordinator) noSession(op Op) Result {
	res := Result{Op: op, Kind: KindServer, Message: identity.ErrNoSession.Error(), At: c.now()}
	c.notify(res)
	return res
}

func (c *Coordinator) notify(res Result) {
	c.notifier.Notify(notificationOf(res))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
