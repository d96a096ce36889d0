package syncer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/identity"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/remote"
)

type memoryDocs struct {
	mu       sync.Mutex
	docs     map[string]remote.Document
	pushes   []remote.Document
	fetchErr error
	pushErr  error
	// block, when set, holds Upsert until closed.
	block chan struct{}
	// fetchEntered is signalled when Fetch starts; fetchBlock then holds it
	// until closed.
	fetchEntered chan struct{}
	fetchBlock   chan struct{}
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: map[string]remote.Document{}}
}

func (m *memoryDocs) Fetch(_ context.Context, userID string) (remote.Document, error) {
	if m.fetchEntered != nil {
		m.fetchEntered <- struct{}{}
	}
	if m.fetchBlock != nil {
		<-m.fetchBlock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchErr != nil {
		return remote.Document{}, m.fetchErr
	}
	doc, ok := m.docs[userID]
	if !ok {
		return remote.Document{}, remote.ErrNotFound
	}
	return doc, nil
}

func (m *memoryDocs) Upsert(_ context.Context, doc remote.Document) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushErr != nil {
		return m.pushErr
	}
	m.docs[doc.UserID] = doc
	m.pushes = append(m.pushes, doc)
	return nil
}

func (m *memoryDocs) pushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pushes)
}

func (m *memoryDocs) lastPush() remote.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pushes[len(m.pushes)-1]
}

// manualClock fires scheduled callbacks only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes[len(r.notes)-1]
}

var session = identity.Session{UserID: "u1", Email: "ana@example.com", FullName: "Ana"}

func newTestCoordinator(t *testing.T, docs *memoryDocs) (*Coordinator, *planner.Store, *manualClock, *recorder) {
	t.Helper()
	clock := &manualClock{now: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	store := planner.NewStore(planner.Default())
	c := New(store, docs,
		WithClock(clock.Now, clock.AfterFunc),
		WithNotifier(rec),
	)
	return c, store, clock, rec
}

func bump(store *planner.Store, minutes int) {
	store.Update(func(s planner.State) planner.State {
		return s.SetStudyMinutes(datekey.MustParse("2024-06-10"), minutes)
	})
}

func TestDebounceCoalescesEdits(t *testing.T) {
	docs := newMemoryDocs()
	c, store, clock, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	for i := 0; i < 5; i++ {
		bump(store, 5)
		clock.Advance(2 * time.Second)
	}
	if n := docs.pushCount(); n != 0 {
		t.Fatalf("expected no push inside the window, got %d", n)
	}
	clock.Advance(time.Second)
	if n := docs.pushCount(); n != 1 {
		t.Fatalf("expected exactly one push, got %d", n)
	}
	if got := docs.lastPush().Data.Day(datekey.MustParse("2024-06-10")).StudyMinutes; got != 25 {
		t.Fatalf("expected the last state to be pushed, got %d minutes", got)
	}
	if st := c.Status(); st.State != Idle || st.LastSyncedAt.IsZero() || st.Pending {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestPushCarriesStateAtFireTime(t *testing.T) {
	docs := newMemoryDocs()
	c, store, clock, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	bump(store, 5)
	// A replacement that does not schedule a push still shows up in it.
	store.Replace(store.State().SetGoal(45), planner.OriginDevice)
	clock.Advance(DefaultDelay)
	if got := docs.lastPush().Data.GlobalDailyGoal; got != 45 {
		t.Fatalf("expected state at fire time, got goal %d", got)
	}
}

func TestNoPushWithoutSession(t *testing.T) {
	docs := newMemoryDocs()
	_, store, clock, _ := newTestCoordinator(t, docs)
	bump(store, 5)
	clock.Advance(time.Minute)
	if n := docs.pushCount(); n != 0 {
		t.Fatalf("expected no push without a session, got %d", n)
	}
}

func TestSkipNextAfterPull(t *testing.T) {
	docs := newMemoryDocs()
	remoteState := planner.DefaultFor("Ana").SetGoal(60)
	docs.docs["u1"] = remote.Document{UserID: "u1", Data: remoteState}
	c, store, clock, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	if res := c.Pull(context.Background()); !res.OK {
		t.Fatalf("pull failed: %+v", res)
	}
	if got := store.State().GlobalDailyGoal; got != 60 {
		t.Fatalf("expected pulled state, got goal %d", got)
	}
	if !c.Status().SkipNext {
		t.Fatalf("expected skip flag after pull")
	}

	bump(store, 5)
	clock.Advance(time.Minute)
	if n := docs.pushCount(); n != 0 {
		t.Fatalf("first edit after a pull must not push, got %d", n)
	}

	bump(store, 5)
	clock.Advance(time.Minute)
	if n := docs.pushCount(); n != 1 {
		t.Fatalf("second edit after a pull must push, got %d", n)
	}
}

func TestPullNotFoundUsesDefaults(t *testing.T) {
	docs := newMemoryDocs()
	c, store, _, rec := newTestCoordinator(t, docs)
	bump(store, 30)
	c.SetSession(session)

	res := c.Pull(context.Background())
	if !res.OK {
		t.Fatalf("expected not found to be a success, got %+v", res)
	}
	st := store.State()
	if len(st.Calendar) != 0 || st.UserName != "Ana" || st.GlobalDailyGoal != planner.DefaultDailyGoal {
		t.Fatalf("expected defaults with the user's name, got %+v", st)
	}
	if n := rec.last(); n.Level != LevelInfo {
		t.Fatalf("expected info notification, got %+v", n)
	}
}

func TestPullNetworkFailureKeepsLocalState(t *testing.T) {
	docs := newMemoryDocs()
	docs.fetchErr = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	c, store, _, rec := newTestCoordinator(t, docs)
	bump(store, 30)
	c.SetSession(session)

	res := c.Pull(context.Background())
	if res.OK || res.Kind != KindNetwork || res.Message != ConnectionFailure {
		t.Fatalf("expected connection failure, got %+v", res)
	}
	if store.State().Day(datekey.MustParse("2024-06-10")).StudyMinutes != 30 {
		t.Fatalf("local state must survive a failed pull")
	}
	if c.Status().State != Error {
		t.Fatalf("expected error state")
	}
	if n := rec.last(); n.Message != ConnectionFailure {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestPushServerErrorThenRecovers(t *testing.T) {
	docs := newMemoryDocs()
	docs.pushErr = errors.New("permission denied for table user_states")
	c, store, clock, rec := newTestCoordinator(t, docs)
	c.SetSession(session)

	bump(store, 5)
	clock.Advance(DefaultDelay)
	if st := c.Status(); st.State != Error || st.LastError != docs.pushErr.Error() {
		t.Fatalf("unexpected status %+v", st)
	}
	if n := rec.last(); n.Kind != KindServer || n.Level != LevelError {
		t.Fatalf("unexpected notification %+v", n)
	}

	docs.mu.Lock()
	docs.pushErr = nil
	docs.mu.Unlock()
	if res := c.PushNow(context.Background()); !res.OK {
		t.Fatalf("expected manual save to succeed, got %+v", res)
	}
	if c.Status().State != Idle {
		t.Fatalf("expected idle after recovery")
	}
}

func TestPushNowCancelsPendingTimer(t *testing.T) {
	docs := newMemoryDocs()
	c, store, clock, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	bump(store, 5)
	if !c.Status().Pending {
		t.Fatalf("expected a pending push")
	}
	c.PushNow(context.Background())
	clock.Advance(time.Minute)
	if n := docs.pushCount(); n != 1 {
		t.Fatalf("expected only the manual push, got %d", n)
	}
}

func TestPushNowRefusedWhileBusy(t *testing.T) {
	docs := newMemoryDocs()
	docs.block = make(chan struct{})
	c, _, _, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	done := make(chan Result)
	go func() { done <- c.PushNow(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !c.Status().Busy {
		if time.Now().After(deadline) {
			t.Fatalf("push never started")
		}
		time.Sleep(time.Millisecond)
	}
	if res := c.PushNow(context.Background()); !res.Busy {
		t.Fatalf("expected busy refusal, got %+v", res)
	}
	close(docs.block)
	if res := <-done; !res.OK {
		t.Fatalf("expected first push to succeed, got %+v", res)
	}
}

func TestCloseFlushesPendingPush(t *testing.T) {
	docs := newMemoryDocs()
	c, store, _, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	bump(store, 5)
	res := c.Close(context.Background())
	if !res.OK || res.Op != OpFlush {
		t.Fatalf("expected flush, got %+v", res)
	}
	if n := docs.pushCount(); n != 1 {
		t.Fatalf("expected flushed push, got %d", n)
	}

	bump(store, 5)
	if c.Status().Pending {
		t.Fatalf("closed coordinator must not schedule pushes")
	}
}

func TestSessionEndedResets(t *testing.T) {
	docs := newMemoryDocs()
	c, store, clock, _ := newTestCoordinator(t, docs)
	c.SetSession(session)
	bump(store, 5)

	c.SessionEnded()
	clock.Advance(time.Minute)
	if n := docs.pushCount(); n != 0 {
		t.Fatalf("expected pending push cancelled, got %d", n)
	}
	if len(store.State().Calendar) != 0 {
		t.Fatalf("expected state reset to defaults")
	}
}

func blockFetch(docs *memoryDocs) {
	docs.fetchEntered = make(chan struct{})
	docs.fetchBlock = make(chan struct{})
}

func TestPullDroppedAfterSessionEnded(t *testing.T) {
	docs := newMemoryDocs()
	docs.docs["u1"] = remote.Document{UserID: "u1", Data: planner.DefaultFor("Ana").SetStudyMinutes(datekey.MustParse("2024-06-10"), 30)}
	blockFetch(docs)
	c, store, _, rec := newTestCoordinator(t, docs)

	c.SessionStarted(context.Background(), session)
	<-docs.fetchEntered
	c.SessionEnded()
	close(docs.fetchBlock)
	c.Close(context.Background())

	if st := store.State(); len(st.Calendar) != 0 || st.UserName != "" {
		t.Fatalf("signed out state must stay at defaults, got %+v", st)
	}
	st := c.Status()
	if st.SkipNext || st.UserID != "" || !st.LastSyncedAt.IsZero() {
		t.Fatalf("dropped pull must not be recorded, got %+v", st)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.notes) != 0 {
		t.Fatalf("dropped pull must not notify, got %+v", rec.notes)
	}
}

func TestPullForPreviousUserNotApplied(t *testing.T) {
	docs := newMemoryDocs()
	docs.docs["u1"] = remote.Document{UserID: "u1", Data: planner.DefaultFor("Ana").SetGoal(75)}
	blockFetch(docs)
	c, store, clock, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	done := make(chan Result)
	go func() { done <- c.Pull(context.Background()) }()
	<-docs.fetchEntered
	c.SetSession(identity.Session{UserID: "u2", Email: "bo@example.com", FullName: "Bo"})
	close(docs.fetchBlock)

	if res := <-done; res.OK {
		t.Fatalf("expected pull of the previous user to be dropped, got %+v", res)
	}
	if got := store.State().GlobalDailyGoal; got == 75 {
		t.Fatalf("previous user's state replaced the new session's")
	}
	if c.Status().SkipNext {
		t.Fatalf("dropped pull must not skip the next edit")
	}

	bump(store, 5)
	clock.Advance(time.Minute)
	if n := docs.pushCount(); n != 1 {
		t.Fatalf("expected the first edit to push, got %d", n)
	}
	doc := docs.lastPush()
	if doc.UserID != "u2" || doc.Data.GlobalDailyGoal == 75 {
		t.Fatalf("expected u2's own state pushed, got %s goal %d", doc.UserID, doc.Data.GlobalDailyGoal)
	}
}

func TestPushNotRecordedAfterSessionEnded(t *testing.T) {
	docs := newMemoryDocs()
	docs.block = make(chan struct{})
	c, _, _, _ := newTestCoordinator(t, docs)
	c.SetSession(session)

	done := make(chan Result)
	go func() { done <- c.PushNow(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !c.Status().Busy {
		if time.Now().After(deadline) {
			t.Fatalf("push never started")
		}
		time.Sleep(time.Millisecond)
	}
	c.SessionEnded()
	close(docs.block)

	if res := <-done; res.OK {
		t.Fatalf("expected push of an ended session not to succeed, got %+v", res)
	}
	if st := c.Status(); !st.LastSyncedAt.IsZero() || st.State != Idle {
		t.Fatalf("ended session push must not be recorded, got %+v", st)
	}
}

func TestSessionStartedPullsInBackground(t *testing.T) {
	docs := newMemoryDocs()
	docs.docs["u1"] = remote.Document{UserID: "u1", Data: planner.DefaultFor("Ana").SetGoal(75)}
	c, store, _, _ := newTestCoordinator(t, docs)

	c.SessionStarted(context.Background(), session)
	c.Close(context.Background())
	if got := store.State().GlobalDailyGoal; got != 75 {
		t.Fatalf("expected pulled goal, got %d", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{remote.ErrNotFound, KindNotFound},
		{fmt.Errorf("wrap: %w", remote.ErrNotFound), KindNotFound},
		{&identity.LockedError{Until: time.Now()}, KindLockout},
		{errors.New("TypeError: Failed to fetch"), KindNetwork},
		{errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), KindNetwork},
		{context.DeadlineExceeded, KindNetwork},
		{errors.New(`duplicate key value violates unique constraint "user_states_pkey"`), KindServer},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if got := Message(errors.New("fetch failed")); got != ConnectionFailure {
		t.Fatalf("expected connection failure message, got %q", got)
	}
}

func TestOfflineProbeForcesNetworkKind(t *testing.T) {
	docs := newMemoryDocs()
	docs.pushErr = errors.New("something odd")
	store := planner.NewStore(planner.Default())
	c := New(store, docs, WithConnectivity(func() bool { return false }))
	c.SetSession(session)
	if res := c.PushNow(context.Background()); res.Kind != KindNetwork {
		t.Fatalf("expected network kind while offline, got %+v", res)
	}
}
