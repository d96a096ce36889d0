package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a storage change notification.
type EventType int

const (
	// EventKeyChanged indicates the value under Key was written or erased.
	EventKeyChanged EventType = iota

	// EventInvalidated signals a change that could not be attributed to a
	// single key. Callers should reload everything they care about.
	EventInvalidated
)

// Event is emitted by Persistence.Watch when underlying storage changes.
type Event struct {
	Type EventType
	Key  string
}

// UserID returns the user whose cached state changed, if any.
func (e Event) UserID() (string, bool) {
	if e.Type != EventKeyChanged {
		return "", false
	}
	return StateUser(e.Key)
}

const watchDelay = 100 * time.Millisecond

// Watch streams change events until ctx is cancelled. The channel is closed
// once ctx is done or the watcher fails. Events are dropped while the reader
// is behind.
func (p *persistence) Watch(ctx context.Context) (<-chan Event, error) {
	if p.basePath == "" {
		return nil, errors.New("store: persistence base path unknown")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	w := &treeWatcher{p: p, fw: fw, dirs: map[string]bool{}}
	if err := w.addTree(p.basePath); err != nil {
		_ = fw.Close()
		return nil, err
	}

	out := make(chan Event, 64)
	go w.run(ctx, out)
	return out, nil
}

// treeWatcher follows every directory below the base path, adding new ones
// as diskv creates them.
type treeWatcher struct {
	p    *persistence
	fw   *fsnotify.Watcher
	dirs map[string]bool
}

func (w *treeWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return fmt.Errorf("store: walk %s: %w", path, err)
		case !d.IsDir():
			return nil
		case path != root && strings.HasPrefix(d.Name(), "."):
			return filepath.SkipDir
		}
		clean := filepath.Clean(path)
		if w.dirs[clean] {
			return nil
		}
		if err := w.fw.Add(clean); err != nil {
			return fmt.Errorf("store: watch %s: %w", clean, err)
		}
		w.dirs[clean] = true
		return nil
	})
}

func (w *treeWatcher) run(ctx context.Context, out chan<- Event) {
	// A flush may still be running when the loop ends, so out is closed
	// under the same lock send holds.
	var mu sync.Mutex
	closed := false
	send := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- ev:
		default:
		}
	}
	defer func() {
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	defer w.fw.Close()

	batch := newEventThrottle(watchDelay)
	defer batch.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			batch.Enqueue(Event{Type: EventInvalidated}, send)
		case fe, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev, ok := w.translate(fe); ok {
				batch.Enqueue(ev, send)
			}
		}
	}
}

// translate maps a filesystem event to a store event. A new directory is
// watched and reported as an invalidation, since files may have landed in it
// before the watch was added.
func (w *treeWatcher) translate(fe fsnotify.Event) (Event, bool) {
	if w.p.ignored(fe.Name) {
		return Event{}, false
	}
	if fe.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(fe.Name); err == nil && info.IsDir() {
			if err := w.addTree(fe.Name); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			return Event{Type: EventInvalidated}, true
		}
	}
	if key := w.p.keyForPath(fe.Name); key != "" {
		return Event{Type: EventKeyChanged, Key: key}, true
	}
	return Event{Type: EventInvalidated}, true
}

// ignored reports paths under dot directories such as the diskv temp dir.
func (p *persistence) ignored(path string) bool {
	rel, err := filepath.Rel(p.basePath, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// keyForPath derives the storage key of a diskv file path.
func (p *persistence) keyForPath(path string) string {
	rel, err := filepath.Rel(p.basePath, path)
	if err != nil || rel == "." {
		return ""
	}
	key := filepath.ToSlash(rel)
	if validKey(key) != nil {
		return ""
	}
	return key
}

// eventThrottle collects events for delay after the first one and then
// delivers each distinct event once.
type eventThrottle struct {
	delay time.Duration

	mu          sync.Mutex
	timer       *time.Timer
	invalidated bool
	keys        []string
	seen        map[string]bool
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{delay: delay, seen: map[string]bool{}}
}

func (t *eventThrottle) Enqueue(ev Event, send func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case ev.Type == EventInvalidated:
		t.invalidated = true
	case !t.seen[ev.Key]:
		t.seen[ev.Key] = true
		t.keys = append(t.keys, ev.Key)
	}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() { t.flush(send) })
	}
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	invalidated, keys := t.invalidated, t.keys
	t.invalidated, t.keys, t.seen = false, nil, map[string]bool{}
	t.timer = nil
	t.mu.Unlock()

	if invalidated {
		send(Event{Type: EventInvalidated})
	}
	for _, k := range keys {
		send(Event{Type: EventKeyChanged, Key: k})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
