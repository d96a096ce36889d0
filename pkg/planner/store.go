package planner

import "sync"

// Origin tells subscribers where a state change came from.
type Origin int

const (
	// OriginLocal is a user edit.
	OriginLocal Origin = iota
	// OriginRemote is a state replaced by a pull.
	OriginRemote
	// OriginReset is a state cleared on sign-out.
	OriginReset
	// OriginDevice is a state reloaded from local storage written by another
	// process on this device.
	OriginDevice
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	case OriginReset:
		return "reset"
	case OriginDevice:
		return "device"
	default:
		return "unknown"
	}
}

// Listener is told about every state transition, after it is visible to
// readers. Listeners must not write to the Store they are subscribed to.
type Listener func(prev, next State, origin Origin)

// Store owns the current State. Reads return snapshots; every write swaps in
// a new value and notifies listeners synchronously.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int

	// notifyMu keeps notifications in the order the writes happened.
	notifyMu sync.Mutex
}

// NewStore returns a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial.Clone(), listeners: map[int]Listener{}}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Update applies fn to the current state as one local transition. Listeners
// are not called when fn returns an equal state.
func (s *Store) Update(fn func(State) State) State {
	return s.apply(fn, OriginLocal)
}

// Replace swaps the whole state, as done by a pull or a reset.
func (s *Store) Replace(next State, origin Origin) {
	s.apply(func(State) State { return next }, origin)
}

func (s *Store) apply(fn func(State) State, origin Origin) State {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := fn(prev.Clone()).Clone()
	changed := !prev.Equal(next)
	if changed || origin != OriginLocal {
		s.state = next
	}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if !changed && origin == OriginLocal {
		return prev.Clone()
	}
	for _, l := range listeners {
		l(prev.Clone(), next.Clone(), origin)
	}
	return next.Clone()
}

// Subscribe registers l and returns a function removing it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}
