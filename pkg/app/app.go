// Package app assembles studyplan: the planner state cached on the device,
// identity, and the sync and group services when a database is reachable.
// The CLI and the daemon share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/blob"
	"tableflip.dev/studyplan/pkg/config"
	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/identity"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/remote"
	"tableflip.dev/studyplan/pkg/store"
	"tableflip.dev/studyplan/pkg/syncer"
)

var (
	// ErrOffline is returned by operations that need the database.
	ErrOffline = errors.New("app: no database connection")
	// ErrSignedOut is returned by operations that need a session.
	ErrSignedOut = errors.New("app: not signed in")
)

// Options adjusts Open. The zero value connects to the configured database.
type Options struct {
	// Offline skips the database even when one is configured.
	Offline bool
	// Notifier receives sync outcomes. Defaults to the logger.
	Notifier syncer.Notifier
	// Backend and Documents replace the Postgres implementations.
	Backend   identity.Backend
	Documents remote.DocumentStore
}

// Service provides the operations shared by every studyplan front end.
type Service struct {
	Config   *config.Config
	Logger   *zap.Logger
	Local    store.Persistence
	Planner  *planner.Store
	Identity *identity.Client
	// Sync is nil when offline.
	Sync *syncer.Coordinator
	// Groups is nil when offline.
	Groups *remote.Groups
	Blobs  blob.Store

	db  *remote.DB
	loc *time.Location

	mu     sync.Mutex
	userID string
	stops  []func()
}

// Open builds a Service from cfg. A configured but unreachable database is
// logged and the Service runs offline on the device cache.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, o Options) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	local, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	blobs, err := blob.NewDisk(cfg.Blob.Path, cfg.Blob.BaseURL)
	if err != nil {
		return nil, err
	}

	s := &Service{
		Config: cfg,
		Logger: logger,
		Local:  local,
		Blobs:  blobs,
		loc:    loc,
	}

	backend, docs := o.Backend, o.Documents
	if !o.Offline && cfg.DatabaseURL != "" && (backend == nil || docs == nil) {
		db, err := remote.Open(ctx, cfg.DatabaseURL, logger, remote.Options{Attempts: 1})
		if err != nil {
			logger.Warn("Database unreachable, working offline", zap.Error(err))
		} else {
			s.db = db
			s.Groups = db.Groups()
			if backend == nil {
				backend = identity.NewPostgres(db.Bun(), logger)
			}
			if docs == nil {
				docs = db.Documents()
			}
		}
	}

	s.Identity = identity.NewClient(backend, local, s.identityOptions()...)

	sess, err := s.Identity.GetSession(ctx)
	switch {
	case err == nil:
		s.userID = sess.UserID
	case errors.Is(err, identity.ErrNoSession):
	default:
		return nil, err
	}

	cached, _, err := local.LoadState(s.userID)
	if err != nil {
		logger.Warn("Discarding unreadable cached state", zap.String("user_id", s.userID), zap.Error(err))
		cached = planner.Default()
	}
	s.Planner = planner.NewStore(cached)
	s.stops = append(s.stops, s.Planner.Subscribe(s.persist))

	if docs != nil {
		notifier := o.Notifier
		if notifier == nil {
			notifier = syncer.LogNotifier(logger)
		}
		s.Sync = syncer.New(s.Planner, docs,
			syncer.WithDelay(cfg.Debounce),
			syncer.WithLogger(logger),
			syncer.WithNotifier(notifier),
		)
		if s.userID != "" {
			s.Sync.SetSession(sess)
		}
	}

	s.stops = append(s.stops, s.Identity.OnAuthStateChange(func(event identity.Event, sess *identity.Session) {
		s.onAuthEvent(ctx, event, sess)
	}))
	return s, nil
}

func (s *Service) identityOptions() []identity.Option {
	cfg := s.Config
	opts := []identity.Option{
		identity.WithLogger(s.Logger),
		identity.WithLockout(cfg.Lockout.MaxAttempts, cfg.Lockout.Window, cfg.Lockout.Duration),
	}
	for name, p := range cfg.OAuth {
		oc, err := identity.ProviderConfig(name, p.ClientID, p.ClientSecret, p.RedirectURL)
		if err != nil {
			s.Logger.Warn("Ignoring oauth provider", zap.String("provider", name), zap.Error(err))
			continue
		}
		opts = append(opts, identity.WithOAuth(name, oc))
	}
	return opts
}

// Online reports whether remote services are available.
func (s *Service) Online() bool {
	return s.Sync != nil
}

// Location is the configured time zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today is the current date in the configured time zone.
func (s *Service) Today() datekey.Key {
	return datekey.Today(s.loc)
}

// UserID is the signed in user, or "" on an anonymous device.
func (s *Service) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Session returns the current session.
func (s *Service) Session(ctx context.Context) (identity.Session, error) {
	sess, err := s.Identity.GetSession(ctx)
	if errors.Is(err, identity.ErrNoSession) {
		return identity.Session{}, ErrSignedOut
	}
	return sess, err
}

// State is a snapshot of the planner state.
func (s *Service) State() planner.State {
	return s.Planner.State()
}

// Update applies a local edit.
func (s *Service) Update(fn func(planner.State) planner.State) planner.State {
	return s.Planner.Update(fn)
}

// RequireOnline returns ErrOffline unless remote services are available.
func (s *Service) RequireOnline() error {
	if !s.Online() {
		return ErrOffline
	}
	return nil
}

// CreateSchema creates the database tables.
func (s *Service) CreateSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrOffline
	}
	return s.db.CreateSchema(ctx, identity.Models()...)
}

// Close flushes a pending push and releases connections. The returned
// result describes the flush.
func (s *Service) Close(ctx context.Context) (syncer.Result, error) {
	var res syncer.Result
	if s.Sync != nil {
		res = s.Sync.Close(ctx)
	}
	s.mu.Lock()
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return res, fmt.Errorf("app: close database: %w", err)
		}
	}
	return res, nil
}

// persist writes every non-device change to the cache of the current user.
// A sign out resets the device cache too, so the next run starts empty.
func (s *Service) persist(_, next planner.State, origin planner.Origin) {
	if origin == planner.OriginDevice {
		return
	}
	uid := s.UserID()
	if err := s.Local.SaveState(uid, next); err != nil {
		s.Logger.Warn("Failed to cache state", zap.String("user_id", uid), zap.Error(err))
	}
}

func (s *Service) onAuthEvent(ctx context.Context, event identity.Event, sess *identity.Session) {
	switch event {
	case identity.EventSignedIn:
		if sess == nil {
			return
		}
		s.switchUser(sess.UserID)
		if s.Sync != nil {
			s.Sync.SessionStarted(ctx, *sess)
		}
	case identity.EventSignedOut:
		s.switchUser("")
		if s.Sync != nil {
			s.Sync.SessionEnded()
		} else {
			s.Planner.Replace(planner.Default(), planner.OriginReset)
		}
	}
}

// switchUser points the cache at userID and shows its cached state until a
// pull replaces it.
func (s *Service) switchUser(userID string) {
	s.mu.Lock()
	same := s.userID == userID
	s.userID = userID
	s.mu.Unlock()
	if same || userID == "" {
		return
	}
	cached, ok, err := s.Local.LoadState(userID)
	if err != nil {
		s.Logger.Warn("Discarding unreadable cached state", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if !ok {
		cached = planner.Default()
	}
	s.Planner.Replace(cached, planner.OriginDevice)
}
