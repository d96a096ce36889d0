package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/store"
)

// RunDaemon keeps the service alive until ctx is done. It pulls once at
// start, reloads the state other studyplan processes write to the device
// cache, and pulls on the configured schedule whenever no push is pending.
func (s *Service) RunDaemon(ctx context.Context) error {
	events, err := s.Local.Watch(ctx)
	if err != nil {
		return fmt.Errorf("app: watch device store: %w", err)
	}

	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger{s.Logger.Sugar()}),
	)
	if s.Sync != nil && s.Config.PullSchedule != "" {
		if _, err := c.AddFunc(s.Config.PullSchedule, func() { s.ScheduledPull(ctx) }); err != nil {
			return fmt.Errorf("app: pull schedule: %w", err)
		}
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	s.ScheduledPull(ctx)
	s.Logger.Info("Daemon started",
		zap.String("user_id", s.UserID()),
		zap.Bool("online", s.Online()),
		zap.String("pull_schedule", s.Config.PullSchedule))

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("Daemon stopping")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.ReloadFromDevice(ev)
		}
	}
}

// ScheduledPull pulls unless there is nothing to pull for or local edits are
// still waiting to be pushed.
func (s *Service) ScheduledPull(ctx context.Context) {
	if s.Sync == nil || s.UserID() == "" {
		return
	}
	st := s.Sync.Status()
	if st.Pending || st.Busy {
		s.Logger.Debug("Skipping scheduled pull, local edits pending")
		return
	}
	s.Sync.Pull(ctx)
}

// ReloadFromDevice applies a device store change made by another process to
// the in-memory state. The reload is neither cached again nor pushed.
func (s *Service) ReloadFromDevice(ev store.Event) {
	uid := s.UserID()
	if uid == "" {
		uid = store.LocalUser
	}
	if ev.Type == store.EventKeyChanged {
		changed, ok := ev.UserID()
		if !ok || changed != uid {
			return
		}
	}
	st, ok, err := s.Local.LoadState(uid)
	if err != nil {
		s.Logger.Warn("Failed to reload cached state", zap.String("user_id", uid), zap.Error(err))
		return
	}
	if !ok || st.Equal(s.State()) {
		return
	}
	s.Logger.Debug("Reloading state written by another process", zap.String("user_id", uid))
	s.Planner.Replace(st, planner.OriginDevice)
}

type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
