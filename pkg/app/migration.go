package app

import (
	"errors"
	"sort"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
)

// ErrTaskNotFound is returned when a migrated task does not exist or is
// already done.
var ErrTaskNotFound = errors.New("app: open task not found")

// MigrationCandidate is an open task left behind on a past day.
type MigrationCandidate struct {
	Day  datekey.Key
	Task planner.Task
}

// MigrationCandidates returns open one-off tasks dated from since up to the
// day before today, most recent day first. Daily copies are skipped since
// every later day of the month has its own.
func MigrationCandidates(st planner.State, since, today datekey.Key) []MigrationCandidate {
	var out []MigrationCandidate
	for _, day := range st.Dates() {
		if !day.Before(today) || (since.Valid() && day.Before(since)) {
			continue
		}
		for _, t := range st.Day(day).Tasks {
			if t.Completed || t.Recurrence.IsDaily() {
				continue
			}
			out = append(out, MigrationCandidate{Day: day, Task: t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Day.After(out[j].Day)
	})
	return out
}

// MigrateTask moves the open task id from one day to another, keeping its id.
func MigrateTask(st planner.State, from datekey.Key, id string, to datekey.Key) (planner.State, planner.Task, error) {
	if from == to {
		return st, planner.Task{}, errors.New("app: task already on that day")
	}
	for _, t := range st.Day(from).Tasks {
		if t.ID != id || t.Completed {
			continue
		}
		next := st.RemoveTask(from, id).AddTask(to, t)
		return next, t, nil
	}
	return st, planner.Task{}, ErrTaskNotFound
}

// MigrationCandidates lists open tasks left on past days since since.
func (s *Service) MigrationCandidates(since datekey.Key) []MigrationCandidate {
	return MigrationCandidates(s.State(), since, s.Today())
}

// MigrateTask moves an open task to another day as a local edit.
func (s *Service) MigrateTask(from datekey.Key, id string, to datekey.Key) (planner.Task, error) {
	var (
		moved planner.Task
		err   error
	)
	s.Update(func(st planner.State) planner.State {
		var next planner.State
		next, moved, err = MigrateTask(st, from, id, to)
		return next
	})
	return moved, err
}
