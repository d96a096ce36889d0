package planner

import (
	"sort"

	"tableflip.dev/studyplan/pkg/datekey"
)

// TaskView is a task as shown on a date. Virtual tasks come from a weekly
// rule: edits to them belong to the rule, not the day.
type TaskView struct {
	Task
	Virtual bool
}

// CommitmentView is the commitment counterpart of TaskView.
type CommitmentView struct {
	Commitment
	Virtual bool
}

// EffectiveTasks returns the day's own tasks followed by every weekly task
// rule falling on the key's weekday.
func (s State) EffectiveTasks(key datekey.Key) []TaskView {
	day := s.Calendar[key]
	wd := key.Weekday()
	out := make([]TaskView, 0, len(day.Tasks))
	for _, t := range day.Tasks {
		out = append(out, TaskView{Task: t})
	}
	for _, t := range s.RecurringTasks {
		if t.Recurrence.Matches(wd) {
			out = append(out, TaskView{Task: t, Virtual: true})
		}
	}
	return out
}

// EffectiveCommitments returns the day's own commitments merged with every
// weekly commitment rule falling on the key's weekday, ordered by time.
func (s State) EffectiveCommitments(key datekey.Key) []CommitmentView {
	day := s.Calendar[key]
	wd := key.Weekday()
	out := make([]CommitmentView, 0, len(day.Commitments))
	for _, c := range day.Commitments {
		out = append(out, CommitmentView{Commitment: c})
	}
	for _, c := range s.RecurringCommitments {
		if c.Recurrence.Matches(wd) {
			out = append(out, CommitmentView{Commitment: c, Virtual: true})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
