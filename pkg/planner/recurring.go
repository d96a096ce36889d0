package planner

import (
	"strings"

	"github.com/google/uuid"
)

// AddRecurringTask stores t as a weekly rule. Anything that is not weekly, or
// has blank text, is ignored.
func (s State) AddRecurringTask(t Task) State {
	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" || !t.Recurrence.IsWeekly() {
		return s
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	out := s.Clone()
	out.RecurringTasks = append(out.RecurringTasks, t)
	return out
}

// AddRecurringCommitment stores c as a weekly rule and keeps the rules
// ordered by time.
func (s State) AddRecurringCommitment(c Commitment) State {
	c.Text = strings.TrimSpace(c.Text)
	at, ok := normalizeTime(c.Time)
	if c.Text == "" || !ok || !c.Recurrence.IsWeekly() {
		return s
	}
	c.Time = at
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	out := s.Clone()
	out.RecurringCommitments = append(out.RecurringCommitments, c)
	sortCommitments(out.RecurringCommitments)
	return out
}

// RemoveRecurring deletes the rule with id from whichever list holds it. The
// item disappears from every date at once.
func (s State) RemoveRecurring(id string) State {
	out := s.Clone()
	tasks := out.RecurringTasks[:0]
	for _, t := range out.RecurringTasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	commitments := out.RecurringCommitments[:0]
	for _, c := range out.RecurringCommitments {
		if c.ID != id {
			commitments = append(commitments, c)
		}
	}
	if len(tasks) == len(s.RecurringTasks) && len(commitments) == len(s.RecurringCommitments) {
		return s
	}
	out.RecurringTasks = tasks
	out.RecurringCommitments = commitments
	return out
}

// ToggleRecurringCompleted flips the completed flag of a weekly task rule.
// The flag is shared by every occurrence of the rule.
func (s State) ToggleRecurringCompleted(id string) State {
	for i, t := range s.RecurringTasks {
		if t.ID == id {
			out := s.Clone()
			out.RecurringTasks[i].Completed = !t.Completed
			return out
		}
	}
	return s
}

// EditRecurring replaces the text of the rule with id, and for commitment
// rules the time when at is set.
func (s State) EditRecurring(id, text, at string) State {
	text = strings.TrimSpace(text)
	if at != "" {
		var ok bool
		if at, ok = normalizeTime(at); !ok {
			return s
		}
	}
	for i, t := range s.RecurringTasks {
		if t.ID == id {
			if text == "" {
				return s
			}
			out := s.Clone()
			out.RecurringTasks[i].Text = text
			return out
		}
	}
	for i, c := range s.RecurringCommitments {
		if c.ID == id {
			out := s.Clone()
			if text != "" {
				out.RecurringCommitments[i].Text = text
			}
			if at != "" {
				out.RecurringCommitments[i].Time = at
			}
			sortCommitments(out.RecurringCommitments)
			return out
		}
	}
	return s
}

// IsRecurring reports whether id names a weekly rule.
func (s State) IsRecurring(id string) bool {
	for _, t := range s.RecurringTasks {
		if t.ID == id {
			return true
		}
	}
	for _, c := range s.RecurringCommitments {
		if c.ID == id {
			return true
		}
	}
	return false
}
