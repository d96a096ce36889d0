package planner

import (
	"strings"

	"github.com/google/uuid"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/recurrence"
)

// Draft is an edit session on one day. Edits are recorded and previewed
// against a working copy; nothing reaches the Store until Commit, which
// applies the day edits, new weekly rules and every daily propagation as a
// single transition.
type Draft struct {
	key     datekey.Key
	base    State
	work    State
	ops     []func(State) State
	pending []propagation
}

// NewDraft opens a session on key starting from s.
func NewDraft(s State, key datekey.Key) *Draft {
	return &Draft{key: key, base: s.Clone(), work: s.Clone()}
}

// Tasks is the effective task list of the day being edited.
func (d *Draft) Tasks() []TaskView { return d.work.EffectiveTasks(d.key) }

// Commitments is the effective commitment list of the day being edited.
func (d *Draft) Commitments() []CommitmentView { return d.work.EffectiveCommitments(d.key) }

// StudyMinutes is the working value of the day's minutes.
func (d *Draft) StudyMinutes() int { return d.work.Day(d.key).StudyMinutes }

// Pending returns how many daily items will be propagated on Commit.
func (d *Draft) Pending() int { return len(d.pending) }

func (d *Draft) record(op func(State) State) {
	d.ops = append(d.ops, op)
	d.work = op(d.work)
}

// AddTask adds a task to the day according to its rule: weekly tasks become
// rules, daily tasks are added to the day and queued for propagation. It
// returns the new id, or "" when text is blank.
func (d *Draft) AddTask(text, subject string, rule recurrence.Rule) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	t := Task{ID: uuid.NewString(), Text: text, Subject: subject, Recurrence: rule}
	key := d.key
	d.record(func(s State) State { return s.AddTask(key, t) })
	if rule.IsDaily() {
		d.pending = append(d.pending, propagation{from: key, task: &t})
	}
	return t.ID
}

// AddCommitment is AddTask for commitments. It returns "" when text is blank
// or at is not a valid HH:MM time.
func (d *Draft) AddCommitment(text, at, subject string, rule recurrence.Rule) string {
	text = strings.TrimSpace(text)
	norm, ok := normalizeTime(at)
	if text == "" || !ok {
		return ""
	}
	c := Commitment{ID: uuid.NewString(), Text: text, Time: norm, Subject: subject, Recurrence: rule}
	key := d.key
	d.record(func(s State) State { return s.AddCommitment(key, c) })
	if rule.IsDaily() {
		d.pending = append(d.pending, propagation{from: key, commitment: &c})
	}
	return c.ID
}

// RemoveTask removes a day task or, for a weekly rule, the rule itself. A
// queued propagation of the task is dropped with it.
func (d *Draft) RemoveTask(id string) {
	key := d.key
	if d.work.IsRecurring(id) {
		d.record(func(s State) State { return s.RemoveRecurring(id) })
	} else {
		d.record(func(s State) State { return s.RemoveTask(key, id) })
	}
	d.dropPending(id)
}

// RemoveCommitment is RemoveTask for commitments.
func (d *Draft) RemoveCommitment(id string) {
	key := d.key
	if d.work.IsRecurring(id) {
		d.record(func(s State) State { return s.RemoveRecurring(id) })
	} else {
		d.record(func(s State) State { return s.RemoveCommitment(key, id) })
	}
	d.dropPending(id)
}

// ToggleTask flips the completed flag of a day task or a weekly rule.
func (d *Draft) ToggleTask(id string) {
	key := d.key
	if d.work.IsRecurring(id) {
		d.record(func(s State) State { return s.ToggleRecurringCompleted(id) })
		return
	}
	d.record(func(s State) State { return s.ToggleTask(key, id) })
}

// StepStudyMinutes moves the day's minutes by delta, floored at zero.
func (d *Draft) StepStudyMinutes(delta int) {
	key := d.key
	d.record(func(s State) State { return s.SetStudyMinutes(key, delta) })
}

func (d *Draft) dropPending(id string) {
	kept := d.pending[:0]
	for _, p := range d.pending {
		if (p.task != nil && p.task.ID == id) || (p.commitment != nil && p.commitment.ID == id) {
			continue
		}
		kept = append(kept, p)
	}
	d.pending = kept
}

// Apply replays the session onto s and materialises the daily propagations.
func (d *Draft) Apply(s State) State {
	for _, op := range d.ops {
		s = op(s)
	}
	for _, p := range d.pending {
		s = p.apply(s)
	}
	return s
}

// Commit applies the session to store in one transition and closes it.
func (d *Draft) Commit(store *Store) State {
	next := store.Update(d.Apply)
	d.base = next
	d.Discard()
	return next
}

// Discard drops every recorded edit and queued propagation.
func (d *Draft) Discard() {
	d.work = d.base.Clone()
	d.ops = nil
	d.pending = nil
}
