package planner

import (
	"strings"

	"github.com/google/uuid"

	"tableflip.dev/studyplan/pkg/datekey"
)

// DayPatch carries the fields to overwrite on a day. Nil fields are kept.
type DayPatch struct {
	Commitments  *[]Commitment
	Tasks        *[]Task
	StudyMinutes *int
}

// Day returns the stored data for key, or an empty day. It never fails.
func (s State) Day(key datekey.Key) DayData {
	if d, ok := s.Calendar[key]; ok {
		return d.clone()
	}
	return DayData{Commitments: []Commitment{}, Tasks: []Task{}}
}

// WithDay replaces the data of key. A day holding nothing is removed so the
// calendar only materialises days with content.
func (s State) WithDay(key datekey.Key, d DayData) State {
	if !key.Valid() {
		return s
	}
	out := s.Clone()
	if d.IsZero() {
		delete(out.Calendar, key)
		return out
	}
	d = d.clone()
	if d.StudyMinutes < 0 {
		d.StudyMinutes = 0
	}
	sortCommitments(d.Commitments)
	out.Calendar[key] = d
	return out
}

// UpsertDay merges the set fields of patch into the day.
func (s State) UpsertDay(key datekey.Key, patch DayPatch) State {
	d := s.Day(key)
	if patch.Commitments != nil {
		d.Commitments = append([]Commitment{}, (*patch.Commitments)...)
	}
	if patch.Tasks != nil {
		d.Tasks = append([]Task{}, (*patch.Tasks)...)
	}
	if patch.StudyMinutes != nil {
		d.StudyMinutes = *patch.StudyMinutes
	}
	return s.WithDay(key, d)
}

// SetStudyMinutes moves the day's minutes by delta, never below zero.
func (s State) SetStudyMinutes(key datekey.Key, delta int) State {
	d := s.Day(key)
	d.StudyMinutes += delta
	if d.StudyMinutes < 0 {
		d.StudyMinutes = 0
	}
	return s.WithDay(key, d)
}

// AddTask appends t to the day. Weekly tasks are rules and go to the
// recurring list instead. Blank text is ignored.
func (s State) AddTask(key datekey.Key, t Task) State {
	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" {
		return s
	}
	if t.Recurrence.IsWeekly() {
		return s.AddRecurringTask(t)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	d := s.Day(key)
	d.Tasks = append(d.Tasks, t)
	return s.WithDay(key, d)
}

// RemoveTask drops the task with id from the day.
func (s State) RemoveTask(key datekey.Key, id string) State {
	d := s.Day(key)
	kept := d.Tasks[:0]
	for _, t := range d.Tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(s.Calendar[key].Tasks) {
		return s
	}
	d.Tasks = kept
	return s.WithDay(key, d)
}

// ToggleTask flips the completed flag of the day task with id.
func (s State) ToggleTask(key datekey.Key, id string) State {
	return s.editTask(key, id, func(t *Task) { t.Completed = !t.Completed })
}

// EditTask replaces the text of the day task with id. Blank text is ignored.
func (s State) EditTask(key datekey.Key, id, text string) State {
	text = strings.TrimSpace(text)
	if text == "" {
		return s
	}
	return s.editTask(key, id, func(t *Task) { t.Text = text })
}

// SetTaskSubject assigns the day task with id to subject.
func (s State) SetTaskSubject(key datekey.Key, id, subject string) State {
	return s.editTask(key, id, func(t *Task) { t.Subject = subject })
}

func (s State) editTask(key datekey.Key, id string, fn func(*Task)) State {
	d := s.Day(key)
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			fn(&d.Tasks[i])
			return s.WithDay(key, d)
		}
	}
	return s
}

// AddCommitment inserts c into the day keeping the list ordered by time.
// Weekly commitments go to the recurring list. Blank text or an invalid time
// is ignored.
func (s State) AddCommitment(key datekey.Key, c Commitment) State {
	c.Text = strings.TrimSpace(c.Text)
	t, ok := normalizeTime(c.Time)
	if c.Text == "" || !ok {
		return s
	}
	c.Time = t
	if c.Recurrence.IsWeekly() {
		return s.AddRecurringCommitment(c)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	d := s.Day(key)
	d.Commitments = append(d.Commitments, c)
	return s.WithDay(key, d)
}

// RemoveCommitment drops the commitment with id from the day.
func (s State) RemoveCommitment(key datekey.Key, id string) State {
	d := s.Day(key)
	kept := d.Commitments[:0]
	for _, c := range d.Commitments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.Calendar[key].Commitments) {
		return s
	}
	d.Commitments = kept
	return s.WithDay(key, d)
}

// EditCommitment updates text and time of the day commitment with id. Empty
// arguments keep the current value; an invalid time is ignored.
func (s State) EditCommitment(key datekey.Key, id, text, at string) State {
	text = strings.TrimSpace(text)
	if at != "" {
		var ok bool
		if at, ok = normalizeTime(at); !ok {
			return s
		}
	}
	d := s.Day(key)
	for i := range d.Commitments {
		if d.Commitments[i].ID != id {
			continue
		}
		if text != "" {
			d.Commitments[i].Text = text
		}
		if at != "" {
			d.Commitments[i].Time = at
		}
		return s.WithDay(key, d)
	}
	return s
}
