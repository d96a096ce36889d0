// Package planner holds the consolidated study planner state and every
// operation that mutates it: the day entry store, the recurring rule store,
// the recurrence expander and the bulk propagation draft.
//
// State values are never modified in place. Every mutation returns a new
// State; the Store swaps it in and notifies subscribers.
package planner

import (
	"encoding/json"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/recurrence"
)

const (
	// DefaultDailyGoal is the study goal, in minutes, of a fresh state.
	DefaultDailyGoal = 120

	// DefaultStepper is the amount the minutes stepper moves by.
	DefaultStepper = 5

	timeLayout = "15:04"
)

// Task is a to-do item on a day or, when weekly, a recurring rule.
type Task struct {
	ID         string
	Text       string
	Completed  bool
	Subject    string
	Recurrence recurrence.Rule
}

type taskJSON struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Subject   string `json:"subject"`
	recurrence.Wire
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Subject:   t.Subject,
		Wire:      t.Recurrence.ToWire(),
	})
}

func (t *Task) UnmarshalJSON(b []byte) error {
	var j taskJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*t = Task{ID: j.ID, Text: j.Text, Completed: j.Completed, Subject: j.Subject, Recurrence: j.Wire.Rule()}
	return nil
}

// Commitment is a timed appointment on a day or, when weekly, a recurring rule.
type Commitment struct {
	ID         string
	Text       string
	Time       string // HH:MM, 24h
	Subject    string
	Recurrence recurrence.Rule
}

type commitmentJSON struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Time    string `json:"time"`
	Subject string `json:"subject,omitempty"`
	recurrence.Wire
}

func (c Commitment) MarshalJSON() ([]byte, error) {
	return json.Marshal(commitmentJSON{
		ID:      c.ID,
		Text:    c.Text,
		Time:    c.Time,
		Subject: c.Subject,
		Wire:    c.Recurrence.ToWire(),
	})
}

func (c *Commitment) UnmarshalJSON(b []byte) error {
	var j commitmentJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*c = Commitment{ID: j.ID, Text: j.Text, Time: j.Time, Subject: j.Subject, Recurrence: j.Wire.Rule()}
	return nil
}

// DayData is everything stored for one calendar day.
type DayData struct {
	Commitments  []Commitment `json:"commitments"`
	Tasks        []Task       `json:"tasks"`
	StudyMinutes int          `json:"studyMinutes"`
}

// IsZero reports whether d holds nothing, in which case it is not stored.
func (d DayData) IsZero() bool {
	return len(d.Commitments) == 0 && len(d.Tasks) == 0 && d.StudyMinutes <= 0
}

// Subject is a study subject. Name is its identity.
type Subject struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ProgressStatus is the lifecycle of a SubjectProgress record. The values are
// the stored document strings.
type ProgressStatus string

const (
	StatusInProgress ProgressStatus = "Em andamento"
	StatusCompleted  ProgressStatus = "Concluída"
	StatusPaused     ProgressStatus = "Pausada"
)

// Valid reports whether s is one of the known statuses.
func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusPaused:
		return true
	}
	return false
}

// SubjectProgress tracks a course of study on one subject.
type SubjectProgress struct {
	ID          string         `json:"id"`
	SubjectName string         `json:"subjectName"`
	StartDate   datekey.Key    `json:"startDate"`
	EndDate     *datekey.Key   `json:"endDate,omitempty"`
	Status      ProgressStatus `json:"status"`
	Notes       string         `json:"notes"`
	Topics      []string       `json:"topics"`
}

// State is the single document synchronised per user.
type State struct {
	Calendar             map[datekey.Key]DayData `json:"calendar"`
	Subjects             []Subject               `json:"subjects"`
	GeneralNotes         string                  `json:"generalNotes"`
	SubjectProgress      []SubjectProgress       `json:"subjectProgress"`
	RecurringTasks       []Task                  `json:"recurringTasks"`
	RecurringCommitments []Commitment            `json:"recurringCommitments"`
	GlobalDailyGoal      int                     `json:"globalDailyGoal"`
	UserName             string                  `json:"userName"`
}

// Default returns the state of a user with no stored document.
func Default() State {
	return State{
		Calendar:             map[datekey.Key]DayData{},
		Subjects:             []Subject{},
		SubjectProgress:      []SubjectProgress{},
		RecurringTasks:       []Task{},
		RecurringCommitments: []Commitment{},
		GlobalDailyGoal:      DefaultDailyGoal,
	}
}

// DefaultFor is Default with the user's display name filled in.
func DefaultFor(userName string) State {
	s := Default()
	s.UserName = userName
	return s
}

// normalizeTime returns t as zero padded HH:MM. ok is false when t is not a
// valid 24h time.
func normalizeTime(t string) (string, bool) {
	parsed, err := time.Parse(timeLayout, t)
	if err != nil {
		return "", false
	}
	return parsed.Format(timeLayout), true
}
