package planner

import (
	"encoding/json"
	"reflect"
	"sort"

	"tableflip.dev/studyplan/pkg/datekey"
)

// UnmarshalJSON decodes a stored document and normalises it: missing
// collections become empty, days holding nothing are dropped, commitments are
// re-sorted and a non-positive goal falls back to the default.
func (s *State) UnmarshalJSON(b []byte) error {
	type plain State
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = State(p).normalized()
	return nil
}

func (s State) normalized() State {
	if s.Calendar == nil {
		s.Calendar = map[datekey.Key]DayData{}
	}
	for k, d := range s.Calendar {
		if !k.Valid() || d.IsZero() {
			delete(s.Calendar, k)
			continue
		}
		if d.StudyMinutes < 0 {
			d.StudyMinutes = 0
		}
		sortCommitments(d.Commitments)
		s.Calendar[k] = d
	}
	if s.Subjects == nil {
		s.Subjects = []Subject{}
	}
	if s.SubjectProgress == nil {
		s.SubjectProgress = []SubjectProgress{}
	}
	if s.RecurringTasks == nil {
		s.RecurringTasks = []Task{}
	}
	if s.RecurringCommitments == nil {
		s.RecurringCommitments = []Commitment{}
	}
	sortCommitments(s.RecurringCommitments)
	if s.GlobalDailyGoal <= 0 {
		s.GlobalDailyGoal = DefaultDailyGoal
	}
	return s
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Calendar = make(map[datekey.Key]DayData, len(s.Calendar))
	for k, d := range s.Calendar {
		out.Calendar[k] = d.clone()
	}
	out.Subjects = append([]Subject{}, s.Subjects...)
	out.SubjectProgress = make([]SubjectProgress, len(s.SubjectProgress))
	for i, p := range s.SubjectProgress {
		out.SubjectProgress[i] = p.clone()
	}
	out.RecurringTasks = append([]Task{}, s.RecurringTasks...)
	out.RecurringCommitments = append([]Commitment{}, s.RecurringCommitments...)
	return out
}

// Equal reports whether both states hold the same content.
func (s State) Equal(o State) bool {
	return reflect.DeepEqual(s.Clone().normalized(), o.Clone().normalized())
}

func (d DayData) clone() DayData {
	return DayData{
		Commitments:  append([]Commitment{}, d.Commitments...),
		Tasks:        append([]Task{}, d.Tasks...),
		StudyMinutes: d.StudyMinutes,
	}
}

func (p SubjectProgress) clone() SubjectProgress {
	out := p
	out.Topics = append([]string{}, p.Topics...)
	if p.EndDate != nil {
		end := *p.EndDate
		out.EndDate = &end
	}
	return out
}

// Dates returns every stored day in ascending order.
func (s State) Dates() []datekey.Key {
	keys := make([]datekey.Key, 0, len(s.Calendar))
	for k := range s.Calendar {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// sortCommitments orders by time, keeping insertion order between equal times.
func sortCommitments(cs []Commitment) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Time < cs[j].Time })
}
