package planner

import (
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/recurrence"
)

// PropagationDates returns the dates a daily item added on from is copied to:
// every day after from up to and including the last day of its month. The
// result is empty on the last day of a month.
func PropagationDates(from datekey.Key) []datekey.Key {
	if !from.Valid() || from.IsEndOfMonth() {
		return nil
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: from.AddDays(1).Time(),
		Until:   from.EndOfMonth().Time(),
	})
	if err != nil {
		return nil
	}
	occurrences := r.All()
	out := make([]datekey.Key, 0, len(occurrences))
	for _, t := range occurrences {
		out = append(out, datekey.FromTime(t))
	}
	return out
}

// propagation is a daily item waiting to be copied to the rest of the month.
type propagation struct {
	from       datekey.Key
	task       *Task
	commitment *Commitment
}

// apply writes one independent copy per propagation date. Copies share
// content with the original but get their own id.
func (p propagation) apply(s State) State {
	for _, day := range PropagationDates(p.from) {
		switch {
		case p.task != nil:
			t := *p.task
			t.ID = uuid.NewString()
			t.Completed = false
			t.Recurrence = recurrence.Daily()
			s = s.AddTask(day, t)
		case p.commitment != nil:
			c := *p.commitment
			c.ID = uuid.NewString()
			c.Recurrence = recurrence.Daily()
			s = s.AddCommitment(day, c)
		}
	}
	return s
}
