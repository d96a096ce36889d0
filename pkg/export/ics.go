package export

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
)

const productID = "-//studyplan//planner export//EN"

// ICS renders the effective tasks and commitments between from and to
// (inclusive) as an iCalendar document. Weekly rules become one recurring
// event bounded by to; everything else is a single event on its date.
func ICS(s planner.State, from, to datekey.Key, loc *time.Location, now time.Time) string {
	if to.Before(from) {
		from, to = to, from
	}
	if loc == nil {
		loc = time.Local
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName("Study plan")
	if loc != time.Local {
		cal.SetXWRTimezone(loc.String())
	}

	stamp := now.UTC()
	until := to.In(loc).AddDate(0, 0, 1).Add(-time.Second)
	seenRule := make(map[string]bool)

	for _, day := range datekey.Range(from, to) {
		for _, c := range s.EffectiveCommitments(day) {
			it := CommitmentItem(c.Commitment)
			if c.Virtual {
				if seenRule[c.ID] {
					continue
				}
				seenRule[c.ID] = true
			}
			addEvent(cal, it, day, loc, stamp, c.Virtual, until)
		}
		for _, t := range s.EffectiveTasks(day) {
			it := TaskItem(t.Task)
			if t.Virtual {
				if seenRule[t.ID] {
					continue
				}
				seenRule[t.ID] = true
			}
			addEvent(cal, it, day, loc, stamp, t.Virtual, until)
		}
	}
	return cal.Serialize()
}

func addEvent(cal *ics.Calendar, it Item, day datekey.Key, loc *time.Location, stamp time.Time, recurring bool, until time.Time) {
	uid := it.ID + "@studyplan"
	if !recurring {
		uid = it.ID + "-" + day.String() + "@studyplan"
	}
	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(stamp)
	ev.SetSummary(it.Title)
	if it.Description != "" {
		ev.SetDescription(it.Description)
	}

	start, allDay := it.Start(day, loc)
	if allDay {
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
	} else {
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(DefaultDuration))
	}

	if !recurring {
		return
	}
	opt, ok := it.Rule.Option()
	if !ok {
		return
	}
	opt.Until = until.UTC()
	ev.AddRrule(strings.TrimPrefix(opt.RRuleString(), "RRULE:"))
}

// Occurrences lists the dates between from and to on which rule it falls,
// using the same expansion the ICS consumer will.
func Occurrences(it Item, from, to datekey.Key) []datekey.Key {
	opt, ok := it.Rule.Option()
	if !ok {
		return nil
	}
	opt.Dtstart = from.Time()
	opt.Until = to.Time()
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil
	}
	var out []datekey.Key
	for _, t := range r.All() {
		out = append(out, datekey.FromTime(t))
	}
	return out
}
