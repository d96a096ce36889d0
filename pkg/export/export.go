// Package export turns planner items into links and documents other
// calendars understand. Nothing is imported back.
package export

import (
	"net/url"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/recurrence"
)

const (
	googleCalendarBase = "https://calendar.google.com/calendar/render"
	googleDateTime     = "20060102T150405"
	googleDate         = "20060102"

	// DefaultDuration is the length given to timed items.
	DefaultDuration = time.Hour
)

// Item is one task or commitment to export.
type Item struct {
	ID          string
	Title       string
	Description string
	// Time is HH:MM, or empty for an all-day item.
	Time string
	Rule recurrence.Rule
}

// TaskItem describes a task as an all-day item.
func TaskItem(t planner.Task) Item {
	return Item{ID: t.ID, Title: t.Text, Description: subjectLine(t.Subject), Rule: t.Recurrence}
}

// CommitmentItem describes a commitment as a timed item.
func CommitmentItem(c planner.Commitment) Item {
	return Item{ID: c.ID, Title: c.Text, Description: subjectLine(c.Subject), Time: c.Time, Rule: c.Recurrence}
}

func subjectLine(subject string) string {
	if subject == "" {
		return ""
	}
	return "Subject: " + subject
}

// Start returns when it begins on day in loc. allDay is true for items
// without a time.
func (it Item) Start(day datekey.Key, loc *time.Location) (start time.Time, allDay bool) {
	if loc == nil {
		loc = time.Local
	}
	base := day.In(loc)
	if it.Time == "" {
		return base, true
	}
	at, err := time.Parse("15:04", it.Time)
	if err != nil {
		return base, true
	}
	return time.Date(base.Year(), base.Month(), base.Day(), at.Hour(), at.Minute(), 0, 0, loc), false
}

// GoogleCalendarURL returns a link that opens Google Calendar with it
// prefilled on day. Weekly items carry RRULE:FREQ=WEEKLY;BYDAY=<SU..SA> and
// daily ones RRULE:FREQ=DAILY.
func GoogleCalendarURL(it Item, day datekey.Key, loc *time.Location) string {
	start, allDay := it.Start(day, loc)
	var dates string
	if allDay {
		dates = start.Format(googleDate) + "/" + start.AddDate(0, 0, 1).Format(googleDate)
	} else {
		end := start.Add(DefaultDuration)
		dates = start.Format(googleDateTime) + "/" + end.Format(googleDateTime)
	}

	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", it.Title)
	q.Set("dates", dates)
	if it.Description != "" {
		q.Set("details", it.Description)
	}
	if !allDay && loc != nil && loc != time.Local && loc != time.UTC {
		q.Set("ctz", loc.String())
	}
	if rule := it.Rule.RRule(); rule != "" {
		q.Set("recur", rule)
	}
	return googleCalendarBase + "?" + q.Encode()
}
