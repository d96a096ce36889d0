package insights

import (
	"fmt"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
)

// Kind classifies an insight.
type Kind string

const (
	KindPositive Kind = "positive"
	KindWarning  Kind = "warning"
	KindAlert    Kind = "alert"
	KindInfo     Kind = "info"
)

const (
	// PositiveThreshold is the week over week growth, in percent, above which
	// a positive momentum insight is emitted.
	PositiveThreshold = 5.0
	// DeclineThreshold is the week over week change, in percent, below which
	// a decline alert is emitted.
	DeclineThreshold = -15.0
	// InactivityDays is the gap since the last study date that raises an
	// inactivity alert.
	InactivityDays = 2
)

// Insight is one message for the insights panel.
type Insight struct {
	ID      string  `json:"id"`
	Kind    Kind    `json:"kind"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Change  float64 `json:"change,omitempty"`
	Days    int     `json:"days,omitempty"`
}

// TrendWindows returns the current seven day window ending today and the
// seven days before it.
func TrendWindows(today datekey.Key) (curFrom, curTo, prevFrom, prevTo datekey.Key) {
	return today.AddDays(-6), today, today.AddDays(-13), today.AddDays(-7)
}

// Trend compares the last seven days with the seven before.
func Trend(s planner.State, today datekey.Key) (Insight, bool) {
	curFrom, curTo, prevFrom, prevTo := TrendWindows(today)
	return TrendOf(WindowTotal(s, curFrom, curTo), WindowTotal(s, prevFrom, prevTo))
}

// TrendOf classifies the change from previous to current. Nothing is
// reported without a previous week to compare to.
func TrendOf(current, previous int) (Insight, bool) {
	if previous <= 0 {
		return Insight{}, false
	}
	change := float64(current-previous) * 100 / float64(previous)
	switch {
	case change > PositiveThreshold:
		return Insight{
			ID:      "positive-momentum",
			Kind:    KindPositive,
			Title:   "Positive momentum",
			Message: fmt.Sprintf("You studied %.0f%% more than the previous week (%d vs %d min).", change, current, previous),
			Change:  change,
		}, true
	case change < DeclineThreshold:
		return Insight{
			ID:      "decline-alert",
			Kind:    KindWarning,
			Title:   "Decline alert",
			Message: fmt.Sprintf("You studied %.0f%% less than the previous week (%d vs %d min).", -change, current, previous),
			Change:  change,
		}, true
	}
	return Insight{}, false
}

// Inactivity alerts when the last study date is at least InactivityDays
// before today. Study dates after today are ignored.
func Inactivity(s planner.State, today datekey.Key) (Insight, bool) {
	var last datekey.Key
	for _, k := range StudyDates(s) {
		if k.After(today) {
			break
		}
		last = k
	}
	if last == "" {
		return Insight{}, false
	}
	gap := datekey.DaysBetween(last, today)
	if gap < InactivityDays {
		return Insight{}, false
	}
	return Insight{
		ID:      "inactivity",
		Kind:    KindAlert,
		Title:   "Inactivity",
		Message: fmt.Sprintf("%d days without studying. Last session on %s.", gap, last),
		Days:    gap,
	}, true
}

// Goal is today's minutes against the daily goal.
type Goal struct {
	Minutes int     `json:"minutes"`
	Goal    int     `json:"goal"`
	Percent float64 `json:"percent"`
	Met     bool    `json:"met"`
}

// GoalProgress reports the study minutes of day against the global goal.
func GoalProgress(s planner.State, day datekey.Key) Goal {
	g := Goal{Minutes: s.Day(day).StudyMinutes, Goal: s.GlobalDailyGoal}
	if g.Goal > 0 {
		g.Percent = float64(g.Minutes) * 100 / float64(g.Goal)
		g.Met = g.Minutes >= g.Goal
	}
	return g
}

// Collect gathers every insight that applies at now.
func Collect(s planner.State, now time.Time) []Insight {
	today := datekey.FromTime(now)
	var out []Insight
	if in, ok := Trend(s, today); ok {
		out = append(out, in)
	}
	if in, ok := Inactivity(s, today); ok {
		out = append(out, in)
	}
	if g := GoalProgress(s, today); g.Met {
		out = append(out, Insight{
			ID:      "goal-met",
			Kind:    KindInfo,
			Title:   "Daily goal reached",
			Message: fmt.Sprintf("%d of %d minutes studied today.", g.Minutes, g.Goal),
		})
	}
	if n := CurrentStreak(s, today); n >= 3 {
		out = append(out, Insight{
			ID:      "streak",
			Kind:    KindInfo,
			Title:   "Streak",
			Message: fmt.Sprintf("%d days in a row.", n),
			Days:    n,
		})
	}
	return out
}
