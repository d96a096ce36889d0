// Package insights derives read-only figures from a planner state: minute
// totals, streaks, trend and inactivity insights, goal progress and
// per-subject breakdowns. Nothing here mutates the state.
package insights

import (
	"sort"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
)

// Totals are study minutes within the periods containing now.
type Totals struct {
	Week  int `json:"week"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// WeekStart returns the Sunday starting the week that contains day.
func WeekStart(day datekey.Key) datekey.Key {
	return day.AddDays(-int(day.Weekday()))
}

// ComputeTotals sums minutes over the calendar week (Sunday to Saturday),
// month and year containing now, in now's location.
func ComputeTotals(s planner.State, now time.Time) Totals {
	today := datekey.FromTime(now)
	weekFrom := WeekStart(today)
	weekTo := weekFrom.AddDays(6)
	t := today.Time()

	var out Totals
	for k, d := range s.Calendar {
		if d.StudyMinutes <= 0 {
			continue
		}
		kt := k.Time()
		if !k.Before(weekFrom) && !k.After(weekTo) {
			out.Week += d.StudyMinutes
		}
		if kt.Year() == t.Year() {
			out.Year += d.StudyMinutes
			if kt.Month() == t.Month() {
				out.Month += d.StudyMinutes
			}
		}
	}
	return out
}

// WindowTotal sums minutes over [from, to].
func WindowTotal(s planner.State, from, to datekey.Key) int {
	total := 0
	for k, d := range s.Calendar {
		if !k.Before(from) && !k.After(to) {
			total += d.StudyMinutes
		}
	}
	return total
}

// StudyDates returns every date with minutes recorded, ascending.
func StudyDates(s planner.State) []datekey.Key {
	out := make([]datekey.Key, 0, len(s.Calendar))
	for k, d := range s.Calendar {
		if d.StudyMinutes > 0 {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LongestStreak is the longest run of consecutive study dates.
func LongestStreak(s planner.State) int {
	return LongestStreakOf(StudyDates(s))
}

// LongestStreakOf walks ascending dates and returns the longest run in which
// each date follows the previous by exactly one day.
func LongestStreakOf(dates []datekey.Key) int {
	if len(dates) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		switch gap := datekey.DaysBetween(dates[i-1], dates[i]); {
		case gap == 1:
			run++
		case gap > 1:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CurrentStreak is the run of consecutive study dates ending today, or
// yesterday when nothing is logged yet today.
func CurrentStreak(s planner.State, today datekey.Key) int {
	day := today
	if s.Day(day).StudyMinutes <= 0 {
		day = day.AddDays(-1)
	}
	run := 0
	for s.Day(day).StudyMinutes > 0 {
		run++
		day = day.AddDays(-1)
	}
	return run
}
