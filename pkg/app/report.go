package app

import (
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/insights"
	"tableflip.dev/studyplan/pkg/planner"
)

// Overview is everything shown for one day.
type Overview struct {
	Day         datekey.Key              `json:"day"`
	Tasks       []planner.TaskView       `json:"tasks"`
	Commitments []planner.CommitmentView `json:"commitments"`
	Goal        insights.Goal            `json:"goal"`
	Totals      insights.Totals          `json:"totals"`
	Streak      int                      `json:"streak"`
	Insights    []insights.Insight       `json:"insights"`
}

// Now is the current time in the configured zone.
func (s *Service) Now() time.Time {
	return time.Now().In(s.loc)
}

// Overview summarises day against the current state. Totals and insights are
// relative to today, not to day.
func (s *Service) Overview(day datekey.Key) Overview {
	return OverviewOf(s.State(), day, s.Now())
}

// OverviewOf is Overview for an explicit state and clock.
func OverviewOf(st planner.State, day datekey.Key, now time.Time) Overview {
	today := datekey.FromTime(now)
	return Overview{
		Day:         day,
		Tasks:       st.EffectiveTasks(day),
		Commitments: st.EffectiveCommitments(day),
		Goal:        insights.GoalProgress(st, day),
		Totals:      insights.ComputeTotals(st, now),
		Streak:      insights.CurrentStreak(st, today),
		Insights:    insights.Collect(st, now),
	}
}

// Report summarises the days between from and to.
func (s *Service) Report(from, to datekey.Key) insights.ReportResult {
	return insights.Report(s.State(), from, to)
}
