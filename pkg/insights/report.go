package insights

import (
	"sort"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
)

// ReportDay is one day of a report.
type ReportDay struct {
	Date      datekey.Key `json:"date"`
	Minutes   int         `json:"minutes"`
	Completed int         `json:"completed"`
	Tasks     int         `json:"tasks"`
}

// SubjectStat counts the effective tasks of a subject over a range.
type SubjectStat struct {
	Subject   string `json:"subject"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// ReportResult summarises a date range.
type ReportResult struct {
	From     datekey.Key   `json:"from"`
	To       datekey.Key   `json:"to"`
	Days     []ReportDay   `json:"days"`
	Subjects []SubjectStat `json:"subjects"`
	Minutes  int           `json:"minutes"`
	Streak   int           `json:"streak"`
}

// Report builds a per-day summary of [from, to]. Days with neither minutes
// nor tasks are left out. Bounds are swapped when given in reverse.
func Report(s planner.State, from, to datekey.Key) ReportResult {
	if to.Before(from) {
		from, to = to, from
	}
	res := ReportResult{From: from, To: to}
	var studied []datekey.Key
	for _, k := range datekey.Range(from, to) {
		tasks := s.EffectiveTasks(k)
		day := ReportDay{Date: k, Minutes: s.Day(k).StudyMinutes, Tasks: len(tasks)}
		for _, t := range tasks {
			if t.Completed {
				day.Completed++
			}
		}
		if day.Minutes > 0 {
			studied = append(studied, k)
		}
		if day.Minutes == 0 && day.Tasks == 0 {
			continue
		}
		res.Minutes += day.Minutes
		res.Days = append(res.Days, day)
	}
	res.Subjects = SubjectBreakdown(s, from, to)
	res.Streak = LongestStreakOf(studied)
	return res
}

// SubjectBreakdown counts completed and total effective tasks per subject
// over [from, to]. Weekly rules count once per matching date. Tasks without a
// subject are grouped under "".
func SubjectBreakdown(s planner.State, from, to datekey.Key) []SubjectStat {
	stats := map[string]*SubjectStat{}
	for _, k := range datekey.Range(from, to) {
		for _, t := range s.EffectiveTasks(k) {
			st, ok := stats[t.Subject]
			if !ok {
				st = &SubjectStat{Subject: t.Subject}
				stats[t.Subject] = st
			}
			st.Total++
			if t.Completed {
				st.Completed++
			}
		}
	}
	out := make([]SubjectStat, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}
