package insights

import (
	"testing"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/recurrence"
)

func withMinutes(days map[string]int) planner.State {
	s := planner.Default()
	for k, m := range days {
		s = s.SetStudyMinutes(datekey.MustParse(k), m)
	}
	return s
}

func TestLongestStreak(t *testing.T) {
	cases := []struct {
		name string
		days []string
		want int
	}{
		{"empty", nil, 0},
		{"single", []string{"2024-01-01"}, 1},
		{"march", []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-05"}, 3},
		{"january", []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05", "2024-01-06"}, 3},
		{"across months", []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-10"}, 3},
		{"later run wins", []string{"2024-01-01", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			days := map[string]int{}
			for _, d := range tc.days {
				days[d] = 30
			}
			if got := LongestStreak(withMinutes(days)); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestLongestStreakIgnoresEmptyDays(t *testing.T) {
	s := withMinutes(map[string]int{"2024-01-01": 10, "2024-01-03": 10})
	s = s.AddTask(datekey.MustParse("2024-01-02"), planner.Task{Text: "no minutes"})
	if got := LongestStreak(s); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestTotals(t *testing.T) {
	// 2024-06-12 is a Wednesday; its week runs 2024-06-09 to 2024-06-15.
	s := withMinutes(map[string]int{
		"2024-06-08": 5,  // previous Saturday
		"2024-06-09": 10, // Sunday
		"2024-06-15": 20, // Saturday
		"2024-06-16": 40, // next Sunday
		"2024-05-31": 80,
		"2023-06-12": 160,
	})
	now := time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC)
	got := ComputeTotals(s, now)
	want := Totals{Week: 30, Month: 75, Year: 155}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestTrendOf(t *testing.T) {
	in, ok := TrendOf(140, 100)
	if !ok || in.Kind != KindPositive || in.ID != "positive-momentum" {
		t.Fatalf("expected positive momentum, got %+v ok=%v", in, ok)
	}
	if in.Change != 40 {
		t.Fatalf("expected +40%%, got %v", in.Change)
	}
	in, ok = TrendOf(40, 100)
	if !ok || in.Kind != KindWarning || in.ID != "decline-alert" {
		t.Fatalf("expected decline alert, got %+v ok=%v", in, ok)
	}
	if in.Change != -60 {
		t.Fatalf("expected -60%%, got %v", in.Change)
	}
	for _, tc := range [][2]int{{105, 100}, {90, 100}, {85, 100}, {50, 0}} {
		if in, ok := TrendOf(tc[0], tc[1]); ok {
			t.Fatalf("%v: expected no insight, got %+v", tc, in)
		}
	}
}

func TestTrendWindows(t *testing.T) {
	today := datekey.MustParse("2024-06-14")
	s := withMinutes(map[string]int{
		"2024-06-14": 70, "2024-06-08": 70, // current window
		"2024-06-07": 50, "2024-06-01": 50, // previous window
		"2024-05-31": 999, // outside both
	})
	in, ok := Trend(s, today)
	if !ok || in.Kind != KindPositive {
		t.Fatalf("expected positive trend, got %+v ok=%v", in, ok)
	}
}

func TestInactivity(t *testing.T) {
	today := datekey.MustParse("2024-06-14")
	if _, ok := Inactivity(planner.Default(), today); ok {
		t.Fatalf("expected no alert without history")
	}
	if _, ok := Inactivity(withMinutes(map[string]int{"2024-06-13": 10}), today); ok {
		t.Fatalf("expected no alert one day after studying")
	}
	in, ok := Inactivity(withMinutes(map[string]int{"2024-06-10": 10, "2024-06-20": 10}), today)
	if !ok || in.Days != 4 {
		t.Fatalf("expected 4 day gap alert, got %+v ok=%v", in, ok)
	}
}

func TestCurrentStreak(t *testing.T) {
	s := withMinutes(map[string]int{"2024-06-11": 5, "2024-06-12": 5, "2024-06-13": 5})
	if got := CurrentStreak(s, datekey.MustParse("2024-06-14")); got != 3 {
		t.Fatalf("expected streak through yesterday, got %d", got)
	}
	if got := CurrentStreak(s, datekey.MustParse("2024-06-15")); got != 0 {
		t.Fatalf("expected broken streak, got %d", got)
	}
}

func TestGoalProgress(t *testing.T) {
	s := withMinutes(map[string]int{"2024-06-14": 60})
	g := GoalProgress(s, datekey.MustParse("2024-06-14"))
	if g.Goal != planner.DefaultDailyGoal || g.Percent != 50 || g.Met {
		t.Fatalf("unexpected goal progress %+v", g)
	}
}

func TestReportAndSubjectBreakdown(t *testing.T) {
	mon := datekey.MustParse("2024-06-10")
	s := withMinutes(map[string]int{"2024-06-10": 30, "2024-06-12": 15})
	s = s.AddTask(mon, planner.Task{ID: "a", Text: "a", Subject: "Math"})
	s = s.ToggleTask(mon, "a")
	s = s.AddRecurringTask(planner.Task{Text: "Review", Subject: "Bio", Recurrence: recurrence.Weekly(time.Monday)})

	res := Report(s, datekey.MustParse("2024-06-17"), mon)
	if res.From != mon || res.Minutes != 45 {
		t.Fatalf("unexpected report %+v", res)
	}
	if len(res.Days) != 3 {
		t.Fatalf("expected 3 days (two Mondays and the 12th), got %+v", res.Days)
	}
	if len(res.Subjects) != 2 || res.Subjects[0].Subject != "Bio" || res.Subjects[0].Total != 2 {
		t.Fatalf("unexpected subjects %+v", res.Subjects)
	}
	if res.Subjects[1].Completed != 1 {
		t.Fatalf("expected completed math task, got %+v", res.Subjects[1])
	}
}
