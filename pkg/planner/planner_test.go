package planner

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/recurrence"
)

func key(s string) datekey.Key { return datekey.MustParse(s) }

func taskTexts(views []TaskView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Text)
	}
	return out
}

func TestEffectiveTasksWeeklyRule(t *testing.T) {
	s := Default().AddSubject("Math", "#ff0000")
	s = s.AddTask(key("2024-06-10"), Task{Text: "Review", Subject: "Math", Recurrence: recurrence.Weekly(time.Monday)})

	if len(s.Calendar) != 0 {
		t.Fatalf("weekly task should not be stored on a day, calendar=%v", s.Calendar)
	}
	got := s.EffectiveTasks(key("2024-06-17"))
	if len(got) != 1 || got[0].Text != "Review" || !got[0].Virtual {
		t.Fatalf("expected virtual Review on Monday, got %+v", got)
	}
	if got := s.EffectiveTasks(key("2024-06-18")); len(got) != 0 {
		t.Fatalf("expected nothing on Tuesday, got %v", taskTexts(got))
	}
	if got := s.EffectiveTasks(key("2023-01-02")); len(got) != 1 {
		t.Fatalf("expected rule on past Monday too, got %v", taskTexts(got))
	}
}

func TestEffectiveTasksUnion(t *testing.T) {
	s := Default()
	mon := key("2024-06-10")
	s = s.AddTask(mon, Task{Text: "one"})
	s = s.AddTask(key("2024-06-11"), Task{Text: "other day"})
	s = s.AddRecurringTask(Task{Text: "weekly mon", Recurrence: recurrence.Weekly(time.Monday)})
	s = s.AddRecurringTask(Task{Text: "weekly tue", Recurrence: recurrence.Weekly(time.Tuesday)})

	got := taskTexts(s.EffectiveTasks(mon))
	want := []string{"one", "weekly mon"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEffectiveCommitmentsSortedByTime(t *testing.T) {
	s := Default()
	mon := key("2024-06-10")
	s = s.AddCommitment(mon, Commitment{Text: "late", Time: "18:00"})
	s = s.AddCommitment(mon, Commitment{Text: "early", Time: "7:30"})
	s = s.AddRecurringCommitment(Commitment{Text: "noon", Time: "12:00", Recurrence: recurrence.Weekly(time.Monday)})

	got := s.EffectiveCommitments(mon)
	var order []string
	for _, c := range got {
		order = append(order, c.Time+" "+c.Text)
	}
	want := "07:30 early,12:00 noon,18:00 late"
	if strings.Join(order, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(order, ","))
	}
	if !got[1].Virtual || got[0].Virtual {
		t.Fatalf("expected only the rule to be virtual: %+v", got)
	}
}

func TestStudyMinutesFloorAtZero(t *testing.T) {
	s := Default()
	d := key("2024-06-10")
	s = s.SetStudyMinutes(d, -5)
	if got := s.Day(d).StudyMinutes; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	for i := 0; i < 3; i++ {
		s = s.SetStudyMinutes(d, DefaultStepper)
	}
	if got := s.Day(d).StudyMinutes; got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	s = s.SetStudyMinutes(d, -20)
	if got := s.Day(d).StudyMinutes; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if _, ok := s.Calendar[d]; ok {
		t.Fatalf("expected empty day to be dropped from the calendar")
	}
}

func TestStudyMinutesNeverNegative(t *testing.T) {
	deltas := []int{5, -10, 5, 5, -3, -100, 25, -24, -1, -1}
	s := Default()
	d := key("2024-02-29")
	for i, delta := range deltas {
		s = s.SetStudyMinutes(d, delta)
		if got := s.Day(d).StudyMinutes; got < 0 {
			t.Fatalf("step %d: minutes went negative: %d", i, got)
		}
	}
}

func TestUpsertDayMerges(t *testing.T) {
	s := Default()
	d := key("2024-06-10")
	s = s.AddTask(d, Task{Text: "keep"})
	minutes := 30
	s = s.UpsertDay(d, DayPatch{StudyMinutes: &minutes})
	day := s.Day(d)
	if day.StudyMinutes != 30 || len(day.Tasks) != 1 {
		t.Fatalf("expected merged day, got %+v", day)
	}
	commitments := []Commitment{{ID: "b", Text: "b", Time: "10:00"}, {ID: "a", Text: "a", Time: "08:00"}}
	s = s.UpsertDay(d, DayPatch{Commitments: &commitments})
	if got := s.Day(d).Commitments; got[0].ID != "a" {
		t.Fatalf("expected commitments re-sorted, got %+v", got)
	}
}

func TestMutationsDoNotAlias(t *testing.T) {
	d := key("2024-06-10")
	before := Default().AddTask(d, Task{Text: "a"})
	after := before.ToggleTask(d, before.Day(d).Tasks[0].ID)
	if before.Day(d).Tasks[0].Completed {
		t.Fatalf("mutation leaked into the previous state")
	}
	if !after.Day(d).Tasks[0].Completed {
		t.Fatalf("expected toggled task")
	}
}

func TestBlankTextIsNoop(t *testing.T) {
	s := Default()
	d := key("2024-06-10")
	if got := s.AddTask(d, Task{Text: "   "}); len(got.Calendar) != 0 {
		t.Fatalf("expected blank task to be ignored")
	}
	if got := s.AddCommitment(d, Commitment{Text: "x", Time: "25:00"}); len(got.Calendar) != 0 {
		t.Fatalf("expected invalid time to be ignored")
	}
	if got := s.AddRecurringTask(Task{Text: "x", Recurrence: recurrence.Daily()}); len(got.RecurringTasks) != 0 {
		t.Fatalf("expected non-weekly rule to be ignored")
	}
}

func TestRecurringRuleLifecycle(t *testing.T) {
	s := Default().AddRecurringTask(Task{ID: "r1", Text: "Review", Recurrence: recurrence.Weekly(time.Monday)})
	s = s.ToggleRecurringCompleted("r1")
	for _, d := range []string{"2024-06-10", "2024-06-17"} {
		got := s.EffectiveTasks(key(d))
		if len(got) != 1 || !got[0].Completed {
			t.Fatalf("%s: expected shared completed flag, got %+v", d, got)
		}
	}
	s = s.RemoveRecurring("r1")
	if got := s.EffectiveTasks(key("2024-06-10")); len(got) != 0 {
		t.Fatalf("expected rule removed everywhere, got %v", taskTexts(got))
	}
}

func TestStateJSONDocumentShape(t *testing.T) {
	s := Default()
	s = s.AddTask(key("2024-06-10"), Task{ID: "t1", Text: "Read"})
	s = s.AddRecurringTask(Task{ID: "r1", Text: "Review", Recurrence: recurrence.Weekly(time.Monday)})

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"calendar", "subjects", "generalNotes", "subjectProgress", "recurringTasks", "recurringCommitments", "globalDailyGoal", "userName"} {
		if _, ok := doc[field]; !ok {
			t.Fatalf("missing field %q in %s", field, b)
		}
	}
	rule := doc["recurringTasks"].([]any)[0].(map[string]any)
	if rule["recurrenceType"] != "weekly" || rule["isRecurring"] != true || rule["recurrenceDay"] != float64(1) {
		t.Fatalf("unexpected rule encoding %v", rule)
	}
	day := doc["calendar"].(map[string]any)["2024-06-10"].(map[string]any)
	task := day["tasks"].([]any)[0].(map[string]any)
	if _, ok := task["recurrenceDay"]; ok {
		t.Fatalf("non-weekly task must not carry recurrenceDay: %v", task)
	}

	var back State
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !back.Equal(s) {
		t.Fatalf("decoded state differs:\n%+v\n%+v", back, s)
	}
}

func TestDecodeNormalisesDocument(t *testing.T) {
	doc := `{"calendar":{"2024-06-10":{"commitments":null,"tasks":[],"studyMinutes":0},
		"bad":{"tasks":[{"id":"x","text":"x"}]},
		"2024-06-11":{"commitments":[{"id":"b","text":"b","time":"10:00"},{"id":"a","text":"a","time":"08:00","recurrenceType":"weekly"}],"studyMinutes":-5}},
		"globalDailyGoal":0}`
	var s State
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.Calendar) != 1 {
		t.Fatalf("expected only the non-empty valid day, got %v", s.Dates())
	}
	day := s.Day(key("2024-06-11"))
	if day.StudyMinutes != 0 || day.Commitments[0].ID != "a" {
		t.Fatalf("unexpected day %+v", day)
	}
	if !day.Commitments[0].Recurrence.IsNone() {
		t.Fatalf("weekly without day should decode as none")
	}
	if s.GlobalDailyGoal != DefaultDailyGoal || s.Subjects == nil || s.RecurringTasks == nil {
		t.Fatalf("expected defaults filled in: %+v", s)
	}
}

func TestSubjects(t *testing.T) {
	s := Default().AddSubject("Math", "F00")
	sub, ok := s.Subject("Math")
	if !ok || sub.Color != "#ff0000" {
		t.Fatalf("expected normalised colour, got %+v", sub)
	}
	if got := s.AddSubject("Bio", "not a colour"); len(got.Subjects) != 1 {
		t.Fatalf("expected invalid colour to be ignored")
	}
	s = s.AddTask(key("2024-06-10"), Task{Text: "x", Subject: "Math"})
	s = s.RemoveSubject("Math")
	if len(s.Subjects) != 0 {
		t.Fatalf("expected subject removed")
	}
	if s.Day(key("2024-06-10")).Tasks[0].Subject != "Math" {
		t.Fatalf("removing a subject must not touch tasks")
	}
}

func TestProgressStatus(t *testing.T) {
	s := Default().AddProgress(SubjectProgress{ID: "p", SubjectName: "Math", StartDate: key("2024-01-01")})
	p, _ := s.Progress("p")
	if p.Status != StatusInProgress {
		t.Fatalf("expected default status, got %q", p.Status)
	}
	s = s.SetProgressStatus("p", StatusCompleted, key("2024-03-01"))
	p, _ = s.Progress("p")
	if p.EndDate == nil || *p.EndDate != "2024-03-01" {
		t.Fatalf("expected end date stamped, got %+v", p)
	}
	s = s.AddTopic("p", "Limits").AddTopic("p", "Limits")
	p, _ = s.Progress("p")
	if len(p.Topics) != 1 {
		t.Fatalf("expected deduplicated topics, got %v", p.Topics)
	}
	s = s.SetProgressStatus("p", StatusInProgress, "")
	p, _ = s.Progress("p")
	if p.EndDate != nil {
		t.Fatalf("expected end date cleared on resume")
	}
}
