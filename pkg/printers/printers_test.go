package printers

import (
	"bytes"
	"strings"
	"testing"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/insights"
	"tableflip.dev/studyplan/pkg/planner"
	"tableflip.dev/studyplan/pkg/recurrence"
)

func newTestPrinter() (*PrettyPrint, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&buf, false), &buf
}

func TestSortSubjectsCollates(t *testing.T) {
	in := []planner.Subject{{Name: "química"}, {Name: "Álgebra"}, {Name: "biologia"}, {Name: "Arte"}}
	got := SortSubjects(in)
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	want := "Álgebra,Arte,biologia,química"
	if strings.Join(names, ",") != want {
		t.Fatalf("got %v, want %s", names, want)
	}
	if in[0].Name != "química" {
		t.Fatal("input slice was reordered")
	}
}

func TestMonthGrid(t *testing.T) {
	pp, buf := newTestPrinter()
	day := datekey.MustParse("2025-02-10")
	st := planner.Default().SetStudyMinutes(day, 30)
	pp.Month(st, day, day)

	out := buf.String()
	if !strings.Contains(out, "February 2025") {
		t.Fatalf("missing month title:\n%s", out)
	}
	// February 2025 starts on a Saturday.
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[2], strings.Repeat("   ", 6)+" 1") {
		t.Fatalf("first week not padded to Saturday: %q", lines[2])
	}
	if !strings.Contains(out, "28") || strings.Contains(out, "29") {
		t.Fatalf("unexpected day range:\n%s", out)
	}
}

func TestTasksShowsRuleAndCompletion(t *testing.T) {
	pp, buf := newTestPrinter()
	day := datekey.MustParse("2025-03-10") // Monday
	st := planner.Default().
		AddTask(day, planner.Task{Text: "Read chapter 3", Completed: true}).
		AddRecurringTask(planner.Task{Text: "Flashcards", Subject: "Bio", Recurrence: recurrence.Weekly(day.Weekday())})

	pp.Tasks(st, st.EffectiveTasks(day))
	out := buf.String()
	for _, want := range []string{"[x] Read chapter 3", "[ ] Flashcards", "(Bio, weekly on Monday)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestNotesWrap(t *testing.T) {
	pp, buf := newTestPrinter()
	pp.Width = 20
	pp.Notes("Notes", "one two three four five six seven eight nine ten")
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")[1:] {
		if len(line) > 20 {
			t.Fatalf("line %q exceeds width", line)
		}
	}
}

func TestGoalBar(t *testing.T) {
	pp, buf := newTestPrinter()
	pp.Goal(insights.Goal{Minutes: 60, Goal: 120, Percent: 50})
	if !strings.Contains(buf.String(), "1h / 2h (50%)") {
		t.Fatalf("unexpected goal line %q", buf.String())
	}
}

func TestSize(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
	}
	for in, want := range tests {
		if got := size(in); got != want {
			t.Fatalf("size(%d) = %q, want %q", in, got, want)
		}
	}
}
