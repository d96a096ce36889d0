package timeutil

import (
	"testing"

	"tableflip.dev/studyplan/pkg/datekey"
)

func TestParseWindowDefault(t *testing.T) {
	days, label, err := ParseWindow("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 7 {
		t.Fatalf("expected 7 days, got %d", days)
	}
	if label != "1w" {
		t.Fatalf("expected label 1w, got %s", label)
	}
}

func TestParseWindowComposite(t *testing.T) {
	days, label, err := ParseWindow("1w 9d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 16 {
		t.Fatalf("expected 16 days, got %d", days)
	}
	if label != "2w2d" {
		t.Fatalf("unexpected label: %s", label)
	}
}

func TestParseWindowInvalid(t *testing.T) {
	for _, in := range []string{"noop", "3h", "0d"} {
		if _, _, err := ParseWindow(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestWindow(t *testing.T) {
	from, to := Window(datekey.MustParse("2025-03-10"), 7)
	if from != "2025-03-04" || to != "2025-03-10" {
		t.Fatalf("unexpected window %s..%s", from, to)
	}
	from, _ = Window(datekey.MustParse("2025-03-10"), 0)
	if from != "2025-03-10" {
		t.Fatalf("zero window should cover today, got %s", from)
	}
}

func TestParseMinutes(t *testing.T) {
	tests := map[string]int{
		"25":    25,
		"+25":   25,
		"-10":   -10,
		"1h30m": 90,
		"+2h":   120,
		"-1h5m": -65,
		"45min": 45,
	}
	for in, want := range tests {
		got, err := ParseMinutes(in)
		if err != nil {
			t.Fatalf("ParseMinutes(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseMinutes(%q) = %d, want %d", in, got, want)
		}
	}
	for _, in := range []string{"", "abc", "3d"} {
		if _, err := ParseMinutes(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int]string{0: "0m", -5: "0m", 45: "45m", 60: "1h", 135: "2h15m"}
	for in, want := range tests {
		if got := FormatMinutes(in); got != want {
			t.Fatalf("FormatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}
