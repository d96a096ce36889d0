package recurrence

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDayPresentOnlyForWeekly(t *testing.T) {
	rules := []Rule{None(), Daily(), Weekly(time.Monday), {}}
	for _, r := range rules {
		_, ok := r.Day()
		if ok != r.IsWeekly() {
			t.Fatalf("%v: day present=%v but weekly=%v", r, ok, r.IsWeekly())
		}
		w := r.ToWire()
		if (w.RecurrenceDay != nil) != (w.RecurrenceType == KindWeekly) {
			t.Fatalf("%v: wire day present=%v but type=%s", r, w.RecurrenceDay != nil, w.RecurrenceType)
		}
		if w.IsRecurring != (w.RecurrenceType == KindWeekly) {
			t.Fatalf("%v: isRecurring=%v but type=%s", r, w.IsRecurring, w.RecurrenceType)
		}
	}
}

func TestZeroValueIsNone(t *testing.T) {
	var r Rule
	if r.Kind() != KindNone || !r.IsNone() {
		t.Fatalf("expected zero value to be none, got %s", r.Kind())
	}
}

func TestWeeklyOutOfRangeIsNone(t *testing.T) {
	if r := Weekly(time.Weekday(9)); !r.IsNone() {
		t.Fatalf("expected none, got %v", r)
	}
}

func TestWireNormalisesInconsistentDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want Rule
	}{
		{"weekly", `{"recurrenceType":"weekly","isRecurring":true,"recurrenceDay":2}`, Weekly(time.Tuesday)},
		{"weekly without day", `{"recurrenceType":"weekly","isRecurring":true}`, None()},
		{"daily with day", `{"recurrenceType":"daily","recurrenceDay":3}`, Daily()},
		{"legacy isRecurring", `{"isRecurring":true,"recurrenceDay":5}`, Weekly(time.Friday)},
		{"bad day", `{"recurrenceType":"weekly","recurrenceDay":7}`, None()},
		{"empty", `{}`, None()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var w Wire
			if err := json.Unmarshal([]byte(tc.doc), &w); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := w.Rule(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"0":       time.Sunday,
		"mon":     time.Monday,
		"Tuesday": time.Tuesday,
		"WE":      time.Wednesday,
		"sat":     time.Saturday,
	}
	for in, want := range cases {
		got, err := ParseWeekday(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
	if _, err := ParseWeekday("7"); err == nil {
		t.Fatalf("expected error for out of range weekday")
	}
}

func TestRRule(t *testing.T) {
	if got := Weekly(time.Monday).RRule(); got != "RRULE:FREQ=WEEKLY;BYDAY=MO" {
		t.Fatalf("unexpected weekly rule %q", got)
	}
	if got := Weekly(time.Sunday).RRule(); got != "RRULE:FREQ=WEEKLY;BYDAY=SU" {
		t.Fatalf("unexpected weekly rule %q", got)
	}
	if got := Daily().RRule(); got != "RRULE:FREQ=DAILY" {
		t.Fatalf("unexpected daily rule %q", got)
	}
	if got := None().RRule(); got != "" {
		t.Fatalf("expected empty rule, got %q", got)
	}
}
