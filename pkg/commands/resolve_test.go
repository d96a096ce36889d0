package commands

import (
	"strings"
	"testing"
	"time"

	"tableflip.dev/studyplan/pkg/datekey"
	"tableflip.dev/studyplan/pkg/recurrence"
)

func TestMatch(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}
	tests := []struct {
		prefix  string
		want    string
		wantErr string
	}{
		{prefix: "abc", want: "abc123"},
		{prefix: "xyz", want: "xyz"},
		{prefix: "ab", wantErr: "matches 2 tasks"},
		{prefix: "q", wantErr: "no task matches"},
		{prefix: " ", wantErr: "task id required"},
	}
	for _, tt := range tests {
		got, err := match("task", tt.prefix, ids)
		if tt.wantErr != "" {
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("match(%q) error = %v, want %q", tt.prefix, err, tt.wantErr)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("match(%q) = %q, %v, want %q", tt.prefix, got, err, tt.want)
		}
	}
}

func TestAdded(t *testing.T) {
	day := datekey.MustParse("2025-02-26") // Wednesday
	tests := []struct {
		rule recurrence.Rule
		want string
	}{
		{recurrence.None(), " on 2025-02-26"},
		{recurrence.Daily(), " on 2025-02-26 and 2 more days this month"},
		{recurrence.Weekly(time.Wednesday), " every Wednesday"},
	}
	for _, tt := range tests {
		if got := added(day, tt.rule); got != tt.want {
			t.Fatalf("added(%v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}
