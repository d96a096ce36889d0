package commands

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func walk(c *cobra.Command, fn func(*cobra.Command)) {
	fn(c)
	for _, sub := range c.Commands() {
		walk(sub, fn)
	}
}

func TestCommandTreeFlags(t *testing.T) {
	seen := map[string]bool{}
	walk(New(), func(c *cobra.Command) {
		// Merging the persistent flags panics on clashing names or shorthands.
		_ = c.InheritedFlags()
		_ = c.LocalFlags()
		seen[c.CommandPath()] = true
	})

	for _, want := range []string{
		"studyplan day",
		"studyplan task add",
		"studyplan commit add",
		"studyplan recurring done",
		"studyplan sync push",
		"studyplan auth signin",
		"studyplan group create",
		"studyplan file upload",
		"studyplan export ics",
		"studyplan migration move",
		"studyplan config init",
		"studyplan daemon",
	} {
		if !seen[want] {
			t.Errorf("missing command %q", want)
		}
	}
}

func TestReadPassword(t *testing.T) {
	tests := []struct {
		name  string
		flag  string
		input string
		want  string
		err   bool
	}{
		{name: "flag wins", flag: "s3cret", input: "other\n", want: "s3cret"},
		{name: "first line", input: "hunter2\nrest\n", want: "hunter2"},
		{name: "crlf", input: "hunter2\r\n", want: "hunter2"},
		{name: "no newline", input: "hunter2", want: "hunter2"},
		{name: "empty", input: "\n", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readPassword(tt.flag, strings.NewReader(tt.input))
			if tt.err {
				if err == nil {
					t.Fatalf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
