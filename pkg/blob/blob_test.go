package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUploadOpenRemove(t *testing.T) {
	ctx := context.Background()
	s, err := NewDisk(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}

	path := "groups/g1/notes.pdf"
	if err := s.Upload(ctx, path, strings.NewReader("hello")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	rc, err := s.Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content %q", b)
	}

	if err := s.Remove(ctx, path, "groups/g1/missing.pdf"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Open(ctx, path); err == nil {
		t.Fatal("expected open to fail after remove")
	}
}

func TestValidate(t *testing.T) {
	for _, p := range []string{"", "/abs", "a/../b", "a//b", ".tmp/x", `a\b`, "a/"} {
		if err := Validate(p); !errors.Is(err, ErrInvalidPath) {
			t.Fatalf("Validate(%q) = %v, want ErrInvalidPath", p, err)
		}
	}
	if err := Validate("groups/g1/file name.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	s, err := NewDisk(t.TempDir(), "https://files.example.com/")
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	if got := s.PublicURL("groups/g1/file name.txt"); got != "https://files.example.com/groups/g1/file%20name.txt" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := s.PublicURL("../etc/passwd"); got != "" {
		t.Fatalf("expected empty url for invalid path, got %q", got)
	}

	local, err := NewDisk(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	if got := local.PublicURL("a/b.txt"); !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/a/b.txt") {
		t.Fatalf("unexpected file url %q", got)
	}
}

func TestUploadRejectsInvalidPath(t *testing.T) {
	s, err := NewDisk(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new disk: %v", err)
	}
	if err := s.Upload(context.Background(), "../x", strings.NewReader("x")); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}
