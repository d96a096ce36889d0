package remote

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"tableflip.dev/studyplan/pkg/planner"
)

// openTestDB connects to STUDYPLAN_TEST_DATABASE_URL or skips the test.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("STUDYPLAN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STUDYPLAN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn, nil, Options{Attempts: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.CreateSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func TestDocumentsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs := db.Documents()
	uid := uuid.NewString()

	if _, err := docs.Fetch(ctx, uid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a new user, got %v", err)
	}

	st := planner.Default().SetGoal(90).SetUserName("Ana")
	if err := docs.Upsert(ctx, Document{UserID: uid, Email: "ana@example.com", Data: st}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := docs.Upsert(ctx, Document{UserID: uid, Email: "ana@example.com", Data: st.SetGoal(60)}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err := docs.Fetch(ctx, uid)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Data.GlobalDailyGoal != 60 {
		t.Fatalf("expected the last write to win, got goal %d", got.Data.GlobalDailyGoal)
	}
}

func TestGroupOwnership(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	groups := db.Groups()
	owner, member, stranger := uuid.NewString(), uuid.NewString(), uuid.NewString()

	g, err := groups.CreateGroup(ctx, owner, "Cálculo I", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _, _ = groups.DeleteGroup(ctx, g.ID, owner) })

	if _, err := groups.JoinGroup(ctx, member, g.InviteCode); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := groups.JoinGroup(ctx, member, g.InviteCode); err != nil {
		t.Fatalf("joining twice: %v", err)
	}
	members, err := groups.Members(ctx, g.ID, member)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 2 || members[0].Role != RoleOwner {
		t.Fatalf("unexpected members %+v", members)
	}
	if _, err := groups.Members(ctx, g.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}

	a, err := groups.AddActivity(ctx, g.ID, member, "Lista 3", "")
	if err != nil {
		t.Fatalf("add activity: %v", err)
	}
	if _, err := groups.AddActivity(ctx, g.ID, stranger, "spam", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden posting as a stranger, got %v", err)
	}
	if err := groups.DeleteActivity(ctx, a.ID, owner); err != nil {
		t.Fatalf("owner deleting a member's post: %v", err)
	}

	if err := groups.LeaveGroup(ctx, g.ID, owner); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected the owner to be refused leaving, got %v", err)
	}
	if _, err := groups.DeleteGroup(ctx, g.ID, member); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden deleting as a member, got %v", err)
	}
	if err := groups.LeaveGroup(ctx, g.ID, member); err != nil {
		t.Fatalf("leave: %v", err)
	}
}
