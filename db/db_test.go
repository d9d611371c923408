package db

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"

	app "github.com/etitcombe/todopom"
)

var discard = log.New(io.Discard, "", 0)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// taskStoreContract runs the same checks against every app.TaskStore.
func taskStoreContract(t *testing.T, s app.TaskStore) {
	ctx := context.Background()

	if _, err := s.Create(ctx, "   ", false, ""); !errors.Is(err, app.ErrEmptyText) {
		t.Fatalf("Create(blank) err = %v, want ErrEmptyText", err)
	}

	a, err := s.Create(ctx, "  buy milk ", false, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == "" || a.Text != "buy milk" || a.Completed || a.User != "alice" {
		t.Fatalf("unexpected created task %+v", a)
	}
	b, err := s.Create(ctx, "walk dog", true, "bob")
	if err != nil {
		t.Fatal(err)
	}
	c, err := s.Create(ctx, "call mom", false, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID || b.ID == c.ID {
		t.Fatal("ids are not unique")
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(all); !equal(got, []string{a.ID, b.ID, c.ID}) {
		t.Errorf("List(all) = %v", got)
	}
	mine, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(mine); !equal(got, []string{a.ID, c.ID}) {
		t.Errorf("List(alice) = %v", got)
	}
	none, err := s.List(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("List(nobody) = %#v, want empty non-nil", none)
	}

	got, err := s.Get(ctx, b.ID)
	if err != nil || got != b {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("Get(missing) err = %v", err)
	}

	u, err := s.Update(ctx, a.ID, app.TaskPatch{Completed: boolPtr(true)})
	if err != nil {
		t.Fatal(err)
	}
	if !u.Completed || u.Text != "buy milk" {
		t.Errorf("Update(completed) = %+v", u)
	}
	u, err = s.Update(ctx, a.ID, app.TaskPatch{Text: strPtr(" oat milk ")})
	if err != nil {
		t.Fatal(err)
	}
	if u.Text != "oat milk" || !u.Completed {
		t.Errorf("Update(text) = %+v", u)
	}
	if _, err := s.Update(ctx, a.ID, app.TaskPatch{Text: strPtr(" ")}); !errors.Is(err, app.ErrEmptyText) {
		t.Errorf("Update(blank) err = %v", err)
	}
	if _, err := s.Update(ctx, "missing", app.TaskPatch{}); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("Update(missing) err = %v", err)
	}

	removed, err := s.Delete(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed.ID != b.ID {
		t.Errorf("Delete returned %+v", removed)
	}
	if _, err := s.Delete(ctx, b.ID); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
	all, _ = s.List(ctx, "")
	if got := ids(all); !equal(got, []string{a.ID, c.ID}) {
		t.Errorf("List after delete = %v", got)
	}
}

func ids(tasks []app.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMemoryTaskStore(t *testing.T) {
	t.Parallel()
	taskStoreContract(t, NewMemoryTaskStore(discard, ""))
}

func TestSQLiteTaskStore(t *testing.T) {
	t.Parallel()

	s, err := NewSQLiteTaskStore(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	taskStoreContract(t, s)

	n, err := s.Count(context.Background())
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v; want 2", n, err)
	}
}

func TestSQLiteTaskStoreReopen(t *testing.T) {
	t.Parallel()
	dsn := filepath.Join(t.TempDir(), "tasks.db")
	ctx := context.Background()

	s, _ := NewSQLiteTaskStore(dsn)
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	created, err := s.Create(ctx, "persist me", false, "")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, _ = NewSQLiteTaskStore(dsn)
	if err := s.Open(); err != nil {
		t.Fatalf("reopen (migrations must be idempotent): %v", err)
	}
	defer s.Close()
	got, err := s.Get(ctx, created.ID)
	if err != nil || got.Text != "persist me" {
		t.Errorf("Get after reopen = %+v, %v", got, err)
	}
}

func TestSQLiteOpenRequiresDSN(t *testing.T) {
	t.Parallel()
	s, _ := NewSQLiteTaskStore("")
	if err := s.Open(); err == nil {
		t.Error("expected an error for an empty dsn")
	}
}
