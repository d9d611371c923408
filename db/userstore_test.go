package db

import (
	"errors"
	"testing"

	app "github.com/etitcombe/todopom"
	"golang.org/x/crypto/bcrypt"
)

func newTestRegistry(t *testing.T) (*Registry, *MemoryLocalStore) {
	t.Helper()
	storage := NewMemoryLocalStore()
	r := NewRegistry(storage, "pepper", discard)
	r.Cost = bcrypt.MinCost
	return r, storage
}

func TestRegistryBootstrapAdmin(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)

	created, err := r.Bootstrap()
	if err != nil || !created {
		t.Fatalf("first Bootstrap = %v, %v; want created", created, err)
	}
	created, err = r.Bootstrap()
	if err != nil || created {
		t.Fatalf("second Bootstrap = %v, %v; want not created", created, err)
	}
	users, _ := r.Users()
	if len(users) != 1 || users[0].Name != AdminName || !users[0].IsAdmin {
		t.Errorf("users = %+v", users)
	}
	if users[0].PasswordHash == AdminPassword {
		t.Error("admin password stored in plaintext")
	}
}

func TestRegistryPromotesExistingAdminName(t *testing.T) {
	t.Parallel()
	r, storage := newTestRegistry(t)
	storage.SetItem(app.UsersKey, `[{"name":"Admin","passwordHash":"not-a-hash","isAdmin":false},{"name":"bob","passwordHash":"x"}]`)

	created, err := r.Bootstrap()
	if err != nil || !created {
		t.Fatalf("Bootstrap = %v, %v; want created", created, err)
	}
	users, _ := r.Users()
	if len(users) != 2 || !users[0].IsAdmin || users[1].IsAdmin {
		t.Errorf("users = %+v", users)
	}
	s, err := r.Login(AdminName, AdminPassword)
	if err != nil || !s.IsAdmin {
		t.Errorf("Login as promoted admin = %+v, %v", s, err)
	}
}

func TestRegistryLogin(t *testing.T) {
	t.Parallel()
	r, storage := newTestRegistry(t)

	s, err := r.Login("Admin", "admin123")
	if err != nil {
		t.Fatalf("admin login on empty registry: %v", err)
	}
	if !s.IsAdmin || s.Name != "Admin" || s.Token == "" {
		t.Errorf("session = %+v", s)
	}
	if _, ok, _ := storage.GetItem(app.SessionKey); !ok {
		t.Error("session not persisted")
	}

	if _, err := r.Register("alice", "pw1"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name, user, password string
	}{
		{"unregistered", "mallory", "pw1"},
		{"wrong password", "alice", "nope"},
		{"name is case sensitive", "Alice", "pw1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		if _, err := r.Login(tt.user, tt.password); !errors.Is(err, app.ErrAuthentication) {
			t.Errorf("%s: err = %v, want ErrAuthentication", tt.name, err)
		}
	}

	s, err = r.Login("alice", "pw1")
	if err != nil || s.IsAdmin {
		t.Errorf("alice login = %+v, %v", s, err)
	}
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)

	u, err := r.Register("  alice ", " pw1 ")
	if err != nil {
		t.Fatal(err)
	}
	if u.Name != "alice" || u.IsAdmin {
		t.Errorf("user = %+v", u)
	}
	if _, err := r.Login("alice", "pw1"); err != nil {
		t.Errorf("login with trimmed password: %v", err)
	}
	if _, err := r.Register("alice", "pw2"); !errors.Is(err, app.ErrUserExists) {
		t.Errorf("duplicate register err = %v", err)
	}
	if _, err := r.Register("Admin", "x"); !errors.Is(err, app.ErrUserExists) {
		t.Errorf("register Admin err = %v", err)
	}
	for _, c := range [][2]string{{"", "pw"}, {"bob", "  "}, {" ", " "}} {
		if _, err := r.Register(c[0], c[1]); !errors.Is(err, app.ErrMissingCredentials) {
			t.Errorf("Register(%q, %q) err = %v", c[0], c[1], err)
		}
	}
}

func TestRegistryChangePassword(t *testing.T) {
	t.Parallel()
	r, _ := newTestRegistry(t)
	if _, err := r.Register("alice", "old"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name              string
		old, new, confirm string
		want              error
	}{
		{"wrong old", "bad", "new", "new", app.ErrWrongPassword},
		{"empty new", "old", " ", " ", app.ErrEmptyPassword},
		{"mismatch", "old", "new", "other", app.ErrPasswordMismatch},
	}
	for _, tt := range tests {
		if err := r.ChangePassword("alice", tt.old, tt.new, tt.confirm); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
	if err := r.ChangePassword("bob", "old", "new", "new"); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("unknown user err = %v", err)
	}

	if err := r.ChangePassword("alice", "old", "new", "new"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Login("alice", "old"); !errors.Is(err, app.ErrAuthentication) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := r.Login("alice", "new"); err != nil {
		t.Errorf("new password: %v", err)
	}
	users, _ := r.Users()
	if len(users) != 2 || users[1].Name != "alice" {
		t.Errorf("password change must replace in place, users = %+v", users)
	}
}

func TestRegistrySession(t *testing.T) {
	t.Parallel()
	r, storage := newTestRegistry(t)

	if _, err := r.Current(); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("Current with no session err = %v", err)
	}
	r.Register("alice", "pw")
	login, err := r.Login("alice", "pw")
	if err != nil {
		t.Fatal(err)
	}
	cur, err := r.Current()
	if err != nil || cur.Name != "alice" || cur.Token != login.Token {
		t.Fatalf("Current = %+v, %v", cur, err)
	}
	if err := r.Logout(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Current(); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("Current after logout err = %v", err)
	}

	storage.SetItem(app.SessionKey, "{corrupt")
	if _, err := r.Current(); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("corrupt session err = %v", err)
	}
	storage.SetItem(app.SessionKey, `{"name":"ghost"}`)
	if _, err := r.Current(); !errors.Is(err, app.ErrNotFound) {
		t.Errorf("session of unknown user err = %v", err)
	}
}

func TestRegistryCorruptUsers(t *testing.T) {
	t.Parallel()
	r, storage := newTestRegistry(t)
	storage.SetItem(app.UsersKey, "not json")

	if _, err := r.Login("Admin", "admin123"); err != nil {
		t.Errorf("corrupt registry must be treated as empty: %v", err)
	}
}

func TestRegistryDashboard(t *testing.T) {
	t.Parallel()
	r, storage := newTestRegistry(t)
	r.Register("alice", "pw")
	r.Register("bob", "pw")
	app.WriteTasks(storage, app.TasksKeyFor("alice"), []app.Task{
		{ID: "1", Text: "todo"},
		{ID: "2", Text: "done", Completed: true},
	})
	storage.SetItem(app.TasksKeyFor("bob"), "corrupt")

	d, err := r.Dashboard()
	if err != nil {
		t.Fatal(err)
	}
	if len(d) != 2 {
		t.Fatalf("dashboard has %d users, want 2 (admin excluded)", len(d))
	}
	if d[0].Name != "alice" || len(d[0].Pending) != 1 || len(d[0].Completed) != 1 {
		t.Errorf("alice = %+v", d[0])
	}
	if d[1].Name != "bob" || len(d[1].Pending) != 0 || len(d[1].Completed) != 0 {
		t.Errorf("bob = %+v", d[1])
	}
}
