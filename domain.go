package app

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a task or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyText is returned when a task's text is empty after trimming.
	ErrEmptyText = errors.New("enter a task")
	// ErrInvalidTask is returned when a task id is empty or not in the collection.
	ErrInvalidTask = errors.New("invalid task")

	// ErrAuthentication is returned for both an unknown user and a wrong password.
	ErrAuthentication = errors.New("invalid username or password")
	// ErrMissingCredentials is returned when a name or password is empty.
	ErrMissingCredentials = errors.New("enter both username and password")
	// ErrUserExists is returned when registering a name that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrWrongPassword is returned when the old password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrEmptyPassword is returned when the new password is empty.
	ErrEmptyPassword = errors.New("new password is required")
	// ErrPasswordMismatch is returned when the new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Task represents a single to-do item.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	User      string `json:"user,omitempty"`
}

// TaskPatch is a partial update of a task. A nil field is left untouched.
// Text is applied before Completed.
type TaskPatch struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply returns t with the fields present in p replaced.
func (p TaskPatch) Apply(t Task) Task {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// TaskStore represents the actions that can be taken about tasks.
type TaskStore interface {
	Create(ctx context.Context, text string, completed bool, user string) (Task, error)
	Delete(ctx context.Context, id string) (Task, error)
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, user string) ([]Task, error)
	Update(ctx context.Context, id string, p TaskPatch) (Task, error)
}

// LocalStorage is durable key/value storage on the client.
type LocalStorage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// UserStore represents the actions that can be taken about users.
type UserStore interface {
	Login(name, password string) (*Session, error)
	Logout() error
	Current() (*Session, error)
	Register(name, password string) (*User, error)
	ChangePassword(name, oldPassword, newPassword, confirm string) error
	Users() ([]User, error)
}

// User represents a user in our system.
type User struct {
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
	IsAdmin      bool   `json:"isAdmin"`
}

// Session is the currently authenticated user.
type Session struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

// Local storage keys.
const (
	UsersKey   = "todo.users"
	SessionKey = "todo.session"
	TasksKey   = "todo.tasks"
)

// TasksKeyFor returns the local storage key holding the tasks of user. An
// empty user is the single global collection.
func TasksKeyFor(user string) string {
	if user == "" {
		return TasksKey
	}
	return TasksKey + "." + user
}
