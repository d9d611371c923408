package db

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	app "github.com/etitcombe/todopom"
	"github.com/etitcombe/todopom/rand"
	"golang.org/x/crypto/bcrypt"
)

// The bootstrap administrator. This is a demo convenience, not a security
// control.
const (
	AdminName     = "Admin"
	AdminPassword = "admin123"
)

// Registry implements the UserStore interface against local storage. Users
// are kept as a JSON array under app.UsersKey.
type Registry struct {
	UserPwPepper string
	// Cost is the bcrypt cost used for new password hashes.
	Cost int

	errorLog *log.Logger
	storage  app.LocalStorage
	lock     sync.Mutex
}

// NewRegistry creates and returns a new instance of a Registry.
func NewRegistry(storage app.LocalStorage, pepper string, errorLog *log.Logger) *Registry {
	return &Registry{
		UserPwPepper: pepper,
		Cost:         bcrypt.DefaultCost,
		errorLog:     errorLog,
		storage:      storage,
	}
}

// Bootstrap makes sure an admin user exists. It reports whether the admin
// had to be created.
func (r *Registry) Bootstrap() (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	_, created, err := r.retrieveUsers()
	return created, err
}

// Login authenticates a user by name and password and stores the new session.
func (r *Registry) Login(name, password string) (*app.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	users, _, err := r.retrieveUsers()
	if err != nil {
		return nil, err
	}
	u := findUser(users, name)
	if u == nil || !r.matches(u, password) {
		return nil, app.ErrAuthentication
	}

	token, err := rand.RememberToken()
	if err != nil {
		return nil, err
	}
	s := &app.Session{Name: u.Name, IsAdmin: u.IsAdmin, Token: token}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if err := r.storage.SetItem(app.SessionKey, string(data)); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Logout clears the stored session.
func (r *Registry) Logout() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.storage.RemoveItem(app.SessionKey)
}

// Current restores the stored session. It returns app.ErrNotFound when nobody
// is logged in or the session's user no longer exists.
func (r *Registry) Current() (*app.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	raw, ok, err := r.storage.GetItem(app.SessionKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, app.ErrNotFound
	}
	var s app.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		r.errorLog.Printf("discarding corrupt session: %v", err)
		return nil, app.ErrNotFound
	}

	users, _, err := r.retrieveUsers()
	if err != nil {
		return nil, err
	}
	u := findUser(users, s.Name)
	if u == nil {
		return nil, app.ErrNotFound
	}
	s.IsAdmin = u.IsAdmin
	return &s, nil
}

// Register creates a new non-admin user.
func (r *Registry) Register(name, password string) (*app.User, error) {
	name = strings.TrimSpace(name)
	password = strings.TrimSpace(password)
	if name == "" || password == "" {
		return nil, app.ErrMissingCredentials
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	users, _, err := r.retrieveUsers()
	if err != nil {
		return nil, err
	}
	if findUser(users, name) != nil {
		return nil, app.ErrUserExists
	}

	hash, err := r.hash(password)
	if err != nil {
		return nil, err
	}
	u := app.User{Name: name, PasswordHash: hash}
	users = append(users, u)
	if err := r.saveUsers(users); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword replaces the password of name.
func (r *Registry) ChangePassword(name, oldPassword, newPassword, confirm string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	users, _, err := r.retrieveUsers()
	if err != nil {
		return err
	}
	u := findUser(users, name)
	if u == nil {
		return app.ErrNotFound
	}
	if !r.matches(u, oldPassword) {
		return app.ErrWrongPassword
	}
	if strings.TrimSpace(newPassword) == "" {
		return app.ErrEmptyPassword
	}
	if newPassword != confirm {
		return app.ErrPasswordMismatch
	}

	hash, err := r.hash(newPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return r.saveUsers(users)
}

// Users returns every registered user.
func (r *Registry) Users() ([]app.User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	users, _, err := r.retrieveUsers()
	return users, err
}

func (r *Registry) matches(u *app.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password+r.UserPwPepper))
	return err == nil
}

func (r *Registry) hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password+r.UserPwPepper), r.Cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// findUser returns a pointer into users, so changes through it are kept.
func findUser(users []app.User, name string) *app.User {
	for i := range users {
		if users[i].Name == name {
			return &users[i]
		}
	}
	return nil
}

// retrieveUsers must be called with the lock held. A corrupt registry is
// treated as empty. When no admin exists one is added and persisted.
func (r *Registry) retrieveUsers() ([]app.User, bool, error) {
	users := []app.User{}

	raw, ok, err := r.storage.GetItem(app.UsersKey)
	if err != nil {
		return nil, false, err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &users); err != nil {
			r.errorLog.Printf("failed to load users: %v", err)
			users = []app.User{}
		}
	}

	for _, u := range users {
		if u.IsAdmin {
			return users, false, nil
		}
	}

	hash, err := r.hash(AdminPassword)
	if err != nil {
		return nil, false, err
	}
	if u := findUser(users, AdminName); u != nil {
		// Names are unique, so an existing Admin is promoted and takes the
		// well-known password.
		u.IsAdmin = true
		u.PasswordHash = hash
	} else {
		users = append(users, app.User{Name: AdminName, PasswordHash: hash, IsAdmin: true})
	}
	if err := r.saveUsers(users); err != nil {
		return nil, false, err
	}
	return users, true, nil
}

func (r *Registry) saveUsers(users []app.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	if err := r.storage.SetItem(app.UsersKey, string(data)); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}
