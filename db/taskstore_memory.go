package db

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	app "github.com/etitcombe/todopom"
	"github.com/etitcombe/todopom/rand"
)

// MemoryTaskStore keeps tasks in memory. When a file is set the list is
// loaded from it once and rewritten after every change. Failures to read or
// write the file are logged and otherwise ignored, so the file is not a
// durable store.
type MemoryTaskStore struct {
	errorLog *log.Logger
	file     string
	newID    func() string

	lock  sync.Mutex
	tasks []app.Task
}

// NewMemoryTaskStore creates a store holding seed, replaced by the contents
// of file when file is set and holds a JSON array.
func NewMemoryTaskStore(errorLog *log.Logger, file string, seed ...app.Task) *MemoryTaskStore {
	s := &MemoryTaskStore{
		errorLog: errorLog,
		file:     file,
		newID:    rand.TaskID,
		tasks:    append([]app.Task{}, seed...),
	}
	if file != "" {
		s.loadFromFile()
	}
	return s
}

// DefaultTasks are the tasks a fresh store starts with.
func DefaultTasks() []app.Task {
	return []app.Task{
		{ID: "t1", Text: "Go to school", Completed: false},
		{ID: "t2", Text: "Complete assignment", Completed: true},
	}
}

// Create appends a new task.
func (s *MemoryTaskStore) Create(ctx context.Context, text string, completed bool, user string) (app.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return app.Task{}, app.ErrEmptyText
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	t := app.Task{ID: s.newID(), Text: text, Completed: completed, User: user}
	s.tasks = append(s.tasks, t)
	s.saveToFile()
	return t, nil
}

// Delete removes the task with id and returns it.
func (s *MemoryTaskStore) Delete(ctx context.Context, id string) (app.Task, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return app.Task{}, app.ErrNotFound
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.saveToFile()
	return t, nil
}

// Get gets a task by its id.
func (s *MemoryTaskStore) Get(ctx context.Context, id string) (app.Task, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return app.Task{}, app.ErrNotFound
	}
	return s.tasks[i], nil
}

// List returns the tasks in insertion order. A non-empty user restricts the
// list to the tasks created for that user.
func (s *MemoryTaskStore) List(ctx context.Context, user string) ([]app.Task, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	tasks := make([]app.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if user != "" && t.User != user {
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Update applies p to the task with id.
func (s *MemoryTaskStore) Update(ctx context.Context, id string, p app.TaskPatch) (app.Task, error) {
	p, err := normalizePatch(p)
	if err != nil {
		return app.Task{}, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	i := s.indexOf(id)
	if i == -1 {
		return app.Task{}, app.ErrNotFound
	}
	s.tasks[i] = p.Apply(s.tasks[i])
	s.saveToFile()
	return s.tasks[i], nil
}

// Count returns the number of stored tasks.
func (s *MemoryTaskStore) Count(ctx context.Context) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.tasks), nil
}

func (s *MemoryTaskStore) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryTaskStore) loadFromFile() {
	data, err := ioutil.ReadFile(s.file)
	if err != nil {
		if !os.IsNotExist(err) {
			s.errorLog.Printf("failed to load tasks from %s: %v", s.file, err)
		}
		return
	}
	var tasks []app.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		s.errorLog.Printf("failed to load tasks from %s: %v", s.file, err)
		return
	}
	if tasks == nil {
		s.errorLog.Printf("failed to load tasks from %s: not an array", s.file)
		return
	}
	// A hand-edited file may lack ids or repeat them.
	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		if tasks[i].ID == "" || seen[tasks[i].ID] {
			tasks[i].ID = s.newID()
		}
		seen[tasks[i].ID] = true
	}
	s.tasks = tasks
}

// saveToFile must be called with the lock held.
func (s *MemoryTaskStore) saveToFile() {
	if s.file == "" {
		return
	}
	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		s.errorLog.Printf("failed to encode tasks: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0700); err != nil {
		s.errorLog.Printf("could not create data directory: %v", err)
		return
	}
	if err := ioutil.WriteFile(s.file, data, 0600); err != nil {
		s.errorLog.Printf("failed to write tasks to %s: %v", s.file, err)
	}
}

// normalizePatch trims the text of p and rejects an empty one.
func normalizePatch(p app.TaskPatch) (app.TaskPatch, error) {
	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return app.TaskPatch{}, app.ErrEmptyText
		}
		p.Text = &text
	}
	return p, nil
}
