// Package tasksync keeps the task list of one user in memory and in step with
// the remote task store and local storage.
//
// Every mutation is applied to the in-memory list first. The remote store is
// asked afterwards: a failed add keeps the new task, a failed remove or toggle
// restores the list as it was before the mutation. Local storage is rewritten
// after every change whatever the remote outcome. Remote failures are never
// retried and never returned; they become notices.
package tasksync

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"strings"
	"sync"
	"time"

	app "github.com/etitcombe/todopom"
	"github.com/etitcombe/todopom/rand"
)

// Remote is the remote task store.
type Remote interface {
	List(ctx context.Context, user string) ([]app.Task, error)
	Create(ctx context.Context, text, user string) (app.Task, error)
	Update(ctx context.Context, id string, p app.TaskPatch) (app.Task, error)
	Delete(ctx context.Context, id string) (app.Task, error)
}

// Source tells where Load found the task list.
type Source int

const (
	SourceRemote Source = iota
	SourceLocal
	SourceEmpty
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceLocal:
		return "local"
	default:
		return "empty"
	}
}

// Controller owns the in-memory task list of a session.
type Controller struct {
	remote   Remote
	local    app.LocalStorage
	user     string
	notify   Notifier
	errorLog *log.Logger

	now   func() time.Time
	newID func() string

	// op serializes mutations. It is held across remote calls; mu never is.
	op    sync.Mutex
	mu    sync.RWMutex
	tasks []app.Task
}

// New returns a controller for user. An empty user uses the single global
// collection. notify and errorLog may be nil.
func New(remote Remote, local app.LocalStorage, user string, notify Notifier, errorLog *log.Logger) *Controller {
	if notify == nil {
		notify = func(Notice) {}
	}
	if errorLog == nil {
		errorLog = log.New(ioutil.Discard, "", 0)
	}
	return &Controller{
		remote:   remote,
		local:    local,
		user:     user,
		notify:   notify,
		errorLog: errorLog,
		now:      time.Now,
		newID:    rand.TempID,
		tasks:    []app.Task{},
	}
}

// User returns the user whose tasks are managed.
func (c *Controller) User() string {
	return c.user
}

// Load replaces the in-memory list with the remote one, or with the one in
// local storage when the remote store fails.
func (c *Controller) Load(ctx context.Context) Source {
	c.op.Lock()
	defer c.op.Unlock()

	tasks, err := c.remote.List(ctx, c.user)
	if err == nil {
		tasks, _ = backfillIDs(c.user, tasks, c.now())
		c.set(tasks)
		c.save()
		return SourceRemote
	}
	c.errorLog.Printf("could not fetch tasks from the task store, using local storage: %v", err)

	key := app.TasksKeyFor(c.user)
	tasks, ok, err := app.ReadTasks(c.local, key)
	if err != nil {
		c.errorLog.Printf("failed to load tasks from local storage: %v", err)
		ok = false
	}
	if !ok {
		c.set(nil)
		return SourceEmpty
	}
	tasks, changed := backfillIDs(c.user, tasks, c.now())
	c.set(tasks)
	if changed {
		// Ids derive from the load time, so they must be kept for the next load.
		c.save()
	}
	return SourceLocal
}

// AddTask appends a new task with text. The task stays in the list even when
// the remote store rejects it. When the store accepts it the store's id
// replaces the temporary one.
func (c *Controller) AddTask(ctx context.Context, text string) (app.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		c.notify(Notice{Level: LevelError, Message: "Enter a task"})
		return app.Task{}, app.ErrEmptyText
	}

	c.op.Lock()
	defer c.op.Unlock()

	temp := app.Task{ID: c.newID(), Text: text, Completed: false}
	c.mu.Lock()
	c.tasks = append(c.tasks, temp)
	c.mu.Unlock()
	c.save()

	saved, err := c.remote.Create(ctx, text, c.user)
	if err != nil {
		c.errorLog.Printf("add task to the task store failed: %v", err)
		c.notify(Notice{Level: LevelInfo, Message: "Task added locally"})
		return temp, nil
	}

	if saved.ID == "" {
		saved.ID = temp.ID
	}
	if strings.TrimSpace(saved.Text) == "" {
		saved.Text = temp.Text
	}
	c.mu.Lock()
	if i := indexOf(c.tasks, temp.ID); i != -1 {
		c.tasks[i] = saved
	}
	c.mu.Unlock()
	c.save()
	c.notify(Notice{Level: LevelSuccess, Message: "Task added successfully!"})
	return saved, nil
}

// RemoveTask removes the task with id. When the remote store fails the task
// is put back where it was.
func (c *Controller) RemoveTask(ctx context.Context, id string) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	i := indexOf(c.tasks, id)
	if id == "" || i == -1 {
		c.mu.Unlock()
		c.notify(Notice{Level: LevelError, Message: "Invalid task"})
		return app.ErrInvalidTask
	}
	previous := clone(c.tasks)
	c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
	c.mu.Unlock()
	c.save()

	if _, err := c.remote.Delete(ctx, id); err != nil {
		c.errorLog.Printf("remove task %s failed: %v", id, err)
		c.set(previous)
		c.save()
		c.notify(Notice{Level: LevelError, Message: "Could not remove task on server"})
		return nil
	}
	c.notify(Notice{Level: LevelSuccess, Message: "Task removed!"})
	return nil
}

// ToggleComplete flips the completed flag of the task with id. When the
// remote store fails the flag is restored.
func (c *Controller) ToggleComplete(ctx context.Context, id string) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	i := indexOf(c.tasks, id)
	if id == "" || i == -1 {
		c.mu.Unlock()
		c.notify(Notice{Level: LevelError, Message: "Invalid task"})
		return app.ErrInvalidTask
	}
	previous := clone(c.tasks)
	completed := !c.tasks[i].Completed
	c.tasks[i].Completed = completed
	c.mu.Unlock()
	c.save()

	if _, err := c.remote.Update(ctx, id, app.TaskPatch{Completed: &completed}); err != nil {
		c.errorLog.Printf("toggle task %s failed: %v", id, err)
		c.set(previous)
		c.save()
		c.notify(Notice{Level: LevelError, Message: "Could not update task on server"})
		return nil
	}
	if completed {
		c.notify(Notice{Level: LevelSuccess, Message: "Marked as complete!"})
	} else {
		c.notify(Notice{Level: LevelSuccess, Message: "Marked as incomplete!"})
	}
	return nil
}

// Tasks returns a copy of every task, in order.
func (c *Controller) Tasks() []app.Task {
	return c.filter(func(app.Task) bool { return true })
}

// Pending returns the tasks not completed yet.
func (c *Controller) Pending() []app.Task {
	return c.filter(func(t app.Task) bool { return !t.Completed })
}

// Completed returns the completed tasks.
func (c *Controller) Completed() []app.Task {
	return c.filter(func(t app.Task) bool { return t.Completed })
}

func (c *Controller) filter(keep func(app.Task) bool) []app.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []app.Task{}
	for _, t := range c.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (c *Controller) set(tasks []app.Task) {
	if tasks == nil {
		tasks = []app.Task{}
	}
	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
}

// save writes the list to local storage. Failures are logged only.
func (c *Controller) save() {
	tasks := c.Tasks()
	if err := app.WriteTasks(c.local, app.TasksKeyFor(c.user), tasks); err != nil {
		c.errorLog.Printf("failed to save tasks to local storage: %v", err)
	}
}

// backfillIDs gives an id to every task that lacks one or repeats an earlier
// one, and reports whether any id was assigned. Ids derive from the user, the
// position and the load time.
func backfillIDs(user string, tasks []app.Task, loaded time.Time) ([]app.Task, bool) {
	changed := false
	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		id := tasks[i].ID
		for n := 0; id == "" || seen[id]; n++ {
			id = fmt.Sprintf("t%s%d%d", user, i, loaded.UnixMilli())
			if n > 0 {
				id = fmt.Sprintf("%s-%d", id, n)
			}
		}
		if id != tasks[i].ID {
			tasks[i].ID = id
			changed = true
		}
		seen[id] = true
	}
	return tasks, changed
}

func indexOf(tasks []app.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func clone(tasks []app.Task) []app.Task {
	return append([]app.Task(nil), tasks...)
}
