package db

import (
	"fmt"
	"io"

	app "github.com/etitcombe/todopom"
)

// UserTasks is one user's section of the admin dashboard.
type UserTasks struct {
	Name      string
	Pending   []app.Task
	Completed []app.Task
}

// Dashboard returns the locally stored tasks of every non-admin user, in
// registration order. Unreadable collections show up empty.
func (r *Registry) Dashboard() ([]UserTasks, error) {
	users, err := r.Users()
	if err != nil {
		return nil, err
	}

	var out []UserTasks
	for _, u := range users {
		if u.IsAdmin {
			continue
		}
		ut := UserTasks{Name: u.Name, Pending: []app.Task{}, Completed: []app.Task{}}
		tasks, _, err := app.ReadTasks(r.storage, app.TasksKeyFor(u.Name))
		if err != nil {
			r.errorLog.Printf("failed to load tasks for %s: %v", u.Name, err)
		}
		for _, t := range tasks {
			if t.Completed {
				ut.Completed = append(ut.Completed, t)
			} else {
				ut.Pending = append(ut.Pending, t)
			}
		}
		out = append(out, ut)
	}
	return out, nil
}

// WriteDashboard prints dashboard as plain text, one section per user.
func WriteDashboard(w io.Writer, dashboard []UserTasks) {
	if len(dashboard) == 0 {
		fmt.Fprintln(w, "No users yet.")
		return
	}
	for _, ut := range dashboard {
		fmt.Fprintf(w, "%s's Tasks\n", ut.Name)
		if len(ut.Pending)+len(ut.Completed) == 0 {
			fmt.Fprintln(w, "  No tasks")
			continue
		}
		fmt.Fprintln(w, "  To Do:")
		if len(ut.Pending) == 0 {
			fmt.Fprintln(w, "    No pending tasks")
		}
		for _, t := range ut.Pending {
			fmt.Fprintf(w, "    [ ] %s\n", t.Text)
		}
		fmt.Fprintln(w, "  Completed:")
		if len(ut.Completed) == 0 {
			fmt.Fprintln(w, "    No completed tasks")
		}
		for _, t := range ut.Completed {
			fmt.Fprintf(w, "    [x] %s\n", t.Text)
		}
	}
}
