package db

import (
	"bytes"
	"testing"

	app "github.com/etitcombe/todopom"
)

func TestWriteDashboard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		dashboard []UserTasks
		want      string
	}{
		{"no users", nil, "No users yet.\n"},
		{"no tasks", []UserTasks{{Name: "bob"}}, "bob's Tasks\n  No tasks\n"},
		{
			"only pending",
			[]UserTasks{{Name: "alice", Pending: []app.Task{{Text: "milk"}}}},
			"alice's Tasks\n  To Do:\n    [ ] milk\n  Completed:\n    No completed tasks\n",
		},
		{
			"only completed",
			[]UserTasks{{Name: "alice", Completed: []app.Task{{Text: "bread", Completed: true}}}},
			"alice's Tasks\n  To Do:\n    No pending tasks\n  Completed:\n    [x] bread\n",
		},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		WriteDashboard(&buf, tt.dashboard)
		if buf.String() != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, buf.String(), tt.want)
		}
	}
}
