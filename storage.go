package app

import (
	"encoding/json"
	"fmt"
)

// ReadTasks reads the task collection stored under key. A missing key
// reports ok == false. An error means the stored value is not a JSON array
// of tasks.
func ReadTasks(s LocalStorage, key string) (tasks []Task, ok bool, err error) {
	raw, ok, err := s.GetItem(key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, true, fmt.Errorf("decode %s: %w", key, err)
	}
	if tasks == nil {
		// "null" is not an array.
		return nil, true, fmt.Errorf("decode %s: not an array", key)
	}
	return tasks, true, nil
}

// WriteTasks replaces the task collection stored under key.
func WriteTasks(s LocalStorage, key string, tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return s.SetItem(key, string(data))
}
