package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	app "github.com/etitcombe/todopom"
	"github.com/etitcombe/todopom/rand"
)

// SQLiteTaskStore stores tasks in a sqlite database.
type SQLiteTaskStore struct {
	conn
	newID func() string
}

// NewSQLiteTaskStore creates a new instance of a SQLiteTaskStore.
func NewSQLiteTaskStore(dsn string) (*SQLiteTaskStore, error) {
	return &SQLiteTaskStore{conn: conn{dsn: dsn}, newID: rand.TaskID}, nil
}

// Open opens the connection to the database.
func (ts *SQLiteTaskStore) Open() error {
	return ts.open()
}

// Close closes the connection to the data store.
func (ts *SQLiteTaskStore) Close() error {
	return ts.close()
}

// Create inserts a new task at the end of the list.
func (ts *SQLiteTaskStore) Create(ctx context.Context, text string, completed bool, user string) (app.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return app.Task{}, app.ErrEmptyText
	}

	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return app.Task{}, err
	}
	defer tx.Rollback()

	t := app.Task{ID: ts.newID(), Text: text, Completed: completed, User: user}
	if err := insertTask(ctx, tx, t); err != nil {
		return app.Task{}, err
	}
	return t, tx.Commit()
}

// Delete deletes the task with id and returns it.
func (ts *SQLiteTaskStore) Delete(ctx context.Context, id string) (app.Task, error) {
	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return app.Task{}, err
	}
	defer tx.Rollback()

	t, err := getTask(ctx, tx, id)
	if err != nil {
		return app.Task{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM task WHERE id = ?`, id); err != nil {
		return app.Task{}, err
	}
	return t, tx.Commit()
}

// Get gets a task by its id.
func (ts *SQLiteTaskStore) Get(ctx context.Context, id string) (app.Task, error) {
	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return app.Task{}, err
	}
	defer tx.Rollback()

	return getTask(ctx, tx, id)
}

// List gets the tasks in insertion order. A non-empty user restricts the
// list to the tasks created for that user.
func (ts *SQLiteTaskStore) List(ctx context.Context, user string) ([]app.Task, error) {
	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	return listTasks(ctx, tx, user)
}

// Update applies p to the task with id.
func (ts *SQLiteTaskStore) Update(ctx context.Context, id string, p app.TaskPatch) (app.Task, error) {
	p, err := normalizePatch(p)
	if err != nil {
		return app.Task{}, err
	}

	tx, err := ts.db.BeginTx(ctx, nil)
	if err != nil {
		return app.Task{}, err
	}
	defer tx.Rollback()

	t, err := getTask(ctx, tx, id)
	if err != nil {
		return app.Task{}, err
	}
	t = p.Apply(t)
	_, err = tx.ExecContext(ctx, `UPDATE task SET text = ?, completed = ? WHERE id = ?`,
		t.Text, boolInt(t.Completed), id)
	if err != nil {
		return app.Task{}, err
	}
	return t, tx.Commit()
}

// Count returns the number of stored tasks.
func (ts *SQLiteTaskStore) Count(ctx context.Context) (int, error) {
	var n int
	err := ts.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM task`).Scan(&n)
	return n, err
}

func insertTask(ctx context.Context, tx *sql.Tx, t app.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO task
		(id, position, text, completed, owner)
		VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM task), ?, ?, ?)`,
		t.ID, t.Text, boolInt(t.Completed), t.User)
	return err
}

func getTask(ctx context.Context, tx *sql.Tx, id string) (app.Task, error) {
	row := tx.QueryRowContext(ctx, `SELECT id, text, completed, owner FROM task WHERE id = ?`, id)
	var t app.Task
	err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.User)
	if errors.Is(err, sql.ErrNoRows) {
		return app.Task{}, app.ErrNotFound
	}
	if err != nil {
		return app.Task{}, err
	}
	return t, nil
}

func listTasks(ctx context.Context, tx *sql.Tx, user string) ([]app.Task, error) {
	query := `SELECT id, text, completed, owner FROM task ORDER BY position`
	args := []interface{}{}
	if user != "" {
		query = `SELECT id, text, completed, owner FROM task WHERE owner = ? ORDER BY position`
		args = append(args, user)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []app.Task{}
	for rows.Next() {
		var t app.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &t.User); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
