package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3" // sqlite
)

//go:embed migration/*.sql
var migrationFS embed.FS

// conn is a sqlite connection shared by the sqlite-backed stores.
type conn struct {
	db  *sql.DB
	dsn string
}

// open opens the connection to the database.
func (c *conn) open() error {
	// Ensure a DSN is set before attempting to open the database.
	if c.dsn == "" {
		return fmt.Errorf("dsn required")
	}

	// Make the parent directory unless using an in-memory db.
	if c.dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(c.dsn), 0700); err != nil {
			return err
		}
	}

	var err error
	if c.db, err = sql.Open("sqlite3", c.dsn); err != nil {
		return err
	}

	// Every connection to :memory: is a new database.
	if c.dsn == ":memory:" {
		c.db.SetMaxOpenConns(1)
	}

	// Enable WAL. SQLite performs better with the WAL  because it allows
	// multiple readers to operate while data is being written.
	if _, err := c.db.Exec(`PRAGMA journal_mode = wal;`); err != nil {
		return fmt.Errorf("enable wal: %w", err)
	}

	if _, err := c.db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return fmt.Errorf("foreign keys pragma: %w", err)
	}

	if err := c.migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

// close closes the connection to the data store.
func (c *conn) close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// migrate sets up migration tracking and executes pending migration files.
//
// Migration files are embedded from the migration folder and are executed in
// lexigraphical order.
//
// Once a migration is run, its name is stored in the 'migrations' table so it
// is not re-executed. Migrations run in a transaction to prevent partial
// migrations.
func (c *conn) migrate() error {
	// Ensure the 'migrations' table exists so we don't duplicate migrations.
	if _, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("cannot create migrations table: %w", err)
	}

	names, err := fs.Glob(migrationFS, "migration/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		if err := c.migrateFile(name); err != nil {
			return fmt.Errorf("migration error: name=%q err=%w", name, err)
		}
	}
	return nil
}

// migrateFile runs a single migration file within a transaction. On success,
// the migration file name is saved to the "migrations" table to prevent
// re-running.
func (c *conn) migrateFile(name string) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM migrations WHERE name = ?`, name).Scan(&n); err != nil {
		return err
	} else if n != 0 {
		return nil // already run migration, skip
	}

	buf, err := migrationFS.ReadFile(name)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(string(buf)); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO migrations (name) VALUES (?)`, name); err != nil {
		return err
	}

	return tx.Commit()
}
