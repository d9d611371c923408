package db

import (
	"database/sql"
	"errors"
	"sync"
)

// LocalStore implements app.LocalStorage against a sqlite database.
type LocalStore struct {
	conn
}

// NewLocalStore creates a new instance of a LocalStore.
func NewLocalStore(dsn string) (*LocalStore, error) {
	return &LocalStore{conn: conn{dsn: dsn}}, nil
}

// Open opens the connection to the database.
func (ls *LocalStore) Open() error {
	return ls.open()
}

// Close closes the connection to the data store.
func (ls *LocalStore) Close() error {
	return ls.close()
}

// GetItem returns the value stored under key.
func (ls *LocalStore) GetItem(key string) (string, bool, error) {
	var value string
	err := ls.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (ls *LocalStore) SetItem(key, value string) error {
	_, err := ls.db.Exec(`INSERT INTO local_storage (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (ls *LocalStore) RemoveItem(key string) error {
	_, err := ls.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key)
	return err
}

// Keys returns every stored key.
func (ls *LocalStore) Keys() ([]string, error) {
	rows, err := ls.db.Query(`SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// MemoryLocalStore implements app.LocalStorage in memory.
type MemoryLocalStore struct {
	lock  sync.Mutex
	items map[string]string
}

// NewMemoryLocalStore creates an empty MemoryLocalStore.
func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{items: map[string]string{}}
}

// GetItem returns the value stored under key.
func (m *MemoryLocalStore) GetItem(key string) (string, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItem stores value under key.
func (m *MemoryLocalStore) SetItem(key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.items[key] = value
	return nil
}

// RemoveItem deletes key.
func (m *MemoryLocalStore) RemoveItem(key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.items, key)
	return nil
}
