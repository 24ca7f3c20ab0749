package logging

import (
	_ "modernc.org/sqlite"
)

// SQLiteStore persists cycle records to a SQLite database.
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	schema := `CREATE TABLE IF NOT EXISTS dispatch_cycles (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        cycle_id TEXT,
        ts INTEGER,
        served INTEGER,
        rejected INTEGER,
        record TEXT
    );`
	s, err := openSQL("sqlite", path, schema, func(int) string { return "?" })
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{s}, nil
}
