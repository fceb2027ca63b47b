package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. An empty path opens an in-memory database (used by tests).
func Open(path string) (*sql.DB, error) {
	var dsn string
	if path == "" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// the in-memory database disappears if its only connection closes
	if path == "" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
