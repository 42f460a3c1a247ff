// Package sqlite opens the SQLite backed store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"babymeasure/internal/adapter/sqlstore"
)

// Dialect is the SQLite schema and placeholder style.
var Dialect = sqlstore.Dialect{
	Name: "sqlite",
	Migrations: []string{
		"CREATE TABLE IF NOT EXISTS bottle (id INTEGER PRIMARY KEY AUTOINCREMENT, uid TEXT NOT NULL UNIQUE, time DATETIME NOT NULL, type TEXT NOT NULL CHECK(type IN ('formula','breastmilk')), amount REAL NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_bottle_time ON bottle(time);",
		"CREATE TABLE IF NOT EXISTS breastfeeding (id INTEGER PRIMARY KEY AUTOINCREMENT, uid TEXT NOT NULL UNIQUE, time DATETIME NOT NULL, amount REAL NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_breastfeeding_time ON breastfeeding(time);",
		"CREATE TABLE IF NOT EXISTS diaper (id INTEGER PRIMARY KEY AUTOINCREMENT, uid TEXT NOT NULL UNIQUE, time DATETIME NOT NULL, type TEXT NOT NULL CHECK(type IN ('pee','poop')));",
		"CREATE INDEX IF NOT EXISTS idx_diaper_time ON diaper(time);",
		"CREATE TABLE IF NOT EXISTS body (id INTEGER PRIMARY KEY AUTOINCREMENT, uid TEXT NOT NULL UNIQUE, time DATETIME NOT NULL, height REAL, weight REAL, head REAL);",
		"CREATE INDEX IF NOT EXISTS idx_body_time ON body(time);",
		"CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at DATETIME NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at DATETIME NOT NULL, created_at DATETIME NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS chat_pairings (chat_user_id INTEGER PRIMARY KEY, first_name TEXT NOT NULL DEFAULT '', last_name TEXT NOT NULL DEFAULT '', login_attempts INTEGER NOT NULL DEFAULT 0, allowed BOOLEAN NOT NULL DEFAULT 0, updated_at DATETIME NOT NULL);",
	},
}

// Open opens the database file at path (":memory:" for a private in-memory
// database) and runs migrations.
func Open(path string) (*sqlstore.Store, error) {
	s, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives only as long as its connection.
	s.SetMaxOpenConns(1)
	s.SetMaxIdleConns(1)
	s.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{"PRAGMA foreign_keys = ON;", "PRAGMA busy_timeout = 5000;"} {
		if _, err := s.ExecContext(ctx, pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("sqlite: %w", err)
		}
	}

	st := sqlstore.New(s, Dialect)
	if err := st.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return st, nil
}
