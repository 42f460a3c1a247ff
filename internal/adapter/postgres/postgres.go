// Package postgres opens the PostgreSQL backed store.
package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"babymeasure/internal/adapter/sqlstore"
)

// Dialect is the PostgreSQL schema and placeholder style.
var Dialect = sqlstore.Dialect{
	Name:     "postgres",
	Numbered: true,
	Migrations: []string{
		"CREATE TABLE IF NOT EXISTS bottle (id BIGSERIAL PRIMARY KEY, uid UUID NOT NULL UNIQUE, time TIMESTAMPTZ NOT NULL, type TEXT NOT NULL CHECK(type IN ('formula','breastmilk')), amount DOUBLE PRECISION NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_bottle_time ON bottle(time);",
		"CREATE TABLE IF NOT EXISTS breastfeeding (id BIGSERIAL PRIMARY KEY, uid UUID NOT NULL UNIQUE, time TIMESTAMPTZ NOT NULL, amount DOUBLE PRECISION NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_breastfeeding_time ON breastfeeding(time);",
		"CREATE TABLE IF NOT EXISTS diaper (id BIGSERIAL PRIMARY KEY, uid UUID NOT NULL UNIQUE, time TIMESTAMPTZ NOT NULL, type TEXT NOT NULL CHECK(type IN ('pee','poop')));",
		"CREATE INDEX IF NOT EXISTS idx_diaper_time ON diaper(time);",
		"CREATE TABLE IF NOT EXISTS body (id BIGSERIAL PRIMARY KEY, uid UUID NOT NULL UNIQUE, time TIMESTAMPTZ NOT NULL, height DOUBLE PRECISION, weight DOUBLE PRECISION, head DOUBLE PRECISION);",
		"CREATE INDEX IF NOT EXISTS idx_body_time ON body(time);",
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
		"CREATE TABLE IF NOT EXISTS chat_pairings (chat_user_id BIGINT PRIMARY KEY, first_name TEXT NOT NULL DEFAULT '', last_name TEXT NOT NULL DEFAULT '', login_attempts INTEGER NOT NULL DEFAULT 0, allowed BOOLEAN NOT NULL DEFAULT FALSE, updated_at TIMESTAMPTZ NOT NULL);",
	},
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*sqlstore.Store, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	st := sqlstore.New(s, Dialect)
	if err := st.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return st, nil
}
