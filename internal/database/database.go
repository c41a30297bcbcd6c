package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new Postgres database connection
func New(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithConn(conn)
}

// NewWithConn wraps an already opened connection. Used directly by tests,
// which run against an in-memory SQLite database.
func NewWithConn(conn *sql.DB) (*DB, error) {
	db := &DB{conn: conn}

	// Initialize tables and run migrations
	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	db.migrateSchema()

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables
func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS user_presence (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			first_seen BIGINT NOT NULL,
			last_seen BIGINT NOT NULL,
			PRIMARY KEY (guild_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS message_events (
			message_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			attachment_count BIGINT NOT NULL DEFAULT 0,
			link_count BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (message_id)
		)`,
		`CREATE TABLE IF NOT EXISTS voice_sessions (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			joined_at BIGINT NOT NULL,
			left_at BIGINT,
			duration_seconds BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS voice_sessions_guild_user ON voice_sessions (guild_id, user_id)`,
		`CREATE TABLE IF NOT EXISTS activity_hours (
			user_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			activity_name TEXT NOT NULL,
			total_seconds BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, guild_id, activity_name)
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// migrateSchema handles additive schema migrations. Each statement is a
// no-op on an up-to-date schema; failures are logged and skipped.
func (db *DB) migrateSchema() {
	migrations := []string{
		// link_count arrived after the first message_events deployments
		`ALTER TABLE message_events ADD COLUMN IF NOT EXISTS link_count BIGINT NOT NULL DEFAULT 0`,

		// early voice_sessions rows predate the channel column
		`ALTER TABLE voice_sessions ADD COLUMN IF NOT EXISTS channel_id TEXT NOT NULL DEFAULT ''`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			log.Printf("Warning: Migration failed (this might be expected): %v", err)
		}
	}
}
