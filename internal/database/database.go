package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection for the local store. The default
// DSN is ":memory:", so the pool is pinned to a single connection to keep
// every query on the same in-memory database.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the local store schema.
// credentials.email deliberately has no UNIQUE constraint: lookups take
// the first match in insert order, so duplicates shadow silently.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS credentials (
		id TEXT NOT NULL PRIMARY KEY,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		full_name TEXT,
		user_type TEXT,
		phone TEXT,
		address TEXT,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS food_items (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		quantity INTEGER,
		expiry_date TEXT,
		pickup_location TEXT,
		category TEXT,
		dietary_info TEXT,
		created_by TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS food_requests (
		id TEXT NOT NULL PRIMARY KEY,
		food_item_id TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		message TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT NOT NULL PRIMARY KEY,
		full_name TEXT,
		phone TEXT,
		address TEXT,
		user_type TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT,
		item_id TEXT,
		created_at TEXT DEFAULT (datetime('now'))
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// Seed inserts the development credential records the mock login path
// matches against. Idempotent, so tests can call it after every reset.
func Seed(db *sql.DB) error {
	const sqlStmt = `
	INSERT OR IGNORE INTO credentials (id, email, password, full_name, user_type) VALUES
		('mock-1', 'ansh@gmail.com', 'abc123', 'Ansh Kumar', 'volunteer'),
		('mock-2', 'test@test.com', 'test123', 'Test User', 'donor');
	`
	_, err := db.Exec(sqlStmt)
	return err
}
