package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const schemaValueDescription = `
CREATE TABLE IF NOT EXISTS ValueDescription (
    Id INTEGER PRIMARY KEY,
    Description TEXT NOT NULL,
    Unit TEXT,
    IsLogged BOOLEAN NOT NULL DEFAULT 0
);
`

const schemaErrorList = `
CREATE TABLE IF NOT EXISTS ErrorList (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    Description TEXT NOT NULL
);
`

const schemaDataValues = `
CREATE TABLE IF NOT EXISTS DataValues (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    ValueType INTEGER NOT NULL,
    Value REAL NOT NULL,
    Timestamp TIMESTAMP NOT NULL
);
`

const schemaDataValuesIndex = `
CREATE INDEX IF NOT EXISTS idx_datavalues_type_ts ON DataValues (ValueType, Timestamp);
`

const schemaNotifierConfig = `
CREATE TABLE IF NOT EXISTS NotifierConfig (
    Id INTEGER PRIMARY KEY CHECK (Id = 1),
    LowerThreshold REAL NOT NULL
);
`

const schemaNotifierMails = `
CREATE TABLE IF NOT EXISTS NotifierMails (
    Id INTEGER PRIMARY KEY AUTOINCREMENT,
    Mail TEXT NOT NULL
);
`

// Reserved value types the engine depends on; a fresh database gets
// them so ingestion can start without manual provisioning.
const seedValueDescriptions = `
INSERT OR IGNORE INTO ValueDescription (Id, Description, Unit, IsLogged) VALUES
    (1, 'Heater status', NULL, 1),
    (20, 'Buffer temperature top', '°C', 1),
    (21, 'Buffer temperature bottom', '°C', 1),
    (99, 'Error', NULL, 0),
    (180, 'Operating hours', 'h', 1),
    (200, 'Door openings', 's', 1);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaValueDescription,
		schemaErrorList,
		schemaDataValues,
		schemaDataValuesIndex,
		schemaNotifierConfig,
		schemaNotifierMails,
		schemaUsers,
		seedValueDescriptions,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
