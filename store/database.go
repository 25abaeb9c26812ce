// database.go - SQLite connection, schema and migrations

package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// currentSchemaVersion is bumped whenever the schema needs a migration.
const currentSchemaVersion = 1

// database wraps the SQLite connection. SQLite serializes writers and WAL
// mode lets readers proceed alongside them, so no application locks are
// taken around queries.
type database struct {
	conn *sql.DB
}

func newDatabase(dbPath string) (*database, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &database{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return db, nil
}

func (db *database) Close() error {
	_, _ = db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return db.conn.Close()
}

func (db *database) init() error {
	if _, err := db.conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL DEFAULT %d
	);

	INSERT OR IGNORE INTO settings (id) VALUES (1);

	CREATE TABLE IF NOT EXISTS tokenizers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		pattern TEXT NOT NULL DEFAULT '',
		digest TEXT NOT NULL,
		byte_shuffle BLOB,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS merges (
		tokenizer_id TEXT NOT NULL,
		first INTEGER NOT NULL,
		second INTEGER NOT NULL,
		id INTEGER NOT NULL,
		PRIMARY KEY (tokenizer_id, id),
		FOREIGN KEY (tokenizer_id) REFERENCES tokenizers(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_merges_tokenizer_id ON merges(tokenizer_id);
	`, currentSchemaVersion)

	if _, err := db.conn.Exec(schema); err != nil {
		return err
	}

	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	return nil
}

func (db *database) migrate() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	// add a migrateVxToVy step here for each schema change
	if version < currentSchemaVersion {
		return db.setSchemaVersion(currentSchemaVersion)
	}

	return nil
}

func (db *database) getSchemaVersion() (int, error) {
	var version int
	if err := db.conn.QueryRow("SELECT schema_version FROM settings").Scan(&version); err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return version, nil
}

func (db *database) setSchemaVersion(version int) error {
	if _, err := db.conn.Exec("UPDATE settings SET schema_version = ?", version); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}
