package annotation

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/model"
)

// DB wraps a per-camera SQLite annotation database with thread-safe access.
// Frame numbers in the database are already 0-indexed; the annodb importer
// normalizes them once when converting from MOT text files.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// OpenDB creates and initializes a SQLite annotation database connection.
func OpenDB(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the annotations table if it doesn't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS annotations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		frame INTEGER NOT NULL,
		box_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		confidence REAL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_annotations_frame ON annotations(frame);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertBatch adds annotation records in a single transaction.
func (db *DB) InsertBatch(records []model.AnnotationRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO annotations (frame, box_id, x, y, width, height, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.Frame, rec.BoxID, rec.X, rec.Y, rec.Width, rec.Height, rec.Confidence); err != nil {
			return fmt.Errorf("failed to insert annotation: %w", err)
		}
	}

	return tx.Commit()
}

// LoadStore reads every annotation record into an in-memory Store, ordered
// by frame then box id so repeated loads index identically.
func (db *DB) LoadStore() (*Store, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT frame, box_id, x, y, width, height, confidence
		FROM annotations ORDER BY frame, box_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	s := Empty()
	for rows.Next() {
		var rec model.AnnotationRecord
		if err := rows.Scan(&rec.Frame, &rec.BoxID, &rec.X, &rec.Y, &rec.Width, &rec.Height, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		s.add(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}

	return s, nil
}

// Count returns the number of annotation rows.
func (db *DB) Count() (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM annotations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count annotations: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
