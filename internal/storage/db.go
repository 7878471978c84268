// Package storage is the local sqlite ingest log: an audit of every inbound
// message, what the extraction produced for it, and every command run. The
// order data itself lives in the object store; this database only answers
// "what happened to message X" for an operator.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"orderintake/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS messages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  operator TEXT NOT NULL,
  receivedAt TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'received',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_status ON messages(status);

CREATE TABLE IF NOT EXISTS extractions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  messageId INTEGER NOT NULL,
  validLines INTEGER NOT NULL,
  rejectedLines INTEGER NOT NULL,
  diagnosticRef TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(messageId) REFERENCES messages(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  command TEXT NOT NULL,
  dateKey TEXT NOT NULL,
  durationMs REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertMessage(kind, operator, receivedAt, hash, rawRef string) (int, error) {
	res, err := d.conn.Exec(
		`INSERT INTO messages (kind, operator, receivedAt, hash, rawRef) VALUES (?, ?, ?, ?, ?)`,
		kind, operator, receivedAt, hash, rawRef,
	)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func (d *DB) UpdateMessageStatus(id int, status string) error {
	_, err := d.conn.Exec(
		`UPDATE messages SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	return err
}

func (d *DB) InsertExtraction(messageID, validLines, rejectedLines int, diagnosticRef string) error {
	var ref any
	if diagnosticRef != "" {
		ref = diagnosticRef
	}
	_, err := d.conn.Exec(
		`INSERT INTO extractions (messageId, validLines, rejectedLines, diagnosticRef) VALUES (?, ?, ?, ?)`,
		messageID, validLines, rejectedLines, ref,
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

func (d *DB) InsertRun(traceID, command, dateKey string, durationMs float64) error {
	_, err := d.conn.Exec(
		`INSERT INTO runs (traceId, command, dateKey, durationMs) VALUES (?, ?, ?, ?)`,
		traceID, command, dateKey, durationMs,
	)
	return err
}

func (d *DB) ListMessagesByStatus(status string, limit int) ([]internal.MessageRow, error) {
	rows, err := d.conn.Query(
		`SELECT id, kind, operator, receivedAt, hash, status, rawRef
		 FROM messages WHERE status = ? ORDER BY id ASC LIMIT ?`,
		status, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.MessageRow{}
	for rows.Next() {
		var m internal.MessageRow
		if err := rows.Scan(&m.ID, &m.Kind, &m.Operator, &m.ReceivedAt, &m.Hash, &m.Status, &m.RawRef); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
