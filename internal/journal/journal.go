// Package journal provides a local SQLite journal of trading activity.
// The brokerage keeps the authoritative order book; the journal is a
// client-side record of what this process asked it to do.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Event represents the type of journaled trading event.
type Event string

const (
	EventLogin           Event = "session.login"
	EventLogout          Event = "session.logout"
	EventOrderSubmitted  Event = "order.submitted"
	EventOrderRejected   Event = "order.rejected"
	EventCancelRequested Event = "order.cancel_requested"
)

const migrationEntries = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event TEXT NOT NULL,
	order_id TEXT NOT NULL DEFAULT '',
	symbol TEXT NOT NULL DEFAULT '',
	side TEXT NOT NULL DEFAULT '',
	price TEXT NOT NULL DEFAULT '',
	quantity INTEGER NOT NULL DEFAULT 0,
	detail TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_order ON journal_entries(order_id);
CREATE INDEX IF NOT EXISTS idx_journal_created ON journal_entries(created_at);
`

// Entry represents a single journaled event.
type Entry struct {
	ID        int64     `json:"id"`
	Event     Event     `json:"event"`
	OrderID   string    `json:"order_id,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	Side      string    `json:"side,omitempty"`
	Price     string    `json:"price,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal wraps the SQLite connection holding the trading journal.
type Journal struct {
	db *sql.DB
}

// Open creates (or opens) the journal at the specified path.
// It creates the parent directory if it doesn't exist.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to journal: %w", err)
	}

	if _, err := db.Exec(migrationEntries); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends an entry to the journal. CreatedAt is set if zero.
func (j *Journal) Record(e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	result, err := j.db.Exec(`
		INSERT INTO journal_entries (event, order_id, symbol, side, price, quantity, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Event, e.OrderID, e.Symbol, e.Side, e.Price, e.Quantity, e.Detail, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording journal entry: %w", err)
	}
	e.ID, _ = result.LastInsertId()
	return nil
}

// ByOrderID retrieves all entries referencing an order, oldest first.
func (j *Journal) ByOrderID(orderID string) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, event, order_id, symbol, side, price, quantity, detail, created_at
		FROM journal_entries
		WHERE order_id = ?
		ORDER BY created_at ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent retrieves the most recent entries, newest first.
func (j *Journal) Recent(limit int) ([]*Entry, error) {
	rows, err := j.db.Query(`
		SELECT id, event, order_id, symbol, side, price, quantity, detail, created_at
		FROM journal_entries
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the given duration.
func (j *Journal) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().Add(-d)
	result, err := j.db.Exec(`DELETE FROM journal_entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Event, &e.OrderID, &e.Symbol, &e.Side,
			&e.Price, &e.Quantity, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
