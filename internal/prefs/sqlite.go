// Package prefs persists user preferences across sessions. Only preferences
// live here: bar series, aggregated views and alert state are rebuilt from a
// cold cache every session and are never written to disk.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoSelection is returned when a user has no saved selection.
var ErrNoSelection = errors.New("no saved selection")

// Selection is a user's last chart selection.
type Selection struct {
	Symbol    string
	Timeframe string
	UpdatedAt time.Time
}

// Store persists preferences in a local SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the preference database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	-- Last chart selection per user
	CREATE TABLE IF NOT EXISTS selections (
		user_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Watched symbols per user
	CREATE TABLE IF NOT EXISTS watchlist (
		user_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, symbol)
	);

	CREATE INDEX IF NOT EXISTS idx_watchlist_user ON watchlist(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSelection upserts the user's chart selection.
func (s *Store) SaveSelection(ctx context.Context, userID, symbol, timeframe string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO selections (user_id, symbol, timeframe, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			symbol = excluded.symbol,
			timeframe = excluded.timeframe,
			updated_at = CURRENT_TIMESTAMP`,
		userID, symbol, timeframe)
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	return nil
}

// GetSelection returns the user's saved chart selection.
func (s *Store) GetSelection(ctx context.Context, userID string) (Selection, error) {
	var sel Selection
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, timeframe, updated_at FROM selections WHERE user_id = ?`,
		userID).Scan(&sel.Symbol, &sel.Timeframe, &sel.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Selection{}, ErrNoSelection
	}
	if err != nil {
		return Selection{}, fmt.Errorf("get selection: %w", err)
	}
	return sel, nil
}

// AddWatch adds a symbol to the user's watchlist. Re-adding is a no-op.
func (s *Store) AddWatch(ctx context.Context, userID, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO watchlist (user_id, symbol) VALUES (?, ?)`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("add watch: %w", err)
	}
	return nil
}

// RemoveWatch removes a symbol from the user's watchlist.
func (s *Store) RemoveWatch(ctx context.Context, userID, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watchlist WHERE user_id = ? AND symbol = ?`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("remove watch: %w", err)
	}
	return nil
}

// Watchlist returns the user's watched symbols in insertion order.
func (s *Store) Watchlist(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol FROM watchlist WHERE user_id = ? ORDER BY added_at, symbol`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("watchlist scan: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
