package tokens

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLitePersister stores token snapshots in a local SQLite database, one row
// per (owner_id, token_key) with last-write-wins upsert semantics.
type SQLitePersister struct {
	db *sql.DB
}

// NewSQLitePersister opens (creating if needed) the database at path and
// ensures the token table exists.
func NewSQLitePersister(path string) (*SQLitePersister, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal_mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS user_tokens (
		owner_id    TEXT NOT NULL,
		token_key   TEXT NOT NULL,
		token_value TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT 'profile',
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (owner_id, token_key)
	);
	CREATE INDEX IF NOT EXISTS idx_user_tokens_owner ON user_tokens(owner_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLitePersister{db: db}, nil
}

// Upsert writes the rows in one transaction, overwriting on conflict.
func (p *SQLitePersister) Upsert(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_tokens (owner_id, token_key, token_value, category, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(owner_id, token_key) DO UPDATE SET
			token_value = excluded.token_value,
			category    = excluded.category,
			updated_at  = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.OwnerID, row.Key, row.Value, row.Category); err != nil {
			return fmt.Errorf("failed to upsert token %q: %w", row.Key, err)
		}
	}

	return tx.Commit()
}

// Load returns all tokens persisted for the owner.
func (p *SQLitePersister) Load(ctx context.Context, ownerID string) (map[string]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT token_key, token_value FROM user_tokens WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	tokens := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		tokens[key] = value
	}
	return tokens, rows.Err()
}

// Close closes the underlying database.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
