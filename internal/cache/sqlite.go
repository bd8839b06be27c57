package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteGateway implements Gateway on a local SQLite database.
type SQLiteGateway struct {
	db          *sql.DB
	storeSource bool
}

// openDatabase opens a SQLite database with the settings the gateway needs.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// WAL lets concurrent lookups proceed under a single writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteGateway opens (creating if needed) a cache database at dbPath.
// storeSource controls whether chunk inputs are persisted with artifacts.
func NewSQLiteGateway(dbPath string, storeSource bool) (*SQLiteGateway, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply cache migrations: %w", err)
	}

	return &SQLiteGateway{db: db, storeSource: storeSource}, nil
}

// Close closes the database connection.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

// Lookup reads the entry for a content hash. ErrNotFound on miss.
func (g *SQLiteGateway) Lookup(ctx context.Context, contentHash string) (*Entry, error) {
	query := `
		SELECT content_hash, document_key, sequence_index, source_text, artifact, metadata, created_at
		FROM chunk_cache
		WHERE content_hash = ?
	`
	row := g.db.QueryRowContext(ctx, query, contentHash)

	var (
		entry       Entry
		sourceText  sql.NullString
		metadataRaw string
		createdAt   time.Time
	)
	err := row.Scan(&entry.ContentHash, &entry.DocumentKey, &entry.SequenceIndex,
		&sourceText, &entry.Artifact, &metadataRaw, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	if sourceText.Valid {
		entry.SourceText = &sourceText.String
	}
	entry.CreatedAt = createdAt
	if err := json.Unmarshal([]byte(metadataRaw), &entry.Metadata); err != nil {
		return nil, fmt.Errorf("cache lookup: decode metadata: %w", err)
	}
	return &entry, nil
}

// Store inserts the entry unless its key already exists. The conflict
// no-op also resolves same-key races between concurrent writers.
func (g *SQLiteGateway) Store(ctx context.Context, entry *Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("cache store: encode metadata: %w", err)
	}

	var sourceText sql.NullString
	if g.storeSource && entry.SourceText != nil {
		sourceText = sql.NullString{String: *entry.SourceText, Valid: true}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO chunk_cache (content_hash, document_key, sequence_index, source_text, artifact, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`
	if _, err := g.db.ExecContext(ctx, query,
		entry.ContentHash, entry.DocumentKey, entry.SequenceIndex,
		sourceText, entry.Artifact, string(metadata), createdAt); err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Stats reports basic cache statistics.
func (g *SQLiteGateway) Stats(ctx context.Context) (count int, err error) {
	err = g.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_cache").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("cache stats: %w", err)
	}
	return count, nil
}
