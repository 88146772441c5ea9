package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"paperpile/internal/database"
)

// SQLStore is a Store implementation backed by a single documents
// table in SQLite, PostgreSQL or MySQL. Every record is one row keyed
// by (collection, id) with the JSON body in the data column; merge
// updates read the row under a write lock inside a per-record
// transaction so concurrent merges serialize instead of clobbering
// each other.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore creates a SQL-backed store over an initialized database.
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, collection, id string, dest interface{}) error {
	query := "SELECT data FROM documents WHERE collection = ? AND id = ?"
	var raw []byte
	err := s.db.QueryRow(query, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

func (s *SQLStore) Query(ctx context.Context, collection, field string, value interface{}, dest interface{}) error {
	// Equality filtering happens after decoding so all three dialects
	// behave identically regardless of their JSON operator support.
	query := "SELECT data FROM documents WHERE collection = ? ORDER BY id ASC"
	rows, err := s.db.Query(query, collection)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var raws [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		ok, err := matchField(raw, field, value)
		if err != nil {
			return err
		}
		if ok {
			raws = append(raws, raw)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}

	return decodeList(raws, dest)
}

func (s *SQLStore) Set(ctx context.Context, collection, id string, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	query := s.db.Dialect.UpsertDocumentQuery()
	if _, err := s.db.Exec(query, collection, id, string(raw)); err != nil {
		return fmt.Errorf("failed to set record: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row for the read so a concurrent merge on the same
	// record waits for this transaction instead of writing from a
	// stale snapshot
	var raw []byte
	query := s.db.Dialect.SelectDocumentForUpdateQuery()
	err = tx.QueryRow(query, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	merged, err := mergeFields(raw, fields)
	if err != nil {
		return err
	}

	query = "UPDATE documents SET data = ? WHERE collection = ? AND id = ?"
	if _, err := tx.Exec(query, string(merged), collection, id); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	query := "DELETE FROM documents WHERE collection = ? AND id = ?"
	if _, err := s.db.Exec(query, collection, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
