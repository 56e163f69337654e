package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timestampLayout is fixed width so that stored timestamps compare correctly
// as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Setting operations

// GetSetting returns the value stored under key. It returns ErrNotFound
// when the key has never been set.
func (s *Store) GetSetting(key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ?`

	var value string
	err := s.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	return value, nil
}

// SetSetting inserts or replaces the value stored under key.
func (s *Store) SetSetting(key, value string) error {
	query := `
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.Exec(query, key, value, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}

	return nil
}

// DeleteSetting removes key. Deleting a missing key is not an error.
func (s *Store) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// Catalog cache operations

// GetCatalogEntries returns the cached records for the given workshop ids.
// Ids without a cached record are absent from the result.
func (s *Store) GetCatalogEntries(ids []string) (map[string]*CatalogEntry, error) {
	entries := make(map[string]*CatalogEntry, len(ids))
	if len(ids) == 0 {
		return entries, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `
		SELECT workshop_id, title, description, last_updated
		FROM catalog_cache
		WHERE workshop_id IN (` + placeholders + `)
	`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries[entry.WorkshopID] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog entries: %w", err)
	}

	return entries, nil
}

// ListCatalogEntries returns every cached record ordered by workshop id.
func (s *Store) ListCatalogEntries() ([]*CatalogEntry, error) {
	query := `
		SELECT workshop_id, title, description, last_updated
		FROM catalog_cache
		ORDER BY workshop_id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*CatalogEntry
	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog entries: %w", err)
	}

	return entries, nil
}

// UpsertCatalogEntries replaces the cached records in a single transaction.
// A record is always written whole, never merged field by field.
func (s *Store) UpsertCatalogEntries(entries []*CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO catalog_cache (workshop_id, title, description, last_updated)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("failed to prepare catalog upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.WorkshopID, e.Title, e.Description, e.LastUpdated.UTC().Format(timestampLayout)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to upsert catalog entry %s: %w", e.WorkshopID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog upsert: %w", err)
	}

	return nil
}

// DeleteCatalogEntries removes the cached records for ids.
func (s *Store) DeleteCatalogEntries(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := s.db.Exec(`DELETE FROM catalog_cache WHERE workshop_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to delete catalog entries: %w", err)
	}
	return nil
}

// DeleteCatalogEntriesBefore evicts every record last updated before cutoff
// and returns the number of evicted records.
func (s *Store) DeleteCatalogEntriesBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM catalog_cache WHERE last_updated < ?`,
		cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired catalog entries: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// ClearCatalog removes every cached record.
func (s *Store) ClearCatalog() error {
	if _, err := s.db.Exec(`DELETE FROM catalog_cache`); err != nil {
		return fmt.Errorf("failed to clear catalog cache: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogEntry(row rowScanner) (*CatalogEntry, error) {
	var entry CatalogEntry
	var lastUpdated string

	if err := row.Scan(&entry.WorkshopID, &entry.Title, &entry.Description, &lastUpdated); err != nil {
		return nil, fmt.Errorf("failed to scan catalog row: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_updated for %s: %w", entry.WorkshopID, err)
	}
	entry.LastUpdated = t

	return &entry, nil
}
