// Package storage persists generated-listing cache entries and the publish
// history in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ListingCacheEntry is a cached listing generation result.
type ListingCacheEntry struct {
	Name        string
	Description string
	Condition   string
	Price       int
	Keywords    []string
}

// PublishRecord is one marketplace post outcome from a completed publish.
type PublishRecord struct {
	ID          int64
	ItemID      string
	ItemName    string
	Marketplace string
	Success     bool
	ListingURL  string
	Status      string
	CreatedAt   time.Time
}

// Store defines the persistence interface.
type Store interface {
	GetListingCache(hash string) (*ListingCacheEntry, error)
	SetListingCache(hash string, entry *ListingCacheEntry) error

	AppendPublish(rec *PublishRecord) error
	GetPublishHistory(limit int) ([]PublishRecord, error)

	Close() error
}

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and a busy timeout so the janitor and handlers can share the file.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	cacheQuery := `
	CREATE TABLE IF NOT EXISTS listing_cache (
		hash TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		condition TEXT NOT NULL,
		price INTEGER NOT NULL,
		keywords TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(cacheQuery); err != nil {
		return fmt.Errorf("failed to create listing_cache table: %w", err)
	}

	historyQuery := `
	CREATE TABLE IF NOT EXISTS publish_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		marketplace TEXT NOT NULL,
		success INTEGER NOT NULL,
		listing_url TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(historyQuery); err != nil {
		return fmt.Errorf("failed to create publish_history table: %w", err)
	}
	return nil
}

// GetListingCache returns the cached entry for hash, or nil, nil on a miss.
func (s *SQLiteStore) GetListingCache(hash string) (*ListingCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entry ListingCacheEntry
	var keywordsJSON string
	err := s.db.QueryRow(
		"SELECT name, description, condition, price, keywords FROM listing_cache WHERE hash = ?",
		hash,
	).Scan(&entry.Name, &entry.Description, &entry.Condition, &entry.Price, &keywordsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing cache entry: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &entry.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode cached keywords: %w", err)
	}
	return &entry, nil
}

// SetListingCache upserts a cache entry.
func (s *SQLiteStore) SetListingCache(hash string, entry *ListingCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keywordsJSON, err := json.Marshal(entry.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO listing_cache (hash, name, description, condition, price, keywords)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   condition = excluded.condition,
		   price = excluded.price,
		   keywords = excluded.keywords`,
		hash, entry.Name, entry.Description, entry.Condition, entry.Price, string(keywordsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to set listing cache entry: %w", err)
	}
	return nil
}

// AppendPublish records one marketplace post outcome.
func (s *SQLiteStore) AppendPublish(rec *PublishRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO publish_history (item_id, item_name, marketplace, success, listing_url, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ItemID, rec.ItemName, rec.Marketplace, rec.Success, rec.ListingURL, rec.Status, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append publish record: %w", err)
	}
	return nil
}

// GetPublishHistory returns up to limit records, newest first.
func (s *SQLiteStore) GetPublishHistory(limit int) ([]PublishRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, item_id, item_name, marketplace, success, listing_url, status, created_at
		 FROM publish_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query publish history: %w", err)
	}
	defer rows.Close()

	var records []PublishRecord
	for rows.Next() {
		var rec PublishRecord
		if err := rows.Scan(
			&rec.ID, &rec.ItemID, &rec.ItemName, &rec.Marketplace,
			&rec.Success, &rec.ListingURL, &rec.Status, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan publish record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
