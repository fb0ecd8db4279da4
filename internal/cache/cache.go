// Package cache is the optional persistence collaborator: scraped manga
// details and resolved reader results keyed for reuse, with a
// caller-controlled TTL checked on read. The core never requires it.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andrei/mangabridge/internal/models"
)

type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewStore(db *sql.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// NewStoreWithClock is for tests that need to move time.
func NewStoreWithClock(db *sql.DB, ttl time.Duration, now func() time.Time) *Store {
	return &Store{db: db, ttl: ttl, now: now}
}

func (s *Store) GetMangaDetail(slug string) (*models.MangaDetail, error) {
	var payload string
	var fetchedAt time.Time
	err := s.db.QueryRow(`SELECT payload, fetched_at FROM manga_cache WHERE slug = ?`, slug).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manga cache: %w", err)
	}

	if s.expired(fetchedAt) {
		return nil, nil
	}

	var detail models.MangaDetail
	if err := json.Unmarshal([]byte(payload), &detail); err != nil {
		return nil, fmt.Errorf("decode cached manga detail: %w", err)
	}
	return &detail, nil
}

func (s *Store) PutMangaDetail(detail *models.MangaDetail) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode manga detail: %w", err)
	}

	_, err = s.db.Exec(`
INSERT INTO manga_cache (slug, payload, fetched_at) VALUES (?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		detail.Slug, string(payload), s.now())
	if err != nil {
		return fmt.Errorf("write manga cache: %w", err)
	}
	return nil
}

func (s *Store) GetReader(slug string, chapterToken string) (*models.ReaderResult, error) {
	var payload string
	var createdAt time.Time
	err := s.db.QueryRow(
		`SELECT payload, created_at FROM reader_cache WHERE slug = ? AND chapter_token = ?`,
		slug, chapterToken,
	).Scan(&payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reader cache: %w", err)
	}

	if s.expired(createdAt) {
		return nil, nil
	}

	var result models.ReaderResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("decode cached reader result: %w", err)
	}
	return &result, nil
}

func (s *Store) PutReader(slug string, chapterToken string, result *models.ReaderResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode reader result: %w", err)
	}

	_, err = s.db.Exec(`
INSERT INTO reader_cache (slug, chapter_token, payload, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(slug, chapter_token) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		slug, chapterToken, string(payload), s.now())
	if err != nil {
		return fmt.Errorf("write reader cache: %w", err)
	}
	return nil
}

func (s *Store) ListCachedSlugs() ([]string, error) {
	rows, err := s.db.Query(`SELECT slug FROM manga_cache ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list cached slugs: %w", err)
	}
	defer rows.Close()

	slugs := make([]string, 0, 16)
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan cached slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// PruneExpired deletes rows past the TTL from both tables and reports how
// many were removed.
func (s *Store) PruneExpired() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl)

	var total int64
	result, err := s.db.Exec(`DELETE FROM reader_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune reader cache: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil {
		total += affected
	}

	result, err = s.db.Exec(`DELETE FROM manga_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return total, fmt.Errorf("prune manga cache: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil {
		total += affected
	}

	return total, nil
}

func (s *Store) expired(storedAt time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(storedAt) > s.ttl
}
