package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"autosub/internal/config"
	"autosub/internal/services"
)

// Store manages the audio/transcript cache backed by SQLite.
//
// Records are evicted oldest-first whenever an insert would push the total
// stored size over the quota. Callers must not run concurrent pipelines for
// the same record id; the store serializes individual statements but does
// not arbitrate between two writers racing on one id.
type Store struct {
	db    *sql.DB
	path  string
	quota int64
}

// Open initializes or connects to the cache database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.CacheDir, "cache.db")
	store, err := OpenPath(dbPath, cfg.CacheQuotaBytes())
	if err != nil {
		return nil, err
	}
	return store, nil
}

// OpenPath opens a cache database at an explicit location with the given
// quota in bytes.
func OpenPath(dbPath string, quota int64) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, quota: quota}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Quota returns the configured size quota in bytes.
func (s *Store) Quota() int64 {
	return s.quota
}

// Put upserts the audio bytes for an item. The eviction sweep and the insert
// run inside one transaction so a concurrent reader never observes a
// half-applied sweep. A fresh write resets any previously attached
// transcript. The incoming record always survives the sweep; if it alone
// exceeds the quota the cache is allowed to exceed quota by that one record.
func (s *Store) Put(ctx context.Context, id string, audio []byte, filename string) error {
	if id == "" {
		return services.Wrap(services.ErrNotFound, "cache", "put", "record id is empty", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// A replaced record's old size must not count against the sweep budget.
	if _, err := tx.ExecContext(ctx, `DELETE FROM audio_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("drop replaced record: %w", err)
	}

	if err := s.evictLocked(ctx, tx, int64(len(audio))); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO audio_records (id, filename, size_bytes, audio, created_at, transcript_text, transcript_saved_at)
         VALUES (?, ?, ?, ?, ?, NULL, NULL)`,
		id,
		filename,
		int64(len(audio)),
		audio,
		timestamp,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

// evictLocked deletes records oldest-first until the stored total plus the
// incoming size fits the quota or no records remain. Strict FIFO by
// created_at; reads never refresh a record's age.
func (s *Store) evictLocked(ctx context.Context, tx *sql.Tx, incoming int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, size_bytes FROM audio_records ORDER BY created_at ASC`)
	if err != nil {
		return fmt.Errorf("scan cache for eviction: %w", err)
	}
	defer rows.Close()

	type entry struct {
		id   string
		size int64
	}
	var entries []entry
	total := incoming
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.size); err != nil {
			return fmt.Errorf("scan eviction row: %w", err)
		}
		entries = append(entries, e)
		total += e.size
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate eviction rows: %w", err)
	}

	for _, e := range entries {
		if total <= s.quota {
			break
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM audio_records WHERE id = ?`, e.id); err != nil {
			return fmt.Errorf("evict record %s: %w", e.id, err)
		}
		total -= e.size
	}
	return nil
}

// Get fetches a record by id, including the audio bytes. Returns nil when no
// record exists.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM audio_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// Has reports whether a record exists for the id.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM audio_records WHERE id = ?`, id).Scan(&count); err != nil {
		return false, fmt.Errorf("count record: %w", err)
	}
	return count > 0, nil
}

// AttachTranscript stores the derived subtitle text on an existing record.
// The audio bytes and created_at are untouched. Fails with a not-found error
// when no record exists; a transcript must never create its own record.
func (s *Store) AttachTranscript(ctx context.Context, id, text string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE audio_records SET transcript_text = ?, transcript_saved_at = ? WHERE id = ?`,
		text,
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("attach transcript: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach transcript rows: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "cache", "attach transcript",
			fmt.Sprintf("no cached audio for item %q", id), nil)
	}
	return nil
}

// HasTranscript reports whether a non-blank transcript is attached to the record.
func (s *Store) HasTranscript(ctx context.Context, id string) (bool, error) {
	var text sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT transcript_text FROM audio_records WHERE id = ?`, id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read transcript: %w", err)
	}
	return text.Valid && !isBlank(text.String), nil
}

// List returns record metadata (no audio blobs) ordered oldest-first.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+metaColumns+` FROM audio_records ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Remove deletes a record. Removing a missing id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audio_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// Clear deletes every record.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audio_records`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// TotalSize returns the sum of stored audio sizes in bytes.
func (s *Store) TotalSize(ctx context.Context) (int64, error) {
	var total sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT SUM(size_bytes) FROM audio_records`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum cache size: %w", err)
	}
	return total.Int64, nil
}
