package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
)

// SQLiteStore implements [Store] over the coordinator's SQLite database.
//
// Change notifications are produced locally via [hub] fan-out: every write
// that goes through this store publishes to the matching watch stream.
type SQLiteStore struct {
	db        *sql.DB
	logger    *log.Logger
	intervals *hub[models.IntervalChange]
	playlists *hub[models.PlaylistChange]
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore wraps an open database connection. The schema must already
// be migrated (see shared.RunMigrations).
func NewSQLiteStore(db *sql.DB, logger *log.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:        db,
		logger:    logger,
		intervals: newHub[models.IntervalChange](logger),
		playlists: newHub[models.PlaylistChange](logger),
	}
}

// getConfig reads a config value, returning ok=false when the key is unset.
func (s *SQLiteStore) getConfig(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read config key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) setConfig(key, value string) error {
	query := `
		INSERT INTO config (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to write config key %s: %w", key, err)
	}
	return nil
}

// LastSyncAt returns the persisted last-periodic-sync timestamp.
func (s *SQLiteStore) LastSyncAt() (time.Time, error) {
	value, ok, err := s.getConfig(keyLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed %s value %q: %w", keyLastSync, value, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *SQLiteStore) SetLastSyncAt(t time.Time) error {
	return s.setConfig(keyLastSync, strconv.FormatInt(t.UnixMilli(), 10))
}

// SyncInterval returns the configured interval in milliseconds, 0 when unset.
func (s *SQLiteStore) SyncInterval() (int64, error) {
	value, ok, err := s.getConfig(keyInterval)
	if err != nil || !ok {
		return 0, err
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed %s value %q: %w", keyInterval, value, err)
	}
	return ms, nil
}

// SetSyncInterval persists a new interval and publishes an [models.IntervalChange]
// carrying the previous value.
func (s *SQLiteStore) SetSyncInterval(ms int64) error {
	old, err := s.SyncInterval()
	if err != nil {
		return err
	}
	if err := s.setConfig(keyInterval, strconv.FormatInt(ms, 10)); err != nil {
		return err
	}
	s.intervals.publish(models.IntervalChange{Old: old, New: ms})
	return nil
}

func (s *SQLiteStore) OnboardingDismissed() (bool, error) {
	value, ok, err := s.getConfig(keyOnboarding)
	if err != nil || !ok {
		return false, err
	}
	return value == "1" || value == "true", nil
}

func (s *SQLiteStore) SetOnboardingDismissed(v bool) error {
	value := "0"
	if v {
		value = "1"
	}
	return s.setConfig(keyOnboarding, value)
}

// Playlist retrieves a cached playlist record by local id.
func (s *SQLiteStore) Playlist(localID string) (*models.PlaylistRecord, error) {
	query := `
		SELECT local_id, remote_id, user_id, name, track_count
		FROM playlists
		WHERE local_id = ?
	`

	var (
		rec      models.PlaylistRecord
		remoteID sql.NullString
	)

	err := s.db.QueryRow(query, localID).Scan(&rec.LocalID, &remoteID, &rec.UserID, &rec.Name, &rec.TrackCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}
	rec.RemoteID = remoteID.String

	return &rec, nil
}

// PlaylistsForUser retrieves all cached playlist records for a user.
func (s *SQLiteStore) PlaylistsForUser(userID string) ([]models.PlaylistRecord, error) {
	query := `
		SELECT local_id, remote_id, user_id, name, track_count
		FROM playlists
		WHERE user_id = ?
		ORDER BY name
	`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var records []models.PlaylistRecord
	for rows.Next() {
		var (
			rec      models.PlaylistRecord
			remoteID sql.NullString
		)
		if err := rows.Scan(&rec.LocalID, &remoteID, &rec.UserID, &rec.Name, &rec.TrackCount); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		rec.RemoteID = remoteID.String
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PutPlaylist inserts or updates a playlist record and publishes a
// [models.PlaylistChange] with the previous value (nil on first insert).
func (s *SQLiteStore) PutPlaylist(rec models.PlaylistRecord) error {
	old, err := s.Playlist(rec.LocalID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO playlists (local_id, remote_id, user_id, name, track_count, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(local_id) DO UPDATE SET
			remote_id = excluded.remote_id,
			user_id = excluded.user_id,
			name = excluded.name,
			track_count = excluded.track_count,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.Exec(query, rec.LocalID, nullable(rec.RemoteID), rec.UserID, rec.Name, rec.TrackCount); err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}

	s.playlists.publish(models.PlaylistChange{Old: old, New: &rec})
	return nil
}

// DeletePlaylist removes a playlist record and publishes a change with only
// the old value set. Deleting an unknown id is a no-op.
func (s *SQLiteStore) DeletePlaylist(localID string) error {
	old, err := s.Playlist(localID)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}

	if _, err := s.db.Exec("DELETE FROM playlists WHERE local_id = ?", localID); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	s.playlists.publish(models.PlaylistChange{Old: old})
	return nil
}

func (s *SQLiteStore) WatchInterval(ctx context.Context) <-chan models.IntervalChange {
	return s.intervals.subscribe(ctx)
}

func (s *SQLiteStore) WatchPlaylists(ctx context.Context) <-chan models.PlaylistChange {
	return s.playlists.subscribe(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
