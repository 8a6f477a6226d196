package storage

import (
	"context"
	"time"

	"github.com/desertthunder/plsync/internal/models"
)

// Persisted config keys. Values live in the config table as strings.
const (
	keyLastSync   = "last_periodic_sync"
	keyInterval   = "sync_interval_ms"
	keyOnboarding = "onboarding_dismissed"
)

// Store is the persistence collaborator for the coordinator: key-value config,
// cached playlist records, and change-notification streams for both.
//
// Watch channels deliver {old, new} pairs for writes made through this store.
// A watch is valid until its context is cancelled.
type Store interface {
	// LastSyncAt returns the timestamp of the last periodic sync, or the zero
	// time when no sync has ever run.
	LastSyncAt() (time.Time, error)
	SetLastSyncAt(t time.Time) error

	// SyncInterval returns the configured periodic sync interval in
	// milliseconds. 0 means periodic syncing is disabled.
	SyncInterval() (int64, error)
	SetSyncInterval(ms int64) error

	// OnboardingDismissed reports whether the "create your first playlist"
	// onboarding prompt should be suppressed.
	OnboardingDismissed() (bool, error)
	SetOnboardingDismissed(v bool) error

	Playlist(localID string) (*models.PlaylistRecord, error)
	PlaylistsForUser(userID string) ([]models.PlaylistRecord, error)
	PutPlaylist(rec models.PlaylistRecord) error
	DeletePlaylist(localID string) error

	WatchInterval(ctx context.Context) <-chan models.IntervalChange
	WatchPlaylists(ctx context.Context) <-chan models.PlaylistChange

	Close() error
}
