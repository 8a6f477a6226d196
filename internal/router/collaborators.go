package router

import (
	"context"

	"github.com/desertthunder/plsync/internal/models"
)

// Sink receives outbound sync requests. Fire-and-forget; the router never
// waits for delivery.
type Sink interface {
	Submit(ctx context.Context, req models.SyncRequest)
}

// SessionStore is the slice of the session registry the router mutates.
type SessionStore interface {
	Upsert(userID string, sessionIndex, surfaceID int, xsrfToken string, tier models.Tier, accountID string) bool
	Evict(sessionIndex, surfaceID int)
	UpdateXSRF(userID, token string)
	Get(userID string) (models.SessionEntry, bool)
	LookupBySurface(surfaceID int) (string, bool)
	Remove(userID string)
}

// Initializer starts the sync scheduler. Safe to call repeatedly.
type Initializer interface {
	Initialize(ctx context.Context, userID string) error
}

// QueryEngine executes structured queries and metadata lookups remotely.
type QueryEngine interface {
	Tracks(ctx context.Context, userID string, spec models.QuerySpec) ([]models.Track, error)
	PlaylistCount(ctx context.Context, userID string) (int, error)
	Context(ctx context.Context, userID string) (map[string]any, error)
}

// Auth answers credential validity and license questions.
type Auth interface {
	// Valid reports whether a usable credential exists without ever
	// prompting the user.
	Valid(ctx context.Context) bool
	PrefetchLicense(ctx context.Context, userID string) (models.Tier, error)
}

// Caches exposes the per-user splaylist caches.
type Caches interface {
	Get(userID string) (*models.SplaylistCache, bool)
	GetOrCreate(userID string) *models.SplaylistCache
}

// Surfaces renders UI affordances on the client surfaces.
type Surfaces interface {
	ShowPageAction(surfaceID int, userID string)
	NotifyFirstPlaylist(userID string)
	NotifyAccountMismatch(surfaceID int, accountID string)
}

// Telemetry mirrors services.Telemetry for the router's warning paths.
type Telemetry interface {
	Warn(event string, kv ...any)
	Error(event string, kv ...any)
	Tag(key, value string)
}
