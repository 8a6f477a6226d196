package sessions

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
)

// Registry tracks one [models.SessionEntry] per detected user.
//
// Uniqueness holds over three axes: userId (the map key), surfaceId, and
// sessionIndex. Upsert evicts any stale entry occupying the new entry's
// surface or slot, which covers a UI surface being reassigned to a different
// account.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]models.SessionEntry
	primaryID string
	logger    *log.Logger
}

// NewRegistry creates a Registry gated on the given primary account id.
func NewRegistry(primaryID string, logger *log.Logger) *Registry {
	return &Registry{
		entries:   make(map[string]models.SessionEntry),
		primaryID: primaryID,
		logger:    logger,
	}
}

// Upsert records a session for userID. Returns false without storing anything
// when accountID is not the primary account; detections for other accounts
// are acknowledged but never tracked.
func (r *Registry) Upsert(userID string, sessionIndex, surfaceID int, xsrfToken string, tier models.Tier, accountID string) bool {
	if accountID != r.primaryID {
		r.logger.Debug("ignoring session for non-primary account", "user", userID, "account", accountID)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked(sessionIndex, surfaceID, userID)

	r.entries[userID] = models.SessionEntry{
		UserID:       userID,
		SessionIndex: sessionIndex,
		SurfaceID:    surfaceID,
		XSRFToken:    xsrfToken,
		Tier:         tier,
		AccountID:    accountID,
	}
	return true
}

// Evict removes any entry occupying the given surface or surface slot,
// regardless of account. Used when a surface is observed hosting a new
// detection before the account gate has been applied.
func (r *Registry) Evict(sessionIndex, surfaceID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(sessionIndex, surfaceID, "")
}

// evictLocked removes entries sharing the surface or slot, sparing keep.
// Callers hold r.mu.
func (r *Registry) evictLocked(sessionIndex, surfaceID int, keep string) {
	for id, entry := range r.entries {
		if id == keep {
			continue
		}
		if entry.SurfaceID == surfaceID || entry.SessionIndex == sessionIndex {
			r.logger.Info("evicting stale session", "user", id, "surface", entry.SurfaceID)
			delete(r.entries, id)
		}
	}
}

// UpdateXSRF replaces the stored token for userID. Unknown users are a
// logged no-op.
func (r *Registry) UpdateXSRF(userID, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		r.logger.Warn("xsrf update for unknown session", "user", userID)
		return
	}
	entry.XSRFToken = token
	r.entries[userID] = entry
}

// LookupBySurface returns the userID bound to a surface, if any. Linear scan;
// the registry is bounded by the number of open UI surfaces.
func (r *Registry) LookupBySurface(surfaceID int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.entries {
		if entry.SurfaceID == surfaceID {
			return id, true
		}
	}
	return "", false
}

// Get returns the session entry for userID.
func (r *Registry) Get(userID string) (models.SessionEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	return entry, ok
}

// Remove drops the session for userID. Removing an unknown user is a no-op.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// All returns a snapshot of every known session.
func (r *Registry) All() []models.SessionEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]models.SessionEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}
	return entries
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
