package models

import "time"

// SplaylistCache holds the cached contents of a user's special playlist.
//
// The cache must be populated (warmed) before periodic sync ticks may run;
// an empty cache handed out lazily signals a cache-not-ready condition.
type SplaylistCache struct {
	UserID   string    `json:"user_id"`
	Tracks   []Track   `json:"tracks"`
	WarmedAt time.Time `json:"warmed_at,omitempty"`
}

// Ready reports whether the cache was populated by a warm-up rather than
// constructed empty on demand.
func (c *SplaylistCache) Ready() bool {
	return !c.WarmedAt.IsZero()
}
