// package models defines the data model for the playlist sync coordinator
package models

// Tier is the subscription level detected for an account.
type Tier int

const (
	TierFree Tier = iota
	TierPaid
)

func (t Tier) String() string {
	switch t {
	case TierPaid:
		return "paid"
	default:
		return "free"
	}
}

// ParseTier maps a wire-level tier string onto a [Tier].
// Unrecognized values degrade to [TierFree].
func ParseTier(s string) Tier {
	if s == "paid" {
		return TierPaid
	}
	return TierFree
}

// SessionEntry binds a detected user account to the UI surface currently displaying it.
type SessionEntry struct {
	UserID       string `json:"user_id"`       // opaque stable identity, primary key
	SessionIndex int    `json:"session_index"` // UI-surface slot the user occupies
	SurfaceID    int    `json:"surface_id"`    // identity of the tab/surface hosting this session
	XSRFToken    string `json:"-"`             // refreshed independently of session creation
	Tier         Tier   `json:"tier"`
	AccountID    string `json:"account_id"`
}

// SyncAction enumerates the operations the backend sync engine accepts.
type SyncAction string

const (
	ActionCreateOrUpdate SyncAction = "create-or-update"
	ActionDelete         SyncAction = "delete"
	ActionUpdateAll      SyncAction = "update-all"
)

// SyncRequest is an outbound message to the sync engine. Fire-and-forget:
// its lifecycle ends at the sink boundary.
type SyncRequest struct {
	UserID   string     `json:"user_id"`
	Action   SyncAction `json:"action"`
	LocalID  string     `json:"local_id,omitempty"`
	RemoteID string     `json:"remote_id,omitempty"` // present only for delete
}

// PlaylistRecord is a locally cached playlist row as stored by the coordinator.
type PlaylistRecord struct {
	LocalID    string `json:"local_id"`
	RemoteID   string `json:"remote_id,omitempty"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
}

// PlaylistChange is a change notification for a single playlist record.
// Old is nil on creation, New is nil on deletion.
type PlaylistChange struct {
	Old *PlaylistRecord
	New *PlaylistRecord
}

// IntervalChange is a change notification for the persisted sync interval.
type IntervalChange struct {
	Old int64 // milliseconds
	New int64 // milliseconds
}

// Track represents a single track returned by the query engine.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration,omitempty"` // seconds
}
