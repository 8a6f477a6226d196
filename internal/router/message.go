package router

import (
	"github.com/desertthunder/plsync/internal/models"
)

// Inbound action tags. These are wire-level names shared with the clients.
const (
	ActionForceUpdate     = "forceUpdate"
	ActionSetXsrf         = "setXsrf"
	ActionShowPageAction  = "showPageAction"
	ActionQuery           = "query"
	ActionDebugQuery      = "debugQuery"
	ActionGetContext      = "getContext"
	ActionGetSplaylistRef = "getSplaylistcache"
)

// Message is an inbound action request from a UI surface or internal
// component. Action selects the handler; the other fields are action-specific.
type Message struct {
	Action       string                 `json:"action"`
	UserID       string                 `json:"user_id,omitempty"`
	AccountID    string                 `json:"account_id,omitempty"`
	SessionIndex int                    `json:"session_index,omitempty"`
	Tier         string                 `json:"tier,omitempty"`
	XSRFToken    string                 `json:"xsrf_token,omitempty"`
	Playlist     *models.PlaylistRecord `json:"playlist,omitempty"`
	Query        *models.QuerySpec      `json:"query,omitempty"`
}

// Sender describes where a message came from.
type Sender struct {
	SurfaceID int `json:"surface_id"`
}

// Response is the optional reply to a dispatched message. Effect-only actions
// return a nil Response.
type Response struct {
	Tracks  []models.Track         `json:"tracks,omitempty"`
	Context map[string]any         `json:"context,omitempty"`
	Cache   *models.SplaylistCache `json:"cache,omitempty"`
}
