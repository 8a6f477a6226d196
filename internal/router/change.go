package router

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
)

// ChangeRouter turns playlist-change notifications into single-item sync
// requests. One request per notification, never batched.
type ChangeRouter struct {
	sink   Sink
	logger *log.Logger
}

// NewChangeRouter creates a ChangeRouter emitting into sink.
func NewChangeRouter(sink Sink, logger *log.Logger) *ChangeRouter {
	return &ChangeRouter{sink: sink, logger: logger}
}

// OnPlaylistChange maps one change to one sync request. A change with only an
// old value is a deletion, and the remote id comes from that old value since
// no new value exists. Everything else is a create-or-update built from the
// new value.
func (c *ChangeRouter) OnPlaylistChange(ctx context.Context, change models.PlaylistChange) {
	if change.Old != nil && change.New == nil {
		c.sink.Submit(ctx, models.SyncRequest{
			UserID:   change.Old.UserID,
			Action:   models.ActionDelete,
			LocalID:  change.Old.LocalID,
			RemoteID: change.Old.RemoteID,
		})
		return
	}

	if change.New == nil {
		c.logger.Warn("playlist change with neither old nor new value")
		return
	}

	c.sink.Submit(ctx, models.SyncRequest{
		UserID:  change.New.UserID,
		Action:  models.ActionCreateOrUpdate,
		LocalID: change.New.LocalID,
	})
}

// Watch consumes a playlist change stream until ctx is cancelled.
func (c *ChangeRouter) Watch(ctx context.Context, changes <-chan models.PlaylistChange) {
	for {
		select {
		case change := <-changes:
			c.OnPlaylistChange(ctx, change)
		case <-ctx.Done():
			return
		}
	}
}
