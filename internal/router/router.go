package router

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
)

// MessageRouter is the single dispatch point for inbound action requests.
//
// Every action is total: malformed or unexpected input degrades to a logged
// no-op (plus a telemetry event), never a crash. Responses are produced
// before Dispatch returns; the transport keeps its channel open for however
// long that takes.
type MessageRouter struct {
	sessions  SessionStore
	scheduler Initializer
	sink      Sink
	query     QueryEngine
	auth      Auth
	caches    Caches
	surfaces  Surfaces
	telemetry Telemetry
	logger    *log.Logger

	debug bool
	// Read once at startup; suppresses the first-playlist prompt.
	onboardingDismissed bool
}

// MessageRouterOpts contains the collaborators for a MessageRouter.
type MessageRouterOpts struct {
	Sessions            SessionStore
	Scheduler           Initializer
	Sink                Sink
	Query               QueryEngine
	Auth                Auth
	Caches              Caches
	Surfaces            Surfaces
	Telemetry           Telemetry
	Logger              *log.Logger
	Debug               bool
	OnboardingDismissed bool
}

// NewMessageRouter creates a MessageRouter with the provided collaborators.
func NewMessageRouter(opts MessageRouterOpts) *MessageRouter {
	return &MessageRouter{
		sessions:            opts.Sessions,
		scheduler:           opts.Scheduler,
		sink:                opts.Sink,
		query:               opts.Query,
		auth:                opts.Auth,
		caches:              opts.Caches,
		surfaces:            opts.Surfaces,
		telemetry:           opts.Telemetry,
		logger:              opts.Logger,
		debug:               opts.Debug,
		onboardingDismissed: opts.OnboardingDismissed,
	}
}

// Dispatch routes one inbound message to its handler. A nil response with a
// nil error means the action completed through side effects alone.
func (r *MessageRouter) Dispatch(ctx context.Context, msg Message, sender Sender) (*Response, error) {
	switch msg.Action {
	case ActionForceUpdate:
		r.handleForceUpdate(ctx, msg)
		return nil, nil
	case ActionSetXsrf:
		r.handleSetXsrf(ctx, msg)
		return nil, nil
	case ActionShowPageAction:
		r.handleShowPageAction(ctx, msg, sender)
		return nil, nil
	case ActionQuery:
		return r.handleQuery(ctx, msg)
	case ActionDebugQuery:
		return r.handleDebugQuery(ctx, msg)
	case ActionGetContext:
		return r.handleGetContext(ctx, msg)
	case ActionGetSplaylistRef:
		return r.handleGetSplaylistcache(msg), nil
	default:
		r.logger.Warn("unknown action", "action", msg.Action)
		r.telemetry.Warn("unknown_action", "action", msg.Action)
		return nil, nil
	}
}

func (r *MessageRouter) handleForceUpdate(ctx context.Context, msg Message) {
	r.sink.Submit(ctx, models.SyncRequest{UserID: msg.UserID, Action: models.ActionUpdateAll})
}

func (r *MessageRouter) handleSetXsrf(ctx context.Context, msg Message) {
	if _, ok := r.sessions.Get(msg.UserID); !ok {
		r.logger.Warn("setXsrf for unknown session", "user", msg.UserID)
		return
	}
	r.sessions.UpdateXSRF(msg.UserID, msg.XSRFToken)
	r.sink.Submit(ctx, models.SyncRequest{UserID: msg.UserID, Action: models.ActionUpdateAll})
}

// handleShowPageAction runs the session-detection flow: evict whatever held
// the surface, gate on the primary account, record the session, then kick the
// scheduler if credentials are already valid. Detection must never force an
// auth prompt.
func (r *MessageRouter) handleShowPageAction(ctx context.Context, msg Message, sender Sender) {
	if msg.UserID == "" {
		r.logger.Warn("session detection without user id", "surface", sender.SurfaceID)
		r.telemetry.Warn("session_detect_no_user", "surface", sender.SurfaceID)
		return
	}

	r.sessions.Evict(msg.SessionIndex, sender.SurfaceID)

	tier := models.ParseTier(msg.Tier)
	if !r.sessions.Upsert(msg.UserID, msg.SessionIndex, sender.SurfaceID, msg.XSRFToken, tier, msg.AccountID) {
		r.surfaces.NotifyAccountMismatch(sender.SurfaceID, msg.AccountID)
		return
	}

	// License prefetch only warms backend caches; nothing downstream waits
	// on it, and a closed surface does not abort it.
	prefetchCtx := context.WithoutCancel(ctx)
	go func() {
		if _, err := r.auth.PrefetchLicense(prefetchCtx, msg.UserID); err != nil {
			r.logger.Debug("license prefetch failed", "user", msg.UserID, "err", err)
		}
	}()

	r.telemetry.Tag("tier", tier.String())
	r.surfaces.ShowPageAction(sender.SurfaceID, msg.UserID)

	if r.auth.Valid(ctx) {
		if err := r.scheduler.Initialize(ctx, msg.UserID); err != nil {
			r.logger.Error("scheduler initialization failed", "user", msg.UserID, "err", err)
		}
	}

	count, err := r.query.PlaylistCount(ctx, msg.UserID)
	if err != nil {
		r.logger.Warn("playlist count lookup failed", "user", msg.UserID, "err", err)
		return
	}
	if count == 0 && !r.onboardingDismissed {
		r.surfaces.NotifyFirstPlaylist(msg.UserID)
	}
}

func (r *MessageRouter) handleQuery(ctx context.Context, msg Message) (*Response, error) {
	if msg.Playlist == nil || msg.Query == nil {
		r.logger.Warn("query message missing playlist or query")
		return nil, nil
	}

	userID := msg.Playlist.UserID
	if _, ok := r.sessions.Get(userID); !ok {
		r.logger.Warn("query for unknown session", "user", userID)
		r.telemetry.Warn("query_no_session", "user", userID)
		return nil, nil
	}
	if _, ok := r.caches.Get(userID); !ok {
		r.logger.Warn("query before cache ready", "user", userID)
		r.telemetry.Warn("query_no_cache", "user", userID)
		return nil, nil
	}

	tracks, err := r.query.Tracks(ctx, userID, *msg.Query)
	if err != nil {
		return nil, err
	}
	return &Response{Tracks: tracks}, nil
}

// handleDebugQuery evaluates a caller-supplied query for development builds.
// Failures are swallowed: logged, reported, and the response is never sent.
func (r *MessageRouter) handleDebugQuery(ctx context.Context, msg Message) (*Response, error) {
	if !r.debug {
		r.logger.Warn("debugQuery received with debug disabled")
		r.telemetry.Warn("debug_query_disabled")
		return nil, nil
	}
	if msg.Query == nil {
		r.logger.Warn("debugQuery without query")
		return nil, nil
	}

	tracks, err := r.query.Tracks(ctx, msg.UserID, *msg.Query)
	if err != nil {
		r.logger.Error("debug query failed", "err", err)
		r.telemetry.Error("debug_query_failed", "err", err.Error())
		return nil, nil
	}
	return &Response{Tracks: tracks}, nil
}

func (r *MessageRouter) handleGetContext(ctx context.Context, msg Message) (*Response, error) {
	clientCtx, err := r.query.Context(ctx, msg.UserID)
	if err != nil {
		return nil, err
	}
	return &Response{Context: clientCtx}, nil
}

func (r *MessageRouter) handleGetSplaylistcache(msg Message) *Response {
	return &Response{Cache: r.caches.GetOrCreate(msg.UserID)}
}
