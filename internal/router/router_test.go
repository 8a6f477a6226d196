package router

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	plsynctest "github.com/desertthunder/plsync/internal/testing"
)

type stubSessions struct {
	mu        sync.Mutex
	entries   map[string]models.SessionEntry
	reject    bool
	evictions int
	upserts   []models.SessionEntry
}

func newStubSessions() *stubSessions {
	return &stubSessions{entries: make(map[string]models.SessionEntry)}
}

func (s *stubSessions) Upsert(userID string, sessionIndex, surfaceID int, xsrfToken string, tier models.Tier, accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reject {
		return false
	}
	entry := models.SessionEntry{
		UserID: userID, SessionIndex: sessionIndex, SurfaceID: surfaceID,
		XSRFToken: xsrfToken, Tier: tier, AccountID: accountID,
	}
	s.entries[userID] = entry
	s.upserts = append(s.upserts, entry)
	return true
}

func (s *stubSessions) Evict(sessionIndex, surfaceID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictions++
}

func (s *stubSessions) UpdateXSRF(userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[userID]; ok {
		entry.XSRFToken = token
		s.entries[userID] = entry
	}
}

func (s *stubSessions) Get(userID string) (models.SessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[userID]
	return entry, ok
}

func (s *stubSessions) LookupBySurface(surfaceID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.SurfaceID == surfaceID {
			return entry.UserID, true
		}
	}
	return "", false
}

func (s *stubSessions) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}

type stubScheduler struct {
	mu    sync.Mutex
	inits []string
}

func (s *stubScheduler) Initialize(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits = append(s.inits, userID)
	return nil
}

func (s *stubScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inits)
}

type stubQuery struct {
	tracks    []models.Track
	tracksErr error
	count     int
	countErr  error
	clientCtx map[string]any
}

func (q *stubQuery) Tracks(ctx context.Context, userID string, spec models.QuerySpec) ([]models.Track, error) {
	return q.tracks, q.tracksErr
}

func (q *stubQuery) PlaylistCount(ctx context.Context, userID string) (int, error) {
	return q.count, q.countErr
}

func (q *stubQuery) Context(ctx context.Context, userID string) (map[string]any, error) {
	return q.clientCtx, nil
}

type stubAuth struct {
	valid      bool
	prefetched chan string
}

func (a *stubAuth) Valid(ctx context.Context) bool { return a.valid }

func (a *stubAuth) PrefetchLicense(ctx context.Context, userID string) (models.Tier, error) {
	if a.prefetched != nil {
		a.prefetched <- userID
	}
	return models.TierFree, nil
}

type stubCaches struct {
	mu      sync.Mutex
	caches  map[string]*models.SplaylistCache
	created []string
}

func newStubCaches() *stubCaches {
	return &stubCaches{caches: make(map[string]*models.SplaylistCache)}
}

func (c *stubCaches) Get(userID string) (*models.SplaylistCache, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cache, ok := c.caches[userID]
	return cache, ok
}

func (c *stubCaches) GetOrCreate(userID string) *models.SplaylistCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cache, ok := c.caches[userID]; ok {
		return cache
	}
	cache := &models.SplaylistCache{UserID: userID, Tracks: []models.Track{}}
	c.caches[userID] = cache
	c.created = append(c.created, userID)
	return cache
}

type stubSurfaces struct {
	mu          sync.Mutex
	pageActions []int
	firstPrompt []string
	mismatches  []int
}

func (s *stubSurfaces) ShowPageAction(surfaceID int, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageActions = append(s.pageActions, surfaceID)
}

func (s *stubSurfaces) NotifyFirstPlaylist(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstPrompt = append(s.firstPrompt, userID)
}

func (s *stubSurfaces) NotifyAccountMismatch(surfaceID int, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mismatches = append(s.mismatches, surfaceID)
}

type routerFixture struct {
	router    *MessageRouter
	sessions  *stubSessions
	scheduler *stubScheduler
	sink      *plsynctest.CollectSink
	query     *stubQuery
	auth      *stubAuth
	caches    *stubCaches
	surfaces  *stubSurfaces
	telemetry *plsynctest.MemTelemetry
}

func newFixture(configure func(*MessageRouterOpts)) *routerFixture {
	f := &routerFixture{
		sessions:  newStubSessions(),
		scheduler: &stubScheduler{},
		sink:      plsynctest.NewCollectSink(),
		query:     &stubQuery{},
		auth:      &stubAuth{valid: true},
		caches:    newStubCaches(),
		surfaces:  &stubSurfaces{},
		telemetry: plsynctest.NewMemTelemetry(),
	}
	opts := MessageRouterOpts{
		Sessions:  f.sessions,
		Scheduler: f.scheduler,
		Sink:      f.sink,
		Query:     f.query,
		Auth:      f.auth,
		Caches:    f.caches,
		Surfaces:  f.surfaces,
		Telemetry: f.telemetry,
		Logger:    shared.NewLogger(io.Discard),
	}
	if configure != nil {
		configure(&opts)
	}
	f.router = NewMessageRouter(opts)
	return f
}

func validQuery() *models.QuerySpec {
	return &models.QuerySpec{Clauses: []models.QueryClause{{Field: "artist", Op: "eq", Value: "boards of canada"}}}
}

func TestDispatch_UnknownAction(t *testing.T) {
	f := newFixture(nil)

	resp, err := f.router.Dispatch(context.Background(), Message{Action: "reticulate"}, Sender{})
	if resp != nil || err != nil {
		t.Fatalf("unknown action must degrade to a no-op, got %+v, %v", resp, err)
	}
	if f.telemetry.CountEvents("unknown_action") != 1 {
		t.Error("expected an unknown_action telemetry event")
	}
}

func TestDispatch_ForceUpdate(t *testing.T) {
	f := newFixture(nil)

	f.router.Dispatch(context.Background(), Message{Action: ActionForceUpdate, UserID: "A"}, Sender{})

	reqs := f.sink.Requests()
	if len(reqs) != 1 || reqs[0].Action != models.ActionUpdateAll || reqs[0].UserID != "A" {
		t.Fatalf("expected one update-all for A, got %+v", reqs)
	}
}

func TestDispatch_SetXsrf(t *testing.T) {
	t.Run("unknown session is a no-op", func(t *testing.T) {
		f := newFixture(nil)

		f.router.Dispatch(context.Background(), Message{Action: ActionSetXsrf, UserID: "ghost", XSRFToken: "tok"}, Sender{})

		if len(f.sink.Requests()) != 0 {
			t.Error("no sync request expected for unknown session")
		}
	})

	t.Run("updates the token and requests a sync", func(t *testing.T) {
		f := newFixture(nil)
		f.sessions.Upsert("A", 1, 7, "old", models.TierFree, "acct")

		f.router.Dispatch(context.Background(), Message{Action: ActionSetXsrf, UserID: "A", XSRFToken: "new"}, Sender{})

		entry, _ := f.sessions.Get("A")
		if entry.XSRFToken != "new" {
			t.Errorf("expected token updated, got %q", entry.XSRFToken)
		}
		reqs := f.sink.Requests()
		if len(reqs) != 1 || reqs[0].Action != models.ActionUpdateAll {
			t.Fatalf("expected one update-all, got %+v", reqs)
		}
	})
}

func TestDispatch_ShowPageAction(t *testing.T) {
	msg := Message{Action: ActionShowPageAction, UserID: "A", AccountID: "acct", SessionIndex: 1, Tier: "paid", XSRFToken: "tok"}
	sender := Sender{SurfaceID: 7}

	t.Run("missing user id aborts detection", func(t *testing.T) {
		f := newFixture(nil)

		f.router.Dispatch(context.Background(), Message{Action: ActionShowPageAction}, sender)

		if f.telemetry.CountEvents("session_detect_no_user") != 1 {
			t.Error("expected session_detect_no_user event")
		}
		if f.sessions.evictions != 0 || len(f.sessions.upserts) != 0 {
			t.Error("registry must not be touched without a user id")
		}
	})

	t.Run("account mismatch notifies and stops", func(t *testing.T) {
		f := newFixture(nil)
		f.sessions.reject = true

		f.router.Dispatch(context.Background(), msg, sender)

		if len(f.surfaces.mismatches) != 1 {
			t.Fatal("expected an account mismatch notification")
		}
		if f.scheduler.count() != 0 {
			t.Error("scheduler must not start for a rejected session")
		}
	})

	t.Run("records the session and starts the scheduler", func(t *testing.T) {
		f := newFixture(nil)
		f.auth.prefetched = make(chan string, 1)

		f.router.Dispatch(context.Background(), msg, sender)

		if f.sessions.evictions != 1 {
			t.Errorf("expected one eviction pass, got %d", f.sessions.evictions)
		}
		if len(f.sessions.upserts) != 1 || f.sessions.upserts[0].Tier != models.TierPaid {
			t.Fatalf("expected one paid-tier upsert, got %+v", f.sessions.upserts)
		}
		if len(f.surfaces.pageActions) != 1 || f.surfaces.pageActions[0] != 7 {
			t.Errorf("expected page action on surface 7, got %v", f.surfaces.pageActions)
		}
		if f.scheduler.count() != 1 {
			t.Errorf("expected one scheduler init, got %d", f.scheduler.count())
		}
		if f.telemetry.TagValue("tier") != "paid" {
			t.Errorf("expected tier tag, got %q", f.telemetry.TagValue("tier"))
		}

		select {
		case user := <-f.auth.prefetched:
			if user != "A" {
				t.Errorf("expected license prefetch for A, got %q", user)
			}
		case <-time.After(time.Second):
			t.Error("expected a license prefetch")
		}
	})

	t.Run("invalid credentials skip the scheduler", func(t *testing.T) {
		f := newFixture(nil)
		f.auth.valid = false

		f.router.Dispatch(context.Background(), msg, sender)

		if f.scheduler.count() != 0 {
			t.Error("scheduler must not start without valid credentials")
		}
		if len(f.surfaces.pageActions) != 1 {
			t.Error("page action still shown without credentials")
		}
	})

	t.Run("prompts on zero playlists unless dismissed", func(t *testing.T) {
		f := newFixture(nil)
		f.query.count = 0

		f.router.Dispatch(context.Background(), msg, sender)

		if len(f.surfaces.firstPrompt) != 1 {
			t.Error("expected a first-playlist prompt")
		}

		dismissed := newFixture(func(opts *MessageRouterOpts) { opts.OnboardingDismissed = true })
		dismissed.router.Dispatch(context.Background(), msg, sender)

		if len(dismissed.surfaces.firstPrompt) != 0 {
			t.Error("prompt must be suppressed once dismissed")
		}
	})

	t.Run("no prompt when playlists exist", func(t *testing.T) {
		f := newFixture(nil)
		f.query.count = 3

		f.router.Dispatch(context.Background(), msg, sender)

		if len(f.surfaces.firstPrompt) != 0 {
			t.Error("no prompt expected when playlists exist")
		}
	})
}

func TestDispatch_Query(t *testing.T) {
	playlist := &models.PlaylistRecord{LocalID: "pl-1", UserID: "A"}

	t.Run("no session is a silent no-op", func(t *testing.T) {
		f := newFixture(nil)

		resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionQuery, Playlist: playlist, Query: validQuery()}, Sender{})
		if resp != nil || err != nil {
			t.Fatalf("expected silent no-op, got %+v, %v", resp, err)
		}
		if f.telemetry.CountEvents("query_no_session") != 1 {
			t.Error("expected query_no_session event")
		}
	})

	t.Run("no warmed cache is a silent no-op", func(t *testing.T) {
		f := newFixture(nil)
		f.sessions.Upsert("A", 1, 7, "tok", models.TierFree, "acct")

		resp, _ := f.router.Dispatch(context.Background(), Message{Action: ActionQuery, Playlist: playlist, Query: validQuery()}, Sender{})
		if resp != nil {
			t.Fatalf("expected nil response, got %+v", resp)
		}
		if f.telemetry.CountEvents("query_no_cache") != 1 {
			t.Error("expected query_no_cache event")
		}
	})

	t.Run("returns tracks when session and cache exist", func(t *testing.T) {
		f := newFixture(nil)
		f.sessions.Upsert("A", 1, 7, "tok", models.TierFree, "acct")
		f.caches.GetOrCreate("A")
		f.query.tracks = []models.Track{{ID: "t1", Title: "Roygbiv"}}

		resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionQuery, Playlist: playlist, Query: validQuery()}, Sender{})
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if resp == nil || len(resp.Tracks) != 1 || resp.Tracks[0].ID != "t1" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})
}

func TestDispatch_DebugQuery(t *testing.T) {
	t.Run("rejected when debug is disabled", func(t *testing.T) {
		f := newFixture(nil)

		resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionDebugQuery, Query: validQuery()}, Sender{})
		if resp != nil || err != nil {
			t.Fatalf("expected no-op, got %+v, %v", resp, err)
		}
		if f.telemetry.CountEvents("debug_query_disabled") != 1 {
			t.Error("expected debug_query_disabled event")
		}
	})

	t.Run("failures are swallowed", func(t *testing.T) {
		f := newFixture(func(opts *MessageRouterOpts) { opts.Debug = true })
		f.query.tracksErr = errors.New("backend unreachable")

		resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionDebugQuery, UserID: "A", Query: validQuery()}, Sender{})
		if resp != nil || err != nil {
			t.Fatalf("debug query failure must be swallowed, got %+v, %v", resp, err)
		}
		if f.telemetry.CountEvents("debug_query_failed") != 1 {
			t.Error("expected debug_query_failed event")
		}
	})

	t.Run("returns tracks when enabled", func(t *testing.T) {
		f := newFixture(func(opts *MessageRouterOpts) { opts.Debug = true })
		f.query.tracks = []models.Track{{ID: "t2"}}

		resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionDebugQuery, UserID: "A", Query: validQuery()}, Sender{})
		if err != nil || resp == nil || len(resp.Tracks) != 1 {
			t.Fatalf("unexpected result: %+v, %v", resp, err)
		}
	})
}

func TestDispatch_GetContext(t *testing.T) {
	f := newFixture(nil)
	f.query.clientCtx = map[string]any{"locale": "en"}

	resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionGetContext, UserID: "A"}, Sender{})
	if err != nil {
		t.Fatalf("getContext failed: %v", err)
	}
	if resp == nil || resp.Context["locale"] != "en" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDispatch_GetSplaylistcache(t *testing.T) {
	f := newFixture(nil)

	resp, err := f.router.Dispatch(context.Background(), Message{Action: ActionGetSplaylistRef, UserID: "A"}, Sender{})
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if resp == nil || resp.Cache == nil || resp.Cache.UserID != "A" {
		t.Fatalf("expected a lazily created cache for A, got %+v", resp)
	}
	if resp.Cache.Ready() {
		t.Error("lazily created cache must not report ready")
	}
}
