package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/router"
	"github.com/desertthunder/plsync/internal/shared"
)

type mockDispatcher struct {
	resp   *router.Response
	err    error
	msg    router.Message
	sender router.Sender
	calls  int
}

func (m *mockDispatcher) Dispatch(ctx context.Context, msg router.Message, sender router.Sender) (*router.Response, error) {
	m.msg = msg
	m.sender = sender
	m.calls++
	return m.resp, m.err
}

type mockIntervalStore struct {
	interval int64
	setErr   error
	sets     []int64
}

func (m *mockIntervalStore) SyncInterval() (int64, error) { return m.interval, nil }

func (m *mockIntervalStore) SetSyncInterval(ms int64) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.interval = ms
	m.sets = append(m.sets, ms)
	return nil
}

func testLogger() *log.Logger { return shared.NewLogger(io.Discard) }

func TestMessageHandler(t *testing.T) {
	t.Run("effect-only actions complete with 204", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := NewMessageHandler(dispatcher, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"action":"forceUpdate","user_id":"A"}`))
		req.Header.Set("X-Surface-ID", "7")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if dispatcher.msg.Action != "forceUpdate" || dispatcher.msg.UserID != "A" {
			t.Errorf("unexpected decoded message: %+v", dispatcher.msg)
		}
		if dispatcher.sender.SurfaceID != 7 {
			t.Errorf("expected surface 7, got %d", dispatcher.sender.SurfaceID)
		}
	})

	t.Run("responses are held until ready and returned with 200", func(t *testing.T) {
		dispatcher := &mockDispatcher{resp: &router.Response{Tracks: []models.Track{{ID: "t1"}}}}
		handler := NewMessageHandler(dispatcher, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"action":"query"}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp router.Response
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Tracks) != 1 || resp.Tracks[0].ID != "t1" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("malformed body is rejected without dispatching", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		handler := NewMessageHandler(dispatcher, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{nope`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if dispatcher.calls != 0 {
			t.Error("dispatcher must not be called for malformed input")
		}
	})

	t.Run("dispatch errors map to 502", func(t *testing.T) {
		dispatcher := &mockDispatcher{err: errors.New("backend unreachable")}
		handler := NewMessageHandler(dispatcher, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(`{"action":"getContext"}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}

func TestStatusHandler(t *testing.T) {
	status := Status{
		State:      "running",
		Started:    true,
		IntervalMs: 300_000,
		Sessions:   []models.SessionEntry{{UserID: "A", SurfaceID: 7}},
	}
	handler := NewStatusHandler(func() Status { return status }, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Status
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if got.State != "running" || got.IntervalMs != 300_000 || len(got.Sessions) != 1 {
		t.Errorf("unexpected status: %+v", got)
	}
}

func TestIntervalHandler(t *testing.T) {
	t.Run("get returns the stored interval", func(t *testing.T) {
		store := &mockIntervalStore{interval: 60_000}
		handler := NewIntervalHandler(store, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/interval", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string]int64
		json.NewDecoder(rec.Body).Decode(&body)
		if body["interval_ms"] != 60_000 {
			t.Errorf("expected 60000, got %d", body["interval_ms"])
		}
	})

	t.Run("post writes through the store", func(t *testing.T) {
		store := &mockIntervalStore{}
		handler := NewIntervalHandler(store, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/interval", strings.NewReader(`{"interval_ms":120000}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(store.sets) != 1 || store.sets[0] != 120_000 {
			t.Errorf("expected one write of 120000, got %v", store.sets)
		}
	})

	t.Run("zero disables periodic syncing", func(t *testing.T) {
		store := &mockIntervalStore{interval: 60_000}
		handler := NewIntervalHandler(store, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/interval", strings.NewReader(`{"interval_ms":0}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if store.interval != 0 {
			t.Errorf("expected interval 0, got %d", store.interval)
		}
	})

	t.Run("negative intervals are rejected", func(t *testing.T) {
		store := &mockIntervalStore{}
		handler := NewIntervalHandler(store, testLogger())

		req := httptest.NewRequest(http.MethodPost, "/api/interval", strings.NewReader(`{"interval_ms":-5}`))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(store.sets) != 0 {
			t.Error("store must not be written for invalid input")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("applies middleware in reverse order", func(t *testing.T) {
		router := NewBasicRouter()

		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}
		router.Use(mw("outer"), mw("inner"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			order = append(order, "handler")
		}))

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		want := []string{"outer", "inner", "handler"}
		for i, name := range want {
			if i >= len(order) || order[i] != name {
				t.Fatalf("expected order %v, got %v", want, order)
			}
		}
	})

	t.Run("rejects mismatched methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))

		req := httptest.NewRequest(http.MethodPost, "/ping", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("registers a handler for all of its routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(&HealthHandler{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
