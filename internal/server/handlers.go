package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/router"
)

// Dispatcher routes a decoded inbound message. *router.MessageRouter
// satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg router.Message, sender router.Sender) (*router.Response, error)
}

// Status is the coordinator state snapshot served to the CLI and TUI.
type Status struct {
	State      string                `json:"state"`
	Started    bool                  `json:"started"`
	LastSyncAt time.Time             `json:"last_sync_at"`
	IntervalMs int64                 `json:"interval_ms"`
	Sessions   []models.SessionEntry `json:"sessions"`
}

// StatusFunc adapts a closure into a status source.
type StatusFunc func() Status

// MessageHandler serves the inbound message protocol on POST /api/message.
//
// Surfaces identify themselves with the X-Surface-ID header. Actions without
// a response complete with 204; actions with one hold the connection until
// the response is ready and complete with 200.
type MessageHandler struct {
	dispatcher Dispatcher
	logger     *log.Logger
}

var _ Handler = (*MessageHandler)(nil)

func NewMessageHandler(dispatcher Dispatcher, logger *log.Logger) *MessageHandler {
	return &MessageHandler{dispatcher: dispatcher, logger: logger}
}

func (h *MessageHandler) Routes() []string {
	return []string{"POST /api/message"}
}

func (h *MessageHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var msg router.Message
	if err := json.NewDecoder(req.Body).Decode(&msg); err != nil {
		h.logger.Warn("malformed message", "err", err)
		http.Error(w, "malformed message", http.StatusBadRequest)
		return
	}

	sender := router.Sender{}
	if raw := req.Header.Get("X-Surface-ID"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			sender.SurfaceID = id
		}
	}

	resp, err := h.dispatcher.Dispatch(req.Context(), msg, sender)
	if err != nil {
		h.logger.Warn("dispatch failed", "action", msg.Action, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// StatusHandler serves the coordinator snapshot on GET /api/status.
type StatusHandler struct {
	status StatusFunc
	logger *log.Logger
}

var _ Handler = (*StatusHandler)(nil)

func NewStatusHandler(status StatusFunc, logger *log.Logger) *StatusHandler {
	return &StatusHandler{status: status, logger: logger}
}

func (h *StatusHandler) Routes() []string {
	return []string{"GET /api/status"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

// IntervalStore is the slice of storage the interval endpoint needs. Writes
// go through the daemon so the scheduler's watch stream observes them.
type IntervalStore interface {
	SyncInterval() (int64, error)
	SetSyncInterval(ms int64) error
}

// IntervalHandler reads and reconfigures the periodic sync interval.
type IntervalHandler struct {
	store  IntervalStore
	logger *log.Logger
}

var _ Handler = (*IntervalHandler)(nil)

func NewIntervalHandler(store IntervalStore, logger *log.Logger) *IntervalHandler {
	return &IntervalHandler{store: store, logger: logger}
}

func (h *IntervalHandler) Routes() []string {
	return []string{"GET /api/interval", "POST /api/interval"}
}

func (h *IntervalHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		ms, err := h.store.SyncInterval()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"interval_ms": ms})

	case http.MethodPost:
		var body struct {
			IntervalMs int64 `json:"interval_ms"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "malformed body", http.StatusBadRequest)
			return
		}
		if body.IntervalMs < 0 {
			http.Error(w, "interval must not be negative", http.StatusBadRequest)
			return
		}
		if err := h.store.SetSyncInterval(body.IntervalMs); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Info("sync interval updated", "interval_ms", body.IntervalMs)
		writeJSON(w, http.StatusOK, map[string]int64{"interval_ms": body.IntervalMs})
	}
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

var _ Handler = (*HealthHandler)(nil)

func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
