package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/time/rate"
)

// SyncClient delivers [models.SyncRequest] values to the backend sync engine
// over HTTP. Submission is fire-and-forget: delivery happens on its own
// goroutine and failures are logged, never surfaced to the submitter.
//
// Outbound traffic is rate-limited so a burst of change events cannot flood
// the engine.
type SyncClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSyncClient creates a SyncClient. rps caps requests per second; zero or
// negative means 1 rps.
func NewSyncClient(baseURL string, client *http.Client, rps float64, logger *log.Logger) *SyncClient {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if rps <= 0 {
		rps = 1
	}

	return &SyncClient{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Submit queues a sync request for delivery and returns immediately. Delivery
// is detached from the caller's context: a submission made while handling an
// inbound request survives that request completing, even when it is still
// queued behind the rate limiter.
func (c *SyncClient) Submit(ctx context.Context, req models.SyncRequest) {
	go c.deliver(context.WithoutCancel(ctx), req)
}

func (c *SyncClient) deliver(ctx context.Context, req models.SyncRequest) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.Debug("sync request dropped", "reason", err)
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.logger.Error("failed to marshal sync request", "err", err)
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync", bytes.NewReader(body))
	if err != nil {
		c.logger.Error("failed to create sync request", "err", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", shared.GenerateID())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("sync request failed", "action", req.Action, "user", req.UserID, "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("sync engine rejected request", "action", req.Action, "status", resp.StatusCode)
	}
}
