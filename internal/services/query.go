// Query proxy client. The proxy executes structured track queries and serves
// playlist metadata; this coordinator never evaluates queries itself.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// QueryService provides methods for making requests to the query proxy.
type QueryService struct {
	baseURL    string
	httpClient *http.Client
}

// NewQueryService creates a new query proxy client.
func NewQueryService(baseURL string, client *http.Client) *QueryService {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &QueryService{baseURL: baseURL, httpClient: client}
}

// get performs a GET request and decodes the JSON response into out.
func (q *QueryService) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Tracks evaluates a validated query spec for the given user.
func (q *QueryService) Tracks(ctx context.Context, userID string, spec models.QuerySpec) ([]models.Track, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	payload, err := json.Marshal(struct {
		UserID string           `json:"user_id"`
		Query  models.QuerySpec `json:"query"`
	}{userID, spec})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result struct {
		Tracks []models.Track `json:"tracks"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Tracks, nil
}

// PlaylistCount returns how many playlists the user has on the backend.
func (q *QueryService) PlaylistCount(ctx context.Context, userID string) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	path := "/playlists/count?user=" + url.QueryEscape(userID)
	if err := q.get(ctx, path, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// Context returns the opaque client context object for the user.
func (q *QueryService) Context(ctx context.Context, userID string) (map[string]any, error) {
	var result map[string]any
	path := "/context?user=" + url.QueryEscape(userID)
	if err := q.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SpecialPlaylist returns the tracks of the user's special playlist, used to
// warm the splaylist cache before periodic syncing begins.
func (q *QueryService) SpecialPlaylist(ctx context.Context, userID string) ([]models.Track, error) {
	var result struct {
		Tracks []models.Track `json:"tracks"`
	}
	path := "/playlists/special?user=" + url.QueryEscape(userID)
	if err := q.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Tracks, nil
}
