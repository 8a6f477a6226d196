package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/oauth2"
)

// AuthService answers two questions for the coordinator: is the stored
// credential still usable, and what subscription tier does an account hold.
//
// Valid never starts an interactive flow. Token refresh through the
// [oauth2.TokenSource] is non-interactive; if that fails the answer is no.
type AuthService struct {
	source     oauth2.TokenSource
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewAuthService builds an AuthService from OAuth client credentials and a
// previously obtained token. token may be nil, in which case Valid always
// reports false. licenseURL is the base URL for tier lookups.
func NewAuthService(clientID, clientSecret, tokenURL string, token *oauth2.Token, licenseURL string, client *http.Client, logger *log.Logger) *AuthService {
	if client == nil {
		client = http.DefaultClient
	}

	var source oauth2.TokenSource
	if token != nil {
		conf := &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}
		source = conf.TokenSource(context.Background(), token)
	}

	return &AuthService{
		source:     source,
		baseURL:    licenseURL,
		httpClient: client,
		logger:     logger,
	}
}

// Valid reports whether a usable access token is available, refreshing it
// silently if possible.
func (a *AuthService) Valid(ctx context.Context) bool {
	if a.source == nil {
		return false
	}

	token, err := a.source.Token()
	if err != nil {
		a.logger.Debug("token refresh failed", "err", err)
		return false
	}
	return token.Valid()
}

// PrefetchLicense looks up the subscription tier for an account. Callers fire
// this in the background; the result only warms the backend's license cache
// and tags local state.
func (a *AuthService) PrefetchLicense(ctx context.Context, userID string) (models.Tier, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/license?user="+userID, nil)
	if err != nil {
		return models.TierFree, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return models.TierFree, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.TierFree, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result struct {
		Tier string `json:"tier"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		return models.TierFree, err
	}

	return models.ParseTier(result.Tier), nil
}
