// package services implements the coordinator's external collaborators:
// the sync engine sink, the query proxy client, auth/license lookups,
// the splaylist cache, telemetry, and UI surface affordances.
//
// The core packages (router, scheduler) depend only on small interfaces they
// define themselves; everything here is a concrete implementation wired in by
// cmd.
package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// decodeJSON reads and decodes a JSON response body into out.
func decodeJSON(resp *http.Response, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
