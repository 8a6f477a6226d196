// Client-side actions that talk to a running daemon over its HTTP ingress.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/desertthunder/plsync/internal/server"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// fetchStatus retrieves the daemon's status snapshot.
func (r *Runner) fetchStatus() (server.Status, error) {
	var status server.Status

	resp, err := r.httpClient.Get(r.daemonURL("/api/status"))
	if err != nil {
		return status, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return status, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return status, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return status, fmt.Errorf("failed to decode status: %w", err)
	}

	return status, nil
}

// IntervalGet prints the configured sync interval.
func (r *Runner) IntervalGet(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	resp, err := r.httpClient.Get(r.daemonURL("/api/interval"))
	if err != nil {
		return fmt.Errorf("%w: is the daemon running? %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	var result struct {
		IntervalMs int64 `json:"interval_ms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return r.writePlain("%d\n", result.IntervalMs)
}

// IntervalSet reconfigures the sync interval through the daemon so the
// scheduler observes the change immediately.
func (r *Runner) IntervalSet(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	raw := cmd.Args().First()
	if raw == "" {
		return fmt.Errorf("%w: interval in milliseconds", shared.ErrMissingArgument)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms < 0 {
		return fmt.Errorf("%w: %q is not a valid interval", shared.ErrInvalidInput, raw)
	}

	payload, _ := json.Marshal(map[string]int64{"interval_ms": ms})
	resp, err := r.httpClient.Post(r.daemonURL("/api/interval"), "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: is the daemon running? %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if ms == 0 {
		return r.writePlain("Periodic syncing disabled.\n")
	}
	return r.writePlain("Sync interval set to %dms.\n", ms)
}

// Sessions prints the daemon's schedule state and session list.
func (r *Runner) Sessions(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	status, err := r.fetchStatus()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlain("schedule: %s (interval %dms)\n", status.State, status.IntervalMs)
	if !status.LastSyncAt.IsZero() {
		r.writePlain("last sync: %s\n", status.LastSyncAt)
	}
	if len(status.Sessions) == 0 {
		return r.writePlain("no sessions detected\n")
	}
	for _, entry := range status.Sessions {
		r.writePlain("%s\tsurface=%d\tslot=%d\ttier=%s\n", entry.UserID, entry.SurfaceID, entry.SessionIndex, entry.Tier)
	}
	return nil
}
