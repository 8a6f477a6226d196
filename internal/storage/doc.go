// Package storage implements the persistence collaborator for the coordinator.
//
// The [Store] interface covers three concerns:
//   - persisted scheduling config (last-sync timestamp, sync interval, onboarding flag)
//   - cached playlist records
//   - change-notification streams for the interval and for individual playlists
//
// [SQLiteStore] is the production implementation, backed by the SQLite schema
// in internal/shared/sql. Because the coordinator process is the only writer,
// change notifications are delivered by in-process fan-out rather than
// database triggers: every mutating call publishes an {old, new} pair to the
// matching watch stream.
package storage
