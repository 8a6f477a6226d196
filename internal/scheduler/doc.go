// Package scheduler owns the decision of when periodic full-sync runs occur.
//
// The schedule is drift-corrected: the next run is computed from the
// persisted last-sync timestamp plus the configured interval rather than from
// process start, so restarts do not reset the cadence. The interval itself is
// reconfigurable at any time through the storage watch stream, including
// while the initial deferred wait is outstanding.
//
// Initialize is callable any number of times but performs its effects (cache
// warm-up, timer arming) at most once per process lifetime. The warm-up is
// sequenced strictly before the first tick.
//
// Known limitation: a sync can be requested for a user whose local playlist
// setup has not finished (e.g. a playlist created immediately after sign-in
// detection). The backend tolerates this; no ordering is enforced here.
package scheduler
