// Package sessions tracks which user accounts are active on which UI surfaces.
//
// The [Registry] holds at most one session per user, per surface, and per
// surface slot. Inserting a session whose surface or slot is already held by
// another user evicts the stale entry first. Sessions are only stored for the
// configured primary account; other detections return false from Upsert and
// leave the registry untouched.
//
// The registry mutates in-memory state only. It never triggers
// synchronization itself; the scheduler and message router read it.
package sessions
