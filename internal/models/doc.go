// Package models defines domain entities shared across the sync coordinator.
//
// The package contains three categories of types:
//
// 1. Session state: [SessionEntry] and [Tier], the binding between a detected
// account and the UI surface displaying it.
//
// 2. Sync traffic: [SyncRequest] and [SyncAction], the outbound messages the
// coordinator emits to the backend sync engine.
//
// 3. Change notifications: [PlaylistChange] and [IntervalChange], the
// {old, new} pairs delivered by the storage watch streams.
//
// [QuerySpec] and [SplaylistCache] round out the set: the structured query
// submitted to the query proxy and the warmed special-playlist cache.
// Routing and scheduling logic lives in internal/router and
// internal/scheduler.
package models
