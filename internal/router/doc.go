// Package router translates external events into sync actions and responses.
//
// Two routers share the package:
//
// [ChangeRouter] subscribes to playlist-change notifications from storage and
// emits exactly one sync request per notification.
//
// [MessageRouter] is the single entry point for inbound action requests from
// UI surfaces and internal components. Each action is a total function from
// (message, sender) to an effect plus optional response. Handler failures
// follow a fixed taxonomy: unknown actions and missing preconditions are
// logged and telemetry-flagged no-ops, debugQuery failures are swallowed
// outright, and repeated scheduler initialization is a deliberate idempotent
// no-op. No handler error crashes the process.
//
// Known limitation: a sync request can be emitted for a user whose session or
// cache setup has not finished, e.g. a playlist created immediately after
// sign-in. The window is accepted rather than defended against here.
package router
