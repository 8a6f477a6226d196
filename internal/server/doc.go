// Package server provides the HTTP ingress for the sync coordinator.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
// [MessageHandler] carries the inbound message protocol: UI surfaces POST
// JSON action requests to /api/message and identify their tab via the
// X-Surface-ID header. Actions that answer through side effects alone
// complete with 204 No Content; actions with a payload hold the connection
// until the router produces it.
//
// [StatusHandler] exposes the schedule state and session snapshot consumed by
// the sessions command and the TUI. [HealthHandler] answers liveness probes.
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib
// handler interface and adds Routes, letting a handler encapsulate its own
// route definitions.
package server
