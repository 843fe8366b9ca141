// Package goSession provides the client-side session and tiered-access core
// for an educational-platform front-end: credential persistence with JWT
// expiry tracking, a session lifecycle manager with coalesced silent refresh,
// a pure subscription-tier access resolver, and route-level access decisions.
//
// The package is designed for concurrent callers: Manager methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config],
// the [AuthAPI] collaborator contract, and value types (UserSnapshot,
// MetricsSnapshot, etc.). Cohesive units live in subpackages: credential
// (token store), storage (persistence media), policy (pure access
// resolution), guard (route decisions), httpapi (REST collaborator).
//
// # What this package must NOT do
//
//   - Verify or mint tokens — the backend owns credential verification; this
//     package only decodes expiry claims it is handed.
//   - Render, route, or hold UI state. Pages call Manager actions and read
//     policy decisions; everything else stays outside.
//   - Let a raw transport error escape to the UI layer untranslated. Every
//     downstream failure becomes a state transition or a typed error.
//
// # Failure posture
//
// The subscription service degrades to the free tier and never blocks
// authentication. Malformed persisted credentials degrade to "no session".
// Refresh rejection by the backend forces logout; transient network failure
// does not. Every network call carries an explicit timeout — the session
// manager must always resolve, never hang.
package goSession
