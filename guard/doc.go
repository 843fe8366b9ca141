// Package guard derives route-level access decisions from the goSession
// Manager and the policy resolver: given a route's declared requirements, a
// guard answers Allow, Redirect, or Pending.
//
// # Bounded waiting
//
// While the session is still restoring, [Guard.Evaluate] waits on the
// Manager's Ready channel, hard-bounded by the configured wait timeout. On
// timeout the configured policy applies: fail-closed redirects to login,
// fail-open allows. [Guard.Check] is the non-blocking variant and reports
// Pending instead of waiting.
//
// # Architecture boundaries
//
// Guards consume session state and emit navigation decisions. They never
// throw: an unresolvable state is a redirect, not an error, because access
// denial is ordinary navigation, not a fault.
//
// # What this package must NOT do
//
//   - Mutate session state or credentials.
//   - Compare raw role strings — requirements carry canonical [policy.Role]
//     values.
//   - Block without a deadline.
package guard
