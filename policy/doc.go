// Package policy provides pure role normalization, subscription-tier to
// access-level resolution, and access-level ordering used by goSession
// authorization decisions.
//
// # Determinism
//
// Every function in this package is a pure function of its arguments: same
// inputs, same outputs, no clock reads, no I/O, no errors. Inputs are assumed
// to be pre-validated or defaulted by the caller; unrecognized values resolve
// to the least-privileged interpretation rather than failing.
//
// # Architecture boundaries
//
// This package is the single point where role strings and subscription tiers
// from any backend are canonicalized. Other packages compare [Role], [Tier],
// and [AccessLevel] values only — never raw strings.
//
// # What this package must NOT do
//
//   - Access the network, storage, or the session manager.
//   - Import goSession, credential, or guard (no upward imports).
//   - Return errors or panic on unrecognized input.
package policy
