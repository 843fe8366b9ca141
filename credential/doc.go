// Package credential provides the authoritative token store for goSession:
// the access/refresh token pair, the expiry decoded from the access token's
// exp claim, and the versioned persisted layout with a single legacy
// fallback reader.
//
// # Expiry is decoded, never guessed
//
// A record's expiry always comes from the access token's embedded exp claim
// (decoded without signature verification — the client holds no key; the
// server verifies). A persisted expiry timestamp is display metadata only and
// is never trusted over the token itself.
//
// # Degrade, don't throw
//
// Malformed persisted state reads as "no session": it is logged, the medium
// is cleared, and [Store.ValidAccessToken] reports absence. Decode errors
// never propagate past [Store.Load]. Only [Store.SetCredentials] surfaces
// [ErrMalformedToken], because its caller handed the bad token in directly.
//
// # Architecture boundaries
//
// This package owns credential material and the persisted schema. It does NOT
// call the network, fetch user snapshots, or decide access levels — those
// responsibilities belong to the session Manager and the policy package.
//
// # What this package must NOT do
//
//   - Verify token signatures or mint tokens.
//   - Import goSession, policy, or guard (no upward imports).
//   - Expose a token past its decoded expiry, whatever the medium holds.
package credential
