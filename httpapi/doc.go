// Package httpapi implements the goSession AuthAPI collaborator over the
// platform's REST backend: login, refresh, current-user, subscription, and
// best-effort logout, with per-request timeouts, X-Request-ID correlation,
// and status-code mapping onto the goSession error taxonomy.
//
// # Error mapping
//
//   - login 401 → ErrInvalidCredentials; 423 → ErrAccountLocked; 403 with
//     code "email_unverified" → ErrEmailUnverified.
//   - refresh 401/403 → ErrRefreshRejected (authoritative); transport and 5xx
//     → ErrNetwork (transient).
//   - current-user 401 → ErrUnauthorized.
//   - subscription: any failure → ErrSubscriptionUnavailable.
//
// # What this package must NOT do
//
//   - Hold tokens. Callers pass the access token per call; the credential
//     store stays the single source of truth.
//   - Retry. Retry and backoff policy belongs to the session Manager.
package httpapi
