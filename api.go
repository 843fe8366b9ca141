package goSession

import "context"

// AuthAPI is the abstract collaborator the Manager drives. The concrete
// implementation is an HTTP client against the platform's REST backend (see
// the httpapi package); tests substitute fakes.
//
// Error contract: Login rejections map onto the sentinel taxonomy
// (ErrInvalidCredentials, ErrAccountLocked, ErrEmailUnverified). Refresh
// distinguishes authoritative rejection (ErrRefreshRejected — the token is
// dead, do not retry) from transport failure (ErrNetwork — the token may
// still be good). CurrentUser reports ErrUnauthorized for a 401-equivalent
// response. Logout is best-effort; its errors are logged, never acted on.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (RefreshResult, error)
	CurrentUser(ctx context.Context, accessToken string) (APIUser, error)
	Logout(ctx context.Context, accessToken string) error
}

// SubscriptionAPI is the optional capability a backend may expose. The
// Builder detects it once, at construction, via interface assertion on the
// provided [AuthAPI]; no per-call capability probing happens anywhere else.
// A backend without it is a valid configuration — the Manager falls back to
// the free-tier default subscription.
type SubscriptionAPI interface {
	CurrentSubscription(ctx context.Context, accessToken string) (APISubscription, error)
}
