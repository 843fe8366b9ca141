package goSession

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/policy"
)

// Manager defines a public type used by goSession APIs.
//
// Manager orchestrates the session lifecycle: login, logout, startup
// restoration, and coalesced silent refresh. It is the sole writer of the
// credential store and the owner of the user and subscription snapshots.
// Safe for concurrent use after [Builder.Build].
type Manager struct {
	config  Config
	api     AuthAPI
	subAPI  SubscriptionAPI
	creds   *credential.Store
	metrics *Metrics
	log     zerolog.Logger

	mu    sync.RWMutex
	state SessionState
	user  *UserSnapshot
	sub   policy.Subscription

	readyOnce sync.Once
	ready     chan struct{}

	refreshMu       sync.Mutex
	refreshing      *refreshCall
	refreshRejected bool
}

/*
====================================
ACCESSORS
====================================
*/

// State describes the state operation and its observable behavior.
func (m *Manager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the current user snapshot. The snapshot may be present while
// the session is still restoring (an optimistic read of the persisted copy);
// check [Manager.IsAuthenticated] before trusting it for gating.
func (m *Manager) User() (UserSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return UserSnapshot{}, false
	}
	return *m.user, true
}

// Subscription describes the subscription operation and its observable behavior.
func (m *Manager) Subscription() policy.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sub
}

// IsAuthenticated describes the isauthenticated operation and its observable behavior.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated || m.state == StateRefreshing
}

// AccessLevel recomputes the content-access level from the current session.
// The level is never cached: it is a pure function of authentication state
// and subscription, so it can never go stale.
func (m *Manager) AccessLevel() policy.AccessLevel {
	m.mu.RLock()
	authenticated := m.state == StateAuthenticated || m.state == StateRefreshing
	sub := m.sub
	m.mu.RUnlock()

	return policy.ResolveLevel(authenticated, sub)
}

// CanAccessContent describes the canaccesscontent operation and its observable behavior.
func (m *Manager) CanAccessContent(required policy.AccessLevel) bool {
	return policy.LevelAtLeast(m.AccessLevel(), required)
}

// HasRole reports whether the authenticated user's normalized role is one of
// the given roles. Anonymous sessions hold no role.
func (m *Manager) HasRole(roles ...policy.Role) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil || (m.state != StateAuthenticated && m.state != StateRefreshing) {
		return false
	}
	for _, role := range roles {
		if m.user.Role == role {
			return true
		}
	}
	return false
}

// ValidAccessToken exposes the store's skew-guarded token for API callers.
// Read-only: everything outside the Manager treats credentials as read-only.
func (m *Manager) ValidAccessToken() (string, bool) {
	return m.creds.ValidAccessToken()
}

// PersistenceEnabled describes the persistenceenabled operation and its observable behavior.
func (m *Manager) PersistenceEnabled() bool {
	return m.creds.PersistenceEnabled()
}

// Ready returns a channel closed once startup restoration has resolved to
// Authenticated or Anonymous (a completed login or logout also resolves it).
// Route guards bound their wait on this channel.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// GuardConfig describes the guardconfig operation and its observable behavior.
func (m *Manager) GuardConfig() GuardConfig {
	return cloneConfig(m.config).Guard
}

// Metrics describes the metrics operation and its observable behavior.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

/*
====================================
LOGIN / LOGOUT
====================================
*/

// Login authenticates against the backend. Rejections surface as
// [*AuthenticationError] with a user-displayable reason; transport failures
// wrap [ErrNetwork]. On success credentials are stored (persisted only when
// remember is true), snapshots are set — a subscription fetch failure is
// non-fatal and falls back to the free tier — and the session transitions to
// Authenticated.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (UserSnapshot, error) {
	cctx, cancel := m.callCtx(ctx)
	result, err := m.api.Login(cctx, email, password)
	cancel()
	if err != nil {
		m.metrics.Inc(MetricLoginFailure)
		return UserSnapshot{}, classifyLoginError(err)
	}

	if err := m.creds.SetCredentials(ctx, result.AccessToken, result.RefreshToken, remember); err != nil {
		m.metrics.Inc(MetricLoginFailure)
		m.log.Error().Err(err).Msg("goSession: login returned an undecodable access token")
		return UserSnapshot{}, err
	}

	user := newUserSnapshot(result.User)
	sub := m.fetchSubscription(ctx)

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = &user
	m.sub = sub
	m.mu.Unlock()

	m.setRefreshRejected(false)
	m.persistUserSnapshot(ctx, user)
	m.markReady()
	m.metrics.Inc(MetricLoginSuccess)
	m.log.Info().Str("user", user.ID).Str("role", string(user.Role)).Msg("goSession: login succeeded")
	return user, nil
}

// Logout invalidates the session server-side on a best-effort basis (a
// failure is logged, never blocks), then unconditionally clears credentials
// and snapshots and transitions to Anonymous.
func (m *Manager) Logout(ctx context.Context) {
	if token, ok := m.creds.ValidAccessToken(); ok {
		cctx, cancel := m.callCtx(ctx)
		if err := m.api.Logout(cctx, token); err != nil {
			m.log.Warn().Err(err).Msg("goSession: server-side logout failed, clearing locally")
		}
		cancel()
	}

	m.clearSession(ctx)
	m.metrics.Inc(MetricLogout)
	m.log.Info().Msg("goSession: logged out")
}

/*
====================================
INTERNALS
====================================
*/

// clearSession drops all local session state. Always succeeds.
func (m *Manager) clearSession(ctx context.Context) {
	m.creds.Clear(ctx)

	m.mu.Lock()
	m.state = StateAnonymous
	m.user = nil
	m.sub = policy.DefaultSubscription()
	m.mu.Unlock()

	m.markReady()
}

// fetchSubscription reads the current subscription when the backend exposes
// the capability. Any failure degrades to the free-tier default; the
// subscription service never blocks authentication.
func (m *Manager) fetchSubscription(ctx context.Context) policy.Subscription {
	if m.subAPI == nil {
		return policy.DefaultSubscription()
	}
	token, ok := m.creds.ValidAccessToken()
	if !ok {
		return policy.DefaultSubscription()
	}

	cctx, cancel := m.callCtx(ctx)
	defer cancel()

	apiSub, err := m.subAPI.CurrentSubscription(cctx, token)
	if err != nil {
		m.metrics.Inc(MetricSubscriptionFallback)
		m.log.Warn().Err(err).Msg("goSession: subscription fetch failed, defaulting to free tier")
		return policy.DefaultSubscription()
	}
	return newSubscription(apiSub)
}

func (m *Manager) persistUserSnapshot(ctx context.Context, user UserSnapshot) {
	raw, err := json.Marshal(user)
	if err != nil {
		m.log.Warn().Err(err).Msg("goSession: user snapshot serialization failed")
		return
	}
	if err := m.creds.StoreUserSnapshot(ctx, raw); err != nil {
		m.log.Warn().Err(err).Msg("goSession: user snapshot persistence failed")
	}
}

func (m *Manager) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, m.config.API.CallTimeout)
}

func (m *Manager) setState(state SessionState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func (m *Manager) setRefreshRejected(rejected bool) {
	m.refreshMu.Lock()
	m.refreshRejected = rejected
	m.refreshMu.Unlock()
}

func (m *Manager) refreshWasRejected() bool {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	return m.refreshRejected
}
