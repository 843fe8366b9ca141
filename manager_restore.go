package goSession

import (
	"context"
	"encoding/json"

	"github.com/MrEthical07/goSession/policy"
)

// Restore re-establishes the session from persisted credentials at startup.
// With a valid access token it fetches a fresh user snapshot, allowing
// exactly one refresh-and-retry on failure; with only a refresh token it
// attempts one refresh, and an unreachable backend resolves this run to
// Anonymous without discarding the persisted record; with neither it resolves
// straight to Anonymous.
// Restore always completes — every network call it issues is bounded by the
// configured call timeout — and closes [Manager.Ready] on the way out.
func (m *Manager) Restore(ctx context.Context) SessionState {
	if ctx == nil {
		ctx = context.Background()
	}
	m.setState(StateRestoring)
	defer m.markReady()

	if err := m.creds.Load(ctx); err != nil {
		m.log.Warn().Err(err).Msg("goSession: credential load failed, restoring as anonymous")
	}
	m.adoptPersistedUser()

	if _, ok := m.creds.ValidAccessToken(); ok {
		if m.finishRestore(ctx) {
			return StateAuthenticated
		}
		if m.RefreshIfNeeded(ctx) && m.finishRestore(ctx) {
			return StateAuthenticated
		}
		return m.abandonRestore(ctx)
	}

	if _, ok := m.creds.RefreshToken(); ok {
		if m.RefreshIfNeeded(ctx) && m.finishRestore(ctx) {
			return StateAuthenticated
		}
		// An authoritative rejection has already wiped the refresh token; a
		// transient failure leaves it in place, and the persisted record must
		// survive for the next run.
		if _, ok := m.creds.RefreshToken(); ok {
			return m.suspendRestore()
		}
		return m.abandonRestore(ctx)
	}

	m.setState(StateAnonymous)
	m.metrics.Inc(MetricRestoreAnonymous)
	return StateAnonymous
}

// adoptPersistedUser surfaces the persisted user snapshot while the session
// is still restoring so consumers can render optimistically. The snapshot is
// replaced by a fresh fetch before the session counts as authenticated.
func (m *Manager) adoptPersistedUser() {
	raw, ok := m.creds.PersistedUser()
	if !ok {
		return
	}
	var user UserSnapshot
	if err := json.Unmarshal(raw, &user); err != nil {
		m.log.Warn().Err(err).Msg("goSession: persisted user snapshot corrupt, ignoring")
		return
	}
	// Persisted data is untrusted input; the role is canonicalized again at
	// this construction point.
	user.Role = policy.NormalizeRole(string(user.Role))

	m.mu.Lock()
	if m.user == nil {
		m.user = &user
	}
	m.mu.Unlock()
}

// finishRestore fetches a fresh user snapshot with the held access token and,
// on success, promotes the session to Authenticated.
func (m *Manager) finishRestore(ctx context.Context) bool {
	token, ok := m.creds.ValidAccessToken()
	if !ok {
		return false
	}

	cctx, cancel := m.callCtx(ctx)
	apiUser, err := m.api.CurrentUser(cctx, token)
	cancel()
	if err != nil {
		m.log.Warn().Err(err).Msg("goSession: user fetch during restore failed")
		return false
	}

	user := newUserSnapshot(apiUser)
	sub := m.fetchSubscription(ctx)

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = &user
	m.sub = sub
	m.mu.Unlock()

	m.setRefreshRejected(false)
	m.persistUserSnapshot(ctx, user)
	m.metrics.Inc(MetricRestoreAuthenticated)
	m.log.Info().Str("user", user.ID).Msg("goSession: session restored")
	return true
}

// suspendRestore resolves this run to Anonymous without touching the
// persisted record: the backend was unreachable, not hostile, so the
// remembered session stays available for the next start.
func (m *Manager) suspendRestore() SessionState {
	m.mu.Lock()
	m.state = StateAnonymous
	m.user = nil
	m.sub = policy.DefaultSubscription()
	m.mu.Unlock()

	m.metrics.Inc(MetricRestoreAnonymous)
	m.log.Info().Msg("goSession: backend unreachable during restore, keeping persisted session")
	return StateAnonymous
}

// abandonRestore clears an unusable persisted session and resolves to
// Anonymous.
func (m *Manager) abandonRestore(ctx context.Context) SessionState {
	m.clearSession(ctx)
	m.metrics.Inc(MetricRestoreAnonymous)
	m.log.Info().Msg("goSession: persisted session unusable, restored as anonymous")
	return StateAnonymous
}
