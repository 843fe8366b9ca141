package goSession

import (
	"context"
	"errors"
	"time"
)

// refreshCall is the in-flight-refresh marker. Concurrent triggers wait on
// done and share ok instead of issuing redundant network calls.
type refreshCall struct {
	done chan struct{}
	ok   bool
}

// RefreshIfNeeded refreshes the access token, coalescing concurrent
// triggers: at most one refresh is in flight at a time, and every concurrent
// caller awaits that same outcome. Returns whether the session remains valid.
// An authoritative rejection tears the session down; a transient network
// failure keeps it as long as the held access token is still valid.
func (m *Manager) RefreshIfNeeded(ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	m.refreshMu.Lock()
	if call := m.refreshing; call != nil {
		m.refreshMu.Unlock()
		m.metrics.Inc(MetricRefreshCoalesced)
		select {
		case <-call.done:
			return call.ok
		case <-ctx.Done():
			return false
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	m.refreshing = call
	m.refreshMu.Unlock()

	call.ok = m.refreshOnce(ctx)

	m.refreshMu.Lock()
	m.refreshing = nil
	m.refreshMu.Unlock()
	close(call.done)
	return call.ok
}

func (m *Manager) refreshOnce(ctx context.Context) bool {
	refresh, hasRefresh := m.creds.RefreshToken()
	if !hasRefresh {
		if _, ok := m.creds.ValidAccessToken(); ok {
			return true
		}
		m.invalidateSession(ctx, "session expired with no refresh token")
		return false
	}

	if m.State() == StateAuthenticated {
		m.setState(StateRefreshing)
	}

	cctx, cancel := m.callCtx(ctx)
	result, err := m.api.Refresh(cctx, refresh)
	cancel()
	if err != nil {
		if errors.Is(err, ErrRefreshRejected) {
			m.metrics.Inc(MetricRefreshRejected)
			m.setRefreshRejected(true)
			m.invalidateSession(ctx, "refresh token rejected by backend")
			return false
		}
		// Transient failure: the session survives while the current access
		// token does.
		m.metrics.Inc(MetricRefreshFailure)
		m.log.Warn().Err(err).Msg("goSession: refresh failed transiently, keeping session")
		if m.State() == StateRefreshing {
			m.setState(StateAuthenticated)
		}
		_, stillValid := m.creds.ValidAccessToken()
		return stillValid
	}

	rotated := result.RefreshToken
	if rotated == "" {
		rotated = refresh
	}
	if err := m.creds.SetCredentials(ctx, result.AccessToken, rotated, m.creds.PersistenceEnabled()); err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		m.log.Error().Err(err).Msg("goSession: refresh returned an undecodable access token")
		m.invalidateSession(ctx, "refreshed access token undecodable")
		return false
	}

	m.setRefreshRejected(false)
	m.metrics.Inc(MetricRefreshSuccess)
	if m.State() == StateRefreshing {
		m.setState(StateAuthenticated)
	}
	return true
}

// HandleUnauthorized is the reactive hook for a 401-equivalent response from
// any downstream API call. When a refresh attempt has already been
// authoritatively rejected, the session is torn down immediately — no retry
// storms; otherwise one coalesced refresh decides. Unlike the timer-driven
// path, a server-side rejection with no refresh token to recover with is
// unrecoverable: a locally-valid access token the server keeps refusing must
// not keep the session alive.
func (m *Manager) HandleUnauthorized(ctx context.Context) bool {
	if m.refreshWasRejected() {
		m.invalidateSession(ctx, "unauthorized response after rejected refresh")
		return false
	}
	if _, ok := m.creds.RefreshToken(); !ok {
		m.invalidateSession(ctx, "unauthorized response with no refresh token")
		return false
	}
	return m.RefreshIfNeeded(ctx)
}

// AutoRefresh runs the silent-refresh timer until ctx is cancelled. Anonymous
// ticks are skipped; each active tick funnels through the same coalescing as
// reactive triggers.
func (m *Manager) AutoRefresh(ctx context.Context) {
	ticker := time.NewTicker(m.config.Refresh.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switch m.State() {
			case StateAnonymous, StateUnknown:
				continue
			}
			m.RefreshIfNeeded(ctx)
		}
	}
}

func (m *Manager) invalidateSession(ctx context.Context, reason string) {
	if ctx == nil {
		ctx = context.Background()
	}
	m.clearSession(ctx)
	m.metrics.Inc(MetricSessionInvalidated)
	m.log.Info().Str("reason", reason).Msg("goSession: session invalidated")
}
