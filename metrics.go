package goSession

import "sync/atomic"

// MetricID defines a public type used by goSession APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the session engine.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the session engine.
	MetricLoginFailure
	// MetricLogout is an exported constant or variable used by the session engine.
	MetricLogout
	// MetricRefreshSuccess is an exported constant or variable used by the session engine.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the session engine.
	MetricRefreshFailure
	// MetricRefreshRejected is an exported constant or variable used by the session engine.
	MetricRefreshRejected
	// MetricRefreshCoalesced is an exported constant or variable used by the session engine.
	MetricRefreshCoalesced
	// MetricRestoreAuthenticated is an exported constant or variable used by the session engine.
	MetricRestoreAuthenticated
	// MetricRestoreAnonymous is an exported constant or variable used by the session engine.
	MetricRestoreAnonymous
	// MetricSessionInvalidated is an exported constant or variable used by the session engine.
	MetricSessionInvalidated
	// MetricSubscriptionFallback is an exported constant or variable used by the session engine.
	MetricSubscriptionFallback
	// MetricGuardAllow is an exported constant or variable used by the session engine.
	MetricGuardAllow
	// MetricGuardRedirect is an exported constant or variable used by the session engine.
	MetricGuardRedirect
	// MetricGuardTimeout is an exported constant or variable used by the session engine.
	MetricGuardTimeout
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goSession APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by goSession APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	LoginSuccess         uint64
	LoginFailure         uint64
	Logout               uint64
	RefreshSuccess       uint64
	RefreshFailure       uint64
	RefreshRejected      uint64
	RefreshCoalesced     uint64
	RestoreAuthenticated uint64
	RestoreAnonymous     uint64
	SessionInvalidated   uint64
	SubscriptionFallback uint64
	GuardAllow           uint64
	GuardRedirect        uint64
	GuardTimeout         uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled
}

// Inc describes the inc operation and its observable behavior.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		LoginSuccess:         m.Value(MetricLoginSuccess),
		LoginFailure:         m.Value(MetricLoginFailure),
		Logout:               m.Value(MetricLogout),
		RefreshSuccess:       m.Value(MetricRefreshSuccess),
		RefreshFailure:       m.Value(MetricRefreshFailure),
		RefreshRejected:      m.Value(MetricRefreshRejected),
		RefreshCoalesced:     m.Value(MetricRefreshCoalesced),
		RestoreAuthenticated: m.Value(MetricRestoreAuthenticated),
		RestoreAnonymous:     m.Value(MetricRestoreAnonymous),
		SessionInvalidated:   m.Value(MetricSessionInvalidated),
		SubscriptionFallback: m.Value(MetricSubscriptionFallback),
		GuardAllow:           m.Value(MetricGuardAllow),
		GuardRedirect:        m.Value(MetricGuardRedirect),
		GuardTimeout:         m.Value(MetricGuardTimeout),
	}
}
