package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/policy"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Credentials CredentialConfig
	Refresh     RefreshConfig
	API         APIConfig
	Guard       GuardConfig
	Metrics     MetricsConfig
}

/*
====================================
CREDENTIAL CONFIG
====================================
*/

// CredentialConfig defines a public type used by goSession APIs.
//
// CredentialConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CredentialConfig struct {
	// ExpirySkew is subtracted from the decoded token expiry before the
	// token is considered usable, absorbing server-side clock drift.
	ExpirySkew time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by goSession APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	// Interval is the silent-refresh timer period for [Manager.AutoRefresh].
	Interval time.Duration
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by goSession APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	// CallTimeout bounds every network call the Manager issues, independent
	// of any timeout the underlying HTTP client carries. A call that
	// outlives it is treated as failed; the Manager never hangs on the
	// collaborator.
	CallTimeout time.Duration
}

/*
====================================
GUARD CONFIG
====================================
*/

// TimeoutPolicy decides what a route guard does when session restoration has
// not resolved within the wait window.
type TimeoutPolicy uint8

const (
	// FailClosed redirects to login on guard timeout. The safe default.
	FailClosed TimeoutPolicy = iota
	// FailOpen allows the route on guard timeout. A deliberate usability
	// trade-off that weakens enforcement; opt in knowingly.
	FailOpen
)

// String describes the string operation and its observable behavior.
func (p TimeoutPolicy) String() string {
	if p == FailOpen {
		return "fail-open"
	}
	return "fail-closed"
}

// GuardConfig defines a public type used by goSession APIs.
//
// GuardConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GuardConfig struct {
	// WaitTimeout is the hard bound on how long a guard decision waits for
	// session restoration before TimeoutPolicy applies.
	WaitTimeout   time.Duration
	TimeoutPolicy TimeoutPolicy

	// Redirect targets. Role mismatches land on the requester's own
	// dashboard, not a generic unauthorized page.
	LoginPath       string
	VerifyEmailPath string
	UpgradePath     string
	Dashboards      map[policy.Role]string

	// RedirectParam carries the originally requested path through the login
	// redirect so navigation resumes after authentication.
	RedirectParam string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULTS AND VALIDATION
====================================
*/

// DefaultConfig returns the baseline configuration: 30s expiry skew, 15m
// silent-refresh interval, 12s call timeout, 10s guard wait with fail-closed
// timeout policy, and the platform's conventional redirect paths.
func DefaultConfig() Config {
	return Config{
		Credentials: CredentialConfig{ExpirySkew: 30 * time.Second},
		Refresh:     RefreshConfig{Interval: 15 * time.Minute},
		API:         APIConfig{CallTimeout: 12 * time.Second},
		Guard: GuardConfig{
			WaitTimeout:     10 * time.Second,
			TimeoutPolicy:   FailClosed,
			LoginPath:       "/login",
			VerifyEmailPath: "/verify-email",
			UpgradePath:     "/pricing",
			Dashboards: map[policy.Role]string{
				policy.RoleStudent:    "/student/dashboard",
				policy.RoleInstructor: "/instructor/dashboard",
				policy.RoleAdmin:      "/admin/dashboard",
			},
			RedirectParam: "redirect",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	if c.Credentials.ExpirySkew < 0 || c.Credentials.ExpirySkew > 5*time.Minute {
		return errors.New("invalid expiry skew configuration")
	}
	if c.Refresh.Interval < time.Minute || c.Refresh.Interval > 24*time.Hour {
		return errors.New("invalid refresh interval configuration")
	}
	if c.API.CallTimeout < time.Second || c.API.CallTimeout > time.Minute {
		return errors.New("invalid API call timeout configuration")
	}
	if c.Guard.WaitTimeout < time.Second || c.Guard.WaitTimeout > time.Minute {
		return errors.New("invalid guard wait timeout configuration")
	}
	if c.Guard.TimeoutPolicy != FailClosed && c.Guard.TimeoutPolicy != FailOpen {
		return errors.New("invalid guard timeout policy configuration")
	}
	if c.Guard.LoginPath == "" || c.Guard.VerifyEmailPath == "" || c.Guard.UpgradePath == "" {
		return errors.New("guard redirect paths must be configured")
	}
	if c.Guard.RedirectParam == "" {
		return errors.New("guard redirect parameter must be configured")
	}
	for _, role := range []policy.Role{policy.RoleStudent, policy.RoleInstructor, policy.RoleAdmin} {
		if c.Guard.Dashboards[role] == "" {
			return errors.New("guard dashboards must cover every role")
		}
	}
	return nil
}

// cloneConfig deep-copies the map-carrying sections so a caller mutating its
// Config after Build cannot alter a live Manager.
func cloneConfig(c Config) Config {
	out := c
	out.Guard.Dashboards = make(map[policy.Role]string, len(c.Guard.Dashboards))
	for role, path := range c.Guard.Dashboards {
		out.Guard.Dashboards[role] = path
	}
	return out
}
