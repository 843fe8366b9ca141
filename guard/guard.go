package guard

import (
	"context"
	"net/url"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/policy"
)

// Action defines a public type used by goSession APIs.
//
// Action instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Action uint8

const (
	// ActionAllow is an exported constant or variable used by the session engine.
	ActionAllow Action = iota
	// ActionRedirect is an exported constant or variable used by the session engine.
	ActionRedirect
	// ActionPending is an exported constant or variable used by the session engine.
	ActionPending
)

// String describes the string operation and its observable behavior.
func (a Action) String() string {
	switch a {
	case ActionRedirect:
		return "redirect"
	case ActionPending:
		return "pending"
	}
	return "allow"
}

// Requirement is the static descriptor attached to a route. The zero value
// declares a public route.
type Requirement struct {
	// RequireAuth marks the route as login-only with no further demands.
	// Any non-empty Roles, RequireVerifiedEmail, or Level beyond basic
	// implies it.
	RequireAuth          bool
	Roles                []policy.Role
	RequireVerifiedEmail bool
	Level                policy.AccessLevel
}

// restricted reports whether the route demands anything of the visitor.
func (r Requirement) restricted() bool {
	return r.RequireAuth ||
		len(r.Roles) > 0 ||
		r.RequireVerifiedEmail ||
		!policy.LevelAtLeast(policy.LevelBasic, r.Level)
}

// Decision defines a public type used by goSession APIs.
//
// Decision instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Decision struct {
	Action Action
	// Target is the redirect destination when Action is ActionRedirect.
	Target string
}

func allow() Decision {
	return Decision{Action: ActionAllow}
}

func pending() Decision {
	return Decision{Action: ActionPending}
}

func redirect(target string) Decision {
	return Decision{Action: ActionRedirect, Target: target}
}

// Guard defines a public type used by goSession APIs.
//
// Guard instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Guard struct {
	sessions *goSession.Manager
	config   goSession.GuardConfig
}

// New describes the new operation and its observable behavior.
func New(sessions *goSession.Manager) *Guard {
	return &Guard{
		sessions: sessions,
		config:   sessions.GuardConfig(),
	}
}

// Evaluate decides whether the requested route may render. While the session
// is restoring it waits, bounded by the configured wait timeout; on timeout
// the configured policy applies. Navigating away (cancelling ctx) yields
// Pending — the underlying session work continues, but no decision is forced
// against a dead navigation.
func (g *Guard) Evaluate(ctx context.Context, req Requirement, requestedPath string) Decision {
	if ctx == nil {
		ctx = context.Background()
	}

	switch g.sessions.State() {
	case goSession.StateUnknown, goSession.StateRestoring:
		timer := time.NewTimer(g.config.WaitTimeout)
		defer timer.Stop()

		select {
		case <-g.sessions.Ready():
		case <-ctx.Done():
			return pending()
		case <-timer.C:
			g.sessions.Metrics().Inc(goSession.MetricGuardTimeout)
			if g.config.TimeoutPolicy == goSession.FailOpen {
				return g.count(allow())
			}
			return g.count(redirect(g.loginTarget(requestedPath)))
		}
	}

	return g.count(g.decide(req, requestedPath))
}

// Check is the non-blocking variant of [Guard.Evaluate]: an unresolved
// session reports Pending immediately, for callers driving their own retry
// or spinner.
func (g *Guard) Check(req Requirement, requestedPath string) Decision {
	switch g.sessions.State() {
	case goSession.StateUnknown, goSession.StateRestoring:
		return pending()
	}
	return g.count(g.decide(req, requestedPath))
}

func (g *Guard) decide(req Requirement, requestedPath string) Decision {
	if !g.sessions.IsAuthenticated() {
		if !req.restricted() {
			return allow()
		}
		return redirect(g.loginTarget(requestedPath))
	}

	user, ok := g.sessions.User()
	if !ok {
		// Authenticated without a snapshot cannot happen through Manager
		// transitions; treat it as a session fault, not a render.
		return redirect(g.loginTarget(requestedPath))
	}

	if len(req.Roles) > 0 && !roleAllowed(req.Roles, user.Role) {
		return redirect(g.dashboardFor(user.Role))
	}
	if req.RequireVerifiedEmail && !user.EmailVerified {
		return redirect(g.config.VerifyEmailPath)
	}
	if !g.sessions.CanAccessContent(req.Level) {
		return redirect(g.config.UpgradePath)
	}
	return allow()
}

// count records the decision outcome; access-denied redirects are silent for
// the user but still visible in metrics.
func (g *Guard) count(d Decision) Decision {
	switch d.Action {
	case ActionAllow:
		g.sessions.Metrics().Inc(goSession.MetricGuardAllow)
	case ActionRedirect:
		g.sessions.Metrics().Inc(goSession.MetricGuardRedirect)
	}
	return d
}

// loginTarget preserves the originally requested path so navigation resumes
// after authentication.
func (g *Guard) loginTarget(requestedPath string) string {
	if requestedPath == "" {
		return g.config.LoginPath
	}
	return g.config.LoginPath + "?" + g.config.RedirectParam + "=" + url.QueryEscape(requestedPath)
}

func (g *Guard) dashboardFor(role policy.Role) string {
	if path, ok := g.config.Dashboards[role]; ok {
		return path
	}
	return g.config.Dashboards[policy.RoleStudent]
}

func roleAllowed(allowed []policy.Role, role policy.Role) bool {
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
