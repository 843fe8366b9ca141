package goSession

import (
	"encoding/json"
	"time"

	"github.com/MrEthical07/goSession/policy"
)

// SessionState represents the lifecycle state of the client session.
type SessionState uint8

const (
	// StateUnknown is an exported constant or variable used by the session engine.
	StateUnknown SessionState = iota
	// StateRestoring is an exported constant or variable used by the session engine.
	StateRestoring
	// StateAuthenticated is an exported constant or variable used by the session engine.
	StateAuthenticated
	// StateRefreshing is an exported constant or variable used by the session engine.
	StateRefreshing
	// StateAnonymous is an exported constant or variable used by the session engine.
	StateAnonymous
)

// String describes the string operation and its observable behavior.
func (s SessionState) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// UserSnapshot defines a public type used by goSession APIs.
//
// The role is canonicalized exactly once, where the snapshot is constructed;
// consumers compare the normalized value and never re-derive it from raw
// backend strings. Raw preserves backend fields pages may need.
type UserSnapshot struct {
	ID            string          `json:"id"`
	DisplayName   string          `json:"display_name"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"email_verified"`
	Role          policy.Role     `json:"role"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// newUserSnapshot is the single construction point for user snapshots; role
// normalization happens here and nowhere else.
func newUserSnapshot(user APIUser) UserSnapshot {
	return UserSnapshot{
		ID:            user.ID,
		DisplayName:   user.DisplayName,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Role:          policy.NormalizeRole(user.Role),
		Raw:           user.Raw,
	}
}

// newSubscription folds a collaborator subscription payload into the
// resolver's value type, canonicalizing tier and status spellings.
func newSubscription(sub APISubscription) policy.Subscription {
	days := sub.DaysRemaining
	if days < 0 {
		days = 0
	}
	return policy.Subscription{
		Tier:          policy.NormalizeTier(sub.Tier),
		Status:        policy.NormalizeStatus(sub.Status),
		Active:        sub.Active,
		DaysRemaining: days,
		EndDate:       sub.EndDate,
	}
}

// APIUser is the wire-level user payload returned by an [AuthAPI]
// implementation. The Manager converts it into a [UserSnapshot]; nothing else
// consumes it.
type APIUser struct {
	ID            string          `json:"id"`
	DisplayName   string          `json:"display_name"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"email_verified"`
	Role          string          `json:"role"`
	Raw           json.RawMessage `json:"-"`
}

// APISubscription is the wire-level subscription payload returned by a
// [SubscriptionAPI] implementation.
type APISubscription struct {
	Tier          string    `json:"tier"`
	Status        string    `json:"status"`
	Active        bool      `json:"is_active"`
	DaysRemaining int       `json:"days_remaining"`
	EndDate       time.Time `json:"end_date,omitzero"`
}

// LoginResult defines a public type used by goSession APIs.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         APIUser
}

// RefreshResult defines a public type used by goSession APIs.
//
// An empty RefreshToken means the backend did not rotate; the previous
// refresh token stays in effect.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}
