package policy

import (
	"strings"
	"time"
)

// Tier defines a public type used by goSession APIs.
//
// Tier instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Tier string

const (
	// TierFree is an exported constant or variable used by the session engine.
	TierFree Tier = "free"
	// TierBasic is an exported constant or variable used by the session engine.
	TierBasic Tier = "basic"
	// TierPremium is an exported constant or variable used by the session engine.
	TierPremium Tier = "premium"
)

// SubscriptionStatus defines a public type used by goSession APIs.
//
// SubscriptionStatus instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SubscriptionStatus string

const (
	// StatusActive is an exported constant or variable used by the session engine.
	StatusActive SubscriptionStatus = "active"
	// StatusCancelled is an exported constant or variable used by the session engine.
	StatusCancelled SubscriptionStatus = "cancelled"
	// StatusExpired is an exported constant or variable used by the session engine.
	StatusExpired SubscriptionStatus = "expired"
)

// AccessLevel defines a public type used by goSession APIs.
//
// AccessLevel instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccessLevel string

const (
	// LevelBasic is an exported constant or variable used by the session engine.
	LevelBasic AccessLevel = "basic"
	// LevelIntermediate is an exported constant or variable used by the session engine.
	LevelIntermediate AccessLevel = "intermediate"
	// LevelAdvanced is an exported constant or variable used by the session engine.
	LevelAdvanced AccessLevel = "advanced"
)

// Subscription is the resolver's view of a user's subscription. It carries
// display fields (DaysRemaining, EndDate) alongside the two inputs the access
// table actually consumes (Tier, Active).
type Subscription struct {
	Tier          Tier
	Status        SubscriptionStatus
	Active        bool
	DaysRemaining int
	EndDate       time.Time
}

// DefaultSubscription returns the free-tier fallback used whenever the
// subscription service is unavailable or the visitor is unauthenticated.
// The fallback exists for read-display purposes; gating decisions treat it
// identically to a real free subscription.
func DefaultSubscription() Subscription {
	return Subscription{
		Tier:   TierFree,
		Status: StatusActive,
		Active: true,
	}
}

// NormalizeTier canonicalizes a raw tier string. Unrecognized values resolve
// to [TierFree], the least-privileged tier.
func NormalizeTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierBasic:
		return TierBasic
	case TierPremium:
		return TierPremium
	}
	return TierFree
}

// NormalizeStatus canonicalizes a raw subscription status string.
// Unrecognized values resolve to [StatusExpired].
func NormalizeStatus(raw string) SubscriptionStatus {
	switch SubscriptionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive
	case StatusCancelled:
		return StatusCancelled
	}
	return StatusExpired
}

// ResolveLevel maps (authenticated, subscription) to an access level:
//
//	unauthenticated                  -> basic
//	free/basic tier, inactive        -> basic
//	free/basic tier, active          -> intermediate
//	premium tier, active             -> advanced
//	premium tier, inactive           -> intermediate (grace degrade)
//
// The premium-inactive row degrades one step instead of dropping to basic so
// that a lapsed premium subscriber keeps mid-tier content through the grace
// window. ResolveLevel always returns one of the three levels.
func ResolveLevel(authenticated bool, sub Subscription) AccessLevel {
	if !authenticated {
		return LevelBasic
	}
	if NormalizeTier(string(sub.Tier)) == TierPremium {
		if sub.Active {
			return LevelAdvanced
		}
		return LevelIntermediate
	}
	if sub.Active {
		return LevelIntermediate
	}
	return LevelBasic
}

// levelRank orders the three levels. Unrecognized levels rank as basic so a
// zero-value requirement always passes.
func levelRank(level AccessLevel) int {
	switch level {
	case LevelAdvanced:
		return 2
	case LevelIntermediate:
		return 1
	}
	return 0
}

// LevelAtLeast reports whether an access level satisfies a required level.
// Levels are totally ordered: basic < intermediate < advanced. A basic (or
// zero-value) requirement always passes.
func LevelAtLeast(have, need AccessLevel) bool {
	return levelRank(have) >= levelRank(need)
}
