package policy

import "strings"

// Role defines a public type used by goSession APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RoleStudent is an exported constant or variable used by the session engine.
	RoleStudent Role = "student"
	// RoleInstructor is an exported constant or variable used by the session engine.
	RoleInstructor Role = "instructor"
	// RoleAdmin is an exported constant or variable used by the session engine.
	RoleAdmin Role = "admin"
)

// roleAliases folds the role spellings observed across backends into the
// canonical enum. Unknown spellings resolve to student.
var roleAliases = map[string]Role{
	"student":       RoleStudent,
	"learner":       RoleStudent,
	"instructor":    RoleInstructor,
	"teacher":       RoleInstructor,
	"tutor":         RoleInstructor,
	"admin":         RoleAdmin,
	"administrator": RoleAdmin,
	"superadmin":    RoleAdmin,
}

// NormalizeRole canonicalizes a raw role string: whitespace is trimmed,
// comparison is case-insensitive, and unrecognized values default to
// [RoleStudent]. NormalizeRole is idempotent.
func NormalizeRole(raw string) Role {
	key := strings.ToLower(strings.TrimSpace(raw))
	if role, ok := roleAliases[key]; ok {
		return role
	}
	return RoleStudent
}

// Valid reports whether r is one of the canonical role values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// String describes the string operation and its observable behavior.
func (r Role) String() string {
	return string(r)
}
