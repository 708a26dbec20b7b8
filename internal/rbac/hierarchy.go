// Package rbac defines the fixed project role set, its total ordering, and
// the rank predicates used by membership and invitation operations.
package rbac

// RoleName is one of the fixed project role names.
type RoleName string

const (
	RoleOwner          RoleName = "owner"
	RoleAdmin          RoleName = "admin"
	RoleProjectManager RoleName = "project_manager"
	RoleMember         RoleName = "member"
	RoleContributor    RoleName = "contributor"
	RoleViewer         RoleName = "viewer"
	RoleGuest          RoleName = "guest"
)

// roleRanks gives each role an integer rank, strictly increasing with
// privilege. Unknown names rank 0, below every defined role.
var roleRanks = map[RoleName]int{
	RoleGuest:          1,
	RoleViewer:         2,
	RoleContributor:    3,
	RoleMember:         4,
	RoleProjectManager: 5,
	RoleAdmin:          6,
	RoleOwner:          7,
}

// AllRoles lists every role, highest rank first.
var AllRoles = []RoleName{
	RoleOwner,
	RoleAdmin,
	RoleProjectManager,
	RoleMember,
	RoleContributor,
	RoleViewer,
	RoleGuest,
}

// Rank returns the privilege rank of a role name. Unknown names return 0,
// so they can never manage any defined role but any defined role outranks
// them.
func Rank(role RoleName) int {
	return roleRanks[role]
}

// IsValid reports whether the name is one of the fixed roles.
func IsValid(role RoleName) bool {
	_, ok := roleRanks[role]
	return ok
}

// CanManageRole reports whether an actor holding actorRole may assign or
// invite targetRole. Management requires a strictly higher rank; no role
// can manage its own tier.
func CanManageRole(actorRole, targetRole RoleName) bool {
	return Rank(actorRole) > Rank(targetRole)
}

// HasHigherRole reports whether actorRole strictly outranks targetRole.
// Used to gate member removal.
func HasHigherRole(actorRole, targetRole RoleName) bool {
	return Rank(actorRole) > Rank(targetRole)
}
