package hierarchy

// Role name constants for the four seeded system roles. The hierarchy is
// keyed by role name, not by role id, so it holds across organizations.
const (
	RoleOrgAdmin = "org_admin"
	RoleAdmin    = "admin"
	RoleTeamer   = "teamer"
	RoleKonfi    = "konfi"
)

// levels assigns a numeric rank to each system role name. Unknown names
// resolve to 0. The table is never mutated after process start.
var levels = map[string]int{
	RoleOrgAdmin: 4,
	RoleAdmin:    3,
	RoleTeamer:   2,
	RoleKonfi:    1,
}

// Level returns the hierarchy rank for a role name, 0 for unknown names.
func Level(roleName string) int {
	return levels[roleName]
}

// CanManageRole reports whether a user with the actor role may view, edit or
// delete a user holding the target role. The rule order matters:
//
//  1. org_admin manages everything.
//  2. admin manages everything except org_admins and fellow admins.
//  3. teamer manages everything below teamer.
//  4. any other role falls back to a strict numeric comparison.
//
// Note that rule 4 means two users sharing an unrecognized custom role can
// never manage each other (0 > 0 is false).
func CanManageRole(actorRole, targetRole string) bool {
	switch actorRole {
	case RoleOrgAdmin:
		return true
	case RoleAdmin:
		return targetRole != RoleOrgAdmin && targetRole != RoleAdmin
	case RoleTeamer:
		return targetRole != RoleOrgAdmin && targetRole != RoleAdmin && targetRole != RoleTeamer
	default:
		return Level(actorRole) > Level(targetRole)
	}
}

// CanCreateRole reports whether the actor may create a user with, or assign a
// user to, the target role. The rule is identical to CanManageRole; it is
// exported separately so call sites say what they mean.
func CanCreateRole(actorRole, targetRole string) bool {
	return CanManageRole(actorRole, targetRole)
}

// RoleNamed is satisfied by any row that exposes its role name. Both users
// (joined with their role) and roles themselves qualify.
type RoleNamed interface {
	HierarchyRoleName() string
}

// FilterUsersByHierarchy retains only the users whose role the actor can
// manage. The input slice is not modified. List endpoints generally do NOT use
// this to hide rows; they show every row and mark editability per row instead.
func FilterUsersByHierarchy[T RoleNamed](users []T, actorRole string) []T {
	out := make([]T, 0, len(users))
	for _, u := range users {
		if CanManageRole(actorRole, u.HierarchyRoleName()) {
			out = append(out, u)
		}
	}
	return out
}

// FilterRolesByHierarchy retains only the roles the actor can manage.
func FilterRolesByHierarchy[T RoleNamed](roles []T, actorRole string) []T {
	out := make([]T, 0, len(roles))
	for _, r := range roles {
		if CanManageRole(actorRole, r.HierarchyRoleName()) {
			out = append(out, r)
		}
	}
	return out
}

// IsSystemRole reports whether the name belongs to one of the seeded roles
// that cannot be renamed or deleted.
func IsSystemRole(roleName string) bool {
	_, ok := levels[roleName]
	return ok
}
