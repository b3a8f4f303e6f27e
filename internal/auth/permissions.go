package auth

import "fmt"

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermSupplyRead  Permission = "supply:read"
	PermSupplyWrite Permission = "supply:write"
	PermParamWrite  Permission = "param:write"
)

// rolePermissions maps each role to its granted permissions.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermSupplyRead,
	},
	RoleOperator: {
		PermSupplyRead,
		PermSupplyWrite,
		PermParamWrite,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden when role lacks perm.
func Authorize(role Role, perm Permission) error {
	if !HasPermission(role, perm) {
		return fmt.Errorf("%w: role %q lacks %s", ErrForbidden, role, perm)
	}
	return nil
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
