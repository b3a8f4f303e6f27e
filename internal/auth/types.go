package auth

import "errors"

// Role represents an authorisation tier.
type Role string

const (
	// RoleViewer can read supplies, parameters and history.
	RoleViewer Role = "viewer"

	// RoleOperator can additionally write properties and parameters.
	RoleOperator Role = "operator"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Domain errors for the auth package.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
	ErrForbidden    = errors.New("insufficient permissions")
)
