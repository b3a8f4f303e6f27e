// Package auth issues and validates the bearer tokens that guard psusim's
// write endpoints.
//
// Tokens are HS256 JWTs carrying a role. Roles map statically to
// permissions: a viewer may only read supplies, an operator may also write
// properties and update configuration parameters.
package auth
