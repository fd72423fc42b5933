package models

// Role is the set of roles the identity service may issue on a token. The
// engine only needs to distinguish administrative operations from ordinary
// ones; fine-grained role taxonomy beyond that lives in the identity service.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleTeacher    Role = "TEACHER"
)

// JWTClaims is the set of bearer-token claims the engine trusts. InstitutionID
// is authoritative for multi-tenancy: handlers must use it over anything in
// the request body.
type JWTClaims struct {
	Subject       string `json:"sub"`
	InstitutionID string `json:"institution_id"`
	Role          Role   `json:"role"`
}

// IsAdmin reports whether the caller may perform administrative operations
// such as deleting a schedule generation.
func (c JWTClaims) IsAdmin() bool {
	return c.Role == RoleSuperAdmin || c.Role == RoleAdmin
}
