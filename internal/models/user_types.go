package models

// Role is the caller's marketplace role, carried in the auth token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleArtisan  Role = "artisan"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleArtisan || r == RoleAdmin
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UID   string `json:"uid"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
