package auth

// Roles recognized by the permission system.  The bootstrap admin account is
// created with RoleAdmin at registration; everyone else starts as RoleUser
// and can be promoted by an admin.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Account statuses.  Non-admin accounts must be approved before login.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Identity is the authenticated caller attached to the request context by
// the JWT middleware.  Handlers read it instead of parsing claims themselves.
type Identity struct {
	ID    uint64
	Email string
	Role  string
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsModerator reports whether the identity carries the moderator role.
func (i Identity) IsModerator() bool { return i.Role == RoleModerator }

// ValidRole reports whether s is one of the recognized roles.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleModerator || s == RoleAdmin
}

// ValidStatus reports whether s is one of the recognized account statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved
}
