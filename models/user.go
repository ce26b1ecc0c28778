package models

const (
	RoleAdmin      = "admin"
	RoleTechnician = "technicien"
	RoleSales      = "commercial"
)

// User is an account as managed from the users page.
type User struct {
	ID              int          `json:"id,omitempty"`
	Username        string       `json:"username" validate:"required"`
	Email           string       `json:"email" validate:"required,email"`
	Password        string       `json:"password,omitempty" validate:"omitempty,min=8"`
	Role            string       `json:"role,omitempty"`
	RoleWrite       string       `json:"role_write,omitempty" validate:"omitempty,oneof=admin technicien commercial"`
	IsStaff         bool         `json:"is_staff"`
	IsActive        bool         `json:"is_active"`
	Phone           *string      `json:"phone,omitempty"`
	PagePermissions []string     `json:"page_permissions"`
	Profile         *UserProfile `json:"profile,omitempty"`
}

type UserProfile struct {
	Role            string   `json:"role,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	PagePermissions []string `json:"page_permissions,omitempty"`
}

// EffectiveRole resolves the role from the places the backend may put it.
func (u User) EffectiveRole() string {
	if u.Role != "" {
		return u.Role
	}
	if u.Profile != nil && u.Profile.Role != "" {
		return u.Profile.Role
	}
	if u.RoleWrite != "" {
		return u.RoleWrite
	}
	return RoleSales
}

// AuthUser is the signed-in user cached alongside the tokens.
type AuthUser struct {
	ID              int          `json:"id"`
	Username        string       `json:"username"`
	Email           string       `json:"email"`
	Role            string       `json:"role"`
	PagePermissions []string     `json:"page_permissions"`
	Profile         *UserProfile `json:"profile,omitempty"`
}

// IsAdmin reports whether the user sees the admin-only collections.
func (u AuthUser) IsAdmin() bool { return u.Role == RoleAdmin }

// LoginResponse is the body of POST /api/auth/login/.
type LoginResponse struct {
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	User    AuthUser `json:"user"`
}

// Normalize fills role and page permissions from the nested profile when the top
// level omits them; a missing role means admin, as the backend did historically.
func (r *LoginResponse) Normalize() {
	u := &r.User
	if u.Role == "" && u.Profile != nil {
		u.Role = u.Profile.Role
	}
	if u.Role == "" {
		u.Role = RoleAdmin
	}
	if u.PagePermissions == nil && u.Profile != nil {
		u.PagePermissions = u.Profile.PagePermissions
	}
}

type PasswordChange struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type ProfileUpdate struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}
