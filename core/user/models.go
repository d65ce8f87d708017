package user

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/adminzone/backend/core"
)

// Roles
const (
	RoleAdmin     = "ROLE_ADMIN"
	RoleSecretary = "ROLE_SECRETARY"
	RoleProfessor = "ROLE_PROFESSOR"

	rolePrefix = "ROLE_"
)

// EntityName tags users in the audit log.
const EntityName = "User"

var AllRoles = []string{RoleAdmin, RoleSecretary, RoleProfessor}

// NormalizeRole turns "admin", "Admin" or "ROLE_ADMIN" into "ROLE_ADMIN".
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" || strings.HasPrefix(role, rolePrefix) {
		return role
	}
	return rolePrefix + role
}

// NormalizeRoles normalizes, de-duplicates and sorts roles.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = NormalizeRole(role)
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		normalized = append(normalized, role)
	}
	sort.Strings(normalized)
	return normalized
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

type User struct {
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	Enabled      bool      `json:"enabled"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		for _, r := range u.Roles {
			if r == role {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasAnyRole(RoleAdmin)
}

// auditPayload is the audited form of a user: never includes the password.
func (u User) auditPayload() map[string]interface{} {
	return map[string]interface{}{
		"username": u.Username,
		"enabled":  u.Enabled,
		"roles":    u.Roles,
	}
}

type NewUser struct {
	Username string   `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Password string   `json:"password" validate:"required"`
	Enabled  *bool    `json:"enabled"`
	Roles    []string `json:"roles" validate:"required,min=1,allroles"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Roles = NormalizeRoles(nu.Roles)
	return validate.Struct(nu)
}

type UpdateUser struct {
	Username string   `json:"-"` // from the path; used by the password policy
	Password string   `json:"password"`
	Enabled  *bool    `json:"enabled"`
	Roles    []string `json:"roles" validate:"omitempty,min=1,allroles"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	if uu.Roles != nil {
		uu.Roles = NormalizeRoles(uu.Roles)
	}
	return validate.Struct(uu)
}

type QueryFilter struct {
	// Search does a case-insensitive match on User.Username.
	Search  string `query:"q"`
	Role    string `query:"role"`
	Enabled *bool  `query:"enabled"`
}

func (f *QueryFilter) Clean() {
	f.Search = core.CleanString(f.Search, true /* lower */)
	if f.Role != "" {
		f.Role = NormalizeRole(f.Role)
	}
}
