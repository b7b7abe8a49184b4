package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Admin roles
const (
	RoleSuperadmin = "superadmin"
	RoleSubadmin   = "subadmin"
)

// PermissionFlag identifies one of the nine functional areas a subadmin
// can be granted access to.
type PermissionFlag string

const (
	PermCountries      PermissionFlag = "countries"
	PermVisaProducts   PermissionFlag = "visaProducts"
	PermNationalities  PermissionFlag = "nationalities"
	PermEmbassies      PermissionFlag = "embassies"
	PermCoupons        PermissionFlag = "coupons"
	PermAdditionalInfo PermissionFlag = "additionalInfo"
	PermCustomers      PermissionFlag = "customers"
	PermApplications   PermissionFlag = "applications"
	PermFinances       PermissionFlag = "finances"
)

// Permissions is the closed set of permission flags assigned to a subadmin.
// Superadmins never carry a permission set; their role bypasses the check.
type Permissions struct {
	Countries      bool `json:"countries"`
	VisaProducts   bool `json:"visaProducts"`
	Nationalities  bool `json:"nationalities"`
	Embassies      bool `json:"embassies"`
	Coupons        bool `json:"coupons"`
	AdditionalInfo bool `json:"additionalInfo"`
	Customers      bool `json:"customers"`
	Applications   bool `json:"applications"`
	Finances       bool `json:"finances"`
}

// Has reports whether the given flag is granted. Unknown flags are denied.
func (p Permissions) Has(flag PermissionFlag) bool {
	switch flag {
	case PermCountries:
		return p.Countries
	case PermVisaProducts:
		return p.VisaProducts
	case PermNationalities:
		return p.Nationalities
	case PermEmbassies:
		return p.Embassies
	case PermCoupons:
		return p.Coupons
	case PermAdditionalInfo:
		return p.AdditionalInfo
	case PermCustomers:
		return p.Customers
	case PermApplications:
		return p.Applications
	case PermFinances:
		return p.Finances
	}
	return false
}

// Value implements driver.Valuer so the permission set is stored as JSONB.
func (p Permissions) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for reading the JSONB permission column.
func (p *Permissions) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return fmt.Errorf("unsupported type for Permissions: %T", src)
}

// Admin represents an administrator account. Subadmins carry a concrete
// permission set; for superadmins Permissions is nil and ignored.
type Admin struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	FullName     string       `json:"full_name" db:"full_name"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"` // Never expose password hash in JSON
	Role         string       `json:"role" db:"role"`
	Permissions  *Permissions `json:"permissions,omitempty" db:"permissions"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// Sanitize strips credential material before the record crosses the auth
// boundary. Returns the receiver for chaining.
func (a *Admin) Sanitize() *Admin {
	a.PasswordHash = ""
	return a
}

// IsSuperadmin reports whether the admin bypasses permission checks.
func (a *Admin) IsSuperadmin() bool {
	return a.Role == RoleSuperadmin
}

// AdminRegisterRequest represents the superadmin registration payload
type AdminRegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AdminLoginRequest represents the login request payload
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// AdminLoginResponse represents the login response
type AdminLoginResponse struct {
	Token string `json:"token"`
	Admin *Admin `json:"admin"`
}

// SubadminCreateRequest represents the request to create a subadmin account
type SubadminCreateRequest struct {
	FullName    string      `json:"full_name" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Password    string      `json:"password" binding:"required,min=8"`
	Permissions Permissions `json:"permissions"`
}

// SubadminPermissionsUpdateRequest represents a permission set update
type SubadminPermissionsUpdateRequest struct {
	Permissions Permissions `json:"permissions" binding:"required"`
}

// SubadminPasswordResetRequest represents a superadmin resetting a subadmin password
type SubadminPasswordResetRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// AdminChangePasswordRequest represents the change password request
type AdminChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
