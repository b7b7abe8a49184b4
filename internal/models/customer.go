package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer statuses
const (
	CustomerStatusActive    = "Active"
	CustomerStatusInactive  = "Inactive"
	CustomerStatusSuspended = "Suspended"
)

// Customer represents a visa-application customer. PasswordHash is nullable:
// records created by the manual sales flow have no password until the owner
// completes registration.
type Customer struct {
	ID             uuid.UUID `json:"id" db:"id"`
	FullName       string    `json:"fullname" db:"fullname"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   *string   `json:"-" db:"password_hash"` // Never expose password hash in JSON
	Status         string    `json:"status" db:"status"`
	Role           string    `json:"role" db:"role"`
	Phone          string    `json:"phone" db:"phone"`
	Nationality    string    `json:"nationality" db:"nationality"`
	PassportNumber string    `json:"passport_number" db:"passport_number"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Sanitize strips credential material before the record crosses the auth
// boundary. Returns the receiver for chaining.
func (c *Customer) Sanitize() *Customer {
	c.PasswordHash = nil
	return c
}

// CanAuthenticate reports whether the customer has a login-capable account.
func (c *Customer) CanAuthenticate() bool {
	return c.PasswordHash != nil && *c.PasswordHash != "" && c.Status == CustomerStatusActive
}

// CustomerRegisterRequest represents the customer registration payload
type CustomerRegisterRequest struct {
	FullName string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// CustomerRegisterResponse represents the registration response. Message
// distinguishes a brand-new account from a completed sales-flow record.
type CustomerRegisterResponse struct {
	Token    string    `json:"token"`
	Customer *Customer `json:"customer"`
	Message  string    `json:"message"`
}

// CustomerLoginRequest represents the customer login payload
type CustomerLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CustomerLoginResponse represents the customer login response
type CustomerLoginResponse struct {
	Token    string    `json:"token"`
	Customer *Customer `json:"customer"`
}

// CustomerChangePasswordRequest represents the change password request
type CustomerChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// CustomerChangeEmailRequest represents the change email request
type CustomerChangeEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
