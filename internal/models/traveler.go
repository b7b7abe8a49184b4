package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Deferred-field keys tracked in FieldResponses when passport details are
// explicitly deferred at creation time.
const (
	FieldPassportNumber     = "passportNumber"
	FieldPassportExpiryDate = "passportExpiryDate"
	FieldResidenceCountry   = "residenceCountry"
	FieldHasSchengenVisa    = "hasSchengenVisa"
)

// FieldResponse records a deferred-field submission. A placeholder entry has
// an empty value and a nil SubmittedAt until the customer fills it in.
type FieldResponse struct {
	Value       string     `json:"value"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

// FieldResponses is a sparse mapping of deferred-field keys, stored as JSONB.
type FieldResponses map[string]FieldResponse

// Value implements driver.Valuer.
func (f FieldResponses) Value() (driver.Value, error) {
	if f == nil {
		return json.Marshal(FieldResponses{})
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *FieldResponses) Scan(src interface{}) error {
	if src == nil {
		*f = FieldResponses{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}
	return fmt.Errorf("unsupported type for FieldResponses: %T", src)
}

// Traveler represents a single traveler attached to a visa application.
// Passport fields are optional at creation; completeness is queryable via
// the completeness validator, never silently coerced.
type Traveler struct {
	ID                      uuid.UUID      `json:"id" db:"id"`
	ApplicationID           uuid.UUID      `json:"application_id" db:"application_id"`
	FullName                string         `json:"full_name" db:"full_name"`
	DateOfBirth             *time.Time     `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Email                   *string        `json:"email,omitempty" db:"email"`
	PassportNationality     *string        `json:"passport_nationality,omitempty" db:"passport_nationality"`
	PassportNumber          *string        `json:"passport_number,omitempty" db:"passport_number"`
	PassportExpiryDate      *time.Time     `json:"passport_expiry_date,omitempty" db:"passport_expiry_date"`
	PassportIssuePlace      *string        `json:"passport_issue_place,omitempty" db:"passport_issue_place"`
	PassportIssueDate       *time.Time     `json:"passport_issue_date,omitempty" db:"passport_issue_date"`
	ResidenceCountry        *string        `json:"residence_country,omitempty" db:"residence_country"`
	HasSchengenVisa         *bool          `json:"has_schengen_visa" db:"has_schengen_visa"` // tri-state: true/false/unknown
	AddPassportDetailsLater bool           `json:"add_passport_details_later" db:"add_passport_details_later"`
	FieldResponses          FieldResponses `json:"field_responses" db:"field_responses"`
	CreatedAt               time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at" db:"updated_at"`
}

// TravelerCreateRequest represents the payload to add a single traveler
type TravelerCreateRequest struct {
	FullName                string     `json:"full_name" binding:"required"`
	DateOfBirth             *time.Time `json:"date_of_birth"`
	Email                   *string    `json:"email"`
	PassportNationality     *string    `json:"passport_nationality"`
	PassportNumber          *string    `json:"passport_number"`
	PassportExpiryDate      *time.Time `json:"passport_expiry_date"`
	PassportIssuePlace      *string    `json:"passport_issue_place"`
	PassportIssueDate       *time.Time `json:"passport_issue_date"`
	ResidenceCountry        *string    `json:"residence_country"`
	HasSchengenVisa         *bool      `json:"has_schengen_visa"`
	AddPassportDetailsLater bool       `json:"add_passport_details_later"`
}

// TravelerBulkCreateRequest represents a batch of travelers. The first
// traveler is the batch's primary contact and must carry an email.
type TravelerBulkCreateRequest struct {
	Travelers []TravelerCreateRequest `json:"travelers" binding:"required,min=1"`
}

// TravelerUpdateRequest is the whitelist of general traveler fields that a
// patch may touch. Passport fields go through the passport update path.
type TravelerUpdateRequest struct {
	FullName    *string    `json:"full_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Email       *string    `json:"email"`
}

// PassportUpdateRequest carries the full passport detail set. Expiry must be
// strictly in the future.
type PassportUpdateRequest struct {
	PassportNationality string     `json:"passport_nationality" binding:"required"`
	PassportNumber      string     `json:"passport_number" binding:"required"`
	PassportExpiryDate  time.Time  `json:"passport_expiry_date" binding:"required"`
	PassportIssuePlace  *string    `json:"passport_issue_place"`
	PassportIssueDate   *time.Time `json:"passport_issue_date"`
	ResidenceCountry    string     `json:"residence_country" binding:"required"`
	HasSchengenVisa     *bool      `json:"has_schengen_visa"`
}
