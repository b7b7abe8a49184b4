package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Custom field types an admin may attach to a resubmission request
const (
	CustomFieldText     = "text"
	CustomFieldNumber   = "number"
	CustomFieldDate     = "date"
	CustomFieldDropdown = "dropdown"
	CustomFieldUpload   = "upload"
)

// ValidCustomFieldType reports whether t is a recognised custom field type.
func ValidCustomFieldType(t string) bool {
	switch t {
	case CustomFieldText, CustomFieldNumber, CustomFieldDate, CustomFieldDropdown, CustomFieldUpload:
		return true
	}
	return false
}

// CustomField is an admin-defined ad-hoc field attached to a resubmission
// request, targeting either the whole application or a specific traveler.
type CustomField struct {
	Key              string     `json:"key"`
	Label            string     `json:"label"`
	Type             string     `json:"type"`
	Required         bool       `json:"required"`
	Options          []string   `json:"options,omitempty"` // dropdown choices
	MaxLength        *int       `json:"max_length,omitempty"`
	TargetTravelerID *uuid.UUID `json:"target_traveler_id,omitempty"`
}

// CustomFields is stored as a JSONB array.
type CustomFields []CustomField

// Value implements driver.Valuer.
func (c CustomFields) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(CustomFields{})
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *CustomFields) Scan(src interface{}) error {
	if src == nil {
		*c = CustomFields{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return fmt.Errorf("unsupported type for CustomFields: %T", src)
}

// ResubmissionRequest is an admin-issued annotation asking the customer to
// correct specific inputs. It never changes the application status itself.
type ResubmissionRequest struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	ApplicationID   uuid.UUID      `json:"application_id" db:"application_id"`
	TravelerID      *uuid.UUID     `json:"traveler_id,omitempty" db:"traveler_id"` // nil targets the whole application
	Note            string         `json:"note" db:"note"`
	ProductFieldIDs pq.StringArray `json:"product_field_ids" db:"product_field_ids"`
	CustomFields    CustomFields   `json:"custom_fields" db:"custom_fields"`
	RequestedBy     uuid.UUID      `json:"requested_by" db:"requested_by"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// ResubmissionCreateRequest represents the admin payload for a resubmission
type ResubmissionCreateRequest struct {
	TravelerID      *uuid.UUID    `json:"traveler_id"`
	Note            string        `json:"note" binding:"required"`
	ProductFieldIDs []string      `json:"product_field_ids"`
	CustomFields    []CustomField `json:"custom_fields"`
}
