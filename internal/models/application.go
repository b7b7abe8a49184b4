package models

import (
	"time"

	"github.com/google/uuid"
)

// Application lifecycle statuses
const (
	ApplicationStatusDraft      = "draft"
	ApplicationStatusSubmitted  = "submitted"
	ApplicationStatusProcessing = "processing"
	ApplicationStatusApproved   = "approved"
	ApplicationStatusRejected   = "rejected"
)

// Sales statuses: an independent secondary workflow for sales tracking,
// never constrained by the lifecycle status.
const (
	SalesStatusNewLead   = "new_lead"
	SalesStatusContacted = "contacted"
	SalesStatusFollowUp  = "follow_up"
	SalesStatusConverted = "converted"
	SalesStatusLost      = "lost"
)

// ValidSalesStatus reports whether s is a recognised sales status.
func ValidSalesStatus(s string) bool {
	switch s {
	case SalesStatusNewLead, SalesStatusContacted, SalesStatusFollowUp,
		SalesStatusConverted, SalesStatusLost:
		return true
	}
	return false
}

// VisaApplication represents a visa application and its lifecycle state.
type VisaApplication struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	ApplicationNumber  string     `json:"application_number" db:"application_number"`
	CustomerID         uuid.UUID  `json:"customer_id" db:"customer_id"`
	Nationality        string     `json:"nationality" db:"nationality"`
	DestinationCountry string     `json:"destination_country" db:"destination_country"`
	VisaProductID      *uuid.UUID `json:"visa_product_id,omitempty" db:"visa_product_id"`
	VisaType           string     `json:"visa_type" db:"visa_type"`
	NumberOfTravelers  int        `json:"number_of_travelers" db:"number_of_travelers"`
	Status             string     `json:"status" db:"status"`
	SalesStatus        string     `json:"sales_status" db:"sales_status"`
	TotalFee           float64    `json:"total_fee" db:"total_fee"`
	AmountPaid         float64    `json:"amount_paid" db:"amount_paid"`
	RejectionReason    *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// CanAddTravelers reports whether travelers may be added in the current status.
func (a *VisaApplication) CanAddTravelers() bool {
	return a.Status == ApplicationStatusDraft || a.Status == ApplicationStatusSubmitted
}

// CanEditTravelers reports whether traveler fields may be edited in the
// current status. Editing stays open later than adding or deleting.
func (a *VisaApplication) CanEditTravelers() bool {
	switch a.Status {
	case ApplicationStatusDraft, ApplicationStatusSubmitted, ApplicationStatusProcessing:
		return true
	}
	return false
}

// CanDeleteTravelers reports whether travelers may be removed. Only drafts.
func (a *VisaApplication) CanDeleteTravelers() bool {
	return a.Status == ApplicationStatusDraft
}

// ApplicationCreateRequest represents the payload to open a new application
type ApplicationCreateRequest struct {
	CustomerID         uuid.UUID  `json:"customer_id" binding:"required"`
	Nationality        string     `json:"nationality" binding:"required"`
	DestinationCountry string     `json:"destination_country" binding:"required"`
	VisaProductID      *uuid.UUID `json:"visa_product_id"`
	VisaType           string     `json:"visa_type"`
	NumberOfTravelers  int        `json:"number_of_travelers" binding:"required,min=1"`
	TotalFee           float64    `json:"total_fee"`
}

// ApplicationRejectRequest carries the mandatory rejection reason
type ApplicationRejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SalesStatusUpdateRequest updates the independent sales workflow state
type SalesStatusUpdateRequest struct {
	SalesStatus string `json:"sales_status" binding:"required"`
}
