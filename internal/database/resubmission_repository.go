package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// ResubmissionRepository persists admin-issued resubmission requests
type ResubmissionRepository struct {
	db DB
}

// NewResubmissionRepository creates a new resubmission repository
func NewResubmissionRepository(db DB) *ResubmissionRepository {
	return &ResubmissionRepository{db: db}
}

// Create inserts a resubmission request
func (r *ResubmissionRepository) Create(ctx context.Context, req *models.ResubmissionRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}

	query := `
		INSERT INTO resubmission_requests (id, application_id, traveler_id, note,
			product_field_ids, custom_fields, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRow(query,
		req.ID,
		req.ApplicationID,
		req.TravelerID,
		req.Note,
		pq.Array(req.ProductFieldIDs),
		req.CustomFields,
		req.RequestedBy,
	).Scan(&req.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resubmission request: %w", err)
	}

	return nil
}

// ListByApplication retrieves an application's resubmission requests,
// newest first
func (r *ResubmissionRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*models.ResubmissionRequest, error) {
	query := `
		SELECT id, application_id, traveler_id, note, product_field_ids,
		       custom_fields, requested_by, created_at
		FROM resubmission_requests
		WHERE application_id = $1
		ORDER BY created_at DESC
	`

	var requests []*models.ResubmissionRequest
	err := r.db.Select(&requests, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resubmission requests: %w", err)
	}

	return requests, nil
}
