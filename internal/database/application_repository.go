package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// ApplicationRepository handles visa application database operations
type ApplicationRepository struct {
	db DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, application_number, customer_id, nationality, destination_country,
	       visa_product_id, visa_type, number_of_travelers, status, sales_status,
	       total_fee, amount_paid, rejection_reason, created_at, updated_at`

func scanApplication(row *sql.Row) (*models.VisaApplication, error) {
	var a models.VisaApplication
	err := row.Scan(
		&a.ID, &a.ApplicationNumber, &a.CustomerID, &a.Nationality, &a.DestinationCountry,
		&a.VisaProductID, &a.VisaType, &a.NumberOfTravelers, &a.Status, &a.SalesStatus,
		&a.TotalFee, &a.AmountPaid, &a.RejectionReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &a, nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VisaApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM visa_applications WHERE id = $1`, applicationColumns)
	return scanApplication(r.db.QueryRow(query, id))
}

// GetByNumber retrieves an application by its unique application number
func (r *ApplicationRepository) GetByNumber(ctx context.Context, number string) (*models.VisaApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM visa_applications WHERE application_number = $1`, applicationColumns)
	return scanApplication(r.db.QueryRow(query, number))
}

// Create inserts a new application in draft status
func (r *ApplicationRepository) Create(ctx context.Context, app *models.VisaApplication) error {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}

	query := `
		INSERT INTO visa_applications (id, application_number, customer_id, nationality, destination_country,
			visa_product_id, visa_type, number_of_travelers, status, sales_status,
			total_fee, amount_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query,
		app.ID,
		app.ApplicationNumber,
		app.CustomerID,
		app.Nationality,
		app.DestinationCountry,
		app.VisaProductID,
		app.VisaType,
		app.NumberOfTravelers,
		app.Status,
		app.SalesStatus,
		app.TotalFee,
		app.AmountPaid,
	).Scan(&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return nil
}

// UpdateStatus advances the lifecycle status. The rejection reason is only
// written for rejected transitions; transition legality lives in the service.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, rejectionReason *string) error {
	query := `
		UPDATE visa_applications
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := r.db.Exec(query, status, rejectionReason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}

	return nil
}

// UpdateSalesStatus updates the independent sales workflow state
func (r *ApplicationRepository) UpdateSalesStatus(ctx context.Context, id uuid.UUID, salesStatus string) error {
	query := `
		UPDATE visa_applications
		SET sales_status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, salesStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update sales status: %w", err)
	}

	return nil
}

// ListByCustomer retrieves a customer's applications, newest first
func (r *ApplicationRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.VisaApplication, error) {
	query := fmt.Sprintf(`SELECT %s FROM visa_applications WHERE customer_id = $1 ORDER BY created_at DESC`, applicationColumns)

	var apps []*models.VisaApplication
	err := r.db.Select(&apps, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}
