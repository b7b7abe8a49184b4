package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// TravelerRepository handles traveler database operations. Travelers are
// exclusively owned by their application; the schema cascades deletes.
type TravelerRepository struct {
	db DB
}

// NewTravelerRepository creates a new traveler repository
func NewTravelerRepository(db DB) *TravelerRepository {
	return &TravelerRepository{db: db}
}

const travelerColumns = `id, application_id, full_name, date_of_birth, email,
	       passport_nationality, passport_number, passport_expiry_date,
	       passport_issue_place, passport_issue_date, residence_country,
	       has_schengen_visa, add_passport_details_later, field_responses,
	       created_at, updated_at`

func scanTraveler(row *sql.Row) (*models.Traveler, error) {
	var t models.Traveler
	err := row.Scan(
		&t.ID, &t.ApplicationID, &t.FullName, &t.DateOfBirth, &t.Email,
		&t.PassportNationality, &t.PassportNumber, &t.PassportExpiryDate,
		&t.PassportIssuePlace, &t.PassportIssueDate, &t.ResidenceCountry,
		&t.HasSchengenVisa, &t.AddPassportDetailsLater, &t.FieldResponses,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get traveler: %w", err)
	}
	return &t, nil
}

// GetByID retrieves a traveler by ID
func (r *TravelerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Traveler, error) {
	query := fmt.Sprintf(`SELECT %s FROM travelers WHERE id = $1`, travelerColumns)
	return scanTraveler(r.db.QueryRow(query, id))
}

// CountByApplication returns the number of travelers attached to an application
func (r *TravelerRepository) CountByApplication(ctx context.Context, applicationID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM travelers WHERE application_id = $1`

	var count int
	err := r.db.QueryRow(query, applicationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count travelers: %w", err)
	}

	return count, nil
}

// ListByApplication retrieves all travelers of an application in creation order
func (r *TravelerRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]*models.Traveler, error) {
	query := fmt.Sprintf(`SELECT %s FROM travelers WHERE application_id = $1 ORDER BY created_at ASC`, travelerColumns)

	var travelers []*models.Traveler
	err := r.db.Select(&travelers, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list travelers: %w", err)
	}

	return travelers, nil
}

// Create inserts a new traveler row
func (r *TravelerRepository) Create(ctx context.Context, t *models.Traveler) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	query := `
		INSERT INTO travelers (id, application_id, full_name, date_of_birth, email,
			passport_nationality, passport_number, passport_expiry_date,
			passport_issue_place, passport_issue_date, residence_country,
			has_schengen_visa, add_passport_details_later, field_responses,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query,
		t.ID,
		t.ApplicationID,
		t.FullName,
		t.DateOfBirth,
		t.Email,
		t.PassportNationality,
		t.PassportNumber,
		t.PassportExpiryDate,
		t.PassportIssuePlace,
		t.PassportIssueDate,
		t.ResidenceCountry,
		t.HasSchengenVisa,
		t.AddPassportDetailsLater,
		t.FieldResponses,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create traveler: %w", err)
	}

	return nil
}

// UpdateGeneral patches the whitelisted general fields. Nil request fields
// leave the stored value untouched.
func (r *TravelerRepository) UpdateGeneral(ctx context.Context, id uuid.UUID, req models.TravelerUpdateRequest) error {
	query := `
		UPDATE travelers
		SET full_name = COALESCE($1, full_name),
		    date_of_birth = COALESCE($2, date_of_birth),
		    email = COALESCE($3, email),
		    updated_at = $4
		WHERE id = $5
	`

	_, err := r.db.Exec(query, req.FullName, req.DateOfBirth, req.Email, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update traveler: %w", err)
	}

	return nil
}

// UpdatePassport writes the full passport detail set and the refreshed
// field responses in one statement.
func (r *TravelerRepository) UpdatePassport(ctx context.Context, id uuid.UUID, req models.PassportUpdateRequest, responses models.FieldResponses) error {
	query := `
		UPDATE travelers
		SET passport_nationality = $1,
		    passport_number = $2,
		    passport_expiry_date = $3,
		    passport_issue_place = $4,
		    passport_issue_date = $5,
		    residence_country = $6,
		    has_schengen_visa = $7,
		    field_responses = $8,
		    updated_at = $9
		WHERE id = $10
	`

	_, err := r.db.Exec(query,
		req.PassportNationality,
		req.PassportNumber,
		req.PassportExpiryDate,
		req.PassportIssuePlace,
		req.PassportIssueDate,
		req.ResidenceCountry,
		req.HasSchengenVisa,
		responses,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update passport details: %w", err)
	}

	return nil
}

// Delete removes a traveler row
func (r *TravelerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM travelers WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete traveler: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete traveler: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
