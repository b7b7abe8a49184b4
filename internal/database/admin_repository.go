package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// ErrNotFound is returned when a lookup resolves no row.
var ErrNotFound = fmt.Errorf("record not found")

// AdminRepository handles admin account database operations
type AdminRepository struct {
	db DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetByEmail retrieves an admin by email
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, permissions, created_at, updated_at
		FROM admins
		WHERE email = $1
	`

	var admin models.Admin
	err := r.db.QueryRow(query, email).Scan(
		&admin.ID, &admin.FullName, &admin.Email, &admin.PasswordHash,
		&admin.Role, &admin.Permissions, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return &admin, nil
}

// GetByID retrieves an admin by ID
func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, permissions, created_at, updated_at
		FROM admins
		WHERE id = $1
	`

	var admin models.Admin
	err := r.db.QueryRow(query, id).Scan(
		&admin.ID, &admin.FullName, &admin.Email, &admin.PasswordHash,
		&admin.Role, &admin.Permissions, &admin.CreatedAt, &admin.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return &admin, nil
}

// Count returns the number of admin accounts
func (r *AdminRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM admins`)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return count, nil
}

// Create inserts a new admin account
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}

	query := `
		INSERT INTO admins (id, full_name, email, password_hash, role, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query,
		admin.ID,
		admin.FullName,
		admin.Email,
		admin.PasswordHash,
		admin.Role,
		admin.Permissions,
	).Scan(&admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

// UpdatePermissions replaces a subadmin's permission set
func (r *AdminRepository) UpdatePermissions(ctx context.Context, id uuid.UUID, permissions models.Permissions) error {
	query := `
		UPDATE admins
		SET permissions = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, permissions, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update permissions: %w", err)
	}

	return nil
}

// UpdatePassword updates the admin's password hash
func (r *AdminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE admins
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// Delete removes an admin row. Role gating (subadmin only) lives in the
// service layer.
func (r *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM admins WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves all admin accounts, newest first
func (r *AdminRepository) List(ctx context.Context) ([]*models.Admin, error) {
	query := `
		SELECT id, full_name, email, password_hash, role, permissions, created_at, updated_at
		FROM admins
		ORDER BY created_at DESC
	`

	var admins []*models.Admin
	err := r.db.Select(&admins, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	return admins, nil
}
