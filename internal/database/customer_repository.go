package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// CustomerRepository handles customer database operations
type CustomerRepository struct {
	db DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, fullname, email, password_hash, status, role, phone, nationality, passport_number, created_at, updated_at`

func scanCustomer(row *sql.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID, &c.FullName, &c.Email, &c.PasswordHash, &c.Status, &c.Role,
		&c.Phone, &c.Nationality, &c.PassportNumber, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return &c, nil
}

// GetByEmail retrieves a customer by email
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE email = $1`, customerColumns)
	return scanCustomer(r.db.QueryRow(query, email))
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)
	return scanCustomer(r.db.QueryRow(query, id))
}

// Create inserts a new customer record
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}

	query := `
		INSERT INTO customers (id, fullname, email, password_hash, status, role, phone, nationality, passport_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(query,
		customer.ID,
		customer.FullName,
		customer.Email,
		customer.PasswordHash,
		customer.Status,
		customer.Role,
		customer.Phone,
		customer.Nationality,
		customer.PassportNumber,
	).Scan(&customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// CompleteRegistration attaches a password hash to a sales-flow record and
// activates the account. The row is updated in place, never duplicated.
func (r *CustomerRepository) CompleteRegistration(ctx context.Context, id uuid.UUID, fullName, passwordHash, phone string) error {
	query := `
		UPDATE customers
		SET fullname = $1, password_hash = $2, phone = $3, status = $4, updated_at = $5
		WHERE id = $6
	`

	_, err := r.db.Exec(query, fullName, passwordHash, phone, models.CustomerStatusActive, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete customer registration: %w", err)
	}

	return nil
}

// UpdatePassword updates the customer's password hash
func (r *CustomerRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE customers
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, passwordHash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update customer password: %w", err)
	}

	return nil
}

// UpdateEmail updates the customer's email address
func (r *CustomerRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	query := `
		UPDATE customers
		SET email = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, email, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update customer email: %w", err)
	}

	return nil
}

// UpdateStatus changes the customer account status
func (r *CustomerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE customers
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	_, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update customer status: %w", err)
	}

	return nil
}
