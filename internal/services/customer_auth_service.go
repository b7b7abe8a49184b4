package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// Registration response messages. The client shows a different onboarding
// screen for a completed sales-flow record than for a brand-new account.
const (
	MsgAccountCreated        = "Account created successfully"
	MsgRegistrationCompleted = "Registration completed for your existing account"
)

// CustomerAuthService handles customer authentication and registration
type CustomerAuthService struct {
	customerRepo *database.CustomerRepository
	tokenService *token.Service
	bcryptCost   int
}

// NewCustomerAuthService creates a new customer auth service
func NewCustomerAuthService(customerRepo *database.CustomerRepository, tokenService *token.Service, bcryptCost int) *CustomerAuthService {
	return &CustomerAuthService{
		customerRepo: customerRepo,
		tokenService: tokenService,
		bcryptCost:   bcryptCost,
	}
}

// Register creates a customer account, or completes registration in place
// when a password-less sales-flow record already exists for the email.
func (s *CustomerAuthService) Register(ctx context.Context, req models.CustomerRegisterRequest) (*models.CustomerRegisterResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}
	hashStr := string(hash)

	existing, err := s.customerRepo.GetByEmail(ctx, req.Email)
	switch {
	case err == database.ErrNotFound:
		customer := &models.Customer{
			FullName:     req.FullName,
			Email:        req.Email,
			PasswordHash: &hashStr,
			Status:       models.CustomerStatusActive,
			Role:         "customer",
			Phone:        req.Phone,
		}
		if err := s.customerRepo.Create(ctx, customer); err != nil {
			if isDuplicateKeyErr(err) {
				return nil, NewError(CodeConflict, "Email already exists")
			}
			return nil, Internal("failed to create customer", err)
		}
		return s.registrationResponse(customer, MsgAccountCreated)

	case err != nil:
		return nil, Internal("failed to check existing customer", err)

	case existing.PasswordHash != nil && *existing.PasswordHash != "":
		return nil, NewError(CodeConflict, "Email already exists")

	default:
		// Sales-flow record without credentials: complete it in place so the
		// customer keeps their existing applications.
		if err := s.customerRepo.CompleteRegistration(ctx, existing.ID, req.FullName, hashStr, req.Phone); err != nil {
			return nil, Internal("failed to complete registration", err)
		}
		existing.FullName = req.FullName
		existing.Phone = req.Phone
		existing.Status = models.CustomerStatusActive
		existing.PasswordHash = &hashStr
		return s.registrationResponse(existing, MsgRegistrationCompleted)
	}
}

func (s *CustomerAuthService) registrationResponse(customer *models.Customer, message string) (*models.CustomerRegisterResponse, error) {
	sessionToken, err := s.tokenService.Issue(customer.ID, token.KindCustomer, customer.Role, nil)
	if err != nil {
		return nil, Internal("failed to issue session token", err)
	}

	return &models.CustomerRegisterResponse{
		Token:    sessionToken,
		Customer: customer.Sanitize(),
		Message:  message,
	}, nil
}

// Login authenticates a customer and issues a session token.
func (s *CustomerAuthService) Login(ctx context.Context, email, password string) (*models.CustomerLoginResponse, error) {
	customer, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeUnauthenticated, "Invalid email or password")
		}
		return nil, Internal("failed to look up customer", err)
	}

	if customer.PasswordHash == nil || *customer.PasswordHash == "" {
		return nil, NewError(CodeUnauthenticated, "Please complete registration to activate your account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*customer.PasswordHash), []byte(password)); err != nil {
		return nil, NewError(CodeUnauthenticated, "Invalid email or password")
	}

	if !customer.CanAuthenticate() {
		return nil, NewError(CodeUnauthenticated, "Account is %s", customer.Status)
	}

	sessionToken, err := s.tokenService.Issue(customer.ID, token.KindCustomer, customer.Role, nil)
	if err != nil {
		return nil, Internal("failed to issue session token", err)
	}

	return &models.CustomerLoginResponse{Token: sessionToken, Customer: customer.Sanitize()}, nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *CustomerAuthService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return NewError(CodeNotFound, "Customer not found")
		}
		return Internal("failed to look up customer", err)
	}

	if customer.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*customer.PasswordHash), []byte(oldPassword)) != nil {
		return NewError(CodeUnauthenticated, "Incorrect old password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return Internal("failed to hash password", err)
	}

	if err := s.customerRepo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return Internal("failed to update password", err)
	}

	return nil
}

// ChangeEmail updates the login email after re-verifying the password.
func (s *CustomerAuthService) ChangeEmail(ctx context.Context, id uuid.UUID, req models.CustomerChangeEmailRequest) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeNotFound, "Customer not found")
		}
		return nil, Internal("failed to look up customer", err)
	}

	if customer.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*customer.PasswordHash), []byte(req.Password)) != nil {
		return nil, NewError(CodeUnauthenticated, "Incorrect password")
	}

	if _, err := s.customerRepo.GetByEmail(ctx, req.NewEmail); err == nil {
		return nil, NewError(CodeConflict, "Email already exists")
	} else if err != database.ErrNotFound {
		return nil, Internal("failed to check existing customer", err)
	}

	if err := s.customerRepo.UpdateEmail(ctx, id, req.NewEmail); err != nil {
		if isDuplicateKeyErr(err) {
			return nil, NewError(CodeConflict, "Email already exists")
		}
		return nil, Internal("failed to update email", err)
	}

	customer.Email = req.NewEmail
	return customer.Sanitize(), nil
}

// GetProfile retrieves a customer profile with credentials stripped.
func (s *CustomerAuthService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeNotFound, "Customer not found")
		}
		return nil, Internal("failed to look up customer", err)
	}

	return customer.Sanitize(), nil
}
