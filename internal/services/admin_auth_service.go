package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuthService handles admin authentication and account management
type AdminAuthService struct {
	adminRepo    *database.AdminRepository
	tokenService *token.Service
	bcryptCost   int
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(adminRepo *database.AdminRepository, tokenService *token.Service, bcryptCost int) *AdminAuthService {
	return &AdminAuthService{
		adminRepo:    adminRepo,
		tokenService: tokenService,
		bcryptCost:   bcryptCost,
	}
}

func isDuplicateKeyErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

// Register creates the bootstrap superadmin account and issues a session
// token. Once any admin account exists, registration is closed; further
// accounts are created through subadmin management.
func (s *AdminAuthService) Register(ctx context.Context, req models.AdminRegisterRequest) (*models.AdminLoginResponse, error) {
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return nil, Internal("failed to count admin accounts", err)
	}
	if count > 0 {
		return nil, NewError(CodeConflict, "A superadmin account already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}

	admin := &models.Admin{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleSuperadmin,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if isDuplicateKeyErr(err) {
			return nil, NewError(CodeConflict, "Email already exists")
		}
		return nil, Internal("failed to create admin", err)
	}

	sessionToken, err := s.tokenService.Issue(admin.ID, token.KindAdmin, admin.Role, nil)
	if err != nil {
		return nil, Internal("failed to issue session token", err)
	}

	return &models.AdminLoginResponse{Token: sessionToken, Admin: admin.Sanitize()}, nil
}

// Login authenticates an admin and issues a session token.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*models.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeUnauthenticated, "Invalid email or password")
		}
		return nil, Internal("failed to look up admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, NewError(CodeUnauthenticated, "Invalid email or password")
	}

	sessionToken, err := s.tokenService.Issue(admin.ID, token.KindAdmin, admin.Role, admin.Permissions)
	if err != nil {
		return nil, Internal("failed to issue session token", err)
	}

	return &models.AdminLoginResponse{Token: sessionToken, Admin: admin.Sanitize()}, nil
}

// CreateSubadmin creates a subadmin with an explicit permission set. The
// caller is responsible for the welcome email side effect.
func (s *AdminAuthService) CreateSubadmin(ctx context.Context, req models.SubadminCreateRequest) (*models.Admin, error) {
	if _, err := s.adminRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, NewError(CodeConflict, "Email already exists")
	} else if err != database.ErrNotFound {
		return nil, Internal("failed to check existing admin", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}

	permissions := req.Permissions
	admin := &models.Admin{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         models.RoleSubadmin,
		Permissions:  &permissions,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if isDuplicateKeyErr(err) {
			return nil, NewError(CodeConflict, "Email already exists")
		}
		return nil, Internal("failed to create subadmin", err)
	}

	return admin.Sanitize(), nil
}

// UpdateSubadminPermissions replaces a subadmin's permission set. Superadmin
// accounts carry no permission set and cannot be targeted.
func (s *AdminAuthService) UpdateSubadminPermissions(ctx context.Context, id uuid.UUID, permissions models.Permissions) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeNotFound, "Admin not found")
		}
		return nil, Internal("failed to look up admin", err)
	}

	if admin.Role != models.RoleSubadmin {
		return nil, NewError(CodeValidation, "Permissions can only be assigned to subadmin accounts")
	}

	if err := s.adminRepo.UpdatePermissions(ctx, id, permissions); err != nil {
		return nil, Internal("failed to update permissions", err)
	}

	admin.Permissions = &permissions
	return admin.Sanitize(), nil
}

// ChangePassword verifies the old password and stores a new hash.
func (s *AdminAuthService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return NewError(CodeNotFound, "Admin not found")
		}
		return Internal("failed to look up admin", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(oldPassword)); err != nil {
		return NewError(CodeUnauthenticated, "Incorrect old password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return Internal("failed to hash password", err)
	}

	if err := s.adminRepo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return Internal("failed to update password", err)
	}

	return nil
}

// ResetSubadminPassword sets a new password on a subadmin account without
// requiring the old one. Superadmin accounts cannot be targeted.
func (s *AdminAuthService) ResetSubadminPassword(ctx context.Context, id uuid.UUID, newPassword string) error {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return NewError(CodeNotFound, "Admin not found")
		}
		return Internal("failed to look up admin", err)
	}

	if admin.Role != models.RoleSubadmin {
		return NewError(CodeValidation, "Passwords can only be reset for subadmin accounts")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return Internal("failed to hash password", err)
	}

	if err := s.adminRepo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return Internal("failed to update password", err)
	}

	return nil
}

// DeleteSubadmin removes a subadmin account. Superadmins cannot be deleted.
func (s *AdminAuthService) DeleteSubadmin(ctx context.Context, id uuid.UUID) error {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return NewError(CodeNotFound, "Admin not found")
		}
		return Internal("failed to look up admin", err)
	}

	if admin.Role != models.RoleSubadmin {
		return NewError(CodeValidation, "Only subadmin accounts can be deleted")
	}

	if err := s.adminRepo.Delete(ctx, id); err != nil {
		return Internal("failed to delete subadmin", err)
	}

	return nil
}

// GetProfile retrieves an admin profile with credentials stripped.
func (s *AdminAuthService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeNotFound, "Admin not found")
		}
		return nil, Internal("failed to look up admin", err)
	}

	return admin.Sanitize(), nil
}

// ListAdmins retrieves all admin accounts with credentials stripped.
func (s *AdminAuthService) ListAdmins(ctx context.Context) ([]*models.Admin, error) {
	admins, err := s.adminRepo.List(ctx)
	if err != nil {
		return nil, Internal("failed to list admins", err)
	}

	for _, admin := range admins {
		admin.Sanitize()
	}

	return admins, nil
}
