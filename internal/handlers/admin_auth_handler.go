package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/config"
	"github.com/visagate/visa-processing-backend/internal/middleware"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/internal/services"
	"github.com/visagate/visa-processing-backend/internal/utils"
	"github.com/visagate/visa-processing-backend/pkg/mailer"
	"github.com/visagate/visa-processing-backend/pkg/token"
)

// AdminAuthHandler handles admin authentication and account HTTP requests
type AdminAuthHandler struct {
	authService  *services.AdminAuthService
	auditService *services.AuditService
	mailGateway  mailer.Mailer
	config       *config.Config
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(authService *services.AdminAuthService, auditService *services.AuditService, mailGateway mailer.Mailer, cfg *config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{
		authService:  authService,
		auditService: auditService,
		mailGateway:  mailGateway,
		config:       cfg,
	}
}

func (h *AdminAuthHandler) sessionMaxAge() int {
	return int(h.config.Session.Expiry.Seconds())
}

// Register handles POST /api/v1/admin/auth/register
// @Summary Register a superadmin account
// @Tags admin-auth
// @Accept json
// @Produce json
func (h *AdminAuthHandler) Register(c *gin.Context) {
	var req models.AdminRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetSessionCookies(c, resp.Token, middleware.Principal{
		ID:       resp.Admin.ID,
		Kind:     token.KindAdmin,
		Email:    resp.Admin.Email,
		FullName: resp.Admin.FullName,
	}, h.sessionMaxAge())

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   resp,
	})
}

// Login handles POST /api/v1/admin/auth/login
// @Summary Authenticate an admin
// @Tags admin-auth
// @Accept json
// @Produce json
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if auditErr := h.auditService.LogLogin(nil, "admin", req.Email, clientIP, userAgent, false, services.AsError(err).Message); auditErr != nil {
			logrus.WithError(auditErr).Warn("Failed to record login audit event")
		}
		respondError(c, err)
		return
	}

	if auditErr := h.auditService.LogLogin(&resp.Admin.ID, "admin", req.Email, clientIP, userAgent, true, ""); auditErr != nil {
		logrus.WithError(auditErr).Warn("Failed to record login audit event")
	}

	middleware.SetSessionCookies(c, resp.Token, middleware.Principal{
		ID:       resp.Admin.ID,
		Kind:     token.KindAdmin,
		Email:    resp.Admin.Email,
		FullName: resp.Admin.FullName,
	}, h.sessionMaxAge())

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   resp,
	})
}

// Logout handles POST /api/v1/admin/auth/logout
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Logged out",
	})
}

// Me handles GET /api/v1/admin/auth/me
func (h *AdminAuthHandler) Me(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	admin, err := h.authService.GetProfile(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   admin,
	})
}

// ChangePassword handles POST /api/v1/admin/auth/change-password
func (h *AdminAuthHandler) ChangePassword(c *gin.Context) {
	var req models.AdminChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	if err := h.authService.ChangePassword(c.Request.Context(), principal.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Password changed successfully",
	})
}

// CreateSubadmin handles POST /api/v1/admin/subadmins
// @Summary Create a subadmin with an explicit permission set
// @Tags admin-accounts
func (h *AdminAuthHandler) CreateSubadmin(c *gin.Context) {
	var req models.SubadminCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	admin, err := h.authService.CreateSubadmin(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Welcome email is fire-and-forget: a gateway outage never fails the
	// account creation.
	go func(email, password string) {
		if err := h.mailGateway.SendSubadminWelcomeEmail(email, password, h.config.Mail.AdminPanelURL); err != nil {
			logrus.WithError(err).WithField("email", email).Warn("Failed to send subadmin welcome email")
		}
	}(admin.Email, req.Password)

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   admin,
	})
}

// ListAdmins handles GET /api/v1/admin/subadmins
func (h *AdminAuthHandler) ListAdmins(c *gin.Context) {
	admins, err := h.authService.ListAdmins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   admins,
	})
}

// UpdateSubadminPermissions handles PUT /api/v1/admin/subadmins/:id/permissions
func (h *AdminAuthHandler) UpdateSubadminPermissions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondValidation(c, "Invalid admin ID")
		return
	}

	var req models.SubadminPermissionsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	admin, err := h.authService.UpdateSubadminPermissions(c.Request.Context(), id, req.Permissions)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   admin,
	})
}

// ResetSubadminPassword handles PUT /api/v1/admin/subadmins/:id/password
func (h *AdminAuthHandler) ResetSubadminPassword(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondValidation(c, "Invalid admin ID")
		return
	}

	var req models.SubadminPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	if err := h.authService.ResetSubadminPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Password reset successfully",
	})
}

// DeleteSubadmin handles DELETE /api/v1/admin/subadmins/:id
func (h *AdminAuthHandler) DeleteSubadmin(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondValidation(c, "Invalid admin ID")
		return
	}

	if err := h.authService.DeleteSubadmin(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Subadmin deleted",
	})
}
