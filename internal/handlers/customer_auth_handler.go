package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/config"
	"github.com/visagate/visa-processing-backend/internal/middleware"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/internal/services"
	"github.com/visagate/visa-processing-backend/internal/utils"
	"github.com/visagate/visa-processing-backend/pkg/mailer"
	"github.com/visagate/visa-processing-backend/pkg/token"
)

// CustomerAuthHandler handles customer authentication HTTP requests
type CustomerAuthHandler struct {
	authService  *services.CustomerAuthService
	auditService *services.AuditService
	mailGateway  mailer.Mailer
	config       *config.Config
}

// NewCustomerAuthHandler creates a new customer auth handler
func NewCustomerAuthHandler(authService *services.CustomerAuthService, auditService *services.AuditService, mailGateway mailer.Mailer, cfg *config.Config) *CustomerAuthHandler {
	return &CustomerAuthHandler{
		authService:  authService,
		auditService: auditService,
		mailGateway:  mailGateway,
		config:       cfg,
	}
}

func (h *CustomerAuthHandler) sessionMaxAge() int {
	return int(h.config.Session.Expiry.Seconds())
}

// Register handles POST /api/v1/auth/register
// @Summary Register a customer account, completing a sales-flow record in place when one exists
// @Tags customer-auth
// @Accept json
// @Produce json
func (h *CustomerAuthHandler) Register(c *gin.Context) {
	var req models.CustomerRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	go func(email, name string) {
		if err := h.mailGateway.SendCustomerWelcomeEmail(email, name, h.config.Mail.LoginURL); err != nil {
			logrus.WithError(err).WithField("email", email).Warn("Failed to send customer welcome email")
		}
	}(resp.Customer.Email, resp.Customer.FullName)

	middleware.SetSessionCookies(c, resp.Token, middleware.Principal{
		ID:       resp.Customer.ID,
		Kind:     token.KindCustomer,
		Email:    resp.Customer.Email,
		FullName: resp.Customer.FullName,
	}, h.sessionMaxAge())

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   resp,
	})
}

// Login handles POST /api/v1/auth/login
// @Summary Authenticate a customer
// @Tags customer-auth
func (h *CustomerAuthHandler) Login(c *gin.Context) {
	var req models.CustomerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	clientIP := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if auditErr := h.auditService.LogLogin(nil, "customer", req.Email, clientIP, userAgent, false, services.AsError(err).Message); auditErr != nil {
			logrus.WithError(auditErr).Warn("Failed to record login audit event")
		}
		respondError(c, err)
		return
	}

	if auditErr := h.auditService.LogLogin(&resp.Customer.ID, "customer", req.Email, clientIP, userAgent, true, ""); auditErr != nil {
		logrus.WithError(auditErr).Warn("Failed to record login audit event")
	}

	middleware.SetSessionCookies(c, resp.Token, middleware.Principal{
		ID:       resp.Customer.ID,
		Kind:     token.KindCustomer,
		Email:    resp.Customer.Email,
		FullName: resp.Customer.FullName,
	}, h.sessionMaxAge())

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   resp,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *CustomerAuthHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Logged out",
	})
}

// Me handles GET /api/v1/auth/me
func (h *CustomerAuthHandler) Me(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	customer, err := h.authService.GetProfile(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   customer,
	})
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *CustomerAuthHandler) ChangePassword(c *gin.Context) {
	var req models.CustomerChangePasswordRequest
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

// ChangeEmail handles POST /api/v1/auth/change-email
func (h *CustomerAuthHandler) ChangeEmail(c *gin.Context) {
	var req models.CustomerChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	customer, err := h.authService.ChangeEmail(c.Request.Context(), principal.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   customer,
	})
}
