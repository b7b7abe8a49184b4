package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/middleware"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/internal/services"
	"github.com/visagate/visa-processing-backend/internal/utils"
)

// ApplicationHandler handles visa application lifecycle HTTP requests
type ApplicationHandler struct {
	applicationService *services.ApplicationService
	auditService       *services.AuditService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applicationService *services.ApplicationService, auditService *services.AuditService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		auditService:       auditService,
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondValidation(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ApplicationHandler) auditTransition(c *gin.Context, applicationID uuid.UUID, fromStatus, toStatus string) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return
	}

	err := h.auditService.LogStatusTransition(principal.ID, applicationID, fromStatus, toStatus,
		utils.GetRealIP(c), utils.GetUserAgent(c))
	if err != nil {
		logrus.WithError(err).Warn("Failed to record status transition audit event")
	}
}

// Create handles POST /api/v1/admin/applications
// @Summary Open a new visa application in draft status
// @Tags applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req models.ApplicationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	app, err := h.applicationService.CreateApplication(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   app,
	})
}

// Get handles GET /api/v1/admin/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := h.applicationService.GetApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   app,
	})
}

// ListMine handles GET /api/v1/applications for the authenticated customer
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	apps, err := h.applicationService.ListCustomerApplications(c.Request.Context(), principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   apps,
	})
}

// GetMine handles GET /api/v1/applications/:id for the authenticated customer
func (h *ApplicationHandler) GetMine(c *gin.Context) {
	app, ok := h.ownedApplication(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   app,
	})
}

// SubmitMine handles POST /api/v1/applications/:id/submit. Customers can
// submit their own draft applications; everything past submitted is admin
// territory.
func (h *ApplicationHandler) SubmitMine(c *gin.Context) {
	app, ok := h.ownedApplication(c)
	if !ok {
		return
	}

	updated, err := h.applicationService.Submit(c.Request.Context(), app.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditTransition(c, updated.ID, models.ApplicationStatusDraft, updated.Status)

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   updated,
	})
}

// ownedApplication loads :id and hides applications belonging to other
// customers behind a not-found response.
func (h *ApplicationHandler) ownedApplication(c *gin.Context) (*models.VisaApplication, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	principal, _ := middleware.GetPrincipal(c)

	app, err := h.applicationService.GetApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	if app.CustomerID != principal.ID {
		respondError(c, services.NewError(services.CodeNotFound, "Application not found"))
		return nil, false
	}

	return app, true
}

// Submit handles POST /api/v1/admin/applications/:id/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	h.transition(c, h.applicationService.Submit, models.ApplicationStatusDraft)
}

// StartProcessing handles POST /api/v1/admin/applications/:id/process
func (h *ApplicationHandler) StartProcessing(c *gin.Context) {
	h.transition(c, h.applicationService.StartProcessing, models.ApplicationStatusSubmitted)
}

// Approve handles POST /api/v1/admin/applications/:id/approve
func (h *ApplicationHandler) Approve(c *gin.Context) {
	h.transition(c, h.applicationService.Approve, models.ApplicationStatusProcessing)
}

func (h *ApplicationHandler) transition(c *gin.Context, advance func(context.Context, uuid.UUID) (*models.VisaApplication, error), fromStatus string) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := advance(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditTransition(c, app.ID, fromStatus, app.Status)

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   app,
	})
}

// Reject handles POST /api/v1/admin/applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ApplicationRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Rejection reason is required")
		return
	}

	app, err := h.applicationService.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditTransition(c, app.ID, models.ApplicationStatusProcessing, app.Status)

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   app,
	})
}

// UpdateSalesStatus handles PUT /api/v1/admin/applications/:id/sales-status
func (h *ApplicationHandler) UpdateSalesStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.SalesStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	app, err := h.applicationService.UpdateSalesStatus(c.Request.Context(), id, req.SalesStatus)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   app,
	})
}

// Validate handles GET /api/v1/admin/applications/:id/completeness
// @Summary Report traveler completeness without mutating state
func (h *ApplicationHandler) Validate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	report, err := h.applicationService.ValidateApplication(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   report,
	})
}

// RequestResubmission handles POST /api/v1/admin/applications/:id/resubmissions
func (h *ApplicationHandler) RequestResubmission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ResubmissionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	principal, _ := middleware.GetPrincipal(c)

	request, err := h.applicationService.RequestResubmission(c.Request.Context(), id, principal.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   request,
	})
}

// ListResubmissions handles GET /api/v1/admin/applications/:id/resubmissions
func (h *ApplicationHandler) ListResubmissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	requests, err := h.applicationService.ListResubmissions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   requests,
	})
}
