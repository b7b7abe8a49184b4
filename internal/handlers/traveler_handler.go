package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/internal/services"
)

// TravelerHandler handles traveler HTTP requests
type TravelerHandler struct {
	applicationService *services.ApplicationService
}

// NewTravelerHandler creates a new traveler handler
func NewTravelerHandler(applicationService *services.ApplicationService) *TravelerHandler {
	return &TravelerHandler{applicationService: applicationService}
}

// Add handles POST /api/v1/admin/applications/:id/travelers
// @Summary Attach a single traveler, enforcing the declared capacity
// @Tags travelers
func (h *TravelerHandler) Add(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.TravelerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	traveler, err := h.applicationService.AddTraveler(c.Request.Context(), applicationID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   traveler,
	})
}

// BulkAdd handles POST /api/v1/admin/applications/:id/travelers/bulk
// @Summary Attach a batch of travelers; the first is the primary contact
func (h *TravelerHandler) BulkAdd(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.TravelerBulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	travelers, err := h.applicationService.AddTravelers(c.Request.Context(), applicationID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": true,
		"data":   travelers,
	})
}

// List handles GET /api/v1/admin/applications/:id/travelers
func (h *TravelerHandler) List(c *gin.Context) {
	applicationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	travelers, err := h.applicationService.ListTravelers(c.Request.Context(), applicationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   travelers,
	})
}

// Update handles PATCH /api/v1/admin/travelers/:travelerId
func (h *TravelerHandler) Update(c *gin.Context) {
	travelerID, ok := parseIDParam(c, "travelerId")
	if !ok {
		return
	}

	var req models.TravelerUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	traveler, err := h.applicationService.UpdateTraveler(c.Request.Context(), travelerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   traveler,
	})
}

// UpdatePassport handles PUT /api/v1/admin/travelers/:travelerId/passport
// @Summary Write the full passport detail set, stamping deferred fields
func (h *TravelerHandler) UpdatePassport(c *gin.Context) {
	travelerID, ok := parseIDParam(c, "travelerId")
	if !ok {
		return
	}

	var req models.PassportUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	traveler, err := h.applicationService.UpdatePassport(c.Request.Context(), travelerID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": true,
		"data":   traveler,
	})
}

// Delete handles DELETE /api/v1/admin/travelers/:travelerId
func (h *TravelerHandler) Delete(c *gin.Context) {
	travelerID, ok := parseIDParam(c, "travelerId")
	if !ok {
		return
	}

	if err := h.applicationService.DeleteTraveler(c.Request.Context(), travelerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Traveler deleted",
	})
}
