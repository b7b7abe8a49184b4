package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/services"
)

func httpStatusFor(code services.ErrorCode) int {
	switch code {
	case services.CodeUnauthenticated:
		return http.StatusUnauthorized
	case services.CodeUnauthorized, services.CodeNoPermissionsAssigned, services.CodeInsufficientPermission:
		return http.StatusForbidden
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeConflict, services.CodeInvalidState:
		return http.StatusConflict
	case services.CodeCapacityExceeded, services.CodeExpiredPassport,
		services.CodePrimaryContactMissing, services.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError translates a service error into the uniform failure envelope.
// Internal causes are logged, never leaked to the client.
func respondError(c *gin.Context, err error) {
	serviceErr := services.AsError(err)

	if serviceErr.Code == services.CodeInternal {
		logrus.WithError(serviceErr.Err).WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).Error(serviceErr.Message)

		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  false,
			"message": "Internal server error",
		})
		return
	}

	c.JSON(httpStatusFor(serviceErr.Code), gin.H{
		"status":  false,
		"message": serviceErr.Message,
	})
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  false,
		"message": message,
	})
}
