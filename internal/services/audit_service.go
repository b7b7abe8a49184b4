package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/utils"
)

// AuditService records security and lifecycle events. Writes are best
// effort: callers log failures and move on.
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEvent represents an event to be recorded
type AuditEvent struct {
	PrincipalID *uuid.UUID             // nil for pre-authentication events
	Action      string                 // e.g. "admin_login", "application_approved"
	EntityType  string                 // e.g. "admin", "customer", "application"
	EntityID    *uuid.UUID
	IPAddress   string
	UserAgent   string
	Details     map[string]interface{} // stored as JSONB
}

// LogLogin records an admin or customer login attempt
func (s *AuditService) LogLogin(principalID *uuid.UUID, kind, email, ipAddress, userAgent string, success bool, reason string) error {
	details := map[string]interface{}{
		"email":       email,
		"success":     success,
		"device_info": utils.ParseUserAgent(userAgent),
	}
	if reason != "" {
		details["reason"] = reason
	}

	action := kind + "_login_failed"
	if success {
		action = kind + "_login"
	}

	return s.logEvent(AuditEvent{
		PrincipalID: principalID,
		Action:      action,
		EntityType:  kind,
		EntityID:    principalID,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Details:     details,
	})
}

// LogStatusTransition records an application lifecycle transition
func (s *AuditService) LogStatusTransition(adminID, applicationID uuid.UUID, fromStatus, toStatus, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		PrincipalID: &adminID,
		Action:      "application_" + toStatus,
		EntityType:  "application",
		EntityID:    &applicationID,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Details: map[string]interface{}{
			"from_status": fromStatus,
			"to_status":   toStatus,
		},
	})
}

func (s *AuditService) logEvent(event AuditEvent) error {
	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, principal_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`

	_, err = s.db.Exec(query,
		uuid.New(),
		event.PrincipalID,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	return nil
}
