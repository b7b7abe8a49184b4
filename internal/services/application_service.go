package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/models"
)

// ApplicationService manages the visa application lifecycle: status
// transitions, traveler membership and resubmission requests.
type ApplicationService struct {
	appRepo          *database.ApplicationRepository
	travelerRepo     *database.TravelerRepository
	resubmissionRepo *database.ResubmissionRepository

	// Per-application locks serialize the count-then-insert traveler path so
	// concurrent adds cannot both pass the capacity check.
	mu       sync.Mutex
	appLocks map[uuid.UUID]*sync.Mutex
}

// NewApplicationService creates a new application service
func NewApplicationService(appRepo *database.ApplicationRepository, travelerRepo *database.TravelerRepository, resubmissionRepo *database.ResubmissionRepository) *ApplicationService {
	return &ApplicationService{
		appRepo:          appRepo,
		travelerRepo:     travelerRepo,
		resubmissionRepo: resubmissionRepo,
		appLocks:         make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *ApplicationService) lockApplication(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.appLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.appLocks[id] = lock
	}
	return lock
}

// generateApplicationNumber produces a human-readable unique reference like
// VA-20260828-9F3A2C.
func generateApplicationNumber() (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("VA-%s-%s", time.Now().UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix))), nil
}

// CreateApplication opens a new application in draft status with a fresh
// sales workflow.
func (s *ApplicationService) CreateApplication(ctx context.Context, req models.ApplicationCreateRequest) (*models.VisaApplication, error) {
	number, err := generateApplicationNumber()
	if err != nil {
		return nil, Internal("failed to generate application number", err)
	}

	app := &models.VisaApplication{
		ApplicationNumber:  number,
		CustomerID:         req.CustomerID,
		Nationality:        req.Nationality,
		DestinationCountry: req.DestinationCountry,
		VisaProductID:      req.VisaProductID,
		VisaType:           req.VisaType,
		NumberOfTravelers:  req.NumberOfTravelers,
		Status:             models.ApplicationStatusDraft,
		SalesStatus:        models.SalesStatusNewLead,
		TotalFee:           req.TotalFee,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		if isDuplicateKeyErr(err) {
			return nil, NewError(CodeConflict, "Application number collision, please retry")
		}
		return nil, Internal("failed to create application", err)
	}

	return app, nil
}

// GetApplication retrieves an application by ID.
func (s *ApplicationService) GetApplication(ctx context.Context, id uuid.UUID) (*models.VisaApplication, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, NewError(CodeNotFound, "Application not found")
		}
		return nil, Internal("failed to get application", err)
	}
	return app, nil
}

// ListCustomerApplications retrieves a customer's applications, newest first.
func (s *ApplicationService) ListCustomerApplications(ctx context.Context, customerID uuid.UUID) ([]*models.VisaApplication, error) {
	apps, err := s.appRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, Internal("failed to list applications", err)
	}
	return apps, nil
}

func (s *ApplicationService) transition(ctx context.Context, id uuid.UUID, from, to string, rejectionReason *string) (*models.VisaApplication, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if app.Status != from {
		return nil, NewError(CodeInvalidState, "Cannot move application from %s to %s", app.Status, to)
	}

	if err := s.appRepo.UpdateStatus(ctx, id, to, rejectionReason); err != nil {
		return nil, Internal("failed to update application status", err)
	}

	app.Status = to
	app.RejectionReason = rejectionReason
	return app, nil
}

// Submit moves a draft application to submitted.
func (s *ApplicationService) Submit(ctx context.Context, id uuid.UUID) (*models.VisaApplication, error) {
	return s.transition(ctx, id, models.ApplicationStatusDraft, models.ApplicationStatusSubmitted, nil)
}

// StartProcessing moves a submitted application to processing.
func (s *ApplicationService) StartProcessing(ctx context.Context, id uuid.UUID) (*models.VisaApplication, error) {
	return s.transition(ctx, id, models.ApplicationStatusSubmitted, models.ApplicationStatusProcessing, nil)
}

// Approve finalizes a processing application as approved.
func (s *ApplicationService) Approve(ctx context.Context, id uuid.UUID) (*models.VisaApplication, error) {
	return s.transition(ctx, id, models.ApplicationStatusProcessing, models.ApplicationStatusApproved, nil)
}

// Reject finalizes a processing application as rejected. The reason is
// mandatory and stored with the application.
func (s *ApplicationService) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.VisaApplication, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewError(CodeValidation, "Rejection reason is required")
	}
	return s.transition(ctx, id, models.ApplicationStatusProcessing, models.ApplicationStatusRejected, &reason)
}

// UpdateSalesStatus updates the sales workflow state. Sales status is
// independent of the lifecycle status and is never gated by it.
func (s *ApplicationService) UpdateSalesStatus(ctx context.Context, id uuid.UUID, salesStatus string) (*models.VisaApplication, error) {
	if !models.ValidSalesStatus(salesStatus) {
		return nil, NewError(CodeValidation, "Unknown sales status: %s", salesStatus)
	}

	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.appRepo.UpdateSalesStatus(ctx, id, salesStatus); err != nil {
		return nil, Internal("failed to update sales status", err)
	}

	app.SalesStatus = salesStatus
	return app, nil
}

// buildTraveler maps a create request onto a traveler row. When passport
// details are deferred, placeholder field responses are recorded for every
// passport field left empty so the pending set is queryable later.
func buildTraveler(applicationID uuid.UUID, req models.TravelerCreateRequest) *models.Traveler {
	t := &models.Traveler{
		ApplicationID:           applicationID,
		FullName:                req.FullName,
		DateOfBirth:             req.DateOfBirth,
		Email:                   req.Email,
		PassportNationality:     req.PassportNationality,
		PassportNumber:          req.PassportNumber,
		PassportExpiryDate:      req.PassportExpiryDate,
		PassportIssuePlace:      req.PassportIssuePlace,
		PassportIssueDate:       req.PassportIssueDate,
		ResidenceCountry:        req.ResidenceCountry,
		HasSchengenVisa:         req.HasSchengenVisa,
		AddPassportDetailsLater: req.AddPassportDetailsLater,
		FieldResponses:          models.FieldResponses{},
	}

	if req.AddPassportDetailsLater {
		if req.PassportNumber == nil {
			t.FieldResponses[models.FieldPassportNumber] = models.FieldResponse{}
		}
		if req.PassportExpiryDate == nil {
			t.FieldResponses[models.FieldPassportExpiryDate] = models.FieldResponse{}
		}
		if req.ResidenceCountry == nil {
			t.FieldResponses[models.FieldResidenceCountry] = models.FieldResponse{}
		}
		if req.HasSchengenVisa == nil {
			t.FieldResponses[models.FieldHasSchengenVisa] = models.FieldResponse{}
		}
	}

	return t
}

// AddTraveler attaches a single traveler to an application, enforcing the
// declared traveler capacity.
func (s *ApplicationService) AddTraveler(ctx context.Context, applicationID uuid.UUID, req models.TravelerCreateRequest) (*models.Traveler, error) {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if !app.CanAddTravelers() {
		return nil, NewError(CodeInvalidState, "Travelers cannot be added while the application is %s", app.Status)
	}

	lock := s.lockApplication(applicationID)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.travelerRepo.CountByApplication(ctx, applicationID)
	if err != nil {
		return nil, Internal("failed to count travelers", err)
	}

	if count+1 > app.NumberOfTravelers {
		return nil, NewError(CodeCapacityExceeded, "Traveler limit is %d, application already has %d", app.NumberOfTravelers, count)
	}

	traveler := buildTraveler(applicationID, req)
	if err := s.travelerRepo.Create(ctx, traveler); err != nil {
		return nil, Internal("failed to create traveler", err)
	}

	return traveler, nil
}

// AddTravelers attaches a batch of travelers atomically with respect to the
// capacity check. The first traveler is the primary contact and must carry
// an email address.
func (s *ApplicationService) AddTravelers(ctx context.Context, applicationID uuid.UUID, req models.TravelerBulkCreateRequest) ([]*models.Traveler, error) {
	if len(req.Travelers) == 0 {
		return nil, NewError(CodeValidation, "At least one traveler is required")
	}

	primary := req.Travelers[0]
	if primary.Email == nil || strings.TrimSpace(*primary.Email) == "" {
		return nil, NewError(CodePrimaryContactMissing, "The first traveler must have an email address")
	}

	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if !app.CanAddTravelers() {
		return nil, NewError(CodeInvalidState, "Travelers cannot be added while the application is %s", app.Status)
	}

	lock := s.lockApplication(applicationID)
	lock.Lock()
	defer lock.Unlock()

	count, err := s.travelerRepo.CountByApplication(ctx, applicationID)
	if err != nil {
		return nil, Internal("failed to count travelers", err)
	}

	if count+len(req.Travelers) > app.NumberOfTravelers {
		return nil, NewError(CodeCapacityExceeded, "Traveler limit is %d, application already has %d", app.NumberOfTravelers, count)
	}

	travelers := make([]*models.Traveler, 0, len(req.Travelers))
	for _, item := range req.Travelers {
		traveler := buildTraveler(applicationID, item)
		if err := s.travelerRepo.Create(ctx, traveler); err != nil {
			// A failure mid-batch must not leave a partial batch behind.
			for _, created := range travelers {
				if delErr := s.travelerRepo.Delete(ctx, created.ID); delErr != nil {
					logrus.WithError(delErr).WithField("traveler_id", created.ID).
						Warn("Failed to clean up traveler after batch failure")
				}
			}
			return nil, Internal("failed to create traveler", err)
		}
		travelers = append(travelers, traveler)
	}

	return travelers, nil
}

func (s *ApplicationService) travelerWithApplication(ctx context.Context, travelerID uuid.UUID) (*models.Traveler, *models.VisaApplication, error) {
	traveler, err := s.travelerRepo.GetByID(ctx, travelerID)
	if err != nil {
		if err == database.ErrNotFound {
			return nil, nil, NewError(CodeNotFound, "Traveler not found")
		}
		return nil, nil, Internal("failed to get traveler", err)
	}

	app, err := s.GetApplication(ctx, traveler.ApplicationID)
	if err != nil {
		return nil, nil, err
	}

	return traveler, app, nil
}

// UpdateTraveler patches a traveler's general fields within the edit window.
func (s *ApplicationService) UpdateTraveler(ctx context.Context, travelerID uuid.UUID, req models.TravelerUpdateRequest) (*models.Traveler, error) {
	traveler, app, err := s.travelerWithApplication(ctx, travelerID)
	if err != nil {
		return nil, err
	}

	if !app.CanEditTravelers() {
		return nil, NewError(CodeInvalidState, "Travelers cannot be edited while the application is %s", app.Status)
	}

	if err := s.travelerRepo.UpdateGeneral(ctx, travelerID, req); err != nil {
		return nil, Internal("failed to update traveler", err)
	}

	if req.FullName != nil {
		traveler.FullName = *req.FullName
	}
	if req.DateOfBirth != nil {
		traveler.DateOfBirth = req.DateOfBirth
	}
	if req.Email != nil {
		traveler.Email = req.Email
	}

	return traveler, nil
}

// UpdatePassport writes the full passport detail set. Deferred field
// placeholders covered by the submission are stamped with the submitted
// value and time.
func (s *ApplicationService) UpdatePassport(ctx context.Context, travelerID uuid.UUID, req models.PassportUpdateRequest) (*models.Traveler, error) {
	traveler, app, err := s.travelerWithApplication(ctx, travelerID)
	if err != nil {
		return nil, err
	}

	if !app.CanEditTravelers() {
		return nil, NewError(CodeInvalidState, "Passport details cannot be edited while the application is %s", app.Status)
	}

	if !req.PassportExpiryDate.After(time.Now()) {
		return nil, NewError(CodeExpiredPassport, "Passport expiry date must be in the future")
	}

	now := time.Now()
	responses := models.FieldResponses{}
	for key, response := range traveler.FieldResponses {
		responses[key] = response
	}

	stamp := func(key, value string) {
		if _, ok := responses[key]; ok {
			responses[key] = models.FieldResponse{Value: value, SubmittedAt: &now}
		}
	}
	stamp(models.FieldPassportNumber, req.PassportNumber)
	stamp(models.FieldPassportExpiryDate, req.PassportExpiryDate.Format("2006-01-02"))
	stamp(models.FieldResidenceCountry, req.ResidenceCountry)
	if req.HasSchengenVisa != nil {
		stamp(models.FieldHasSchengenVisa, fmt.Sprintf("%t", *req.HasSchengenVisa))
	}

	if err := s.travelerRepo.UpdatePassport(ctx, travelerID, req, responses); err != nil {
		return nil, Internal("failed to update passport details", err)
	}

	traveler.PassportNationality = &req.PassportNationality
	traveler.PassportNumber = &req.PassportNumber
	traveler.PassportExpiryDate = &req.PassportExpiryDate
	traveler.PassportIssuePlace = req.PassportIssuePlace
	traveler.PassportIssueDate = req.PassportIssueDate
	traveler.ResidenceCountry = &req.ResidenceCountry
	if req.HasSchengenVisa != nil {
		traveler.HasSchengenVisa = req.HasSchengenVisa
	}
	traveler.FieldResponses = responses

	return traveler, nil
}

// DeleteTraveler removes a traveler. Deletion is only open on drafts.
func (s *ApplicationService) DeleteTraveler(ctx context.Context, travelerID uuid.UUID) error {
	_, app, err := s.travelerWithApplication(ctx, travelerID)
	if err != nil {
		return err
	}

	if !app.CanDeleteTravelers() {
		return NewError(CodeInvalidState, "Travelers cannot be deleted while the application is %s", app.Status)
	}

	if err := s.travelerRepo.Delete(ctx, travelerID); err != nil {
		if err == database.ErrNotFound {
			return NewError(CodeNotFound, "Traveler not found")
		}
		return Internal("failed to delete traveler", err)
	}

	return nil
}

// ListTravelers retrieves an application's travelers in creation order.
func (s *ApplicationService) ListTravelers(ctx context.Context, applicationID uuid.UUID) ([]*models.Traveler, error) {
	if _, err := s.GetApplication(ctx, applicationID); err != nil {
		return nil, err
	}

	travelers, err := s.travelerRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, Internal("failed to list travelers", err)
	}

	return travelers, nil
}

// RequestResubmission records an admin request for corrected inputs on a
// submitted or processing application. The application status is untouched.
func (s *ApplicationService) RequestResubmission(ctx context.Context, applicationID, adminID uuid.UUID, req models.ResubmissionCreateRequest) (*models.ResubmissionRequest, error) {
	app, err := s.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if app.Status != models.ApplicationStatusSubmitted && app.Status != models.ApplicationStatusProcessing {
		return nil, NewError(CodeInvalidState, "Resubmission can only be requested while the application is submitted or processing")
	}

	if req.TravelerID != nil {
		traveler, err := s.travelerRepo.GetByID(ctx, *req.TravelerID)
		if err != nil {
			if err == database.ErrNotFound {
				return nil, NewError(CodeNotFound, "Traveler not found")
			}
			return nil, Internal("failed to get traveler", err)
		}
		if traveler.ApplicationID != applicationID {
			return nil, NewError(CodeValidation, "Traveler does not belong to this application")
		}
	}

	for _, field := range req.CustomFields {
		if !models.ValidCustomFieldType(field.Type) {
			return nil, NewError(CodeValidation, "Unknown custom field type: %s", field.Type)
		}
		if field.Type == models.CustomFieldDropdown && len(field.Options) == 0 {
			return nil, NewError(CodeValidation, "Dropdown field %q requires options", field.Key)
		}
	}

	request := &models.ResubmissionRequest{
		ApplicationID:   applicationID,
		TravelerID:      req.TravelerID,
		Note:            req.Note,
		ProductFieldIDs: req.ProductFieldIDs,
		CustomFields:    req.CustomFields,
		RequestedBy:     adminID,
	}

	if err := s.resubmissionRepo.Create(ctx, request); err != nil {
		return nil, Internal("failed to create resubmission request", err)
	}

	return request, nil
}

// ListResubmissions retrieves an application's resubmission requests.
func (s *ApplicationService) ListResubmissions(ctx context.Context, applicationID uuid.UUID) ([]*models.ResubmissionRequest, error) {
	if _, err := s.GetApplication(ctx, applicationID); err != nil {
		return nil, err
	}

	requests, err := s.resubmissionRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, Internal("failed to list resubmission requests", err)
	}

	return requests, nil
}
