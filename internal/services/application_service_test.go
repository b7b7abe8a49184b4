package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/models"
)

var applicationTestColumns = []string{
	"id", "application_number", "customer_id", "nationality", "destination_country",
	"visa_product_id", "visa_type", "number_of_travelers", "status", "sales_status",
	"total_fee", "amount_paid", "rejection_reason", "created_at", "updated_at",
}

var travelerTestColumns = []string{
	"id", "application_id", "full_name", "date_of_birth", "email",
	"passport_nationality", "passport_number", "passport_expiry_date",
	"passport_issue_place", "passport_issue_date", "residence_country",
	"has_schengen_visa", "add_passport_details_later", "field_responses",
	"created_at", "updated_at",
}

func applicationRow(id, customerID uuid.UUID, status string, limit int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(applicationTestColumns).AddRow(
		id, "VA-20260801-ABC123", customerID, "DE", "LK",
		nil, "tourist", limit, status, models.SalesStatusNewLead,
		250.0, 0.0, nil, now, now,
	)
}

func travelerRow(id, applicationID uuid.UUID, fieldResponses string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(travelerTestColumns).AddRow(
		id, applicationID, "Jane Doe", nil, "jane@example.com",
		nil, nil, nil,
		nil, nil, nil,
		nil, true, []byte(fieldResponses),
		now, now,
	)
}

func newApplicationService(db database.DB) *ApplicationService {
	return NewApplicationService(
		database.NewApplicationRepository(db),
		database.NewTravelerRepository(db),
		database.NewResubmissionRepository(db),
	)
}

func TestGenerateApplicationNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^VA-\d{8}-[0-9A-F]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number, err := generateApplicationNumber()
		require.NoError(t, err)
		assert.Regexp(t, pattern, number)
		seen[number] = true
	}

	// Three random bytes make a repeat in 50 draws vanishingly unlikely.
	assert.Greater(t, len(seen), 1)
}

func TestSubmit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newApplicationService(newMockDatabase(db))
	appID := uuid.New()

	t.Run("Draft To Submitted", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectExec(`UPDATE visa_applications`).
			WithArgs(models.ApplicationStatusSubmitted, nil, sqlmock.AnyArg(), appID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		app, err := service.Submit(context.Background(), appID)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Submitted", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusSubmitted, 2))

		_, err := service.Submit(context.Background(), appID)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, AsError(err).Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnError(sql.ErrNoRows)

		_, err := service.Submit(context.Background(), appID)
		require.Error(t, err)
		assert.Equal(t, CodeNotFound, AsError(err).Code)
	})
}

func TestReject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newApplicationService(newMockDatabase(db))
	appID := uuid.New()

	t.Run("Requires Reason", func(t *testing.T) {
		_, err := service.Reject(context.Background(), appID, "   ")
		require.Error(t, err)
		assert.Equal(t, CodeValidation, AsError(err).Code)
	})

	t.Run("From Processing", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusProcessing, 2))

		mock.ExpectExec(`UPDATE visa_applications`).
			WithArgs(models.ApplicationStatusRejected, "missing passport scans", sqlmock.AnyArg(), appID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		app, err := service.Reject(context.Background(), appID, "missing passport scans")
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationStatusRejected, app.Status)
		require.NotNil(t, app.RejectionReason)
		assert.Equal(t, "missing passport scans", *app.RejectionReason)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("From Draft Is Invalid", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		_, err := service.Reject(context.Background(), appID, "reason")
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, AsError(err).Code)
	})
}

func TestUpdateSalesStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := newApplicationService(newMockDatabase(db))
	appID := uuid.New()

	t.Run("Unknown Value", func(t *testing.T) {
		_, err := service.UpdateSalesStatus(context.Background(), appID, "won")
		require.Error(t, err)
		assert.Equal(t, CodeValidation, AsError(err).Code)
	})

	t.Run("Independent Of Lifecycle", func(t *testing.T) {
		// A rejected application can still move through the sales workflow.
		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusRejected, 2))

		mock.ExpectExec(`UPDATE visa_applications`).
			WithArgs(models.SalesStatusLost, sqlmock.AnyArg(), appID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		app, err := service.UpdateSalesStatus(context.Background(), appID, models.SalesStatusLost)
		require.NoError(t, err)
		assert.Equal(t, models.SalesStatusLost, app.SalesStatus)
		assert.Equal(t, models.ApplicationStatusRejected, app.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddTraveler(t *testing.T) {
	appID := uuid.New()

	t.Run("Capacity Exceeded", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		_, err = service.AddTraveler(context.Background(), appID, models.TravelerCreateRequest{FullName: "Jane Doe"})
		require.Error(t, err)
		assert.Equal(t, CodeCapacityExceeded, AsError(err).Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Window Closed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusApproved, 2))

		_, err = service.AddTraveler(context.Background(), appID, models.TravelerCreateRequest{FullName: "Jane Doe"})
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, AsError(err).Code)
	})

	t.Run("Deferred Passport Placeholders", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO travelers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		traveler, err := service.AddTraveler(context.Background(), appID, models.TravelerCreateRequest{
			FullName:                "Jane Doe",
			AddPassportDetailsLater: true,
		})
		require.NoError(t, err)

		for _, key := range []string{
			models.FieldPassportNumber, models.FieldPassportExpiryDate,
			models.FieldResidenceCountry, models.FieldHasSchengenVisa,
		} {
			response, ok := traveler.FieldResponses[key]
			require.True(t, ok, "expected placeholder for %s", key)
			assert.Empty(t, response.Value)
			assert.Nil(t, response.SubmittedAt)
		}

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Placeholders Without Deferral", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO travelers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		traveler, err := service.AddTraveler(context.Background(), appID, models.TravelerCreateRequest{FullName: "Jane Doe"})
		require.NoError(t, err)
		assert.Empty(t, traveler.FieldResponses)
	})
}

func TestAddTravelers(t *testing.T) {
	appID := uuid.New()
	email := "lead@example.com"

	t.Run("Primary Contact Missing", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		_, err = service.AddTravelers(context.Background(), appID, models.TravelerBulkCreateRequest{
			Travelers: []models.TravelerCreateRequest{
				{FullName: "Jane Doe"},
				{FullName: "John Doe", Email: &email},
			},
		})
		require.Error(t, err)
		assert.Equal(t, CodePrimaryContactMissing, AsError(err).Code)
	})

	t.Run("Batch Exceeds Capacity", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		_, err = service.AddTravelers(context.Background(), appID, models.TravelerBulkCreateRequest{
			Travelers: []models.TravelerCreateRequest{
				{FullName: "Jane Doe", Email: &email},
				{FullName: "John Doe"},
			},
		})
		require.Error(t, err)
		assert.Equal(t, CodeCapacityExceeded, AsError(err).Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Mid Batch Failure Cleans Up", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 3))

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO travelers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery(`INSERT INTO travelers`).
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectExec(`DELETE FROM travelers`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err = service.AddTravelers(context.Background(), appID, models.TravelerBulkCreateRequest{
			Travelers: []models.TravelerCreateRequest{
				{FullName: "Jane Doe", Email: &email},
				{FullName: "John Doe"},
			},
		})
		require.Error(t, err)
		assert.Equal(t, CodeInternal, AsError(err).Code)

		// The surviving first insert is deleted so no partial batch remains.
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Batch Within Capacity", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectQuery(`SELECT COUNT`).
			WithArgs(appID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO travelers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectQuery(`INSERT INTO travelers`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		travelers, err := service.AddTravelers(context.Background(), appID, models.TravelerBulkCreateRequest{
			Travelers: []models.TravelerCreateRequest{
				{FullName: "Jane Doe", Email: &email},
				{FullName: "John Doe"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, travelers, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Two concurrent adds against a single remaining slot: the per-application
// lock serializes the count-then-insert section, so exactly one succeeds.
func TestAddTraveler_ConcurrentCapacity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(false)

	service := newApplicationService(newMockDatabase(db))
	appID := uuid.New()
	customerID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
		WithArgs(appID).
		WillReturnRows(applicationRow(appID, customerID, models.ApplicationStatusDraft, 1))
	mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
		WithArgs(appID).
		WillReturnRows(applicationRow(appID, customerID, models.ApplicationStatusDraft, 1))

	// First holder of the lock sees zero travelers and inserts; the second
	// sees the committed row and fails the capacity check.
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO travelers`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(appID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(n int) {
			_, err := service.AddTraveler(context.Background(), appID, models.TravelerCreateRequest{
				FullName: fmt.Sprintf("Traveler %d", n),
			})
			results <- err
		}(i)
	}

	var successes, capacityFailures int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			successes++
		} else if AsError(err).Code == CodeCapacityExceeded {
			capacityFailures++
		} else {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, capacityFailures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassport(t *testing.T) {
	appID := uuid.New()
	travelerID := uuid.New()

	placeholders := `{
		"passportNumber": {"value": "", "submitted_at": null},
		"passportExpiryDate": {"value": "", "submitted_at": null},
		"residenceCountry": {"value": "", "submitted_at": null},
		"hasSchengenVisa": {"value": "", "submitted_at": null}
	}`

	t.Run("Expired Passport Rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM travelers WHERE id`).
			WithArgs(travelerID).
			WillReturnRows(travelerRow(travelerID, appID, placeholders))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		_, err = service.UpdatePassport(context.Background(), travelerID, models.PassportUpdateRequest{
			PassportNationality: "DE",
			PassportNumber:      "P1234567",
			PassportExpiryDate:  time.Now().Add(-24 * time.Hour),
			ResidenceCountry:    "DE",
		})
		require.Error(t, err)
		assert.Equal(t, CodeExpiredPassport, AsError(err).Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stamps Deferred Fields", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM travelers WHERE id`).
			WithArgs(travelerID).
			WillReturnRows(travelerRow(travelerID, appID, placeholders))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusProcessing, 2))

		mock.ExpectExec(`UPDATE travelers`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		hasVisa := true
		traveler, err := service.UpdatePassport(context.Background(), travelerID, models.PassportUpdateRequest{
			PassportNationality: "DE",
			PassportNumber:      "P1234567",
			PassportExpiryDate:  time.Now().Add(365 * 24 * time.Hour),
			ResidenceCountry:    "DE",
			HasSchengenVisa:     &hasVisa,
		})
		require.NoError(t, err)

		numberResponse := traveler.FieldResponses[models.FieldPassportNumber]
		assert.Equal(t, "P1234567", numberResponse.Value)
		require.NotNil(t, numberResponse.SubmittedAt)

		visaResponse := traveler.FieldResponses[models.FieldHasSchengenVisa]
		assert.Equal(t, "true", visaResponse.Value)
		require.NotNil(t, visaResponse.SubmittedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Window Closed After Approval", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM travelers WHERE id`).
			WithArgs(travelerID).
			WillReturnRows(travelerRow(travelerID, appID, placeholders))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusApproved, 2))

		_, err = service.UpdatePassport(context.Background(), travelerID, models.PassportUpdateRequest{
			PassportNationality: "DE",
			PassportNumber:      "P1234567",
			PassportExpiryDate:  time.Now().Add(365 * 24 * time.Hour),
			ResidenceCountry:    "DE",
		})
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, AsError(err).Code)
	})
}

func TestDeleteTraveler(t *testing.T) {
	appID := uuid.New()
	travelerID := uuid.New()

	t.Run("Only From Draft", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM travelers WHERE id`).
			WithArgs(travelerID).
			WillReturnRows(travelerRow(travelerID, appID, "{}"))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusSubmitted, 2))

		err = service.DeleteTraveler(context.Background(), travelerID)
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, AsError(err).Code)
	})

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM travelers WHERE id`).
			WithArgs(travelerID).
			WillReturnRows(travelerRow(travelerID, appID, "{}"))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		mock.ExpectExec(`DELETE FROM travelers`).
			WithArgs(travelerID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, service.DeleteTraveler(context.Background(), travelerID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestResubmission(t *testing.T) {
	appID := uuid.New()
	adminID := uuid.New()

	t.Run("Draft Is Invalid", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusDraft, 2))

		_, err = service.RequestResubmission(context.Background(), appID, adminID, models.ResubmissionCreateRequest{
			Note: "Please re-upload the passport scan",
		})
		require.Error(t, err)
		assert.Equal(t, CodeInvalidState, AsError(err).Code)
	})

	t.Run("Dropdown Requires Options", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusProcessing, 2))

		_, err = service.RequestResubmission(context.Background(), appID, adminID, models.ResubmissionCreateRequest{
			Note: "Pick your residence status",
			CustomFields: []models.CustomField{
				{Key: "residence_status", Label: "Residence status", Type: models.CustomFieldDropdown},
			},
		})
		require.Error(t, err)
		assert.Equal(t, CodeValidation, AsError(err).Code)
	})

	t.Run("Traveler From Another Application", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))
		foreignTravelerID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusSubmitted, 2))

		mock.ExpectQuery(`SELECT (.+) FROM travelers WHERE id`).
			WithArgs(foreignTravelerID).
			WillReturnRows(travelerRow(foreignTravelerID, uuid.New(), "{}"))

		_, err = service.RequestResubmission(context.Background(), appID, adminID, models.ResubmissionCreateRequest{
			TravelerID: &foreignTravelerID,
			Note:       "Fix the name spelling",
		})
		require.Error(t, err)
		assert.Equal(t, CodeValidation, AsError(err).Code)
	})

	t.Run("Success Keeps Status", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		service := newApplicationService(newMockDatabase(db))

		mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
			WithArgs(appID).
			WillReturnRows(applicationRow(appID, uuid.New(), models.ApplicationStatusSubmitted, 2))

		mock.ExpectQuery(`INSERT INTO resubmission_requests`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		request, err := service.RequestResubmission(context.Background(), appID, adminID, models.ResubmissionCreateRequest{
			Note:            "Please re-upload the passport scan",
			ProductFieldIDs: []string{"passport_scan"},
			CustomFields: []models.CustomField{
				{Key: "visa_reason", Label: "Reason for travel", Type: models.CustomFieldText, Required: true},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, appID, request.ApplicationID)
		assert.Equal(t, adminID, request.RequestedBy)
		assert.Nil(t, request.TravelerID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// mockDatabase wraps sqlmock behind the database.DB interface. Get and
// Select ride through sqlx so struct scanning works in list queries.
type mockDatabase struct {
	db     *sql.DB
	sqlxDB *sqlx.DB
}

func newMockDatabase(db *sql.DB) *mockDatabase {
	return &mockDatabase{db: db, sqlxDB: sqlx.NewDb(db, "sqlmock")}
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.sqlxDB.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.sqlxDB.Select(dest, query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}
