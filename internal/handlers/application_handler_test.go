package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visagate/visa-processing-backend/internal/database"
	"github.com/visagate/visa-processing-backend/internal/middleware"
	"github.com/visagate/visa-processing-backend/internal/models"
	"github.com/visagate/visa-processing-backend/internal/services"
	"github.com/visagate/visa-processing-backend/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupApplicationRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mockDB := newHandlerMockDB(db)
	applicationService := services.NewApplicationService(
		database.NewApplicationRepository(mockDB),
		database.NewTravelerRepository(mockDB),
		database.NewResubmissionRepository(mockDB),
	)
	auditService := services.NewAuditService(mockDB)
	handler := NewApplicationHandler(applicationService, auditService)

	router := gin.New()
	admin := router.Group("", func(c *gin.Context) {
		c.Set(middleware.PrincipalContextKey, middleware.Principal{
			ID:   uuid.New(),
			Kind: token.KindAdmin,
			Role: models.RoleSuperadmin,
		})
		c.Next()
	})
	admin.POST("/applications/:id/submit", handler.Submit)
	admin.POST("/applications/:id/reject", handler.Reject)

	return router, mock
}

func applicationStatusRow(id uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "application_number", "customer_id", "nationality", "destination_country",
		"visa_product_id", "visa_type", "number_of_travelers", "status", "sales_status",
		"total_fee", "amount_paid", "rejection_reason", "created_at", "updated_at",
	}).AddRow(
		id, "VA-20260801-ABC123", uuid.New(), "DE", "LK",
		nil, "tourist", 2, status, models.SalesStatusNewLead,
		250.0, 0.0, nil, now, now,
	)
}

func TestRejectHandler_MissingReason(t *testing.T) {
	router, _ := setupApplicationRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications/"+uuid.NewString()+"/reject",
		bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["status"])
}

func TestRejectHandler_InvalidID(t *testing.T) {
	router, _ := setupApplicationRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications/not-a-uuid/reject",
		bytes.NewBufferString(`{"reason":"missing documents"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitHandler_InvalidTransition(t *testing.T) {
	router, mock := setupApplicationRouter(t)
	appID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
		WithArgs(appID).
		WillReturnRows(applicationStatusRow(appID, models.ApplicationStatusApproved))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications/"+appID.String()+"/submit", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"status":false`)
}

func TestRejectHandler_RecordsAudit(t *testing.T) {
	router, mock := setupApplicationRouter(t)
	appID := uuid.New()

	mock.ExpectQuery(`SELECT (.+) FROM visa_applications WHERE id`).
		WithArgs(appID).
		WillReturnRows(applicationStatusRow(appID, models.ApplicationStatusProcessing))

	mock.ExpectExec(`UPDATE visa_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/applications/"+appID.String()+"/reject",
		bytes.NewBufferString(`{"reason":"missing documents"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.ApplicationStatusRejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// handlerMockDB implements database.DB over sqlmock for handler tests.
type handlerMockDB struct {
	db     *sql.DB
	sqlxDB *sqlx.DB
}

func newHandlerMockDB(db *sql.DB) *handlerMockDB {
	return &handlerMockDB{db: db, sqlxDB: sqlx.NewDb(db, "sqlmock")}
}

func (m *handlerMockDB) Get(dest interface{}, query string, args ...interface{}) error {
	return m.sqlxDB.Get(dest, query, args...)
}

func (m *handlerMockDB) Select(dest interface{}, query string, args ...interface{}) error {
	return m.sqlxDB.Select(dest, query, args...)
}

func (m *handlerMockDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *handlerMockDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *handlerMockDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *handlerMockDB) Ping() error {
	return m.db.Ping()
}

func (m *handlerMockDB) Close() error {
	return m.db.Close()
}
