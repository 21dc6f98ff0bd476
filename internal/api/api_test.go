package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"session-attendance-bot/internal/attendance"
	"session-attendance-bot/internal/models"
	"session-attendance-bot/internal/repository"
	"session-attendance-bot/internal/service"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) }

type envelope struct {
	Code      int               `json:"code"`
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	ErrorCode string            `json:"error_code"`
	Rule      string            `json:"rule"`
	Errors    map[string]string `json:"errors"`
	Data      json.RawMessage   `json:"data"`
}

type testAPI struct {
	server                    *Server
	admin, therapist, patient *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := repository.Open(repository.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users, err := repository.NewGormUserRepository(db, logger)
	require.NoError(t, err)
	sessions, err := repository.NewGormSessionTimeLogRepository(db, logger)
	require.NoError(t, err)
	days, err := repository.NewGormAttendanceDayRepository(db, logger)
	require.NoError(t, err)
	requests, err := repository.NewGormLeaveRequestRepository(db, logger)
	require.NoError(t, err)
	holidays, err := repository.NewGormNonWorkingDayRepository(db, logger)
	require.NoError(t, err)

	policy := attendance.DefaultPolicy()
	policy.Location = time.UTC

	userService := service.NewUserService(users, logger)
	env := &testAPI{}
	env.admin, err = userService.EnsureAdmin(1, "Админ")
	require.NoError(t, err)
	env.therapist, err = userService.Register(2, "anna", "Анна", "", models.RoleTherapist)
	require.NoError(t, err)
	env.patient, err = userService.Register(3, "vera", "Вера", "", models.RolePatient)
	require.NoError(t, err)

	env.server = NewServer(
		userService,
		service.NewSessionService(sessions, users, policy, fixedClock{}, logger),
		service.NewAttendanceService(days, requests, sessions, holidays, policy, fixedClock{}, logger),
		logger,
	)
	return env
}

func (e *testAPI) do(t *testing.T, method, path string, user *models.User, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set(HeaderUserID, strconv.FormatUint(uint64(user.ID), 10))
	}

	resp, err := e.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp, env
}

func (e *testAPI) schedule(t *testing.T) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/sessions", e.admin, ScheduleSessionRequest{
		AppointmentID: 100, TherapistID: e.therapist.ID, PatientID: e.patient.ID, Date: "2026-10-14",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
}

func TestAPI_HealthAndIdentity(t *testing.T) {
	e := newTestAPI(t)

	resp, _ := e.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	resp, body := e.do(t, http.MethodGet, "/api/v1/sessions/today", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body.ErrorCode)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/sessions/today", &models.User{ID: 99}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	raw, err := e.server.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-1", raw.Header.Get(HeaderRequestID))
}

func TestAPI_ScheduleValidation(t *testing.T) {
	e := newTestAPI(t)

	resp, body := e.do(t, http.MethodPost, "/api/v1/sessions", e.admin, map[string]interface{}{"appointment_id": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "Date")

	resp, body = e.do(t, http.MethodPost, "/api/v1/sessions", e.therapist, ScheduleSessionRequest{
		AppointmentID: 1, TherapistID: e.therapist.ID, PatientID: e.patient.ID, Date: "2026-10-14",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", body.ErrorCode)

	e.schedule(t)
	resp, body = e.do(t, http.MethodPost, "/api/v1/sessions", e.admin, ScheduleSessionRequest{
		AppointmentID: 100, TherapistID: e.therapist.ID, PatientID: e.patient.ID, Date: "2026-10-14",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "appointment_already_scheduled", body.Rule)
}

func TestAPI_SessionMarks(t *testing.T) {
	e := newTestAPI(t)
	e.schedule(t)

	resp, body := e.do(t, http.MethodPost, "/api/v1/sessions/1/reached", e.therapist, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)

	var view attendance.SessionView
	require.NoError(t, json.Unmarshal(body.Data, &view))
	assert.Equal(t, models.SessionTherapistReached, view.Status)
	assert.NotNil(t, view.TherapistReachedTime)
	assert.Nil(t, view.HasDiscrepancy)

	resp, body = e.do(t, http.MethodPost, "/api/v1/sessions/1/reached", e.therapist, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body.ErrorCode)
	assert.Equal(t, "therapist_reached_already_recorded", body.Rule)

	resp, body = e.do(t, http.MethodPost, "/api/v1/sessions/1/departure", e.patient, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", body.ErrorCode)

	resp, _ = e.do(t, http.MethodPost, "/api/v1/sessions/1/teleport", e.patient, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/v1/sessions/99", e.admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body.ErrorCode)

	resp, body = e.do(t, http.MethodGet, "/api/v1/sessions/1", e.patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = attendance.SessionView{}
	require.NoError(t, json.Unmarshal(body.Data, &view))
	assert.Nil(t, view.TherapistReachedTime, "patient does not see therapist marks")

	resp, body = e.do(t, http.MethodPost, "/api/v1/sessions/1/resolve", e.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_discrepancy", body.Rule)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/discrepancies?all=true", e.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_AttendanceRoutes(t *testing.T) {
	e := newTestAPI(t)

	resp, body := e.do(t, http.MethodPost, "/api/v1/attendance", e.therapist, AttendanceRequest{Date: "2026-10-11", Status: "present"})
	assert.Equal(t, http.StatusLocked, resp.StatusCode, "sunday is a weekend")
	assert.Equal(t, "IMMUTABLE_STATE", body.ErrorCode)

	resp, body = e.do(t, http.MethodPost, "/api/v1/attendance", e.therapist, AttendanceRequest{Date: "2026-10-14", Status: "present"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body.ErrorCode)

	resp, _ = e.do(t, http.MethodPost, "/api/v1/availability", e.therapist, AvailabilityRequest{Date: "2026-10-14"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/v1/leave", e.therapist, LeaveRequest{Date: "2026-10-20", LeaveType: "approved_leave", Reason: "семья"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)

	resp, body = e.do(t, http.MethodGet, "/api/v1/leave/pending", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []models.LeaveRequest
	require.NoError(t, json.Unmarshal(body.Data, &pending))
	require.Len(t, pending, 1)

	approve := true
	resp, _ = e.do(t, http.MethodPost, "/api/v1/leave/"+strconv.FormatUint(uint64(pending[0].ID), 10)+"/decision", e.admin, DecisionRequest{Approve: &approve})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/v1/leave/1/decision", e.admin, map[string]interface{}{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Errors, "Approve")

	resp, body = e.do(t, http.MethodPost, "/api/v1/attendance/2/2026-10-14/approve", e.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "availability is self-certified")
	assert.Equal(t, "day_already_approved", body.Rule)

	resp, body = e.do(t, http.MethodPost, "/api/v1/attendance/2/2026-10-13/approve", e.admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE", body.ErrorCode)

	resp, body = e.do(t, http.MethodGet, "/api/v1/attendance/2/2026/10", e.therapist, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var days []models.AttendanceDayRecord
	require.NoError(t, json.Unmarshal(body.Data, &days))
	assert.Len(t, days, 31)

	resp, body = e.do(t, http.MethodGet, "/api/v1/attendance/2/2026/10/summary", e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary models.MonthlyAttendanceSummary
	require.NoError(t, json.Unmarshal(body.Data, &summary))
	assert.Equal(t, uint(2), summary.TherapistID)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/attendance/2/2026/10/summary", e.patient, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodGet, "/api/v1/attendance/2/2026/13", e.admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
