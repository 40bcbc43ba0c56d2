package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

// 2026-10-19 is a Monday.
var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	repo    *appointment.MemoryRepository
	doctor  uuid.UUID
	patient uuid.UUID
	clock   *time.Time
}

func newTestServer(t *testing.T, deps ...Dependency) *testServer {
	t.Helper()

	repo := appointment.NewMemoryRepository()
	ts := &testServer{repo: repo, doctor: uuid.New(), patient: uuid.New()}
	clock := testNow
	ts.clock = &clock

	repo.AddDoctor(appointment.Doctor{ID: ts.doctor, Name: "Dr. House", IsDoctorVerified: true})
	repo.AddPatient(appointment.Patient{ID: ts.patient, Name: "Jane Roe"})
	repo.AddSpecialization(ts.doctor, "CONSULTATION")

	logger := zaptest.NewLogger(t)
	cfg := config.Config{SlotDuration: 30 * time.Minute, Location: time.UTC}
	svc := appointment.NewService(repo, redisclient.NewLocalLocker(time.Second), cfg, logger,
		appointment.WithClock(func() time.Time { return *ts.clock }))

	ts.handler = NewRouter(RouterConfig{Service: svc, Logger: logger, Dependencies: deps, Env: "test", Version: "test"})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) addWindow(t *testing.T, day int, start, end string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/doctors/"+ts.doctor.String()+"/availability",
		map[string]any{"day_of_week": day, "start_time": start, "end_time": end}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (ts *testServer) book(t *testing.T, at string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, "/appointments", CreateAppointmentRequest{
		DoctorID:     ts.doctor.String(),
		PatientID:    ts.patient.String(),
		ScheduledFor: at,
		Type:         "CONSULTATION",
		Price:        4500,
	}, nil)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAvailableTimes(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "10:00")

	rec := ts.do(t, http.MethodGet, "/doctors/"+ts.doctor.String()+"/available-times?date=2026-10-26", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[AvailableTimesResponse](t, rec)
	assert.Equal(t, ts.doctor, resp.DoctorID)
	assert.Equal(t, "2026-10-26", resp.Date)
	assert.Equal(t, 30, resp.SlotMinutes)
	assert.Equal(t, []string{"08:00", "08:30", "09:00", "09:30"}, resp.Times)
}

func TestAvailableTimes_UnverifiedDoctorReturnsEmptyList(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "16:00")
	ts.repo.SetDoctorVerified(ts.doctor, false)

	rec := ts.do(t, http.MethodGet, "/doctors/"+ts.doctor.String()+"/available-times?date=2026-10-26", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[AvailableTimesResponse](t, rec).Times)
	assert.Contains(t, rec.Body.String(), `"times":[]`)
}

func TestAvailableTimes_BadInput(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/doctors/not-a-uuid/available-times?date=2026-10-26", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/doctors/"+ts.doctor.String()+"/available-times?date=26/10/2026", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/doctors/"+uuid.NewString()+"/available-times?date=2026-10-26", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "doctor_not_found", decode[ErrorResponse](t, rec).Error)
}

func TestBookAppointment(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "16:00")

	rec := ts.book(t, "2026-10-26T14:00")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	appt := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "SCHEDULED", appt.Status)
	assert.Equal(t, time.Date(2026, 10, 26, 14, 0, 0, 0, time.UTC), appt.ScheduledFor.UTC())
	assert.Equal(t, time.Date(2026, 10, 26, 14, 30, 0, 0, time.UTC), appt.EndsAt.UTC())

	rec = ts.book(t, "2026-10-26T14:00:00Z")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_no_longer_available", decode[ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/appointments/"+appt.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, appt.ID, decode[AppointmentResponse](t, rec).ID)
}

func TestBookAppointment_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "16:00")

	cases := []struct {
		name string
		req  CreateAppointmentRequest
		code int
		err  string
	}{
		{
			name: "bad doctor id",
			req:  CreateAppointmentRequest{DoctorID: "x", PatientID: ts.patient.String(), ScheduledFor: "2026-10-26T14:00", Type: "CONSULTATION"},
			code: http.StatusBadRequest, err: "invalid_doctor_id",
		},
		{
			name: "bad time",
			req:  CreateAppointmentRequest{DoctorID: ts.doctor.String(), PatientID: ts.patient.String(), ScheduledFor: "tomorrow", Type: "CONSULTATION"},
			code: http.StatusBadRequest, err: "invalid_scheduled_for",
		},
		{
			name: "unknown patient",
			req:  CreateAppointmentRequest{DoctorID: ts.doctor.String(), PatientID: uuid.NewString(), ScheduledFor: "2026-10-26T14:00", Type: "CONSULTATION"},
			code: http.StatusNotFound, err: "patient_not_found",
		},
		{
			name: "type not offered",
			req:  CreateAppointmentRequest{DoctorID: ts.doctor.String(), PatientID: ts.patient.String(), ScheduledFor: "2026-10-26T14:00", Type: "SURGERY"},
			code: http.StatusUnprocessableEntity, err: "doctor_not_bookable",
		},
		{
			name: "partial slot",
			req:  CreateAppointmentRequest{DoctorID: ts.doctor.String(), PatientID: ts.patient.String(), ScheduledFor: "2026-10-26T14:10", Type: "CONSULTATION"},
			code: http.StatusConflict, err: "slot_no_longer_available",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/appointments", tc.req, nil)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
			assert.Equal(t, tc.err, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestBookAppointment_SimultaneousRequests(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "16:00")

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = ts.book(t, "2026-10-26T14:00").Code
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes)
}

func TestUpdateStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "16:00")

	rec := ts.book(t, "2026-10-26T14:00")
	require.Equal(t, http.StatusCreated, rec.Code)
	appt := decode[AppointmentResponse](t, rec)
	path := "/appointments/" + appt.ID.String() + "/status"

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "CANCELLED"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "actor is required")

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "CANCELLED"},
		map[string]string{HeaderActorRole: "NURSE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "CANCELLED"},
		map[string]string{HeaderActorRole: "PATIENT", HeaderActorID: uuid.NewString()})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "IN_PROGRESS"},
		map[string]string{HeaderActorRole: "DOCTOR", HeaderActorID: ts.doctor.String()})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_status_transition", decode[ErrorResponse](t, rec).Error)

	*ts.clock = time.Date(2026, 10, 26, 14, 5, 0, 0, time.UTC)
	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "IN_PROGRESS"},
		map[string]string{HeaderActorRole: "doctor", HeaderActorID: ts.doctor.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "IN_PROGRESS", decode[AppointmentResponse](t, rec).Status)

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "DONE"},
		map[string]string{HeaderActorRole: "ADMIN"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "CANCELLED"},
		map[string]string{HeaderActorRole: "ADMIN"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, UpdateStatusRequest{Status: "ARCHIVED"},
		map[string]string{HeaderActorRole: "ADMIN"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAppointments(t *testing.T) {
	ts := newTestServer(t)
	ts.addWindow(t, 1, "08:00", "16:00")
	for _, at := range []string{"2026-10-26T08:00", "2026-10-26T09:00", "2026-10-26T10:00"} {
		require.Equal(t, http.StatusCreated, ts.book(t, at).Code)
	}

	rec := ts.do(t, http.MethodGet, "/appointments?patient_id="+ts.patient.String()+"&limit=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ListAppointmentsResponse](t, rec)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Limit)

	rec = ts.do(t, http.MethodGet, "/appointments?doctor_id="+ts.doctor.String()+"&offset=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[ListAppointmentsResponse](t, rec)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 20, page.Limit)

	rec = ts.do(t, http.MethodGet, "/appointments", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/appointments?patient_id="+ts.patient.String()+"&doctor_id="+ts.doctor.String(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityEndpoints(t *testing.T) {
	ts := newTestServer(t)
	base := "/doctors/" + ts.doctor.String() + "/availability"

	ts.addWindow(t, 1, "08:00", "12:00")

	rec := ts.do(t, http.MethodPost, base, map[string]any{"day_of_week": 1, "start_time": "08:00", "end_time": "12:00"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, base, map[string]any{"day_of_week": 1, "start_time": "12:00", "end_time": "08:00"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, base, map[string]any{"start_time": "08:00", "end_time": "09:00"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, base, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	windows := decode[[]AvailabilityWindowResponse](t, rec)
	require.Len(t, windows, 1)
	assert.Equal(t, "Monday", windows[0].Day)
	assert.Equal(t, "08:00", windows[0].StartTime)

	rec = ts.do(t, http.MethodDelete, base+"/"+windows[0].ID.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, base+"/"+windows[0].ID.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSpecializations(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/doctors/"+ts.doctor.String()+"/specializations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"CONSULTATION"}, decode[SpecializationsResponse](t, rec).Types)
}

func TestHealth(t *testing.T) {
	down := errors.New("down")
	ts := newTestServer(t,
		Dependency{Name: "postgres", Critical: true, Ping: func(context.Context) error { return nil }},
		Dependency{Name: "redis", Ping: func(context.Context) error { return down }},
	)

	rec := ts.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec = ts.do(t, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "degraded", ready.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "down"}, ready.Dependencies)

	critical := newTestServer(t, Dependency{Name: "postgres", Critical: true, Ping: func(context.Context) error { return down }})
	rec = critical.do(t, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
