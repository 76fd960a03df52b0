package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/medicenter_backend/internal/repo"
	"github.com/Alijeyrad/medicenter_backend/internal/repo/repotest"
	"github.com/Alijeyrad/medicenter_backend/internal/service/appointment"
	"github.com/Alijeyrad/medicenter_backend/internal/service/center"
	"github.com/Alijeyrad/medicenter_backend/internal/service/notification"
	"github.com/Alijeyrad/medicenter_backend/internal/service/patient"
	"github.com/Alijeyrad/medicenter_backend/internal/service/prescription"
	"github.com/Alijeyrad/medicenter_backend/internal/service/session"
)

type silentNotifier struct{}

func (silentNotifier) Notify(context.Context, notification.Recipient, notification.Message) int {
	return 0
}

// newApp mounts every handler without auth so requests run as the system
// actor.
func newApp(t *testing.T) *fiber.App {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := repotest.NewStore().Client()
	counter := repo.NewSequencer(rdb)
	loc := time.UTC

	sessions := session.New(db, counter, silentNotifier{}, loc)
	ch := NewCenterHandler(center.New(db, counter, nil), sessions)
	sh := NewSessionHandler(sessions)
	ph := NewPatientHandler(patient.New(db, counter))
	ah := NewAppointmentHandler(appointment.New(db, counter, nil, loc))
	rh := NewPrescriptionHandler(prescription.New(db))

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Post("/centers", ch.Create)
	api.Get("/centers", ch.List)
	api.Get("/centers/:id", ch.Get)
	api.Patch("/centers/:id", ch.Update)
	api.Delete("/centers/:id", ch.Delete)
	api.Get("/centers/:id/sessions", ch.ListSessions)
	api.Post("/sessions", sh.Create)
	api.Get("/sessions/:id", sh.Get)
	api.Patch("/sessions/active/:sessionId", sh.SetActive)
	api.Post("/patients", ph.Create)
	api.Get("/patients/:id", ph.Get)
	api.Post("/appointments", ah.Book)
	api.Get("/appointments", ah.List)
	api.Get("/appointments/:id", ah.Get)
	api.Patch("/appointments/:id/cancel", ah.Cancel)
	api.Patch("/appointments/:id/status", ah.UpdateStatus)
	api.Get("/appointments/:id/prescriptions", rh.ListByAppointment)
	api.Post("/prescriptions", rh.Create)
	api.Get("/prescriptions/:number", rh.Get)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func data(t *testing.T, out map[string]any) map[string]any {
	t.Helper()
	m, ok := out["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", out)
	return m
}

// seed creates a center, an all-day session and a patient over HTTP.
func seed(t *testing.T, app *fiber.App) {
	t.Helper()
	code, out := call(t, app, fiber.MethodPost, "/api/v1/centers", map[string]any{"name": "City Clinic"})
	require.Equal(t, fiber.StatusCreated, code, out)
	assert.Equal(t, "MC0001", data(t, out)["centerId"])

	code, out = call(t, app, fiber.MethodPost, "/api/v1/sessions", map[string]any{
		"centerId": "MC0001", "sessionName": "All day", "startTime": "00:00", "endTime": "23:59",
	})
	require.Equal(t, fiber.StatusCreated, code, out)
	assert.Equal(t, "MC0001-S001", data(t, out)["sessionId"])

	code, out = call(t, app, fiber.MethodPost, "/api/v1/patients", map[string]any{"name": "Asha", "dateOfBirth": "1990-04-12"})
	require.Equal(t, fiber.StatusCreated, code, out)
	assert.Equal(t, "P000001", data(t, out)["patientId"])
}

func TestAppointmentLifecycle(t *testing.T) {
	app := newApp(t)
	seed(t, app)
	booking := map[string]any{"date": "2099-01-01", "sessionId": "MC0001-S001", "patientId": "P000001", "centerId": "MC0001"}

	code, out := call(t, app, fiber.MethodPost, "/api/v1/appointments", booking)
	require.Equal(t, fiber.StatusCreated, code, out)
	appt := data(t, out)
	apptID := appt["appointmentId"].(string)
	assert.Equal(t, "MC0001-S001-20990101-A001", apptID)
	assert.EqualValues(t, 1, appt["tokenNo"])

	code, out = call(t, app, fiber.MethodPost, "/api/v1/appointments", booking)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, appointment.ErrDuplicateBooking.Error(), out["error"])

	code, out = call(t, app, fiber.MethodGet, "/api/v1/appointments/"+apptID, nil)
	require.Equal(t, fiber.StatusOK, code)
	detail := data(t, out)
	for _, key := range []string{"appointment", "session", "center", "patient"} {
		assert.Contains(t, detail, key)
	}

	code, out = call(t, app, fiber.MethodGet, "/api/v1/appointments?centerId=MC0001&isPatientvisited=false&limit=5", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 1, out["total"])
	assert.EqualValues(t, 1, out["currentPage"])
	assert.EqualValues(t, 5, out["limit"])

	// inactive session
	code, _ = call(t, app, fiber.MethodPatch, "/api/v1/appointments/"+apptID+"/cancel", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, out = call(t, app, fiber.MethodPost, "/api/v1/prescriptions", map[string]any{
		"appointmentId": apptID, "medicines": []map[string]any{{"name": "Paracetamol", "dosage": "500mg"}},
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, prescription.ErrPatientNotVisited.Error(), out["error"])

	code, out = call(t, app, fiber.MethodPatch, "/api/v1/appointments/"+apptID+"/status", map[string]any{"isPatientvisited": true})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, data(t, out)["isPatientvisited"])

	code, out = call(t, app, fiber.MethodPost, "/api/v1/prescriptions", map[string]any{
		"appointmentId": apptID, "medicines": []map[string]any{{"name": "Paracetamol", "dosage": "500mg"}},
	})
	require.Equal(t, fiber.StatusCreated, code, out)
	assert.Equal(t, apptID+"-P1", data(t, out)["prescriptionNo"])

	code, out = call(t, app, fiber.MethodGet, "/api/v1/appointments/"+apptID+"/prescriptions", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, out = call(t, app, fiber.MethodPatch, "/api/v1/sessions/active/MC0001-S001", map[string]any{"isActive": true})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, data(t, out)["isSessionActive"])

	code, out = call(t, app, fiber.MethodPatch, "/api/v1/appointments/"+apptID+"/cancel", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, repo.StatusCancelled, data(t, out)["status"])
}

func TestErrorMapping(t *testing.T) {
	app := newApp(t)
	seed(t, app)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing booking fields", fiber.MethodPost, "/api/v1/appointments", map[string]any{"date": "2099-01-01"}, fiber.StatusBadRequest},
		{"unknown center in booking", fiber.MethodPost, "/api/v1/appointments",
			map[string]any{"date": "2099-01-01", "sessionId": "MC0001-S001", "patientId": "P000001", "centerId": "MC0404"}, fiber.StatusBadRequest},
		{"bad booking date", fiber.MethodPost, "/api/v1/appointments",
			map[string]any{"date": "01/01/2099", "sessionId": "MC0001-S001", "patientId": "P000001", "centerId": "MC0001"}, fiber.StatusBadRequest},
		{"past session window", fiber.MethodPost, "/api/v1/appointments",
			map[string]any{"date": "2000-01-01", "sessionId": "MC0001-S001", "patientId": "P000001", "centerId": "MC0001"}, fiber.StatusBadRequest},
		{"unknown appointment", fiber.MethodGet, "/api/v1/appointments/MC0001-S001-20990101-A999", nil, fiber.StatusNotFound},
		{"bad visited filter", fiber.MethodGet, "/api/v1/appointments?isPatientvisited=maybe", nil, fiber.StatusBadRequest},
		{"unknown center", fiber.MethodGet, "/api/v1/centers/MC0404", nil, fiber.StatusNotFound},
		{"invalid center email", fiber.MethodPost, "/api/v1/centers", map[string]any{"name": "X", "email": "nope"}, fiber.StatusBadRequest},
		{"duplicate session name", fiber.MethodPost, "/api/v1/sessions",
			map[string]any{"centerId": "MC0001", "sessionName": "All day", "startTime": "08:00", "endTime": "09:00"}, fiber.StatusBadRequest},
		{"inverted session times", fiber.MethodPost, "/api/v1/sessions",
			map[string]any{"centerId": "MC0001", "sessionName": "Late", "startTime": "18:00", "endTime": "17:00"}, fiber.StatusBadRequest},
		{"session for unknown center", fiber.MethodPost, "/api/v1/sessions",
			map[string]any{"centerId": "MC0404", "sessionName": "Late", "startTime": "17:00", "endTime": "18:00"}, fiber.StatusNotFound},
		{"isActive required", fiber.MethodPatch, "/api/v1/sessions/active/MC0001-S001", map[string]any{}, fiber.StatusBadRequest},
		{"unknown session", fiber.MethodGet, "/api/v1/sessions/MC0001-S404", nil, fiber.StatusNotFound},
		{"bad date of birth", fiber.MethodPost, "/api/v1/patients", map[string]any{"name": "Ravi", "dateOfBirth": "12-04-1990"}, fiber.StatusBadRequest},
		{"bad gender", fiber.MethodPost, "/api/v1/patients", map[string]any{"name": "Ravi", "gender": "robot"}, fiber.StatusBadRequest},
		{"unknown patient", fiber.MethodGet, "/api/v1/patients/P999999", nil, fiber.StatusNotFound},
		{"prescription for unknown appointment", fiber.MethodPost, "/api/v1/prescriptions",
			map[string]any{"appointmentId": "nope", "medicines": []map[string]any{{"name": "X"}}}, fiber.StatusNotFound},
		{"unknown prescription", fiber.MethodGet, "/api/v1/prescriptions/nope-P1", nil, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := call(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code, out)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestCenterSoftDelete(t *testing.T) {
	app := newApp(t)
	seed(t, app)

	code, out := call(t, app, fiber.MethodPatch, "/api/v1/centers/MC0001", map[string]any{"address": "12 MG Road"})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "12 MG Road", data(t, out)["address"])

	code, out = call(t, app, fiber.MethodGet, "/api/v1/centers/MC0001/sessions", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, out["data"], 1)

	code, _ = call(t, app, fiber.MethodDelete, "/api/v1/centers/MC0001", nil)
	assert.Equal(t, fiber.StatusNoContent, code)

	code, out = call(t, app, fiber.MethodGet, "/api/v1/centers", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 0, out["total"])

	code, out = call(t, app, fiber.MethodGet, "/api/v1/centers?includeDeleted=true", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 1, out["total"])
}

func TestListHugePageIsEmpty(t *testing.T) {
	app := newApp(t)
	seed(t, app)

	for _, path := range []string{
		"/api/v1/appointments?page=4611686018427387903&limit=20",
		"/api/v1/centers?page=9223372036854775807",
		"/api/v1/patients?page=4611686018427387903&limit=1",
	} {
		code, out := call(t, app, fiber.MethodGet, path, nil)
		require.Equal(t, fiber.StatusOK, code, path)
		assert.Empty(t, out["data"], path)
	}
}
