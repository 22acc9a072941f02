package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/api/middleware"
	"github.com/mvergara/caresched-backend/internal/appointments"
	"github.com/mvergara/caresched-backend/pkg/db/models"
	"github.com/mvergara/caresched-backend/pkg/enums"
	pkgerrors "github.com/mvergara/caresched-backend/pkg/errors"
)

type testAppointmentsService struct {
	createFn   func(ctx context.Context, actorID uuid.UUID, input appointments.CreateAppointmentInput) (*models.Appointment, error)
	listFn     func(ctx context.Context, params appointments.ListParams) (*appointments.ListResult, error)
	cancelFn   func(ctx context.Context, actorID, appointmentID uuid.UUID) error
	completeFn func(ctx context.Context, actorID, appointmentID uuid.UUID) error
}

func (s *testAppointmentsService) Create(ctx context.Context, actorID uuid.UUID, input appointments.CreateAppointmentInput) (*models.Appointment, error) {
	if s.createFn != nil {
		return s.createFn(ctx, actorID, input)
	}
	return &models.Appointment{}, nil
}

func (s *testAppointmentsService) List(ctx context.Context, params appointments.ListParams) (*appointments.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &appointments.ListResult{}, nil
}

func (s *testAppointmentsService) Cancel(ctx context.Context, actorID, appointmentID uuid.UUID) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, actorID, appointmentID)
	}
	return nil
}

func (s *testAppointmentsService) Complete(ctx context.Context, actorID, appointmentID uuid.UUID) error {
	if s.completeFn != nil {
		return s.completeFn(ctx, actorID, appointmentID)
	}
	return nil
}

func TestCreateAppointmentSuccess(t *testing.T) {
	doctorID := uuid.New()
	patientID := uuid.New()
	var gotActor uuid.UUID
	var gotInput appointments.CreateAppointmentInput
	svc := &testAppointmentsService{
		createFn: func(ctx context.Context, actorID uuid.UUID, input appointments.CreateAppointmentInput) (*models.Appointment, error) {
			gotActor = actorID
			gotInput = input
			return &models.Appointment{ID: uuid.New(), DoctorID: input.DoctorID, PatientID: input.PatientID}, nil
		},
	}

	body := `{"doctor_id":"` + doctorID.String() + `","patient_id":"` + patientID.String() + `","date":"2026-09-01","time":"14:30"}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body), patientID)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	CreateAppointment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if gotActor != patientID {
		t.Fatalf("unexpected actor %s", gotActor)
	}
	if gotInput.DoctorID != doctorID || gotInput.Date != "2026-09-01" || gotInput.Time != "14:30" {
		t.Fatalf("input not forwarded: %+v", gotInput)
	}
}

func TestCreateAppointmentRejectsUnknownFields(t *testing.T) {
	body := `{"doctor_id":"` + uuid.NewString() + `","patient_id":"` + uuid.NewString() + `","date":"2026-09-01","time":"14:30","bogus":true}`
	req := authenticatedRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body), uuid.New())
	resp := httptest.NewRecorder()
	CreateAppointment(&testAppointmentsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateAppointmentMissingUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CreateAppointment(&testAppointmentsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListAppointmentsScopesToActor(t *testing.T) {
	actorID := uuid.New()
	var got appointments.ListParams
	svc := &testAppointmentsService{
		listFn: func(ctx context.Context, params appointments.ListParams) (*appointments.ListResult, error) {
			got = params
			return &appointments.ListResult{}, nil
		},
	}

	req := authenticatedRequest(http.MethodGet, "/api/v1/appointments?limit=5&cursor=abc", nil, actorID)
	req = req.WithContext(middleware.WithRole(req.Context(), string(enums.UserRoleDoctor)))
	resp := httptest.NewRecorder()
	ListAppointments(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if got.UserID != actorID || got.Role != enums.UserRoleDoctor {
		t.Fatalf("scope not forwarded: %+v", got)
	}
	if got.Limit != 5 || got.Cursor != "abc" {
		t.Fatalf("pagination not forwarded: %+v", got)
	}
}

func TestCancelAppointmentSuccess(t *testing.T) {
	actorID := uuid.New()
	appointmentID := uuid.New()
	called := false
	svc := &testAppointmentsService{
		cancelFn: func(ctx context.Context, aid, apptID uuid.UUID) error {
			called = true
			if aid != actorID || apptID != appointmentID {
				t.Fatalf("unexpected ids %s %s", aid, apptID)
			}
			return nil
		},
	}

	req := authenticatedRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID.String()+"/cancel", nil, actorID)
	req = addRouteParam(req, "appointmentId", appointmentID.String())
	resp := httptest.NewRecorder()
	CancelAppointment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["status"] != "cancelled" {
		t.Fatalf("unexpected status payload %v", envelope.Data)
	}
}

func TestCancelAppointmentConflict(t *testing.T) {
	appointmentID := uuid.New()
	svc := &testAppointmentsService{
		cancelFn: func(ctx context.Context, aid, apptID uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeConflict, "appointment is not scheduled")
		},
	}

	req := authenticatedRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID.String()+"/cancel", nil, uuid.New())
	req = addRouteParam(req, "appointmentId", appointmentID.String())
	resp := httptest.NewRecorder()
	CancelAppointment(svc, testLogger())(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestCompleteAppointmentInvalidID(t *testing.T) {
	req := authenticatedRequest(http.MethodPost, "/api/v1/appointments/invalid/complete", nil, uuid.New())
	req = addRouteParam(req, "appointmentId", "invalid")
	resp := httptest.NewRecorder()
	CompleteAppointment(&testAppointmentsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
