package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/internal/appointments"
	"github.com/mvergara/caresched-backend/internal/notifications"
	pkgauth "github.com/mvergara/caresched-backend/pkg/auth"
	"github.com/mvergara/caresched-backend/pkg/config"
	"github.com/mvergara/caresched-backend/pkg/db/models"
	"github.com/mvergara/caresched-backend/pkg/enums"
	"github.com/mvergara/caresched-backend/pkg/logger"
	"github.com/mvergara/caresched-backend/pkg/outbox/payloads"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAppointmentsService struct{}

func (stubAppointmentsService) Create(ctx context.Context, actorID uuid.UUID, input appointments.CreateAppointmentInput) (*models.Appointment, error) {
	return &models.Appointment{}, nil
}

func (stubAppointmentsService) List(ctx context.Context, params appointments.ListParams) (*appointments.ListResult, error) {
	return &appointments.ListResult{}, nil
}

func (stubAppointmentsService) Cancel(ctx context.Context, actorID, appointmentID uuid.UUID) error {
	return nil
}

func (stubAppointmentsService) Complete(ctx context.Context, actorID, appointmentID uuid.UUID) error {
	return nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) NotifyAppointmentCreated(ctx context.Context, event payloads.AppointmentCreatedEvent) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) SetRead(ctx context.Context, recipientID, notificationID uuid.UUID, read bool) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		stubPinger{},
		stubAppointmentsService{},
		stubNotificationsService{},
		nil,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, target := range []string{"/api/v1/notifications", "/api/v1/appointments"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", target, resp.Code)
		}
	}
}

func TestAPIGroupAcceptsValidJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRolePatient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAppointmentRoutesAreWired(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+uuid.NewString()+"/cancel", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleDoctor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCompleteRouteIsDoctorOnly(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	target := "/api/v1/appointments/" + uuid.NewString() + "/complete"

	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRolePatient))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for patient got %d: %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleDoctor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for doctor got %d: %s", resp.Code, resp.Body.String())
	}
}
