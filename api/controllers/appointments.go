package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mvergara/caresched-backend/api/middleware"
	"github.com/mvergara/caresched-backend/api/responses"
	"github.com/mvergara/caresched-backend/api/validators"
	"github.com/mvergara/caresched-backend/internal/appointments"
	"github.com/mvergara/caresched-backend/pkg/enums"
	pkgerrors "github.com/mvergara/caresched-backend/pkg/errors"
	"github.com/mvergara/caresched-backend/pkg/logger"
)

// CreateAppointment books an appointment for the authenticated participant.
// Notification fan-out happens asynchronously off the emitted domain event.
func CreateAppointment(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input appointments.CreateAppointmentInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appointment, err := svc.Create(r.Context(), actorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, appointment)
	}
}

// ListAppointments returns the authenticated user's appointments, scoped by
// their role side (doctor_id or patient_id).
func ListAppointments(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := appointments.ListParams{
			UserID: actorID,
			Role:   enums.UserRole(middleware.RoleFromContext(r.Context())),
		}

		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// CancelAppointment transitions a scheduled appointment to cancelled.
func CancelAppointment(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentAction(svc, logg, w, r, svc.Cancel, "cancelled")
	}
}

// CompleteAppointment transitions a scheduled appointment to completed.
func CompleteAppointment(svc appointments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentAction(svc, logg, w, r, svc.Complete, "completed")
	}
}

func appointmentAction(
	svc appointments.Service,
	logg *logger.Logger,
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, actorID, appointmentID uuid.UUID) error,
	status string,
) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "appointments service unavailable"))
		return
	}

	actorID, err := actorFromContext(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	appointmentID, err := uuid.Parse(chi.URLParam(r, "appointmentId"))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid appointment id"))
		return
	}

	if err := action(r.Context(), actorID, appointmentID); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]any{"id": appointmentID, "status": status})
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return uid, nil
}
