package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mvergara/caresched-backend/api/controllers"
	"github.com/mvergara/caresched-backend/api/middleware"
	"github.com/mvergara/caresched-backend/internal/appointments"
	"github.com/mvergara/caresched-backend/internal/notifications"
	"github.com/mvergara/caresched-backend/pkg/config"
	"github.com/mvergara/caresched-backend/pkg/db"
	"github.com/mvergara/caresched-backend/pkg/enums"
	"github.com/mvergara/caresched-backend/pkg/logger"
	"github.com/mvergara/caresched-backend/pkg/redis"
)

// NewRouter wires every HTTP route. Authenticated routes live under /api/v1
// behind the bearer-token middleware.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	appointmentsService appointments.Service,
	notificationsService notifications.Service,
	notificationsBroker *notifications.Broker,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", controllers.CreateAppointment(appointmentsService, logg))
			r.Get("/", controllers.ListAppointments(appointmentsService, logg))
			r.Post("/{appointmentId}/cancel", controllers.CancelAppointment(appointmentsService, logg))
			r.With(middleware.RequireRole(string(enums.UserRoleDoctor), logg)).
				Post("/{appointmentId}/complete", controllers.CompleteAppointment(appointmentsService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Get("/stream", controllers.StreamNotifications(notificationsBroker, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.SetNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	return r
}
