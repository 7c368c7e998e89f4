package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/counselink/server/internal/errs"
	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/service"
)

// Server binds the application services to HTTP routes.
type Server struct {
	auth          service.Auth
	admin         service.Admin
	appointments  service.Appointments
	feedback      service.Feedback
	records       service.Records
	notifications service.Notifications

	jwtSecret []byte
	validate  *validator.Validate
	log       *zap.Logger
}

// New constructs the HTTP server.
func New(
	auth service.Auth,
	admin service.Admin,
	appointments service.Appointments,
	feedback service.Feedback,
	records service.Records,
	notifications service.Notifications,
	jwtSecret []byte,
	log *zap.Logger,
) *Server {
	return &Server{
		auth:          auth,
		admin:         admin,
		appointments:  appointments,
		feedback:      feedback,
		records:       records,
		notifications: notifications,
		jwtSecret:     jwtSecret,
		validate:      validator.New(),
		log:           log,
	}
}

// Router assembles the route tree with role gates per operation.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), Logging(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.Authenticate)

		r.Get("/auth/me", s.handleMe)
		r.Patch("/users/me/profile", s.handleUpdateProfile)
		r.Post("/users/me/password", s.handleChangePassword)

		r.Get("/notifications", s.handleListNotifications)
		r.Post("/notifications/mark-read", s.handleMarkNotificationsRead)

		r.Get("/appointments", s.handleListAppointments)
		r.With(RequireRole(model.RoleStudent)).Post("/appointments", s.handleBook)
		r.With(RequireRole(model.RoleCounselor)).Post("/appointments/{id}/approve", s.handleApprove)
		r.With(RequireRole(model.RoleCounselor)).Post("/appointments/{id}/complete", s.handleComplete)
		r.With(RequireRole(model.RoleStudent, model.RoleCounselor)).Post("/appointments/{id}/cancel", s.handleCancel)

		r.With(RequireRole(model.RoleStudent)).Post("/appointments/{id}/feedback", s.handleSubmitFeedback)
		r.With(RequireRole(model.RoleCounselor)).Get("/feedback/mine", s.handleMyFeedback)

		r.With(RequireRole(model.RoleCounselor)).Put("/appointments/{id}/record", s.handleSaveRecord)
		r.With(RequireRole(model.RoleCounselor, model.RoleAdmin)).Get("/appointments/{id}/record", s.handleViewRecord)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(model.RoleAdmin))
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Post("/users/{id}/unlock", s.handleUnlockUser)
			r.Post("/users/{id}/deactivate", s.handleDeactivateUser)
			r.Post("/users/{id}/reactivate", s.handleReactivateUser)
			r.Get("/reports/feedback", s.handleFeedbackOverview)
			r.Get("/reports/daily", s.handleDailyReport)
			r.Get("/reports/stats", s.handleStats)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps domain sentinels to HTTP statuses. Unknown errors are a
// generic 500: infrastructure detail never reaches the client.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var throttled *errs.ThrottledError
	switch {
	case errors.As(err, &throttled):
		w.Header().Set("Retry-After", strconv.Itoa(throttled.RetryAfterSeconds()))
		writeError(w, http.StatusTooManyRequests, throttled.Error())
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrPastDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrAccountLocked), errors.Is(err, errs.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrForbidden), errors.Is(err, errs.ErrCannotModifyAdmin):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, errs.ErrSlotTaken),
		errors.Is(err, errs.ErrAlreadySubmitted),
		errors.Is(err, errs.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decode parses and validates a JSON request body.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.ErrValidation
	}
	if err := s.validate.Struct(dst); err != nil {
		return errs.ErrValidation
	}
	return nil
}
