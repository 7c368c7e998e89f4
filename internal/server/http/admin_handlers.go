package httpserver

import (
	"net/http"
	"time"

	"github.com/counselink/server/internal/model"
	"github.com/counselink/server/internal/service"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type createUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=student counselor"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Gender    string `json:"gender"`
	StudentNo string `json:"studentNo"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	id, err := s.admin.CreateUser(r.Context(), service.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      model.Role(req.Role),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    req.Gender,
		StudentNo: req.StudentNo,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleUnlockUser(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Unlock(r.Context(), pathID(r)); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Deactivate(r.Context(), pathID(r)); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Reactivate(r.Context(), pathID(r)); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeedbackOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.admin.FeedbackOverview(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	type row struct {
		CounselorID   string  `json:"counselorId"`
		CounselorName string  `json:"counselorName"`
		AverageRating float64 `json:"averageRating"`
		TotalRatings  int     `json:"totalRatings"`
	}
	out := make([]row, len(overview))
	for i, cr := range overview {
		out[i] = row{
			CounselorID:   cr.CounselorID.String(),
			CounselorName: cr.CounselorName,
			AverageRating: cr.AverageRating,
			TotalRatings:  cr.TotalRatings,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	report, err := s.admin.DailyReport(r.Context(), day)
	if err != nil {
		s.respondError(w, err)
		return
	}
	type row struct {
		CounselorID   string `json:"counselorId"`
		CounselorName string `json:"counselorName"`
		Appointments  int    `json:"appointments"`
	}
	out := make([]row, len(report))
	for i, dl := range report {
		out[i] = row{
			CounselorID:   dl.CounselorID.String(),
			CounselorName: dl.CounselorName,
			Appointments:  dl.Appointments,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date": day.Format("2006-01-02"),
		"rows": out,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.DashboardStats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"students":            stats.Students,
		"counselors":          stats.Counselors,
		"appointments":        stats.Appointments,
		"pendingAppointments": stats.PendingAppointments,
		"byStatus":            stats.ByStatus,
	})
}
