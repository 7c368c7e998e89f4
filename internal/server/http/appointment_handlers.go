package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/counselink/server/internal/model"
)

type bookRequest struct {
	CounselorID string `json:"counselorId" validate:"required,uuid4"`
	DateTime    string `json:"dateTime" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
}

type appointmentResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"studentId"`
	CounselorID string `json:"counselorId"`
	DateTime    string `json:"dateTime"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

func toAppointmentResponse(a *model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID.String(),
		StudentID:   a.StudentID.String(),
		CounselorID: a.CounselorID.String(),
		DateTime:    a.DateTime.Format(time.RFC3339),
		Status:      string(a.Status),
		Reason:      a.Reason,
	}
}

// pathID parses the {id} route parameter; uuid.Nil means malformed.
func pathID(r *http.Request) uuid.UUID {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	var req bookRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	counselorID, err := uuid.FromString(req.CounselorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid counselor id")
		return
	}
	at, err := time.Parse(time.RFC3339, req.DateTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "dateTime must be RFC3339")
		return
	}

	a, err := s.appointments.Book(r.Context(), ident.UserID, counselorID, at, req.Reason)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(a))
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())

	var (
		list []model.Appointment
		err  error
	)
	switch ident.Role {
	case model.RoleStudent:
		list, err = s.appointments.ListForStudent(r.Context(), ident.UserID)
	case model.RoleCounselor:
		list, err = s.appointments.ListForCounselor(r.Context(), ident.UserID)
	default:
		writeError(w, http.StatusForbidden, "insufficient role")
		return
	}
	if err != nil {
		s.respondError(w, err)
		return
	}

	out := make([]appointmentResponse, len(list))
	for i := range list {
		out[i] = toAppointmentResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	if err := s.appointments.Approve(r.Context(), pathID(r), ident.UserID); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	if err := s.appointments.Complete(r.Context(), pathID(r), ident.UserID); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	if err := s.appointments.Cancel(r.Context(), pathID(r), ident.UserID, ident.Role); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type feedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (s *Server) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	var req feedbackRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.feedback.Submit(r.Context(), pathID(r), ident.UserID, req.Rating, req.Comment); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type feedbackResponse struct {
	AppointmentID string `json:"appointmentId"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

func (s *Server) handleMyFeedback(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	list, err := s.feedback.ForCounselor(r.Context(), ident.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	out := make([]feedbackResponse, len(list))
	for i, f := range list {
		out[i] = feedbackResponse{
			AppointmentID: f.AppointmentID.String(),
			Rating:        f.Rating,
			Comment:       f.Comment,
			CreatedAt:     f.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type recordRequest struct {
	SessionNotes string `json:"sessionNotes" validate:"required"`
	ProgressNote string `json:"progressNote"`
}

func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	var req recordRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.records.Save(r.Context(), pathID(r), ident.UserID, req.SessionNotes, req.ProgressNote); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleViewRecord(w http.ResponseWriter, r *http.Request) {
	ident, _ := IdentityFromCtx(r.Context())
	view, err := s.records.View(r.Context(), pathID(r), ident.UserID, ident.Role)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"appointmentId": view.AppointmentID.String(),
		"sessionNotes":  view.SessionNotes,
		"progressNote":  view.ProgressNote,
	})
}
