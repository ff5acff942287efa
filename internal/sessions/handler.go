package sessions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/scheduling"
	"github.com/psiclinic/platform/pkg/logging"
)

// Handler handles HTTP requests for availability and session lifecycle.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new sessions handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("sessions: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Availability handles GET /availability?professional_id=&session_type_id=
// Professionals may omit professional_id to see their own calendar.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	professionalID := r.URL.Query().Get("professional_id")
	if professionalID == "" && caller.Role == identity.RoleProfessional {
		professionalID = caller.UserID
	}
	sessionTypeID := r.URL.Query().Get("session_type_id")
	if professionalID == "" || sessionTypeID == "" {
		http.Error(w, "professional_id and session_type_id are required", http.StatusBadRequest)
		return
	}

	days, err := h.service.Availability(r.Context(), professionalID, sessionTypeID)
	if err != nil {
		h.writeAvailabilityError(w, err)
		return
	}
	if days == nil {
		days = []scheduling.DaySlots{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(days)
}

// Book handles POST /sessions. Patients book for themselves; professionals
// book on behalf of one of their patients.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch caller.Role {
	case identity.RolePatient:
		if caller.PatientProfileID == "" {
			http.Error(w, "no patient profile", http.StatusForbidden)
			return
		}
		req.PatientID = caller.PatientProfileID
	case identity.RoleProfessional:
		req.ProfessionalID = caller.UserID
	}
	req.ActorRole = caller.Role

	session, err := h.service.Book(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotConflict):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrUnknownSessionType),
			errors.Is(err, ErrMissingProfessional), errors.Is(err, ErrMissingPatient),
			errors.Is(err, ErrMissingSessionType), errors.Is(err, ErrMissingStartTime):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("booking failed", "error", err)
			http.Error(w, "booking failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
}

// List handles GET /sessions: the professional's agenda, or the patient's
// own sessions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var (
		list []*Session
		err  error
	)
	if caller.Role == identity.RoleProfessional {
		list, err = h.service.ListForProfessional(r.Context(), caller.UserID)
	} else {
		list, err = h.service.ListForPatient(r.Context(), caller.PatientProfileID)
	}
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Session{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Cancel handles POST /sessions/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Cancel(r.Context(), session.ID)
	h.writeTransition(w, updated, err)
}

// Complete handles POST /sessions/{id}/complete. The body is optional and
// may carry a satisfaction score and session notes.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	session, ok := h.professionalSession(w, r)
	if !ok {
		return
	}
	var req CompleteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	updated, err := h.service.Complete(r.Context(), session.ID, &req)
	if errors.Is(err, ErrInvalidSatisfaction) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeTransition(w, updated, err)
}

// MarkNoShow handles POST /sessions/{id}/no-show
func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	session, ok := h.professionalSession(w, r)
	if !ok {
		return
	}
	updated, err := h.service.MarkNoShow(r.Context(), session.ID)
	h.writeTransition(w, updated, err)
}

// MarkPaid handles POST /sessions/{id}/pay
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	session, ok := h.professionalSession(w, r)
	if !ok {
		return
	}
	updated, err := h.service.MarkPaid(r.Context(), session.ID)
	h.writeTransition(w, updated, err)
}

func (h *Handler) writeTransition(w http.ResponseWriter, session *Session, err error) {
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("session transition failed", "error", err)
			http.Error(w, "session update failed", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session)
}

func (h *Handler) writeAvailabilityError(w http.ResponseWriter, err error) {
	var cfgErr *scheduling.ConfigurationError
	switch {
	case errors.Is(err, ErrUnknownSessionType):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &cfgErr):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("availability computation failed", "error", err)
		http.Error(w, "availability computation failed", http.StatusInternalServerError)
	}
}

// ownedSession loads the session in the URL and checks the caller is a
// participant: the owning professional or the booked patient.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return nil, false
	}

	session, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("failed to load session", "error", err)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return nil, false
	}

	participant := session.ProfessionalID == caller.UserID ||
		(caller.PatientProfileID != "" && session.PatientID == caller.PatientProfileID)
	if !participant {
		http.Error(w, ErrSessionNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return session, true
}

// professionalSession additionally requires the caller to own the session.
func (h *Handler) professionalSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return nil, false
	}

	session, found := h.ownedSession(w, r)
	if !found {
		return nil, false
	}
	if session.ProfessionalID != caller.UserID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return session, true
}
