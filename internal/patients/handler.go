package patients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/pkg/logging"
)

// AccountInviter creates the waiting login for a freshly added patient so
// they can claim their account later.
type AccountInviter interface {
	Invite(ctx context.Context, p *Patient) error
}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, recipientID, kind, message string)
}

// Auditor records consent capture and erasure in the compliance trail.
type Auditor interface {
	RecordAccess(ctx context.Context, actorID, patientID, action string)
	LogErasure(ctx context.Context, actorID, patientID, reason string) error
}

// Eraser removes a patient's dependent records that the repository delete
// does not reach, such as intake transcripts or in-memory sessions.
type Eraser interface {
	ErasePatientData(ctx context.Context, patientID string) error
}

// Handler handles HTTP requests for patient records. All professional routes
// are scoped to the authenticated professional's own patients.
type Handler struct {
	repo     Repository
	inviter  AccountInviter
	notifier Notifier
	auditor  Auditor
	erasers  []Eraser
	logger   *logging.Logger
}

// NewHandler creates a new patients handler. inviter may be nil, in which
// case created patients get no login until they register themselves.
func NewHandler(repo Repository, inviter AccountInviter, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("patients: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, inviter: inviter, logger: logger}
}

// WithNotifier attaches the in-app notifier used for invite notices.
func (h *Handler) WithNotifier(n Notifier) *Handler {
	h.notifier = n
	return h
}

// WithAuditor attaches the compliance audit trail.
func (h *Handler) WithAuditor(a Auditor) *Handler {
	h.auditor = a
	return h
}

// WithEraser registers another store to purge when a patient is deleted.
func (h *Handler) WithEraser(e Eraser) *Handler {
	h.erasers = append(h.erasers, e)
	return h
}

// Create handles POST /patients
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.ProfessionalID = caller.UserID

	p, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create patient", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.inviter != nil {
		if err := h.inviter.Invite(r.Context(), p); err != nil {
			// The record exists; the invite can be retried out of band.
			h.logger.Error("failed to invite patient", "error", err, "patient_id", p.ID)
		} else if h.notifier != nil {
			h.notifier.Notify(r.Context(), p.ID, "patient_invited",
				"Welcome! Register with this email address to activate your account.")
		}
	}

	if h.auditor != nil {
		h.auditor.RecordAccess(r.Context(), caller.UserID, p.ID, "consent_granted")
	}
	h.logger.Info("patient created", "patient_id", p.ID, "professional_id", caller.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// List handles GET /patients
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	list, err := h.repo.ListByProfessional(r.Context(), caller.UserID)
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Patient{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Get handles GET /patients/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPatient(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// Update handles PUT /patients/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPatient(w, r)
	if !ok {
		return
	}

	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Phone != "" {
		p.Phone = req.Phone
	}
	if req.DateOfBirth != "" {
		p.DateOfBirth = req.DateOfBirth
	}

	if err := h.repo.Update(r.Context(), p); err != nil {
		h.logger.Error("failed to update patient", "error", err, "patient_id", p.ID)
		http.Error(w, "failed to update patient", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// Delete handles DELETE /patients/{id}. Removing the record erases the
// patient's clinical data, which LGPD erasure requests rely on.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPatient(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), p.ID); err != nil {
		h.logger.Error("failed to delete patient", "error", err, "patient_id", p.ID)
		http.Error(w, "failed to delete patient", http.StatusInternalServerError)
		return
	}

	// The record is gone; purge everything hanging off it.
	for _, e := range h.erasers {
		if err := e.ErasePatientData(r.Context(), p.ID); err != nil {
			h.logger.Error("failed to erase dependent patient data", "error", err, "patient_id", p.ID)
		}
	}

	if h.auditor != nil {
		if err := h.auditor.LogErasure(r.Context(), p.ProfessionalID, p.ID, "deleted by professional"); err != nil {
			h.logger.Error("failed to record erasure", "error", err, "patient_id", p.ID)
		}
	}
	h.logger.Info("patient deleted", "patient_id", p.ID, "professional_id", p.ProfessionalID)
	w.WriteHeader(http.StatusNoContent)
}

// GetOwnProfile handles GET /me/profile for patient callers.
func (h *Handler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok || caller.PatientProfileID == "" {
		http.Error(w, "no patient profile", http.StatusNotFound)
		return
	}

	p, err := h.repo.GetByID(r.Context(), caller.PatientProfileID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load own profile", "error", err)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// ownedPatient loads the patient in the URL and enforces that the caller is
// the owning professional. A foreign record reads as not found.
func (h *Handler) ownedPatient(w http.ResponseWriter, r *http.Request) (*Patient, bool) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return nil, false
	}

	p, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("failed to load patient", "error", err)
		http.Error(w, "failed to load patient", http.StatusInternalServerError)
		return nil, false
	}
	if p.ProfessionalID != caller.UserID {
		http.Error(w, ErrPatientNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return p, true
}
