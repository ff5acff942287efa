package notes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/pkg/logging"
)

// Auditor records access to clinical data. Reads of notes are audited so
// LGPD access reports can show who looked at a patient's record.
type Auditor interface {
	RecordAccess(ctx context.Context, actorID, patientID, action string)
}

// Handler handles HTTP requests for clinical notes. All routes require a
// professional caller; ownership is enforced in the queries.
type Handler struct {
	repo       *Repository
	patients   patients.Repository
	auditor    Auditor
	summarizer *Summarizer
	logger     *logging.Logger
}

// NewHandler creates a new notes handler. auditor may be nil.
func NewHandler(repo *Repository, patientRepo patients.Repository, auditor Auditor, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("notes: repository required")
	}
	if patientRepo == nil {
		panic("notes: patient repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, patients: patientRepo, auditor: auditor, logger: logger}
}

// WithSummarizer enables AI note summaries.
func (h *Handler) WithSummarizer(s *Summarizer) *Handler {
	h.summarizer = s
	return h
}

// Create handles POST /patients/{id}/notes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	patient, ok := h.ownedPatient(w, r, caller.UserID)
	if !ok {
		return
	}
	note, err := h.repo.Create(r.Context(), caller.UserID, patient.ID, &req)
	if err != nil {
		if errors.Is(err, ErrMissingContent) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create note", "error", err)
		http.Error(w, "failed to create note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

// ListByPatient handles GET /patients/{id}/notes
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	patientID := chi.URLParam(r, "id")
	list, err := h.repo.ListByPatient(r.Context(), caller.UserID, patientID)
	if err != nil {
		h.logger.Error("failed to list notes", "error", err)
		http.Error(w, "failed to list notes", http.StatusInternalServerError)
		return
	}

	h.audit(r.Context(), caller.UserID, patientID, "notes_read")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// Update handles PUT /notes/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.repo.Update(r.Context(), caller.UserID, chi.URLParam(r, "id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoteNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrMissingContent):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update note", "error", err)
			http.Error(w, "failed to update note", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(note)
}

// Delete handles DELETE /notes/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	if err := h.repo.Delete(r.Context(), caller.UserID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete note", "error", err)
		http.Error(w, "failed to delete note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summarize handles GET /patients/{id}/notes/summary
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	if h.summarizer == nil {
		http.Error(w, "note summaries are not configured", http.StatusServiceUnavailable)
		return
	}

	patient, ok := h.ownedPatient(w, r, caller.UserID)
	if !ok {
		return
	}

	list, err := h.repo.ListByPatient(r.Context(), caller.UserID, patient.ID)
	if err != nil {
		h.logger.Error("failed to list notes", "error", err)
		http.Error(w, "failed to list notes", http.StatusInternalServerError)
		return
	}

	summary, err := h.summarizer.Summarize(r.Context(), patient.Name, list)
	if err != nil {
		if errors.Is(err, ErrNoNotes) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to summarize notes", "error", err, "patient_id", patient.ID)
		http.Error(w, "failed to summarize notes", http.StatusBadGateway)
		return
	}

	h.audit(r.Context(), caller.UserID, patient.ID, "notes_read")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// ownedPatient resolves the patient in the URL and enforces that the caller
// is the owning professional. A foreign record reads as not found.
func (h *Handler) ownedPatient(w http.ResponseWriter, r *http.Request, professionalID string) (*patients.Patient, bool) {
	patient, err := h.patients.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil || patient.ProfessionalID != professionalID {
		http.Error(w, patients.ErrPatientNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return patient, true
}

func (h *Handler) audit(ctx context.Context, actorID, patientID, action string) {
	if h.auditor == nil {
		return
	}
	h.auditor.RecordAccess(ctx, actorID, patientID, action)
}
