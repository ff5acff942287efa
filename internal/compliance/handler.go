package compliance

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/pkg/logging"
)

// Handler serves the per-patient audit trail to the owning professional.
type Handler struct {
	audit    *AuditService
	patients patients.Repository
	logger   *logging.Logger
}

// NewHandler creates a new compliance handler.
func NewHandler(audit *AuditService, patientRepo patients.Repository, logger *logging.Logger) *Handler {
	if audit == nil {
		panic("compliance: audit service required")
	}
	if patientRepo == nil {
		panic("compliance: patient repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{audit: audit, patients: patientRepo, logger: logger}
}

// ListByPatient handles GET /patients/{id}/audit
func (h *Handler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}

	patientID := chi.URLParam(r, "id")
	patient, err := h.patients.GetByID(r.Context(), patientID)
	if err != nil || patient.ProfessionalID != caller.UserID {
		http.Error(w, patients.ErrPatientNotFound.Error(), http.StatusNotFound)
		return
	}

	events, err := h.audit.ListByPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list audit events", "error", err, "patient_id", patientID)
		http.Error(w, "failed to list audit events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
