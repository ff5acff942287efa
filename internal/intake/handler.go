package intake

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/patients"
	"github.com/psiclinic/platform/pkg/logging"
)

// Auditor records professional access to intake transcripts.
type Auditor interface {
	RecordAccess(ctx context.Context, actorID, patientID, action string)
}

// Handler handles the intake chat over REST and websocket.
type Handler struct {
	service  *Service
	patients patients.Repository
	auditor  Auditor
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHandler creates a new intake handler. patientRepo is used to check that
// a professional reading a transcript owns the patient.
func NewHandler(service *Service, patientRepo patients.Repository, logger *logging.Logger) *Handler {
	if service == nil {
		panic("intake: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		patients: patientRepo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth happens before the upgrade; cross-origin browser
			// clients are expected.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// WithAuditor attaches the compliance audit trail.
func (h *Handler) WithAuditor(a Auditor) *Handler {
	h.auditor = a
	return h
}

type messageRequest struct {
	Message string `json:"message"`
}

// PostMessage handles POST /intake/messages for patient callers.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	profileID, ok := patientProfile(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.service.HandleMessage(r.Context(), profileID, req.Message)
	if err != nil {
		h.writeMessageError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

// GetTranscript handles GET /intake/transcript for patient callers.
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	profileID, ok := patientProfile(w, r)
	if !ok {
		return
	}
	h.writeTranscript(w, r, profileID)
}

// GetPatientTranscript handles GET /patients/{id}/intake for the owning
// professional.
func (h *Handler) GetPatientTranscript(w http.ResponseWriter, r *http.Request) {
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
	if h.auditor != nil {
		h.auditor.RecordAccess(r.Context(), caller.UserID, patientID, "transcript_read")
	}
	h.writeTranscript(w, r, patientID)
}

// Chat handles GET /intake/ws: a websocket session where each text frame is
// a patient message and each reply frame carries the assistant's answer.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	profileID, ok := patientProfile(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req messageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("websocket read failed", "error", err)
			}
			return
		}

		reply, err := h.service.HandleMessage(r.Context(), profileID, req.Message)
		if err != nil {
			payload := map[string]string{"error": "message failed"}
			if errors.Is(err, ErrIntakeCompleted) {
				payload["error"] = ErrIntakeCompleted.Error()
			}
			if writeErr := conn.WriteJSON(payload); writeErr != nil {
				return
			}
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
		if reply.Completed {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "intake completed"))
			return
		}
	}
}

func (h *Handler) writeTranscript(w http.ResponseWriter, r *http.Request, patientID string) {
	msgs, err := h.service.Transcript(r.Context(), patientID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load transcript", "error", err, "patient_id", patientID)
		http.Error(w, "failed to load transcript", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}

func (h *Handler) writeMessageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrIntakeCompleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, patients.ErrPatientNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("intake message failed", "error", err)
		http.Error(w, "intake message failed", http.StatusInternalServerError)
	}
}

func patientProfile(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return "", false
	}
	if caller.PatientProfileID == "" {
		http.Error(w, "no patient profile", http.StatusForbidden)
		return "", false
	}
	return caller.PatientProfileID, true
}
