package notifications

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/pkg/logging"
)

// Handler handles HTTP requests for the notification inbox.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new notifications handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("notifications: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// List handles GET /notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := recipientFromContext(w, r)
	if !ok {
		return
	}

	list, err := h.service.List(r.Context(), recipientID)
	if err != nil {
		h.logger.Error("failed to list notifications", "error", err)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// MarkRead handles POST /notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := recipientFromContext(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id"), recipientID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to mark notification read", "error", err)
		http.Error(w, "failed to mark notification read", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	recipientID, ok := recipientFromContext(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllRead(r.Context(), recipientID); err != nil {
		h.logger.Error("failed to mark notifications read", "error", err)
		http.Error(w, "failed to mark notifications read", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recipientFromContext picks the notification inbox of the caller: their
// patient profile for patients, their user ID for professionals.
func recipientFromContext(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return "", false
	}
	if caller.Role == identity.RolePatient {
		if caller.PatientProfileID == "" {
			http.Error(w, "no patient profile", http.StatusForbidden)
			return "", false
		}
		return caller.PatientProfileID, true
	}
	return caller.UserID, true
}
