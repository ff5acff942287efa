package sessiontypes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/psiclinic/platform/pkg/logging"
)

// Handler handles HTTP requests for the session type catalog
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new session types handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /session-types
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	st, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create session type", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info("session type created", "id", st.ID, "name", st.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(st)
}

// List handles GET /session-types
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list session types", "error", err)
		http.Error(w, "failed to list session types", http.StatusInternalServerError)
		return
	}
	if types == nil {
		types = []*SessionType{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(types)
}

// Get handles GET /session-types/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load session type", "error", err)
		http.Error(w, "failed to load session type", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// Update handles PUT /session-types/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	st := &SessionType{
		ID:              chi.URLParam(r, "id"),
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Color:           req.Color,
	}
	if err := h.repo.Update(r.Context(), st); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update session type", "error", err, "id", st.ID)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// Delete handles DELETE /session-types/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete session type", "error", err, "id", id)
		http.Error(w, "failed to delete session type", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
