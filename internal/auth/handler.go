package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/psiclinic/platform/pkg/logging"
)

// Handler handles the authentication endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("auth: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}

	h.logger.Info("login", "user_id", resp.User.ID, "role", resp.User.Role)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Register(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrInvalidName), errors.Is(err, ErrMissingEmail), errors.Is(err, ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("registration failed", "error", err)
			http.Error(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// ResetPassword handles POST /auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrIdentityMismatch):
			http.Error(w, err.Error(), http.StatusForbidden)
		default:
			h.logger.Error("password reset failed", "error", err)
			http.Error(w, "password reset failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "password_updated"})
}

// ListProfessionals handles GET /professionals. It is public so patients can
// pick a professional before they log in.
func (h *Handler) ListProfessionals(w http.ResponseWriter, r *http.Request) {
	professionals, err := h.service.Professionals(r.Context())
	if err != nil {
		h.logger.Error("failed to list professionals", "error", err)
		http.Error(w, "failed to list professionals", http.StatusInternalServerError)
		return
	}
	if professionals == nil {
		professionals = []*User{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(professionals)
}
