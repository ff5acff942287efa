package auth

import (
	"strings"
	"time"

	"github.com/psiclinic/platform/internal/identity"
)

// User is a login identity. Patients additionally carry a link to their
// clinical record.
type User struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	PasswordHash     string        `json:"-"`
	Role             identity.Role `json:"role"`
	PatientProfileID string        `json:"patient_profile_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register. Registration is
// patient self-service; professionals are provisioned out of band.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
}

// Validate checks the register request.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if len(r.Password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// ResetPasswordRequest is the payload for POST /auth/reset-password. Without
// an email channel for reset links, identity is checked against the clinical
// record on file: name, phone and date of birth must all match.
type ResetPasswordRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	NewPassword string `json:"new_password"`
}

// TokenResponse is returned by login and register.
type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
