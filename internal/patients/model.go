package patients

import (
	"strings"
	"time"
)

// Status tracks the patient invite lifecycle: a professional creates the
// record as invited, and it flips to active when the patient claims their
// account.
type Status string

const (
	StatusInvited Status = "invited"
	StatusActive  Status = "active"
)

// Patient is a clinical record owned by one professional.
type Patient struct {
	ID              string    `json:"id"`
	ProfessionalID  string    `json:"professional_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	DateOfBirth     string    `json:"date_of_birth"`
	LGPDConsent     bool      `json:"lgpd_consent"`
	Status          Status    `json:"status"`
	IntakeCompleted bool      `json:"intake_completed"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreatePatientRequest represents the request body for creating a patient
type CreatePatientRequest struct {
	ProfessionalID string `json:"-"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DateOfBirth    string `json:"date_of_birth"`
	LGPDConsent    bool   `json:"lgpd_consent"`
}

// Validate validates the create patient request
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.ProfessionalID) == "" {
		return ErrMissingProfessional
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrMissingEmail
	}
	if !r.LGPDConsent {
		return ErrConsentRequired
	}
	return nil
}
