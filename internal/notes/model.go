package notes

import (
	"strings"
	"time"
)

// ClinicalNote is a private record a professional keeps about a patient.
// Notes are never visible to the patient.
type ClinicalNote struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	ProfessionalID string    `json:"professional_id"`
	SessionID      string    `json:"session_id,omitempty"`
	Content        string    `json:"content"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateNoteRequest represents the request body for creating or updating a note
type CreateNoteRequest struct {
	SessionID string   `json:"session_id"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
}

// Validate validates the note request
func (r *CreateNoteRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return ErrMissingContent
	}
	return nil
}
