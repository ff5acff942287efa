package sessions

import (
	"strings"
	"time"

	"github.com/psiclinic/platform/internal/identity"
	"github.com/psiclinic/platform/internal/scheduling"
)

// Session is a committed appointment between a professional and a patient.
// Start/End are stored in UTC; the scheduling policy's timezone only governs
// slot generation.
type Session struct {
	ID             string                   `json:"id"`
	ProfessionalID string                   `json:"professional_id"`
	PatientID      string                   `json:"patient_id"`
	SessionTypeID  string                   `json:"session_type_id"`
	StartTime      time.Time                `json:"start_time"`
	EndTime        time.Time                `json:"end_time"`
	Status         scheduling.SessionStatus `json:"status"`
	Paid           bool                     `json:"paid"`
	PriceCents     int64                    `json:"price_cents"`
	Notes          string                   `json:"notes,omitempty"`
	Satisfaction   *int                     `json:"satisfaction,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Interval returns the calculator's view of this session.
func (s *Session) Interval() scheduling.SessionInterval {
	return scheduling.SessionInterval{Start: s.StartTime, End: s.EndTime, Status: s.Status}
}

// BookRequest asks for a new session at a specific offered slot. ActorRole
// is set by the handler from the caller's token and decides which side gets
// the booking notification.
type BookRequest struct {
	ProfessionalID string        `json:"professional_id"`
	PatientID      string        `json:"patient_id"`
	SessionTypeID  string        `json:"session_type_id"`
	StartTime      time.Time     `json:"start_time"`
	ActorRole      identity.Role `json:"-"`
}

// CompleteRequest optionally records the patient's satisfaction (1-5) and
// the professional's short session notes when a session is completed.
type CompleteRequest struct {
	Satisfaction *int   `json:"satisfaction,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Validate checks the satisfaction range when one is given.
func (r *CompleteRequest) Validate() error {
	if r.Satisfaction != nil && (*r.Satisfaction < 1 || *r.Satisfaction > 5) {
		return ErrInvalidSatisfaction
	}
	return nil
}

// Validate checks required fields; slot validity is checked at commit time.
func (r *BookRequest) Validate() error {
	if strings.TrimSpace(r.ProfessionalID) == "" {
		return ErrMissingProfessional
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if strings.TrimSpace(r.SessionTypeID) == "" {
		return ErrMissingSessionType
	}
	if r.StartTime.IsZero() {
		return ErrMissingStartTime
	}
	return nil
}
