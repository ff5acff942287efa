package sessiontypes

import "strings"

// SessionType is a template defining duration and price for a category of
// appointment (first contact, weekly therapy, couples session, ...).
type SessionType struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	Color           string `json:"color"`
}

// CreateRequest is the payload for creating or updating a session type.
type CreateRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	Color           string `json:"color"`
}

// Validate checks the session type invariants.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrMissingName
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if r.PriceCents < 0 {
		return ErrInvalidPrice
	}
	return nil
}
