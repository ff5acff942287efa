package notifications

import "time"

// Notification is an in-app message shown on the recipient's dashboard.
// RecipientID is a user ID for professionals and a patient profile ID for
// patients.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
