package notifications

import (
	"context"
	"fmt"

	"github.com/psiclinic/platform/internal/auth"
	"github.com/psiclinic/platform/internal/patients"
)

// DirectoryResolver resolves notification recipients to email addresses.
// Professionals are addressed by user ID, patients by their clinical
// profile ID, so both directories are consulted in that order.
type DirectoryResolver struct {
	users       auth.Repository
	patientRepo patients.Repository
}

// NewDirectoryResolver creates a resolver backed by the user and patient stores.
func NewDirectoryResolver(users auth.Repository, patientRepo patients.Repository) *DirectoryResolver {
	if users == nil {
		panic("notifications: user repository required")
	}
	if patientRepo == nil {
		panic("notifications: patient repository required")
	}
	return &DirectoryResolver{users: users, patientRepo: patientRepo}
}

// EmailFor implements RecipientResolver.
func (r *DirectoryResolver) EmailFor(ctx context.Context, recipientID string) (string, string, error) {
	if u, err := r.users.GetByID(ctx, recipientID); err == nil {
		return u.Email, u.Name, nil
	}
	p, err := r.patientRepo.GetByID(ctx, recipientID)
	if err != nil {
		return "", "", fmt.Errorf("notifications: unknown recipient %s: %w", recipientID, err)
	}
	return p.Email, p.Name, nil
}
