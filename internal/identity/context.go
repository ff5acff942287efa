// Package identity carries the authenticated caller through request
// contexts. It sits below auth and the domain packages so both can share it
// without import cycles.
package identity

import "context"

// Role distinguishes the two user populations of the platform.
type Role string

const (
	RoleProfessional Role = "professional"
	RolePatient      Role = "patient"
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID           string
	Name             string
	Role             Role
	PatientProfileID string
}

type ctxKey string

const identityKey ctxKey = "psiclinic.identity"

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity if present.
func FromContext(ctx context.Context) (Identity, bool) {
	val := ctx.Value(identityKey)
	if val == nil {
		return Identity{}, false
	}
	id, ok := val.(Identity)
	return id, ok && id.UserID != ""
}
