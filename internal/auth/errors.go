package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when email/password do not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when registering an email that already has an account
	ErrEmailTaken = errors.New("email is already in use")

	// ErrInvalidName is returned when the name is empty
	ErrInvalidName = errors.New("name is required")

	// ErrMissingEmail is returned when the email is empty
	ErrMissingEmail = errors.New("email is required")

	// ErrWeakPassword is returned for passwords under the minimum length
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrIdentityMismatch is returned when reset-password identity fields do not match the record
	ErrIdentityMismatch = errors.New("provided details do not match our records")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
)
