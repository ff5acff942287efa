package patients

import "errors"

var (
	// ErrInvalidName is returned when the name is empty
	ErrInvalidName = errors.New("patient name is required")

	// ErrMissingEmail is returned when the email is empty; invites go out by email
	ErrMissingEmail = errors.New("patient email is required")

	// ErrMissingProfessional is returned when no owning professional is set
	ErrMissingProfessional = errors.New("professional id is required")

	// ErrConsentRequired is returned when LGPD consent was not given
	ErrConsentRequired = errors.New("lgpd consent is required")

	// ErrPatientNotFound is returned when a patient is not found
	ErrPatientNotFound = errors.New("patient not found")
)
