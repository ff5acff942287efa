package sessions

import "errors"

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrSlotConflict is returned when the requested slot overlaps an
	// existing session at commit time
	ErrSlotConflict = errors.New("time slot is no longer available")

	// ErrSlotUnavailable is returned when the requested start is not an
	// offered slot (past, outside working hours, or misaligned)
	ErrSlotUnavailable = errors.New("time slot is not bookable")

	// ErrInvalidTransition is returned for a status change the current
	// status does not allow
	ErrInvalidTransition = errors.New("invalid session status transition")

	// ErrUnknownSessionType is returned when the session type does not exist
	ErrUnknownSessionType = errors.New("unknown session type")

	// ErrMissingProfessional is returned when the professional is empty
	ErrMissingProfessional = errors.New("professional is required")

	// ErrMissingPatient is returned when the patient is empty
	ErrMissingPatient = errors.New("patient is required")

	// ErrMissingSessionType is returned when the session type is empty
	ErrMissingSessionType = errors.New("session type is required")

	// ErrMissingStartTime is returned when the start time is empty
	ErrMissingStartTime = errors.New("start time is required")

	// ErrInvalidSatisfaction is returned for a satisfaction score outside 1-5
	ErrInvalidSatisfaction = errors.New("satisfaction must be between 1 and 5")
)
