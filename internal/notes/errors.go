package notes

import "errors"

var (
	// ErrNoteNotFound is returned when a note is not found or owned by
	// another professional
	ErrNoteNotFound = errors.New("note not found")

	// ErrMissingContent is returned when the note content is empty
	ErrMissingContent = errors.New("note content is required")
)
