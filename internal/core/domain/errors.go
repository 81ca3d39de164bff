package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrZoneNotFound is returned when a zone id does not exist.
	ErrZoneNotFound = errors.New("zone not found")
	// ErrZoneConflict is returned when a zone name is already taken.
	ErrZoneConflict = errors.New("zone name already exists")
)

// ValidationCode identifies why a zone was refused before persistence.
type ValidationCode string

const (
	EmptyName            ValidationCode = "empty_name"
	InsufficientVertices ValidationCode = "insufficient_vertices"
	InvalidCoordinate    ValidationCode = "invalid_coordinate"
	TooManyVertices      ValidationCode = "too_many_vertices"
)

// MinZoneVertices is the smallest ring that may be persisted.
const MinZoneVertices = 3

// ValidationError blocks a submission. Its message is shown to the user as-is.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with the standard message for code.
func NewValidationError(code ValidationCode) *ValidationError {
	var msg string
	switch code {
	case EmptyName:
		msg = "zone name must not be empty"
	case InsufficientVertices:
		msg = fmt.Sprintf("zone needs at least %d points", MinZoneVertices)
	case InvalidCoordinate:
		msg = "zone contains an invalid coordinate"
	case TooManyVertices:
		msg = "zone has too many points"
	default:
		msg = string(code)
	}
	return &ValidationError{Code: code, Message: msg}
}

// ConflictError wraps ErrZoneConflict with the message the API shows.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return e.Detail }

func (e *ConflictError) Unwrap() error { return ErrZoneConflict }

// NewVertexLimitError reports a ring longer than the configured maximum.
func NewVertexLimitError(limit int) *ValidationError {
	return &ValidationError{Code: TooManyVertices, Message: fmt.Sprintf("too many points (max %d)", limit)}
}
