package errors

import "errors"

// Shared application errors. Services wrap these with fmt.Errorf("%w: ...")
// so handlers can map them to HTTP status codes with errors.Is.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned for authentication failures.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts such as duplicate
	// emails or VINs, or an attempt to sell an unavailable car.
	ErrConflict = errors.New("resource state conflict")
)
