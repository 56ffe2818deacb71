package service

import "errors"

// Service-level errors shared by the CRUD services.
var (
	ErrCarUnavailable      = errors.New("car is not available")
	ErrEmployeeInactive    = errors.New("employee is not active")
	ErrInvalidStatusChange = errors.New("invalid status change")
)
