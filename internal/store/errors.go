package store

import "errors"

// Sentinel errors returned by Store implementations. The service layer
// translates these into coded API errors; the store stays ignorant of
// HTTP and envelope concerns.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
)
