package services

import "errors"

// Sentinel errors handlers map onto HTTP status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrNotAvailable       = errors.New("food item is not available")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
