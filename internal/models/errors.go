package models

import "errors"

// Error kinds shared by storage, guards and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
)
