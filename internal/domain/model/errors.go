package model

import "errors"

// Sentinel error kinds shared by the engine packages. These allow errors.Is from callers.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrValidationFailure    = errors.New("generated output failed validation")
	ErrConflictingResult    = errors.New("conflicting result")
	ErrBracketNotReady      = errors.New("bracket not ready")
	ErrInvalidChallenge     = errors.New("invalid challenge")
	ErrNotFound             = errors.New("not found")
)
