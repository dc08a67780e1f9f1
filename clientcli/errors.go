package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrTokenRequired  = errors.New("admin token is required")
	ErrConfigRequired = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoTargets   = errors.New("nothing to delete")
	ErrNoFiles     = errors.New("no files provided")
	ErrEmptyPath   = errors.New("path is required")
	ErrEmptyTitle  = errors.New("title is required")
	ErrUnknownKind = errors.New("unknown content kind")
)
