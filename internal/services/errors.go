// Package services holds the business rules behind the HTTP API: accounts,
// script generation and storage, analytics and the community feed. Services
// depend on the store interfaces only, so every backend gets the same rules.
package services

import (
	"errors"

	"github.com/hookline/hookline/internal/store"
)

// Sentinel errors returned by the services. Validation failures are
// *validation.Error values instead.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrEmailTaken     = store.ErrEmailTaken
	ErrUsernameTaken  = store.ErrUsernameTaken
	ErrScriptNotFound = store.ErrScriptNotFound
)
