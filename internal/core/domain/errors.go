package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingCredential indicates no refresh token is available for a
	// provider, neither stored nor supplied through the environment.
	// Raised before any network call is attempted.
	ErrMissingCredential = errors.New("missing refresh token")

	// ErrSyncInProgress indicates a sync run is already in flight
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrEndOfStream signals that a record stream is exhausted
	ErrEndOfStream = errors.New("end of stream")
)

// CredentialError indicates a provider rejected a token refresh or
// authorization-code exchange. It is fatal to that provider's sync run.
type CredentialError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s token request failed (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// FetchError indicates a provider rejected a resource request. Pages fetched
// earlier in the same stream are not rolled back; the caller decides whether
// a partial result is usable.
type FetchError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// MergeError indicates a storage failure while upserting a batch. Records
// committed before the failure remain committed.
type MergeError struct {
	Provider Provider
	Err      error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s merge failed: %v", e.Provider, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
