package domain

import (
	"errors" // Sentinel errors
	"fmt"    // Error formatting
)

// Errors a handler turns into a flash message
var (
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrPasswordTooLong     = errors.New("password too long")
)

// StorageError reports a failed read or write against the store.
// It is fatal to the request and never retried.
type StorageError struct {
	Op  string // Repository operation that failed
	Err error  // Underlying driver error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err carries a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
