package lazymodal

import (
	"errors"
	"fmt"
)

// Sentinel errors for modal and server operations.
var (
	ErrNoTriggers       = errors.New("lazymodal: no trigger element found")
	ErrFetchFailed      = errors.New("lazymodal: fetch failed")
	ErrBadStatus        = errors.New("lazymodal: unexpected response status")
	ErrAlreadyAttached  = errors.New("lazymodal: modal already attached")
	ErrNotAttached      = errors.New("lazymodal: modal not attached")
	ErrNotFound         = errors.New("lazymodal: resource not found")
	ErrDecryptFailed    = errors.New("lazymodal: parameter decryption failed")
	ErrSignatureInvalid = errors.New("lazymodal: signature verification failed")
	ErrInvalidFormat    = errors.New("lazymodal: invalid parameter format")
)

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsFetchError checks if err came from retrieving a resource.
func IsFetchError(err error) bool {
	return errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrBadStatus)
}

// ResourceError records one resource that failed during a load. The load
// itself still completes; see Report.
type ResourceError struct {
	Kind    Kind
	Path    string
	Address string
	Err     error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("lazymodal: %s %s (%s): %v", e.Kind, e.Path, e.Address, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
