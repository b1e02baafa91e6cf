package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrStaleQuery signals that an incremental query's generation token was
// superseded mid-flight. Callers discard the partial result silently.
var ErrStaleQuery = errors.New("query superseded by newer snapshot generation")

// ErrReloadInFlight is returned by a manual refresh that raced another
// reload; overlapping triggers collapse instead of queueing.
var ErrReloadInFlight = errors.New("reload already in flight")

// ValidationError is a pre-write failure: no log row was created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteAppendError wraps a store failure after validation passed. The
// in-memory snapshot is left untouched when this is returned.
type RemoteAppendError struct {
	Store string
	Err   error
}

func (e *RemoteAppendError) Error() string {
	return fmt.Sprintf("remote append to %s failed: %v", e.Store, e.Err)
}

func (e *RemoteAppendError) Unwrap() error {
	return e.Err
}

func IsRemoteAppendError(err error) bool {
	var ae *RemoteAppendError
	return errors.As(err, &ae)
}
