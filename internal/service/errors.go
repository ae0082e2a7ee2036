package service

import (
	"errors"
	"fmt"

	"waterscribe/internal/repository"
)

// ValidationReason tells a missing value apart from a malformed one.
type ValidationReason string

const (
	ReasonMissing   ValidationReason = "missing"
	ReasonMalformed ValidationReason = "malformed"
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Field   string
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missing(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Reason: ReasonMissing, Message: msg}
}

func malformed(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Reason: ReasonMalformed, Message: msg}
}

// NewMalformedError is used by transports that fail to decode a field
// before it reaches the service.
func NewMalformedError(field, msg string) *ValidationError {
	return malformed(field, msg)
}

// NotFoundError reports that a referenced id does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == repository.ErrNotFound
}

// ErrTaskInactive is returned when completing a one-time task that has
// already been retired.
var ErrTaskInactive = errors.New("task is no longer active")

// StorageError wraps a persistence failure. The whole operation was aborted.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsSwallowable reports errors that transports answer with success: the
// task is missing or was already retired.
func IsSwallowable(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrTaskInactive)
}
