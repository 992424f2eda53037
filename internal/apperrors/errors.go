package apperrors

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// FetchError is the single read-side failure. Its message stays generic; the
// underlying transport or decode failure is kept for logs only.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	return "failed to fetch products"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func NewFetchError(status int, err error) *FetchError {
	return &FetchError{Status: status, Err: err}
}

// CancelledError reports that the user declined a confirmation prompt. It is not
// a failure and must never be surfaced to the user.
type CancelledError struct {
	Operation string
}

func (e *CancelledError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("%s operation cancelled", e.Operation)
	}
	return "operation cancelled"
}

func NewCancelledError(operation string) *CancelledError {
	return &CancelledError{Operation: operation}
}

func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled)
}

type ServiceUnavailableError struct {
	Message string
}

func (e *ServiceUnavailableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service unavailable: %s", e.Message)
	}
	return "service unavailable"
}

func NewServiceUnavailableError(message string) *ServiceUnavailableError {
	return &ServiceUnavailableError{Message: message}
}

type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("operation timed out: %s", e.Operation)
	}
	return "operation timed out"
}

func NewTimeoutError(operation string) *TimeoutError {
	return &TimeoutError{Operation: operation}
}
