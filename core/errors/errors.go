// Package errors provides the error types shared by the punctfix CLI, API
// and storage layers. The normalization engine itself never fails; these
// types describe what can go wrong around it.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a job, result or journal entry does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a request or file failed validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the operation does not fit the resource's state
	ErrConflict = errors.New("conflict")
	// ErrUnsupported indicates an unsupported encoding or file type
	ErrUnsupported = errors.New("unsupported")
)

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string // "job", "result", "run"
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError reports input that was rejected before normalization.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// StateError reports an operation on a resource in the wrong state, such as
// cancelling a job that already finished.
type StateError struct {
	Resource string
	ID       string
	State    string
	Op       string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: %s", e.Op, e.Resource, e.ID, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrConflict
}

// IOError wraps a failed read or write.
type IOError struct {
	Operation string // "read", "write", "open", "rename"
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnsupportedError reports a feature or file type punctfix does not handle.
type UnsupportedError struct {
	Feature string
	Reason  string
	Err     error
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported %s: %s", e.Feature, e.Reason)
	}
	return fmt.Sprintf("unsupported %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUnsupported
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewState creates a StateError
func NewState(op, resource, id, state string) *StateError {
	return &StateError{Op: op, Resource: resource, ID: id, State: state}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// NewUnsupported creates an UnsupportedError
func NewUnsupported(feature, reason string) *UnsupportedError {
	return &UnsupportedError{Feature: feature, Reason: reason}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target any) bool {
	return errors.As(err, target)
}
