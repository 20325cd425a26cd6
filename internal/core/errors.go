package core

import (
	"errors"
	"fmt"
)

// InvalidRequestError reports malformed input to submit or retrieve.
type InvalidRequestError struct {
	Message string
	Cause   error
}

func (e *InvalidRequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Message, e.Cause)
	}
	return "invalid request: " + e.Message
}

func (e *InvalidRequestError) Unwrap() error { return e.Cause }

// UnknownTechnologyError is returned when a technology is neither registered nor loadable.
type UnknownTechnologyError struct {
	Name string
}

func (e *UnknownTechnologyError) Error() string {
	return fmt.Sprintf("unknown technology: %q", e.Name)
}

// InvalidParameterError reports a missing or malformed technology parameter.
type InvalidParameterError struct {
	Param   string
	Message string
}

func (e *InvalidParameterError) Error() string {
	if e.Param == "" {
		return e.Message
	}
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Message)
}

// BackendError wraps a failure of an extraction library, binary or remote service.
type BackendError struct {
	Technology string
	Message    string
	Cause      error
}

func (e *BackendError) Error() string {
	msg := e.Technology + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Cause }

// NotFoundError reports that no job exists under an id.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %q not found", e.JobID)
}

// StorageError reports persisted data that cannot be written or read back.
type StorageError struct {
	Op    string
	JobID string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.JobID, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// NewBackendError is shorthand used by technologies.
func NewBackendError(technology, message string, cause error) error {
	return &BackendError{Technology: technology, Message: message, Cause: cause}
}

// NewParamError is shorthand used by technologies.
func NewParamError(param, message string) error {
	return &InvalidParameterError{Param: param, Message: message}
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	var (
		ir *InvalidRequestError
		ut *UnknownTechnologyError
		ip *InvalidParameterError
	)
	return errors.As(err, &ir) || errors.As(err, &ut) || errors.As(err, &ip)
}

// IsNotFound reports whether err signals a missing job.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
