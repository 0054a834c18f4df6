package common

import (
	"errors"
	"net/http"
)

// Kind classifies an error by who has to act on it.
type Kind string

const (
	// KindValidation is malformed or out-of-range input; shown as a field error.
	KindValidation Kind = "validation"
	// KindBusiness is a legitimate business-rule rejection; shown to the customer.
	KindBusiness Kind = "business"
	// KindConfiguration is an integration mistake; logged, never shown verbatim.
	KindConfiguration Kind = "configuration"
	// KindInternal covers everything else.
	KindInternal Kind = "internal"
)

// AppError represents an error with an attached kind, code and HTTP status.
type AppError struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Public returns the status and body safe to send to a client. Configuration
// and internal errors are reduced to a generic message.
func (e *AppError) Public() (int, ErrorBody) {
	status := e.HTTPStatus
	switch e.Kind {
	case KindConfiguration, KindInternal:
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
		return status, ErrorBody{Code: "INTERNAL", Message: "internal error"}
	}
	if status == 0 {
		status = http.StatusBadRequest
	}
	code := e.Code
	if code == "" {
		code = "BAD_REQUEST"
	}
	return status, ErrorBody{Code: code, Message: e.Message, Details: e.Details}
}

// NewAppError constructs an AppError.
func NewAppError(kind Kind, code, message string, status int, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, HTTPStatus: status, Err: err}
}

// WithDetails attaches structured details and returns the error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// KindOf reports the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var target *AppError
	if errors.As(err, &target) && target.Kind != "" {
		return target.Kind
	}
	return KindInternal
}
