// Package errors provides standardized error handling for the certificate pipeline.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeCertificateNotFound ErrorCode = "CERTIFICATE_NOT_FOUND"

	ErrCodePaymentNotValidated      ErrorCode = "PAYMENT_NOT_VALIDATED"
	ErrCodeCertificateAlreadyIssued ErrorCode = "CERTIFICATE_ALREADY_ISSUED"

	ErrCodeValidationInputInvalid ErrorCode = "VALIDATION_INPUT_INVALID"
	ErrCodeInvalidTransition      ErrorCode = "INVALID_STATE_TRANSITION"

	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewApplicationNotFoundError creates a non-retryable lookup error.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCertificateNotFoundError creates a non-retryable lookup error.
func NewCertificateNotFoundError(identifier string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCertificateNotFound,
		Message:   "Certificate not found",
		Details:   fmt.Sprintf("identifier: %s", identifier),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentNotValidatedError creates a non-retryable precondition error.
func NewPaymentNotValidatedError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentNotValidated,
		Message:   "Payment must be validated before certificate issuance",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCertificateAlreadyIssuedError creates a non-retryable duplicate issuance error.
func NewCertificateAlreadyIssuedError(applicationID, certificateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCertificateAlreadyIssued,
		Message:   "Certificate already issued for application",
		Details:   fmt.Sprintf("applicationId: %s, certificateId: %s", applicationID, certificateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationInputInvalidError creates a non-retryable input validation error.
func NewValidationInputInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationInputInvalid,
		Message:   "Submission data validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable state machine error.
func NewInvalidTransitionError(from, to string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Invalid application state transition",
		Details:   fmt.Sprintf("from: %s, to: %s", from, to),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable backing store error.
func NewStoreUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Backing store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf extracts the ErrorCode from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsNotFound reports whether err is one of the lookup-failure codes.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeApplicationNotFound || code == ErrCodeCertificateNotFound
}

// IsRetryable reports whether err is a retryable StandardError.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "PAYMENT") || strings.Contains(codeStr, "ISSUED") || strings.Contains(codeStr, "TRANSITION"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORE"):
		return "STORE"
	default:
		return "OTHER"
	}
}
