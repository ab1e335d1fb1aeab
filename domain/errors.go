package domain

import (
	"errors"
	"fmt"
)

// Error codes for the pipeline error taxonomy. Only these four reject a run;
// analyzer and explanation failures are absorbed before they reach a caller.
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidManifest = "INVALID_MANIFEST"
	ErrCodeSizeExceeded    = "SIZE_EXCEEDED"
	ErrCodeNetwork         = "NETWORK_ERROR"
	ErrCodeConfig          = "CONFIG_ERROR"
	ErrCodeAPI             = "API_ERROR"
)

// ErrFileAbsent signals that a requested file does not exist on the remote.
// Absence is an outcome, not a failure.
var ErrFileAbsent = errors.New("file absent")

// DomainError is the error type surfaced by pipeline components
type DomainError struct {
	// Code is one of the ErrCode constants
	Code string

	// Message is a human-readable description
	Message string

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a DomainError with the given code, message and cause
func NewDomainError(code, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

// NewNotFoundError reports a missing repository, branch or file
func NewNotFoundError(message string, cause error) error {
	return NewDomainError(ErrCodeNotFound, message, cause)
}

// NewInvalidManifestError reports a missing or unparseable manifest
func NewInvalidManifestError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidManifest, message, cause)
}

// NewSizeExceededError reports a fetched tree above the size ceiling
func NewSizeExceededError(message string, cause error) error {
	return NewDomainError(ErrCodeSizeExceeded, message, cause)
}

// NewNetworkError reports a transport failure
func NewNetworkError(message string, cause error) error {
	return NewDomainError(ErrCodeNetwork, message, cause)
}

// NewConfigError reports an invalid or unloadable configuration
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfig, message, cause)
}

// NewAPIError reports an unexpected hosting-provider API response
func NewAPIError(message string, cause error) error {
	return NewDomainError(ErrCodeAPI, message, cause)
}

// ErrorCode extracts the DomainError code from err, or "" if err is not a
// DomainError
func ErrorCode(err error) string {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
