package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
)

// ErrorType represents different types of errors that can occur while
// handling an activation
type ErrorType string

const (
	ErrorTypeParse   ErrorType = "parse"
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeTimeout ErrorType = "timeout"
	ErrorTypeDecode  ErrorType = "decode"
	ErrorTypeStatus  ErrorType = "status"
	ErrorTypeStorage ErrorType = "storage"
	ErrorTypeNaming  ErrorType = "naming"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error represents a classified failure with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error
func New(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Err:     cause,
	}
}

// TypeOf returns the classification of err, or ErrorTypeUnknown when err
// carries none
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err is classified as errorType
func IsType(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsRetryable reports whether a download failure should be retried.
//
// Only timeouts are retryable. Every other failure, including network
// errors and HTTP status errors, is terminal for the asset.
func IsRetryable(err error) bool {
	return IsType(err, ErrorTypeTimeout)
}

// IsTimeout reports whether err is a transport level timeout
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// ClassifyTransport converts an HTTP client error into a timeout or network error
func ClassifyTransport(message string, err error) *Error {
	if IsTimeout(err) {
		return New(ErrorTypeTimeout, fmt.Sprintf("%s: %v", message, err), err)
	}
	return New(ErrorTypeNetwork, fmt.Sprintf("%s: %v", message, err), err)
}
