package errors

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation       = "E100"
	CodeStoreUnavailable = "E210"
	CodeParsing          = "E220"
)

const storeUnavailableMessage = "FSM store is not available"

var (
	// ErrStoreUnavailable matches any error produced by NewStoreUnavailableError.
	ErrStoreUnavailable = &AppError{Code: CodeStoreUnavailable, Message: storeUnavailableMessage}
	// ErrParsing matches any error produced by NewParsingError.
	ErrParsing = &AppError{Code: CodeParsing, Message: "unexpected store response"}
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	if e == nil {
		return false
	}

	t, ok := target.(*AppError)
	if !ok || t == nil {
		return false
	}

	return t.Code != "" && t.Code == e.Code
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewStoreUnavailableError wraps a transport, auth, throttling or server failure of the backing store.
func NewStoreUnavailableError(cause error) *AppError {
	msg := storeUnavailableMessage

	var apiErr smithy.APIError
	if errors.As(cause, &apiErr) {
		msg = fmt.Sprintf("%s: %s", storeUnavailableMessage, apiErr.ErrorCode())
	}

	return &AppError{
		Code:        CodeStoreUnavailable,
		Message:     msg,
		UserMessage: "Temporary problem, please try again later",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewParsingError reports a successful store response with an unexpected shape.
func NewParsingError(msg string) *AppError {
	return &AppError{
		Code:        CodeParsing,
		Message:     msg,
		UserMessage: "Something went wrong, please start over",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}

// IsAppError reports whether err wraps an *AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil
}

// IsStoreUnavailable reports whether err is a StoreUnavailable error.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsParsing reports whether err is a ParsingError.
func IsParsing(err error) bool {
	return errors.Is(err, ErrParsing)
}
