// Package apperrors defines the application error taxonomy and the central
// error handler. User-facing conditions (wrong guess, no pending task,
// unknown command) are normal replies, never errors; only infrastructure
// failures travel through this package.
package apperrors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
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

// NewValidationError marks malformed input that never reaches a store.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: "That doesn't look right. Send /start to see the commands.",
		Severity:    SeverityLow,
		Retryable:   false,
	}
}

// NewStoreError marks a ledger or session store failure. The event is still
// acknowledged; the user gets a generic failure reply.
func NewStoreError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("store error: %s", underlyingMsg),
		UserMessage: "Something went wrong on our side. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewDeliveryError marks a failed outbound message delivery. Logged only,
// never surfaced to the triggering event.
func NewDeliveryError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("delivery failed: %s", underlyingMsg),
		UserMessage: "",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}
