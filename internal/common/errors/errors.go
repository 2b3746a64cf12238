// Package errors provides standardized error handling for the notification
// service.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUserNotFound     ErrorCode = "USER_NOT_FOUND"

	// Notification absent or not owned by the caller. The two cases are
	// deliberately indistinguishable to the caller.
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND_OR_UNAUTHORIZED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeNotificationStoreFailed  ErrorCode = "NOTIFICATION_STORE_FAILED"

	ErrCodeBroadcastFailed  ErrorCode = "BROADCAST_FAILED"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
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

// NewValidationError creates a non-retryable validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserNotFoundError creates a non-retryable missing-user error.
func NewUserNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationNotFoundError creates a non-retryable not-found/unauthorized
// error for a notification the caller does not own.
func NewNotificationNotFoundError(notificationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationNotFound,
		Message:   "Notification not found or unauthorized",
		Details:   fmt.Sprintf("notificationId: %s", notificationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationStoreFailedError creates a retryable error for a failed
// notification write. Durability is the hard contract of the publish path,
// so this error fails the whole call.
func NewNotificationStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationStoreFailed,
		Message:   "Notification persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBroadcastFailedError creates an error for a failed bus broadcast. Live
// delivery is the soft contract; callers log this and proceed.
func NewBroadcastFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBroadcastFailed,
		Message:   "Bus broadcast failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedPayloadError creates a non-retryable error for an inbound bus
// message that could not be decoded.
func NewMalformedPayloadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedPayload,
		Message:   "Malformed bus payload",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsNotFound reports whether err is a user or notification not-found error.
func IsNotFound(err error) bool {
	se, ok := err.(*StandardError)
	if !ok {
		return false
	}
	return se.Code == ErrCodeUserNotFound || se.Code == ErrCodeNotificationNotFound
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	se, ok := err.(*StandardError)
	return ok && se.Code == ErrCodeValidationFailed
}

// IsRetryable reports whether err carries a retryable infrastructure failure.
func IsRetryable(err error) bool {
	se, ok := err.(*StandardError)
	return ok && se.Retryable
}
