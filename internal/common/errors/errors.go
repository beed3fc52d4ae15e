// Package errors provides standardized error handling for the intake bot.
package errors

import (
	"errors"
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

	ErrCodeQuestionSetNotFound  ErrorCode = "QUESTION_SET_NOT_FOUND"
	ErrCodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeNoActiveQuestionSet  ErrorCode = "NO_ACTIVE_QUESTION_SET"
	ErrCodeDefaultSetProtected  ErrorCode = "DEFAULT_SET_PROTECTED"
	ErrCodeQuestionSetInUse     ErrorCode = "QUESTION_SET_IN_USE"
	ErrCodeAdminRequired        ErrorCode = "ADMIN_REQUIRED"
	ErrCodeQuestionSetInvalid   ErrorCode = "QUESTION_SET_INVALID"
	ErrCodeUnknownResponseField ErrorCode = "UNKNOWN_RESPONSE_FIELD"

	ErrCodeAttachmentRejected ErrorCode = "ATTACHMENT_REJECTED"
	ErrCodeFileStorageFailed  ErrorCode = "FILE_STORAGE_FAILED"

	ErrCodeStoreQueryFailed ErrorCode = "STORE_QUERY_FAILED"

	ErrCodeTextExtractionFailed   ErrorCode = "TEXT_EXTRACTION_FAILED"
	ErrCodeScoringFailed          ErrorCode = "SCORING_FAILED"
	ErrCodeScoringTimeout         ErrorCode = "SCORING_TIMEOUT"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
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

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return std.Code == e.Code
	}
	return false
}

// CodeOf extracts the error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	return "INTERNAL_ERROR"
}

// IsRetryable reports whether the subject should be told to try again.
func IsRetryable(err error) bool {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Retryable
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a recoverable bad-input error. The
// details carry the reason shown to the subject before the hint.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Answer did not pass validation",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuestionSetNotFoundError creates a non-retryable lookup error.
func NewQuestionSetNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuestionSetNotFound,
		Message:   "Question set not found",
		Details:   fmt.Sprintf("questionSetId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable lookup error.
func NewSessionNotFoundError(subjectID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "No application session found",
		Details:   fmt.Sprintf("subjectId: %s", subjectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoActiveQuestionSetError signals a configuration gap: nothing to
// interview against. Fatal for the interaction, not for the process.
func NewNoActiveQuestionSetError() *StandardError {
	return &StandardError{
		Code:      ErrCodeNoActiveQuestionSet,
		Message:   "No active question set is configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDefaultSetProtectedError rejects deleting the default question set.
func NewDefaultSetProtectedError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDefaultSetProtected,
		Message:   "Cannot delete the default question set",
		Details:   fmt.Sprintf("questionSetId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuestionSetInUseError rejects deleting a set with open sessions.
func NewQuestionSetInUseError(id string, open int) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuestionSetInUse,
		Message:   "Cannot delete a question set with applications in progress",
		Details:   fmt.Sprintf("questionSetId: %s, openSessions: %d", id, open),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdminRequiredError rejects privileged registry operations.
func NewAdminRequiredError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdminRequired,
		Message:   "Administrator role required",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQuestionSetInvalidError rejects a malformed create/update payload.
func NewQuestionSetInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQuestionSetInvalid,
		Message:   "Question set definition is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownResponseFieldError rejects a response write whose fieldKey is
// not declared by the owning question set.
func NewUnknownResponseFieldError(fieldKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownResponseField,
		Message:   "Response field is not declared by the question set",
		Details:   fmt.Sprintf("fieldKey: %s", fieldKey),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentRejectedError creates a non-retryable upload rejection.
func NewAttachmentRejectedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentRejected,
		Message:   "Attachment rejected",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileStorageFailedError creates a retryable storage error.
func NewFileStorageFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFileStorageFailed,
		Message:   "File storage operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreQueryFailedError creates a retryable document store error.
func NewStoreQueryFailedError(collection string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreQueryFailed,
		Message:   "Document store query failed",
		Details:   fmt.Sprintf("collection: %s, error: %s", collection, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextExtractionFailedError creates a non-retryable extraction error.
func NewTextExtractionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTextExtractionFailed,
		Message:   "Resume text extraction failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringFailedError creates a retryable downstream scoring error.
func NewScoringFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringFailed,
		Message:   "Resume scoring failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringTimeoutError creates a retryable downstream timeout error.
func NewScoringTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringTimeout,
		Message:   "Resume scoring timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError creates a non-retryable configuration error.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
