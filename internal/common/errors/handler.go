package errors

import (
	"time"
)

// Reporter converts internal failures into subject-facing text. Event
// handlers route every error through it so no single failure can leak a
// stack trace to the subject or terminate the event loop.
type Reporter struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewReporter(logger Logger) *Reporter {
	return &Reporter{logger: logger}
}

// SubjectMessage normalizes err and returns the text shown to the subject.
func (r *Reporter) SubjectMessage(subjectID string, err error) string {
	std := r.normalizeError(err)
	r.logError(subjectID, std)

	switch std.Code {
	case ErrCodeValidationFailed:
		return std.Details
	case ErrCodeQuestionSetNotFound, ErrCodeSessionNotFound:
		return "We couldn't find that application. Use /jobs to see available positions."
	case ErrCodeNoActiveQuestionSet:
		return "No application form is configured right now. Please contact an administrator."
	case ErrCodeAdminRequired:
		return "That command is restricted to administrators."
	case ErrCodeDefaultSetProtected, ErrCodeQuestionSetInUse:
		return std.Message + "."
	case ErrCodeAttachmentRejected:
		return std.Details
	case ErrCodeFileStorageFailed:
		return "We couldn't save your file. Please try uploading again."
	case ErrCodeScoringFailed, ErrCodeScoringTimeout, ErrCodeNotificationSendFailed:
		return "Your application was saved, but a follow-up step failed. Our team has been notified."
	default:
		if std.Retryable {
			return "Something went wrong. Please try again."
		}
		return "Something went wrong. Please try again or contact support."
	}
}

// normalizeError ensures we always have a StandardError
func (r *Reporter) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (r *Reporter) logError(subjectID string, std *StandardError) {
	fields := map[string]interface{}{
		"subjectId": subjectID,
		"errorCode": string(std.Code),
		"details":   std.Details,
		"retryable": std.Retryable,
	}
	if std.Retryable {
		r.logger.Warn("event failed", fields)
		return
	}
	r.logger.Error("event failed", fields)
}
