// internal/models/session.go
package models

import "time"

// Attachment holds resume file metadata for one session. It lives next
// to the responses map instead of inside it so a typo in a fieldKey can
// never shadow it.
type Attachment struct {
	FileName   string    `json:"fileName"`
	FilePath   string    `json:"filePath"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Session is the stateful record of one subject's progress through one
// QuestionSet. At most one exists per (subject, questionSetId) pair.
type Session struct {
	ID            string            `json:"id"`
	SubjectID     string            `json:"subjectId"`
	Username      string            `json:"username,omitempty"`
	FirstName     string            `json:"firstName,omitempty"`
	LastName      string            `json:"lastName,omitempty"`
	QuestionSetID string            `json:"questionSetId"`
	CurrentStep   int               `json:"currentStep"`
	Responses     map[string]string `json:"responses"`
	Attachment    *Attachment       `json:"attachment,omitempty"`
	IsCompleted   bool              `json:"isCompleted"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// HasAttachment reports whether a resume has been stored for the session.
func (s *Session) HasAttachment() bool {
	return s.Attachment != nil && s.Attachment.FilePath != ""
}

// SessionStatus classifies a session for listings.
type SessionStatus string

const (
	StatusNone       SessionStatus = "none"
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
)

// Status derives the listing status of the session.
func (s *Session) Status() SessionStatus {
	if s.IsCompleted {
		return StatusCompleted
	}
	return StatusInProgress
}

// SessionSummary is the read model exposed to listing/export/ranking
// consumers outside the intake core.
type SessionSummary struct {
	SubjectID     string        `json:"subjectId"`
	QuestionSetID string        `json:"questionSetId"`
	JobID         string        `json:"jobId,omitempty"`
	Status        SessionStatus `json:"status"`
	CurrentStep   int           `json:"currentStep"`
	TotalSteps    int           `json:"totalSteps"`
	HasAttachment bool          `json:"hasAttachment"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
