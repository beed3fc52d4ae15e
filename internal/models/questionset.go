// internal/models/questionset.go
package models

import "time"

// ValidationType selects the per-field check applied to an answer.
type ValidationType string

const (
	ValidationText   ValidationType = "text"
	ValidationEmail  ValidationType = "email"
	ValidationPhone  ValidationType = "phone"
	ValidationNumber ValidationType = "number"
	ValidationURL    ValidationType = "url"
	ValidationCustom ValidationType = "custom"
)

// ValidationRule describes the constraints declared for one question.
type ValidationRule struct {
	Type      ValidationType `json:"type"`
	MinLength int            `json:"minLength,omitempty"`
	MaxLength int            `json:"maxLength,omitempty"`
	Pattern   string         `json:"pattern,omitempty"`
}

// Question is one prompt inside a QuestionSet. Step values form a
// contiguous 1..N sequence; the registry re-numbers on every write.
type Question struct {
	Step       int            `json:"step"`
	FieldKey   string         `json:"fieldKey"`
	Prompt     string         `json:"prompt"`
	Validation ValidationRule `json:"validation"`
	Required   bool           `json:"required"`
}

// QuestionSet is an ordered, validated list of prompts, optionally
// bound to a job.
type QuestionSet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	JobID       string     `json:"jobId,omitempty"`
	Questions   []Question `json:"questions"`
	IsActive    bool       `json:"isActive"`
	IsDefault   bool       `json:"isDefault"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// QuestionAt returns the question with the given step, or nil.
func (qs *QuestionSet) QuestionAt(step int) *Question {
	for i := range qs.Questions {
		if qs.Questions[i].Step == step {
			return &qs.Questions[i]
		}
	}
	return nil
}

// HasField reports whether fieldKey is declared by any question.
func (qs *QuestionSet) HasField(fieldKey string) bool {
	for i := range qs.Questions {
		if qs.Questions[i].FieldKey == fieldKey {
			return true
		}
	}
	return false
}
