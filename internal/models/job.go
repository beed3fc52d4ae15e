// internal/models/job.go
package models

import "time"

// Job describes an open position a question set can be bound to.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	HREmail         string    `json:"hrEmail"`
	HRPhone         string    `json:"hrPhone,omitempty"`
	Description     string    `json:"description"`
	RequiredSkills  []string  `json:"requiredSkills"`
	PreferredSkills []string  `json:"preferredSkills,omitempty"`
	Experience      string    `json:"experience"`
	Location        string    `json:"location"`
	JobType         string    `json:"jobType"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Display renders the human-facing job line used in listings.
func (j *Job) Display() string {
	if j.Company == "" {
		return j.Title
	}
	return j.Title + " at " + j.Company
}
