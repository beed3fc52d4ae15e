// internal/models/score.go
package models

import "time"

// ScoreBreakdown holds the weighted component scores, 0-100 each.
type ScoreBreakdown struct {
	Overall         int `json:"overall"`
	SkillsMatch     int `json:"skillsMatch"`
	ExperienceMatch int `json:"experienceMatch"`
	EducationMatch  int `json:"educationMatch"`
	KeywordsMatch   int `json:"keywordsMatch"`
}

// ScoreAnalysis holds the qualitative assessment.
type ScoreAnalysis struct {
	MatchedSkills          []string `json:"matchedSkills"`
	MissingSkills          []string `json:"missingSkills"`
	ExperienceAnalysis     string   `json:"experienceAnalysis"`
	StrengthsAndWeaknesses string   `json:"strengthsAndWeaknesses"`
	Recommendations        []string `json:"recommendations"`
}

// ResumeScore is the persisted result of one scoring run. Consumed by
// ranking/export outside the intake core.
type ResumeScore struct {
	ID             string         `json:"id"`
	SessionID      string         `json:"sessionId"`
	JobID          string         `json:"jobId"`
	CandidateName  string         `json:"candidateName"`
	CandidateEmail string         `json:"candidateEmail,omitempty"`
	CandidatePhone string         `json:"candidatePhone,omitempty"`
	ResumeFileName string         `json:"resumeFileName"`
	Scores         ScoreBreakdown `json:"scores"`
	Analysis       ScoreAnalysis  `json:"analysis"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Weighting distributes scoring emphasis across components, percent.
type Weighting struct {
	Skills     int `json:"skills"`
	Experience int `json:"experience"`
	Education  int `json:"education"`
	Keywords   int `json:"keywords"`
}

// DefaultWeighting mirrors the standard HR emphasis.
func DefaultWeighting() Weighting {
	return Weighting{Skills: 30, Experience: 25, Education: 20, Keywords: 25}
}
