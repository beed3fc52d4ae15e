// internal/scoring/repository.go
package scoring

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hirebot/internal/common/errors"
	"hirebot/internal/models"
)

// Repository persists resume scores in Postgres. The qualitative
// analysis is stored as a JSONB column, the numeric components as
// plain columns so ranking queries stay cheap.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS resume_scores (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL,
		job_id           TEXT NOT NULL,
		candidate_name   TEXT NOT NULL DEFAULT '',
		candidate_email  TEXT NOT NULL DEFAULT '',
		candidate_phone  TEXT NOT NULL DEFAULT '',
		resume_file_name TEXT NOT NULL DEFAULT '',
		overall          INT NOT NULL,
		skills_match     INT NOT NULL,
		experience_match INT NOT NULL,
		education_match  INT NOT NULL,
		keywords_match   INT NOT NULL,
		matched_skills   TEXT[] NOT NULL DEFAULT '{}',
		missing_skills   TEXT[] NOT NULL DEFAULT '{}',
		analysis         JSONB NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS resume_scores_job_overall_idx
		ON resume_scores (job_id, overall DESC);`

// EnsureSchema creates the scores table on first boot.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.NewStoreQueryFailedError("resume_scores", err)
	}
	return nil
}

const insertScoreSQL = `
	INSERT INTO resume_scores (
		id, session_id, job_id,
		candidate_name, candidate_email, candidate_phone,
		resume_file_name,
		overall, skills_match, experience_match, education_match, keywords_match,
		matched_skills, missing_skills, analysis,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

// Save assigns an id and inserts the score.
func (r *Repository) Save(ctx context.Context, score *models.ResumeScore) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}

	analysis, err := json.Marshal(map[string]interface{}{
		"experienceAnalysis":     score.Analysis.ExperienceAnalysis,
		"strengthsAndWeaknesses": score.Analysis.StrengthsAndWeaknesses,
		"recommendations":        score.Analysis.Recommendations,
	})
	if err != nil {
		return errors.NewStoreQueryFailedError("resume_scores", err)
	}

	_, err = r.db.ExecContext(ctx, insertScoreSQL,
		score.ID, score.SessionID, score.JobID,
		score.CandidateName, score.CandidateEmail, score.CandidatePhone,
		score.ResumeFileName,
		score.Scores.Overall, score.Scores.SkillsMatch, score.Scores.ExperienceMatch,
		score.Scores.EducationMatch, score.Scores.KeywordsMatch,
		pq.Array(score.Analysis.MatchedSkills), pq.Array(score.Analysis.MissingSkills),
		analysis, score.CreatedAt,
	)
	if err != nil {
		return errors.NewStoreQueryFailedError("resume_scores", err)
	}
	return nil
}

const topForJobSQL = `
	SELECT id, session_id, candidate_name, candidate_email, resume_file_name, overall
	FROM resume_scores
	WHERE job_id = $1
	ORDER BY overall DESC, created_at ASC
	LIMIT $2`

// RankedCandidate is a ranking row for HR review.
type RankedCandidate struct {
	ScoreID        string
	SessionID      string
	CandidateName  string
	CandidateEmail string
	ResumeFileName string
	Overall        int
}

// TopForJob lists the highest scored candidates for a job.
func (r *Repository) TopForJob(ctx context.Context, jobID string, limit int) ([]RankedCandidate, error) {
	rows, err := r.db.QueryContext(ctx, topForJobSQL, jobID, limit)
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("resume_scores", err)
	}
	defer rows.Close()

	var ranked []RankedCandidate
	for rows.Next() {
		var rc RankedCandidate
		if err := rows.Scan(&rc.ScoreID, &rc.SessionID, &rc.CandidateName, &rc.CandidateEmail, &rc.ResumeFileName, &rc.Overall); err != nil {
			return nil, errors.NewStoreQueryFailedError("resume_scores", err)
		}
		ranked = append(ranked, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreQueryFailedError("resume_scores", err)
	}
	return ranked, nil
}

const latestForSessionSQL = `
	SELECT overall, skills_match, experience_match, education_match, keywords_match
	FROM resume_scores
	WHERE session_id = $1
	ORDER BY created_at DESC
	LIMIT 1`

// LatestForSession returns the newest score breakdown for a session,
// or sql.ErrNoRows wrapped as a store error when none exists.
func (r *Repository) LatestForSession(ctx context.Context, sessionID string) (*models.ScoreBreakdown, error) {
	var b models.ScoreBreakdown
	err := r.db.QueryRowContext(ctx, latestForSessionSQL, sessionID).Scan(
		&b.Overall, &b.SkillsMatch, &b.ExperienceMatch, &b.EducationMatch, &b.KeywordsMatch,
	)
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("resume_scores", err)
	}
	return &b, nil
}
