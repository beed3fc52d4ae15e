package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot/internal/common/errors"
	"hirebot/internal/models"
)

func TestRepository_SaveAssignsIDAndInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO resume_scores").
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := &models.ResumeScore{
		SessionID:      "s-1",
		JobID:          "j-1",
		CandidateName:  "Ada Lovelace",
		ResumeFileName: "resume.pdf",
		Scores:         models.ScoreBreakdown{Overall: 82, SkillsMatch: 85},
		Analysis: models.ScoreAnalysis{
			MatchedSkills: []string{"Go"},
			MissingSkills: []string{"Kubernetes"},
		},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, NewRepository(db).Save(context.Background(), score))
	assert.NotEmpty(t, score.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveWrapsDBErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO resume_scores").
		WillReturnError(assert.AnError)

	err = NewRepository(db).Save(context.Background(), &models.ResumeScore{SessionID: "s-1"})
	assert.Equal(t, errors.ErrCodeStoreQueryFailed, errors.CodeOf(err))
}

func TestRepository_TopForJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "session_id", "candidate_name", "candidate_email", "resume_file_name", "overall"}).
		AddRow("sc-1", "s-1", "Ada Lovelace", "ada@example.com", "resume.pdf", 90).
		AddRow("sc-2", "s-2", "Grace Hopper", "grace@example.com", "cv.pdf", 85)

	mock.ExpectQuery("SELECT id, session_id, candidate_name").
		WithArgs("j-1", 10).
		WillReturnRows(rows)

	ranked, err := NewRepository(db).TopForJob(context.Background(), "j-1", 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Ada Lovelace", ranked[0].CandidateName)
	assert.Equal(t, 90, ranked[0].Overall)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LatestForSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT overall, skills_match").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"overall", "skills_match", "experience_match", "education_match", "keywords_match"}).
			AddRow(82, 85, 80, 75, 88))

	b, err := NewRepository(db).LatestForSession(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, 82, b.Overall)
	assert.Equal(t, 88, b.KeywordsMatch)
}
