// Package search indexes completed application summaries into
// Elasticsearch for the HR dashboard. Indexing is best effort, a
// failure here never blocks the intake flow.
package search

import (
	"context"
	"encoding/json"
	"time"

	"hirebot/internal/common/database"
	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/models"
)

// ApplicationDocument is the indexed shape of one completed intake.
type ApplicationDocument struct {
	SessionID      string            `json:"sessionId"`
	SubjectID      string            `json:"subjectId"`
	QuestionSetID  string            `json:"questionSetId"`
	JobID          string            `json:"jobId,omitempty"`
	JobTitle       string            `json:"jobTitle,omitempty"`
	CandidateName  string            `json:"candidateName,omitempty"`
	CandidateEmail string            `json:"candidateEmail,omitempty"`
	Responses      map[string]string `json:"responses"`
	ResumeFileName string            `json:"resumeFileName,omitempty"`
	OverallScore   int               `json:"overallScore"`
	CompletedAt    time.Time         `json:"completedAt"`
}

// Indexer writes application documents.
type Indexer struct {
	es        *database.ElasticsearchClient
	indexName string
	logger    logger.Logger
}

func NewIndexer(es *database.ElasticsearchClient, indexName string, log logger.Logger) *Indexer {
	return &Indexer{es: es, indexName: indexName, logger: log}
}

// IndexApplication builds and stores the document for a scored
// session. The session id doubles as the document id so re-scoring
// overwrites rather than duplicates.
func (i *Indexer) IndexApplication(ctx context.Context, sess *models.Session, job *models.Job, score *models.ResumeScore) error {
	doc := ApplicationDocument{
		SessionID:     sess.ID,
		SubjectID:     sess.SubjectID,
		QuestionSetID: sess.QuestionSetID,
		Responses:     sess.Responses,
		CompletedAt:   sess.UpdatedAt,
	}
	if job != nil {
		doc.JobID = job.ID
		doc.JobTitle = job.Title
	}
	if score != nil {
		doc.CandidateName = score.CandidateName
		doc.CandidateEmail = score.CandidateEmail
		doc.ResumeFileName = score.ResumeFileName
		doc.OverallScore = score.Scores.Overall
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewStoreQueryFailedError(i.indexName, err)
	}
	if err := i.es.Index(ctx, i.indexName, sess.ID, body); err != nil {
		return errors.NewStoreQueryFailedError(i.indexName, err)
	}

	i.logger.Debug("Indexed application", map[string]interface{}{
		"session_id": sess.ID,
		"index":      i.indexName,
	})
	return nil
}
