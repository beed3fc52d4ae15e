// Package completion runs the post-interview pipeline: once a session
// is completed and carries a resume, the file is read, its text
// extracted, scored against the job, persisted, announced to the
// hiring contact and indexed for search.
package completion

import (
	"context"
	"time"

	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/common/metrics"
	"hirebot/internal/models"
	"hirebot/internal/pdfextract"
	"hirebot/internal/store"
)

// FileReader loads a stored attachment.
type FileReader interface {
	Read(path string) ([]byte, error)
}

// Scorer grades extracted resume text.
type Scorer interface {
	Score(ctx context.Context, resumeText string, job *models.Job, sess *models.Session) (*models.ResumeScore, error)
}

// ScoreSaver persists the grade.
type ScoreSaver interface {
	Save(ctx context.Context, score *models.ResumeScore) error
}

// Announcer notifies the hiring contact.
type Announcer interface {
	NotifyScored(ctx context.Context, job *models.Job, score *models.ResumeScore) error
}

// ApplicationIndexer feeds the search index.
type ApplicationIndexer interface {
	IndexApplication(ctx context.Context, sess *models.Session, job *models.Job, score *models.ResumeScore) error
}

// Trigger coordinates the pipeline. It fires once per eligible event
// and never mutates the session it is handed.
type Trigger struct {
	files    FileReader
	scorer   Scorer
	scores   ScoreSaver
	notifier Announcer
	indexer  ApplicationIndexer
	jobs     *store.JobStore
	logger   logger.Logger
}

func NewTrigger(files FileReader, scorer Scorer, scores ScoreSaver, notifier Announcer, indexer ApplicationIndexer, jobs *store.JobStore, log logger.Logger) *Trigger {
	return &Trigger{
		files:    files,
		scorer:   scorer,
		scores:   scores,
		notifier: notifier,
		indexer:  indexer,
		jobs:     jobs,
		logger:   log,
	}
}

// Fire runs the pipeline for a completed session. Callers are
// responsible for the once-per-event discipline: completion fires it
// once, and each post-completion attachment replacement fires it once
// more for the new file.
func (t *Trigger) Fire(ctx context.Context, sess *models.Session, qs *models.QuestionSet) error {
	if !sess.IsCompleted || !sess.HasAttachment() {
		return nil
	}

	start := time.Now()
	err := t.run(ctx, sess, qs)
	metrics.EventDuration.WithLabelValues("completion").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.TriggerFires.WithLabelValues("error").Inc()
		return err
	}
	metrics.TriggerFires.WithLabelValues("success").Inc()
	return nil
}

func (t *Trigger) run(ctx context.Context, sess *models.Session, qs *models.QuestionSet) error {
	content, err := t.files.Read(sess.Attachment.FilePath)
	if err != nil {
		return err
	}

	text, err := pdfextract.Extract(sess.Attachment.FileName, content)
	if err != nil {
		return err
	}

	job := t.lookupJob(ctx, qs)

	score, err := t.scorer.Score(ctx, text, orPlaceholderJob(job, qs), sess)
	if err != nil {
		return err
	}

	if err := t.scores.Save(ctx, score); err != nil {
		return err
	}

	t.logger.Info("Application scored", map[string]interface{}{
		"session_id": sess.ID,
		"score_id":   score.ID,
		"overall":    score.Scores.Overall,
	})

	if t.notifier != nil {
		if err := t.notifier.NotifyScored(ctx, job, score); err != nil {
			return err
		}
	}

	// Search indexing is best effort.
	if t.indexer != nil {
		if err := t.indexer.IndexApplication(ctx, sess, job, score); err != nil {
			t.logger.Warn("Application indexing failed", map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	}

	return nil
}

// lookupJob resolves the job bound to the question set, nil when the
// set is generic or the posting is gone.
func (t *Trigger) lookupJob(ctx context.Context, qs *models.QuestionSet) *models.Job {
	if qs == nil || qs.JobID == "" || t.jobs == nil {
		return nil
	}
	job, err := t.jobs.Get(ctx, qs.JobID)
	if err != nil {
		if err != store.ErrNotFound {
			t.logger.Warn("Job lookup failed", map[string]interface{}{
				"job_id": qs.JobID,
				"error":  err.Error(),
			})
		}
		return nil
	}
	return job
}

// orPlaceholderJob gives the scorer something descriptive when the
// question set is not tied to a posting.
func orPlaceholderJob(job *models.Job, qs *models.QuestionSet) *models.Job {
	if job != nil {
		return job
	}
	title := "General application"
	if qs != nil && qs.Title != "" {
		title = qs.Title
	}
	return &models.Job{Title: title, Description: "General screening without a specific job posting."}
}

// IsDegraded reports whether err is a downstream failure that should
// be surfaced as a degraded success: the answers are safe, a follow-up
// step failed.
func IsDegraded(err error) bool {
	switch errors.CodeOf(err) {
	case errors.ErrCodeTextExtractionFailed,
		errors.ErrCodeScoringFailed,
		errors.ErrCodeScoringTimeout,
		errors.ErrCodeNotificationSendFailed,
		errors.ErrCodeFileStorageFailed,
		errors.ErrCodeStoreQueryFailed:
		return true
	}
	return false
}
