// internal/engine/summaries.go
package engine

import (
	"context"

	"hirebot/internal/common/errors"
	"hirebot/internal/models"
)

// Summaries exposes the subject's sessions as the read model consumed
// by listing, export and ranking outside the intake core.
func (e *Engine) Summaries(ctx context.Context, subjectID string) ([]models.SessionSummary, error) {
	sessions, err := e.sessions.All(ctx, subjectID)
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("sessions", err)
	}

	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summary := models.SessionSummary{
			SubjectID:     sess.SubjectID,
			QuestionSetID: sess.QuestionSetID,
			Status:        sess.Status(),
			CurrentStep:   sess.CurrentStep,
			HasAttachment: sess.HasAttachment(),
			UpdatedAt:     sess.UpdatedAt,
		}
		if qs, err := e.registry.Get(ctx, sess.QuestionSetID); err == nil {
			summary.TotalSteps = len(qs.Questions)
			summary.JobID = qs.JobID
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
