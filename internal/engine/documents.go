// internal/engine/documents.go
package engine

import (
	"context"
	"fmt"
	"time"

	"hirebot/internal/attachments"
	"hirebot/internal/common/errors"
	"hirebot/internal/common/metrics"
	"hirebot/internal/store"
	"hirebot/internal/transport"
)

// HandleDocument processes one upload event. The attachment channel is
// independent of step progression: it binds to the most relevant
// session regardless of state and never advances currentStep.
func (e *Engine) HandleDocument(ctx context.Context, ev transport.DocumentEvent) []transport.Outbound {
	start := time.Now()
	out := e.handleDocument(ctx, ev)
	metrics.EventDuration.WithLabelValues("document").Observe(time.Since(start).Seconds())
	metrics.EventsProcessed.WithLabelValues("document", "processed").Inc()
	return out
}

func (e *Engine) handleDocument(ctx context.Context, ev transport.DocumentEvent) []transport.Outbound {
	if err := e.attach.Screen(ev); err != nil {
		return e.failure(ev.SubjectID, err)
	}

	sess, err := e.sessions.MostRelevant(ctx, ev.SubjectID)
	if err == store.ErrNotFound {
		return []transport.Outbound{e.reply(ev.SubjectID,
			"Start an application first with /jobs, then send your resume again.")}
	}
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	updated, err := e.attach.Ingest(ctx, ev, sess)
	if err != nil {
		return e.failure(ev.SubjectID, err)
	}

	out := []transport.Outbound{e.reply(ev.SubjectID, fmt.Sprintf(
		"Got it! %s (%s) is attached to your application.", ev.FileName, attachments.HumanSize(ev.FileSize)))}

	if updated.IsCompleted {
		// A post-completion upload replaces the scored file, so the
		// pipeline runs once more for this event.
		qs, err := e.registry.Get(ctx, updated.QuestionSetID)
		if err != nil {
			return append(out, e.reply(ev.SubjectID, e.reporter.SubjectMessage(ev.SubjectID, err)))
		}
		if err := e.trigger.Fire(ctx, updated, qs); err != nil {
			return append(out, e.reply(ev.SubjectID, e.reporter.SubjectMessage(ev.SubjectID, err)))
		}
		return append(out, e.reply(ev.SubjectID,
			"Your resume has been reviewed and forwarded to the hiring team."))
	}

	// Remind the subject where the questions stand; the upload did not
	// advance them.
	qs, err := e.registry.Get(ctx, updated.QuestionSetID)
	if err == nil {
		out = append(out, e.prompt(ev.SubjectID, qs, updated.CurrentStep+1))
	}
	return out
}
