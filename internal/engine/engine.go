// Package engine is the conversational core: it routes inbound events
// to sessions, runs validation, advances the step machine and emits
// the ordered outbound messages for each transition.
package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirebot/internal/attachments"
	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/common/metrics"
	"hirebot/internal/models"
	"hirebot/internal/questionset"
	"hirebot/internal/storage"
	"hirebot/internal/store"
	"hirebot/internal/transport"
	"hirebot/internal/validation"
)

// errStaleStep aborts a step advance when the session moved on between
// validation and the write. The event is dropped instead of writing an
// answer that was validated against a different question.
var errStaleStep = stderrors.New("session advanced past the validated step")

// TriggerInvoker runs the post-completion pipeline.
type TriggerInvoker interface {
	Fire(ctx context.Context, sess *models.Session, qs *models.QuestionSet) error
}

// Engine ties the registry, stores and collaborators together. It
// holds no per-subject state; every transition is a read-modify-write
// through the session store.
type Engine struct {
	registry *questionset.Registry
	sessions *store.SessionStore
	jobs     *store.JobStore
	files    *storage.FileStore
	attach   *attachments.Handler
	trigger  TriggerInvoker
	reporter *errors.Reporter
	admins   map[string]bool
	logger   logger.Logger
}

func New(registry *questionset.Registry, sessions *store.SessionStore, jobs *store.JobStore, files *storage.FileStore, attach *attachments.Handler, trigger TriggerInvoker, adminIDs []string, log logger.Logger) *Engine {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Engine{
		registry: registry,
		sessions: sessions,
		jobs:     jobs,
		files:    files,
		attach:   attach,
		trigger:  trigger,
		reporter: errors.NewReporter(log),
		admins:   admins,
		logger:   log,
	}
}

// HandleText processes one free-text or command event and returns the
// outbound messages of the transition, in delivery order.
func (e *Engine) HandleText(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	start := time.Now()
	out := e.handleText(ctx, ev)
	metrics.EventDuration.WithLabelValues("text").Observe(time.Since(start).Seconds())
	metrics.EventsProcessed.WithLabelValues("text", "processed").Inc()
	return out
}

func (e *Engine) handleText(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	text := strings.TrimSpace(ev.Text)

	// Command tokens are never interpreted as answers, even when they
	// would validate against the active question.
	if strings.HasPrefix(text, "/") {
		return e.handleCommand(ctx, ev, text)
	}

	return e.handleAnswer(ctx, ev, text)
}

// handleAnswer delivers free text to the most recently updated session
// still answering. With no incomplete session the text is rejected
// with selection guidance rather than dropped into a completed one.
func (e *Engine) handleAnswer(ctx context.Context, ev transport.TextEvent, answer string) []transport.Outbound {
	sess, err := e.sessions.ActiveAnswering(ctx, ev.SubjectID)
	if err == store.ErrNotFound {
		return []transport.Outbound{e.reply(ev.SubjectID,
			"You have no application in progress. Use /jobs to see open positions or /start to begin.")}
	}
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	qs, err := e.registry.Get(ctx, sess.QuestionSetID)
	if err != nil {
		return e.failure(ev.SubjectID, err)
	}

	total := len(qs.Questions)
	question := qs.QuestionAt(sess.CurrentStep + 1)
	if question == nil {
		return e.failure(ev.SubjectID, errors.NewQuestionSetInvalidError(
			fmt.Sprintf("no question at step %d", sess.CurrentStep+1)))
	}

	if result := validation.Validate(question, answer); !result.Valid {
		metrics.ValidationFailures.WithLabelValues(string(question.Validation.Type)).Inc()
		return []transport.Outbound{
			e.reply(ev.SubjectID, result.Reason),
			e.reply(ev.SubjectID, validation.Hint(question)),
		}
	}

	if !qs.HasField(question.FieldKey) {
		return e.failure(ev.SubjectID, errors.NewUnknownResponseFieldError(question.FieldKey))
	}

	updated, err := e.sessions.Update(ctx, sess.SubjectID, sess.QuestionSetID, func(s *models.Session) error {
		if s.IsCompleted || s.CurrentStep != sess.CurrentStep {
			return errStaleStep
		}
		if s.Responses == nil {
			s.Responses = map[string]string{}
		}
		s.Responses[question.FieldKey] = strings.TrimSpace(answer)
		s.CurrentStep++
		if s.CurrentStep >= total {
			s.CurrentStep = total
			s.IsCompleted = true
		}
		s.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err == errStaleStep {
		e.logger.Debug("Stale answer dropped", map[string]interface{}{
			"subject_id": ev.SubjectID,
			"step":       sess.CurrentStep + 1,
		})
		return nil
	}
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	if updated.IsCompleted {
		metrics.SessionsCompleted.Inc()
		e.logger.Info("Session completed", map[string]interface{}{
			"subject_id":      updated.SubjectID,
			"question_set_id": updated.QuestionSetID,
		})
		return e.completionMessages(ctx, updated, qs)
	}

	return []transport.Outbound{e.prompt(updated.SubjectID, qs, updated.CurrentStep+1)}
}

// completionMessages emits the completion summary and runs the trigger
// when a resume is already attached. Trigger failures degrade the
// message, they never roll the session back.
func (e *Engine) completionMessages(ctx context.Context, sess *models.Session, qs *models.QuestionSet) []transport.Outbound {
	out := []transport.Outbound{e.reply(sess.SubjectID, fmt.Sprintf(
		"That was the last question. Your application for %q is complete, thank you!", qs.Title))}

	if !sess.HasAttachment() {
		out = append(out, e.reply(sess.SubjectID,
			"You haven't uploaded a resume yet. Send it as a document (PDF, DOC or DOCX) and we'll attach it to this application."))
		return out
	}

	if err := e.trigger.Fire(ctx, sess, qs); err != nil {
		out = append(out, e.reply(sess.SubjectID, e.reporter.SubjectMessage(sess.SubjectID, err)))
		return out
	}
	out = append(out, e.reply(sess.SubjectID,
		"Your resume has been reviewed and forwarded to the hiring team. We'll be in touch."))
	return out
}

// prompt renders the step question with its progress prefix.
func (e *Engine) prompt(subjectID string, qs *models.QuestionSet, step int) transport.Outbound {
	q := qs.QuestionAt(step)
	if q == nil {
		return e.reply(subjectID, "This application has no further questions.")
	}
	return e.reply(subjectID, fmt.Sprintf("[%d/%d] %s", step, len(qs.Questions), q.Prompt))
}

func (e *Engine) reply(subjectID, text string) transport.Outbound {
	return transport.Outbound{SubjectID: subjectID, Text: text}
}

func (e *Engine) failure(subjectID string, err error) []transport.Outbound {
	metrics.EventsProcessed.WithLabelValues("text", "error").Inc()
	return []transport.Outbound{e.reply(subjectID, e.reporter.SubjectMessage(subjectID, err))}
}

func newSession(ev transport.TextEvent, qs *models.QuestionSet) *models.Session {
	now := time.Now().UTC()
	return &models.Session{
		ID:            uuid.NewString(),
		SubjectID:     ev.SubjectID,
		Username:      ev.Username,
		FirstName:     ev.FirstName,
		LastName:      ev.LastName,
		QuestionSetID: qs.ID,
		CurrentStep:   0,
		Responses:     map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
