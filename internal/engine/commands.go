// internal/engine/commands.go
package engine

import (
	"context"
	"fmt"
	"strings"

	"hirebot/internal/common/errors"
	"hirebot/internal/models"
	"hirebot/internal/store"
	"hirebot/internal/transport"
)

// handleCommand dispatches the fixed control commands. Unknown
// commands get the help text rather than being treated as answers.
func (e *Engine) handleCommand(ctx context.Context, ev transport.TextEvent, text string) []transport.Outbound {
	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch command {
	case "/start":
		return e.commandStart(ctx, ev, arg)
	case "/jobs":
		return e.commandJobs(ctx, ev)
	case "/status":
		return e.commandStatus(ctx, ev)
	case "/applications":
		return e.commandApplications(ctx, ev)
	case "/upload":
		return e.commandUpload(ctx, ev)
	case "/restart":
		return e.commandRestart(ctx, ev)
	case "/setdefault":
		return e.commandSetDefault(ctx, ev, arg)
	case "/deleteset":
		return e.commandDeleteSet(ctx, ev, arg)
	case "/help":
		return []transport.Outbound{e.reply(ev.SubjectID, helpText)}
	default:
		return []transport.Outbound{e.reply(ev.SubjectID,
			fmt.Sprintf("Unknown command %s.\n\n%s", command, helpText))}
	}
}

const helpText = `Here's what I can do:
/start - begin or resume an application
/jobs - list open positions
/status - show your application progress
/applications - list your applications and their status
/upload - how to attach your resume
/restart - delete your applications and start over`

// commandStart begins or resumes an application. A deep-link argument
// selects a specific question set, otherwise the default set is used.
func (e *Engine) commandStart(ctx context.Context, ev transport.TextEvent, arg string) []transport.Outbound {
	var qs *models.QuestionSet
	var err error
	if arg != "" {
		qs, err = e.registry.Get(ctx, arg)
	} else {
		qs, err = e.registry.Default(ctx)
	}
	if err != nil {
		return e.failure(ev.SubjectID, err)
	}
	if !qs.IsActive {
		return []transport.Outbound{e.reply(ev.SubjectID,
			"That position is no longer accepting applications. Use /jobs to see what's open.")}
	}
	return e.startOrResume(ctx, ev, qs)
}

// startOrResume guards against duplicate starts: an existing completed
// session is reported, an incomplete one is resumed, otherwise a fresh
// session is created.
func (e *Engine) startOrResume(ctx context.Context, ev transport.TextEvent, qs *models.QuestionSet) []transport.Outbound {
	existing, err := e.sessions.Get(ctx, ev.SubjectID, qs.ID)
	if err != nil && err != store.ErrNotFound {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	if existing != nil {
		if existing.IsCompleted {
			return []transport.Outbound{e.reply(ev.SubjectID, fmt.Sprintf(
				"You've already completed the application for %q. Use /status to review it or /restart to start over.", qs.Title))}
		}
		if existing.Username != ev.Username || existing.FirstName != ev.FirstName || existing.LastName != ev.LastName {
			if _, err := e.sessions.Update(ctx, ev.SubjectID, qs.ID, func(s *models.Session) error {
				s.Username = ev.Username
				s.FirstName = ev.FirstName
				s.LastName = ev.LastName
				return nil
			}); err != nil {
				e.logger.Warn("Profile refresh failed", map[string]interface{}{
					"subject_id": ev.SubjectID,
					"error":      err.Error(),
				})
			}
		}
		return []transport.Outbound{
			e.reply(ev.SubjectID, fmt.Sprintf("Resuming your application for %q.", qs.Title)),
			e.prompt(ev.SubjectID, qs, existing.CurrentStep+1),
		}
	}

	sess := newSession(ev, qs)
	if err := e.sessions.Insert(ctx, sess); err != nil && err != store.ErrDuplicate {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	e.logger.Info("Session started", map[string]interface{}{
		"subject_id":      ev.SubjectID,
		"question_set_id": qs.ID,
	})

	greeting := fmt.Sprintf("Welcome! Let's get your application for %q started. You can upload your resume at any time, and /restart wipes everything if you want a clean slate.", qs.Title)
	return []transport.Outbound{
		e.reply(ev.SubjectID, greeting),
		e.prompt(ev.SubjectID, qs, 1),
	}
}

// commandJobs lists active question sets as selectable targets,
// annotated with the subject's status to prevent accidental duplicate
// starts.
func (e *Engine) commandJobs(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	sets, err := e.registry.Active(ctx)
	if err != nil {
		return e.failure(ev.SubjectID, err)
	}
	if len(sets) == 0 {
		return e.failure(ev.SubjectID, errors.NewNoActiveQuestionSetError())
	}

	statuses, err := e.sessionStatuses(ctx, ev.SubjectID)
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	var sb strings.Builder
	sb.WriteString("Open positions:\n")
	buttons := make([][]transport.Button, 0, len(sets))
	for _, qs := range sets {
		label := e.jobLabel(ctx, qs)
		annotation := ""
		switch statuses[qs.ID] {
		case models.StatusInProgress:
			annotation = " (in progress)"
		case models.StatusCompleted:
			annotation = " (completed)"
		}
		fmt.Fprintf(&sb, "- %s%s\n", label, annotation)
		buttons = append(buttons, []transport.Button{{
			Label: label + annotation,
			Data:  "/start " + qs.ID,
		}})
	}
	sb.WriteString("\nTap a position to apply.")

	return []transport.Outbound{{SubjectID: ev.SubjectID, Text: sb.String(), Buttons: buttons}}
}

// jobLabel prefers the linked job posting's title over the set title.
func (e *Engine) jobLabel(ctx context.Context, qs *models.QuestionSet) string {
	if qs.JobID != "" && e.jobs != nil {
		if job, err := e.jobs.Get(ctx, qs.JobID); err == nil {
			return job.Display()
		}
	}
	return qs.Title
}

func (e *Engine) sessionStatuses(ctx context.Context, subjectID string) (map[string]models.SessionStatus, error) {
	sessions, err := e.sessions.All(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]models.SessionStatus, len(sessions))
	for _, sess := range sessions {
		statuses[sess.QuestionSetID] = sess.Status()
	}
	return statuses, nil
}

// commandStatus reports per-session progress, attachment state and a
// short recap of recorded answers.
func (e *Engine) commandStatus(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	sessions, err := e.sessions.All(ctx, ev.SubjectID)
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}
	if len(sessions) == 0 {
		return []transport.Outbound{e.reply(ev.SubjectID,
			"You have no applications yet. Use /jobs to see open positions.")}
	}

	var sb strings.Builder
	sb.WriteString("Your applications:\n")
	for _, sess := range sessions {
		qs, err := e.registry.Get(ctx, sess.QuestionSetID)
		if err != nil {
			continue
		}
		total := len(qs.Questions)
		if sess.IsCompleted {
			fmt.Fprintf(&sb, "\n%s: completed", qs.Title)
		} else {
			fmt.Fprintf(&sb, "\n%s: question %d of %d", qs.Title, sess.CurrentStep+1, total)
		}
		if sess.HasAttachment() {
			fmt.Fprintf(&sb, "\n  Resume: %s (uploaded %s)",
				sess.Attachment.FileName, sess.Attachment.UploadedAt.Format("Jan 2, 15:04"))
		} else {
			sb.WriteString("\n  Resume: not uploaded")
		}
		if recap := recapAnswers(qs, sess); recap != "" {
			fmt.Fprintf(&sb, "\n  %s", recap)
		}
	}

	return []transport.Outbound{e.reply(ev.SubjectID, sb.String())}
}

// recapAnswers renders the recorded answers in question order,
// truncating long values.
func recapAnswers(qs *models.QuestionSet, sess *models.Session) string {
	if len(sess.Responses) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sess.Responses))
	for _, q := range qs.Questions {
		value, ok := sess.Responses[q.FieldKey]
		if !ok {
			continue
		}
		if len(value) > 40 {
			value = value[:37] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s: %s", q.FieldKey, value))
	}
	return strings.Join(parts, ", ")
}

// commandApplications lists every application with a per-line status.
func (e *Engine) commandApplications(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	sessions, err := e.sessions.All(ctx, ev.SubjectID)
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	var sb strings.Builder
	count := 0
	for _, sess := range sessions {
		qs, err := e.registry.Get(ctx, sess.QuestionSetID)
		if err != nil {
			continue
		}
		count++
		if sess.IsCompleted {
			fmt.Fprintf(&sb, "%d. %s - Completed, submitted %s", count, e.jobLabel(ctx, qs), sess.UpdatedAt.Format("Jan 2, 2006"))
		} else {
			fmt.Fprintf(&sb, "%d. %s - In Progress (%d/%d)", count, e.jobLabel(ctx, qs), sess.CurrentStep, len(qs.Questions))
		}
		if sess.HasAttachment() {
			fmt.Fprintf(&sb, " (resume: %s)", sess.Attachment.FileName)
		}
		sb.WriteByte('\n')
	}

	if count == 0 {
		return []transport.Outbound{e.reply(ev.SubjectID,
			"You have no applications yet. Use /jobs to see open positions.")}
	}
	return []transport.Outbound{e.reply(ev.SubjectID, "Your applications:\n"+sb.String())}
}

func (e *Engine) commandUpload(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	_, err := e.sessions.MostRelevant(ctx, ev.SubjectID)
	if err == store.ErrNotFound {
		return []transport.Outbound{e.reply(ev.SubjectID,
			"Start an application first with /jobs, then send your resume as a document.")}
	}
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}
	return []transport.Outbound{e.reply(ev.SubjectID,
		"Send your resume as a document attachment (PDF, DOC or DOCX, up to 20 MB). You can do this at any point, even after finishing the questions.")}
}

// commandRestart deletes every session of the subject and releases the
// stored files on every path.
func (e *Engine) commandRestart(ctx context.Context, ev transport.TextEvent) []transport.Outbound {
	removed, err := e.sessions.DeleteAll(ctx, ev.SubjectID)
	if err != nil {
		return e.failure(ev.SubjectID, errors.NewStoreQueryFailedError("sessions", err))
	}

	for _, sess := range removed {
		if sess.HasAttachment() {
			if err := e.files.Remove(sess.Attachment.FilePath); err != nil {
				e.logger.Warn("Stored file cleanup failed", map[string]interface{}{
					"path":  sess.Attachment.FilePath,
					"error": err.Error(),
				})
			}
		}
	}

	e.logger.Info("Subject reset", map[string]interface{}{
		"subject_id": ev.SubjectID,
		"sessions":   len(removed),
	})
	return []transport.Outbound{e.reply(ev.SubjectID,
		"All your applications and uploaded files have been deleted. Use /jobs whenever you're ready to start again.")}
}

// commandSetDefault re-points the default question set. Restricted to
// configured administrators.
func (e *Engine) commandSetDefault(ctx context.Context, ev transport.TextEvent, id string) []transport.Outbound {
	if !e.admins[ev.SubjectID] {
		return e.failure(ev.SubjectID, errors.NewAdminRequiredError("setdefault"))
	}
	if id == "" {
		return []transport.Outbound{e.reply(ev.SubjectID, "Usage: /setdefault <question set id>")}
	}
	if err := e.registry.SetDefault(ctx, id); err != nil {
		return e.failure(ev.SubjectID, err)
	}
	return []transport.Outbound{e.reply(ev.SubjectID,
		fmt.Sprintf("Question set %s is now the default.", id))}
}

// commandDeleteSet deletes a question set. The registry refuses the
// default set and sets with applications in progress.
func (e *Engine) commandDeleteSet(ctx context.Context, ev transport.TextEvent, id string) []transport.Outbound {
	if !e.admins[ev.SubjectID] {
		return e.failure(ev.SubjectID, errors.NewAdminRequiredError("deleteset"))
	}
	if id == "" {
		return []transport.Outbound{e.reply(ev.SubjectID, "Usage: /deleteset <question set id>")}
	}
	if err := e.registry.Delete(ctx, id); err != nil {
		return e.failure(ev.SubjectID, err)
	}
	return []transport.Outbound{e.reply(ev.SubjectID,
		fmt.Sprintf("Question set %s has been deleted.", id))}
}
