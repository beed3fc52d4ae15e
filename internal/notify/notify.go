// Package notify delivers post-completion notifications to the hiring
// contact: a score summary email, and an SMS for strong candidates.
package notify

import (
	"context"
	"fmt"
	"strings"

	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/models"
)

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	SendHTMLEmail(ctx context.Context, from, to, subject, htmlBody string) error
}

// SMSSender is satisfied by the SNS client.
type SMSSender interface {
	PublishSMS(ctx context.Context, phoneNumber, message string) error
}

type Config struct {
	EmailEnabled   bool
	FromEmail      string
	SMSEnabled     bool
	ScoreThreshold int
}

// Notifier fans a scored application out to the configured channels.
type Notifier struct {
	email  EmailSender
	sms    SMSSender
	cfg    Config
	logger logger.Logger
}

func New(email EmailSender, sms SMSSender, cfg Config, log logger.Logger) *Notifier {
	return &Notifier{email: email, sms: sms, cfg: cfg, logger: log}
}

// NotifyScored sends the score summary to the job's hiring contact.
// Email goes out for every scored application; SMS only above the
// configured threshold. The first failed channel aborts the rest.
func (n *Notifier) NotifyScored(ctx context.Context, job *models.Job, score *models.ResumeScore) error {
	if job == nil {
		return nil
	}

	if n.cfg.EmailEnabled && n.email != nil && job.HREmail != "" {
		subject := fmt.Sprintf("New application for %s: %s (%d/100)", job.Title, score.CandidateName, score.Scores.Overall)
		if err := n.email.SendHTMLEmail(ctx, n.cfg.FromEmail, job.HREmail, subject, scoreEmailHTML(job, score)); err != nil {
			return errors.NewNotificationSendFailedError("email", err)
		}
		n.logger.Info("Score email sent", map[string]interface{}{
			"job_id":   job.ID,
			"score_id": score.ID,
		})
	}

	if n.cfg.SMSEnabled && n.sms != nil && job.HRPhone != "" && score.Scores.Overall >= n.cfg.ScoreThreshold {
		msg := fmt.Sprintf("Strong candidate for %s: %s scored %d/100. Check your inbox for details.",
			job.Title, score.CandidateName, score.Scores.Overall)
		if err := n.sms.PublishSMS(ctx, job.HRPhone, msg); err != nil {
			return errors.NewNotificationSendFailedError("sms", err)
		}
		n.logger.Info("Score SMS sent", map[string]interface{}{
			"job_id":   job.ID,
			"score_id": score.ID,
		})
	}

	return nil
}

func scoreEmailHTML(job *models.Job, score *models.ResumeScore) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h2>New application: %s</h2>", job.Display())
	fmt.Fprintf(&sb, "<p><b>Candidate:</b> %s", score.CandidateName)
	if score.CandidateEmail != "" {
		fmt.Fprintf(&sb, " (%s)", score.CandidateEmail)
	}
	sb.WriteString("</p>")

	fmt.Fprintf(&sb, "<p><b>Overall score:</b> %d/100</p><ul>", score.Scores.Overall)
	fmt.Fprintf(&sb, "<li>Skills: %d</li>", score.Scores.SkillsMatch)
	fmt.Fprintf(&sb, "<li>Experience: %d</li>", score.Scores.ExperienceMatch)
	fmt.Fprintf(&sb, "<li>Education: %d</li>", score.Scores.EducationMatch)
	fmt.Fprintf(&sb, "<li>Keywords: %d</li></ul>", score.Scores.KeywordsMatch)

	if len(score.Analysis.MatchedSkills) > 0 {
		fmt.Fprintf(&sb, "<p><b>Matched skills:</b> %s</p>", strings.Join(score.Analysis.MatchedSkills, ", "))
	}
	if len(score.Analysis.MissingSkills) > 0 {
		fmt.Fprintf(&sb, "<p><b>Missing skills:</b> %s</p>", strings.Join(score.Analysis.MissingSkills, ", "))
	}
	if score.Analysis.ExperienceAnalysis != "" {
		fmt.Fprintf(&sb, "<p>%s</p>", score.Analysis.ExperienceAnalysis)
	}
	if score.ResumeFileName != "" {
		fmt.Fprintf(&sb, "<p><i>Resume: %s</i></p>", score.ResumeFileName)
	}
	return sb.String()
}
