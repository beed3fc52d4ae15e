// Package scoring calls the generative scoring API to grade an
// extracted resume against a job posting, and persists the results.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"hirebot/internal/common/errors"
	httpclient "hirebot/internal/common/http"
	"hirebot/internal/common/logger"
	"hirebot/internal/models"
)

// maxResumeChars bounds the prompt size. Longer resumes are truncated,
// the head carries the signal.
const maxResumeChars = 12000

// Client talks to the generative API.
type Client struct {
	http        *httpclient.Client
	baseURL     string
	apiKey      string
	model       string
	timeout     time.Duration
	maxRetries  int
	temperature float64
	logger      logger.Logger
}

type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

func NewClient(cfg ClientConfig, log logger.Logger) *Client {
	return &Client{
		http:        httpclient.NewClient(cfg.Timeout),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		temperature: cfg.Temperature,
		logger:      log,
	}
}

// generateContent mirrors the REST shape of the Gemini API.
type generateRequest struct {
	Contents         []content `json:"contents"`
	GenerationConfig struct {
		Temperature      float64 `json:"temperature"`
		ResponseMIMEType string  `json:"response_mime_type"`
	} `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// scorePayload is what the model is asked to return.
type scorePayload struct {
	Scores struct {
		Overall         int `json:"overall"`
		SkillsMatch     int `json:"skills_match"`
		ExperienceMatch int `json:"experience_match"`
		EducationMatch  int `json:"education_match"`
		KeywordsMatch   int `json:"keywords_match"`
	} `json:"scores"`
	Analysis struct {
		MatchedSkills          []string `json:"matched_skills"`
		MissingSkills          []string `json:"missing_skills"`
		ExperienceAnalysis     string   `json:"experience_analysis"`
		StrengthsAndWeaknesses string   `json:"strengths_and_weaknesses"`
		Recommendations        []string `json:"recommendations"`
	} `json:"analysis"`
	CandidateInfo struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"candidate_info"`
}

// Score grades resumeText against the job and returns a populated
// ResumeScore. Transient API failures are retried with backoff; the
// caller's context bounds the whole attempt.
func (c *Client) Score(ctx context.Context, resumeText string, job *models.Job, sess *models.Session) (*models.ResumeScore, error) {
	if len(resumeText) > maxResumeChars {
		resumeText = resumeText[:maxResumeChars]
	}

	req := c.buildRequest(resumeText, job)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var resp generateResponse
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-ctx.Done():
				return nil, errors.NewScoringTimeoutError()
			case <-time.After(backoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		lastErr = c.http.PostJSON(callCtx, url, req, &resp)
		cancel()
		if lastErr == nil {
			break
		}
		c.logger.Warn("Scoring API call failed", map[string]interface{}{
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		})
	}
	if lastErr != nil {
		if ctx.Err() != nil {
			return nil, errors.NewScoringTimeoutError()
		}
		return nil, errors.NewScoringFailedError(lastErr)
	}

	payload, err := parseScorePayload(&resp)
	if err != nil {
		return nil, err
	}
	return c.toResumeScore(payload, job, sess), nil
}

func (c *Client) buildRequest(resumeText string, job *models.Job) *generateRequest {
	prompt := fmt.Sprintf(`You are an experienced technical recruiter. Score the resume below against the job posting.

Job: %s at %s
Description: %s
Required skills: %s
Preferred skills: %s
Experience: %s

Resume:
%s

Respond with only a JSON object of this shape:
{"scores":{"overall":0-100,"skills_match":0-100,"experience_match":0-100,"education_match":0-100,"keywords_match":0-100},"analysis":{"matched_skills":[],"missing_skills":[],"experience_analysis":"","strengths_and_weaknesses":"","recommendations":[]},"candidate_info":{"name":"","email":"","phone":""}}`,
		job.Title, job.Company, job.Description,
		strings.Join(job.RequiredSkills, ", "),
		strings.Join(job.PreferredSkills, ", "),
		job.Experience, resumeText)

	req := &generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	req.GenerationConfig.Temperature = c.temperature
	req.GenerationConfig.ResponseMIMEType = "application/json"
	return req
}

// jsonBlock pulls the first JSON object out of a response that may be
// wrapped in markdown fences or prose.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

func parseScorePayload(resp *generateResponse) (*scorePayload, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.NewScoringFailedError(fmt.Errorf("empty response"))
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	match := jsonBlock.FindString(text)
	if match == "" {
		return nil, errors.NewScoringFailedError(fmt.Errorf("no JSON object in response"))
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(match), &payload); err != nil {
		return nil, errors.NewScoringFailedError(fmt.Errorf("decode score payload: %w", err))
	}
	clampScores(&payload)
	return &payload, nil
}

func clampScores(p *scorePayload) {
	clamp := func(v *int) {
		if *v < 0 {
			*v = 0
		}
		if *v > 100 {
			*v = 100
		}
	}
	clamp(&p.Scores.Overall)
	clamp(&p.Scores.SkillsMatch)
	clamp(&p.Scores.ExperienceMatch)
	clamp(&p.Scores.EducationMatch)
	clamp(&p.Scores.KeywordsMatch)

	// Models occasionally omit the overall figure; derive it from the
	// components with the standard weighting.
	if p.Scores.Overall == 0 {
		w := models.DefaultWeighting()
		p.Scores.Overall = (p.Scores.SkillsMatch*w.Skills +
			p.Scores.ExperienceMatch*w.Experience +
			p.Scores.EducationMatch*w.Education +
			p.Scores.KeywordsMatch*w.Keywords) / 100
	}
}

func (c *Client) toResumeScore(p *scorePayload, job *models.Job, sess *models.Session) *models.ResumeScore {
	score := &models.ResumeScore{
		SessionID:      sess.ID,
		JobID:          job.ID,
		CandidateName:  firstNonEmpty(p.CandidateInfo.Name, sess.Responses["name"]),
		CandidateEmail: firstNonEmpty(p.CandidateInfo.Email, sess.Responses["email"]),
		CandidatePhone: firstNonEmpty(p.CandidateInfo.Phone, sess.Responses["phone"]),
		Scores: models.ScoreBreakdown{
			Overall:         p.Scores.Overall,
			SkillsMatch:     p.Scores.SkillsMatch,
			ExperienceMatch: p.Scores.ExperienceMatch,
			EducationMatch:  p.Scores.EducationMatch,
			KeywordsMatch:   p.Scores.KeywordsMatch,
		},
		Analysis: models.ScoreAnalysis{
			MatchedSkills:          p.Analysis.MatchedSkills,
			MissingSkills:          p.Analysis.MissingSkills,
			ExperienceAnalysis:     p.Analysis.ExperienceAnalysis,
			StrengthsAndWeaknesses: p.Analysis.StrengthsAndWeaknesses,
			Recommendations:        p.Analysis.Recommendations,
		},
		CreatedAt: time.Now().UTC(),
	}
	if sess.Attachment != nil {
		score.ResumeFileName = sess.Attachment.FileName
	}
	return score
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
