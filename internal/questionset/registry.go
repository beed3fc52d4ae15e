// Package questionset manages the catalogue of interview question
// sets: creation, editing, activation and the single default set.
package questionset

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/models"
	"hirebot/internal/store"
)

// SessionCounter reports how many incomplete sessions still reference
// a question set.
type SessionCounter interface {
	OpenForQuestionSet(ctx context.Context, questionSetID string) (int, error)
}

// Registry validates and persists question sets.
type Registry struct {
	sets     *store.QuestionSetStore
	sessions SessionCounter
	logger   logger.Logger
	schema   *gojsonschema.Schema
}

func NewRegistry(sets *store.QuestionSetStore, sessions SessionCounter, log logger.Logger) (*Registry, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(questionSetSchema))
	if err != nil {
		return nil, fmt.Errorf("compile question set schema: %w", err)
	}
	return &Registry{sets: sets, sessions: sessions, logger: log, schema: schema}, nil
}

// CreateInput is the admin-facing payload for a new question set.
type CreateInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	JobID       string            `json:"jobId,omitempty"`
	Questions   []models.Question `json:"questions"`
	IsActive    *bool             `json:"isActive,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
}

// Create validates the payload, normalizes question steps to 1..N and
// stores the new set.
func (r *Registry) Create(ctx context.Context, in CreateInput) (*models.QuestionSet, error) {
	if err := r.validateInput(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	qs := &models.QuestionSet{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		JobID:       in.JobID,
		Questions:   normalizeSteps(in.Questions),
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.sets.Insert(ctx, qs); err != nil {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}

	r.logger.Info("Question set created", map[string]interface{}{
		"question_set_id": qs.ID,
		"title":           qs.Title,
		"questions":       len(qs.Questions),
	})
	return qs, nil
}

// Update replaces the editable fields of an existing set. Steps are
// re-sequenced the same way Create does.
func (r *Registry) Update(ctx context.Context, id string, in CreateInput) (*models.QuestionSet, error) {
	if err := r.validateInput(in); err != nil {
		return nil, err
	}

	qs, err := r.sets.Update(ctx, id, func(qs *models.QuestionSet) error {
		qs.Title = strings.TrimSpace(in.Title)
		qs.Description = strings.TrimSpace(in.Description)
		qs.JobID = in.JobID
		qs.Questions = normalizeSteps(in.Questions)
		if in.IsActive != nil {
			qs.IsActive = *in.IsActive
		}
		qs.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err == store.ErrNotFound {
		return nil, errors.NewQuestionSetNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}
	return qs, nil
}

func (r *Registry) Get(ctx context.Context, id string) (*models.QuestionSet, error) {
	qs, err := r.sets.Get(ctx, id)
	if err == store.ErrNotFound {
		return nil, errors.NewQuestionSetNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}
	return qs, nil
}

// Active lists the sets candidates may start, default first.
func (r *Registry) Active(ctx context.Context) ([]*models.QuestionSet, error) {
	sets, err := r.sets.Active(ctx)
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}
	return sets, nil
}

// Default returns the default set, or a NoActiveQuestionSet error when
// none is flagged.
func (r *Registry) Default(ctx context.Context) (*models.QuestionSet, error) {
	qs, err := r.sets.Default(ctx)
	if err == store.ErrNotFound {
		return nil, errors.NewNoActiveQuestionSetError()
	}
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}
	return qs, nil
}

// ByJob returns the sets attached to a job posting.
func (r *Registry) ByJob(ctx context.Context, jobID string) ([]*models.QuestionSet, error) {
	sets, err := r.sets.FindByJobID(ctx, jobID)
	if err != nil {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}
	return sets, nil
}

// SetDefault flags id as the one default set.
func (r *Registry) SetDefault(ctx context.Context, id string) error {
	err := r.sets.SetDefault(ctx, id)
	if err == store.ErrNotFound {
		return errors.NewQuestionSetNotFoundError(id)
	}
	if err != nil {
		return errors.NewStoreQueryFailedError("questionsets", err)
	}
	return nil
}

// Delete removes a set. The default set is protected, an admin must
// re-point the default flag first. A set with incomplete sessions is
// protected too, subjects mid-interview still need its questions.
func (r *Registry) Delete(ctx context.Context, id string) error {
	qs, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if qs.IsDefault {
		return errors.NewDefaultSetProtectedError(id)
	}
	if r.sessions != nil {
		open, err := r.sessions.OpenForQuestionSet(ctx, id)
		if err != nil {
			return errors.NewStoreQueryFailedError("sessions", err)
		}
		if open > 0 {
			return errors.NewQuestionSetInUseError(id, open)
		}
	}
	if err := r.sets.Delete(ctx, id); err != nil {
		return errors.NewStoreQueryFailedError("questionsets", err)
	}
	return nil
}

func (r *Registry) validateInput(in CreateInput) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.NewQuestionSetInvalidError(err.Error())
	}
	result, err := r.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.NewQuestionSetInvalidError(err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return errors.NewQuestionSetInvalidError(strings.Join(details, "; "))
	}

	seen := make(map[string]bool, len(in.Questions))
	for _, q := range in.Questions {
		if seen[q.FieldKey] {
			return errors.NewQuestionSetInvalidError(fmt.Sprintf("duplicate field key %q", q.FieldKey))
		}
		seen[q.FieldKey] = true

		if q.Validation.Type == models.ValidationCustom {
			if q.Validation.Pattern == "" {
				return errors.NewQuestionSetInvalidError(fmt.Sprintf("field %q: custom validation needs a pattern", q.FieldKey))
			}
			if _, err := regexp.Compile(q.Validation.Pattern); err != nil {
				return errors.NewQuestionSetInvalidError(fmt.Sprintf("field %q: invalid pattern: %v", q.FieldKey, err))
			}
		}
		if q.Validation.MinLength > 0 && q.Validation.MaxLength > 0 && q.Validation.MinLength > q.Validation.MaxLength {
			return errors.NewQuestionSetInvalidError(fmt.Sprintf("field %q: minLength exceeds maxLength", q.FieldKey))
		}
	}
	return nil
}

// normalizeSteps sorts questions by their declared step and re-numbers
// them 1..N so the stored sequence is always contiguous.
func normalizeSteps(questions []models.Question) []models.Question {
	out := make([]models.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Step < out[j].Step })
	for i := range out {
		out[i].Step = i + 1
	}
	return out
}
