// internal/questionset/seed.go
package questionset

import (
	"context"

	"hirebot/internal/common/errors"
	"hirebot/internal/models"
	"hirebot/internal/store"
)

// EnsureDefault seeds the standard intake question set on first boot.
// It does nothing when any default set already exists.
func (r *Registry) EnsureDefault(ctx context.Context) (*models.QuestionSet, error) {
	existing, err := r.sets.Default(ctx)
	if err == nil {
		return existing, nil
	}
	if err != store.ErrNotFound {
		return nil, errors.NewStoreQueryFailedError("questionsets", err)
	}

	qs, err := r.Create(ctx, CreateInput{
		Title:       "General Job Application",
		Description: "Standard screening questions for all applicants",
		Questions:   defaultQuestions(),
		CreatedBy:   "system",
	})
	if err != nil {
		return nil, err
	}
	if err := r.SetDefault(ctx, qs.ID); err != nil {
		return nil, err
	}
	qs.IsDefault = true

	r.logger.Info("Seeded default question set", map[string]interface{}{
		"question_set_id": qs.ID,
	})
	return qs, nil
}

func defaultQuestions() []models.Question {
	return []models.Question{
		{Step: 1, FieldKey: "name", Prompt: "What is your full name?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationText, MinLength: 2, MaxLength: 100}},
		{Step: 2, FieldKey: "email", Prompt: "What is your email address?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationEmail}},
		{Step: 3, FieldKey: "phone", Prompt: "What is your phone number?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationPhone}},
		{Step: 4, FieldKey: "position", Prompt: "Which position are you applying for?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationText, MinLength: 2, MaxLength: 100}},
		{Step: 5, FieldKey: "experience", Prompt: "How many years of relevant experience do you have?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationNumber}},
		{Step: 6, FieldKey: "skills", Prompt: "List your key skills, separated by commas.", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationText, MinLength: 3, MaxLength: 500}},
		{Step: 7, FieldKey: "availability", Prompt: "When can you start?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationText, MinLength: 2, MaxLength: 100}},
		{Step: 8, FieldKey: "expectedSalary", Prompt: "What is your expected salary?", Required: true,
			Validation: models.ValidationRule{Type: models.ValidationText, MinLength: 1, MaxLength: 50}},
		{Step: 9, FieldKey: "portfolio", Prompt: "Share a link to your portfolio or LinkedIn profile (reply 'none' to skip).", Required: false,
			Validation: models.ValidationRule{Type: models.ValidationURL}},
		{Step: 10, FieldKey: "additionalInfo", Prompt: "Anything else you would like us to know?", Required: false,
			Validation: models.ValidationRule{Type: models.ValidationText, MaxLength: 1000}},
	}
}
