package questionset

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot/internal/common/errors"
	"hirebot/internal/common/logger"
	"hirebot/internal/models"
	"hirebot/internal/store"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r, err := NewRegistry(store.NewQuestionSetStore(client), store.NewSessionStore(client), logger.NewNoOpLogger())
	require.NoError(t, err)
	return r
}

func validInput() CreateInput {
	return CreateInput{
		Title: "Backend Screening",
		Questions: []models.Question{
			{Step: 1, FieldKey: "name", Prompt: "Your name?", Required: true,
				Validation: models.ValidationRule{Type: models.ValidationText, MinLength: 2}},
			{Step: 2, FieldKey: "email", Prompt: "Your email?", Required: true,
				Validation: models.ValidationRule{Type: models.ValidationEmail}},
		},
	}
}

func TestRegistry_CreateNormalizesSteps(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	in := validInput()
	in.Questions[0].Step = 7
	in.Questions[1].Step = 3

	qs, err := r.Create(ctx, in)
	require.NoError(t, err)
	require.Len(t, qs.Questions, 2)
	assert.Equal(t, 1, qs.Questions[0].Step)
	assert.Equal(t, "email", qs.Questions[0].FieldKey)
	assert.Equal(t, 2, qs.Questions[1].Step)
	assert.Equal(t, "name", qs.Questions[1].FieldKey)
	assert.True(t, qs.IsActive)
	assert.NotEmpty(t, qs.ID)
}

func TestRegistry_CreateRejectsBadPayloads(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"empty title", func(in *CreateInput) { in.Title = "" }},
		{"no questions", func(in *CreateInput) { in.Questions = nil }},
		{"bad field key", func(in *CreateInput) { in.Questions[0].FieldKey = "1-bad key" }},
		{"unknown validation type", func(in *CreateInput) { in.Questions[0].Validation.Type = "zipcode" }},
		{"duplicate field key", func(in *CreateInput) { in.Questions[1].FieldKey = in.Questions[0].FieldKey }},
		{"custom without pattern", func(in *CreateInput) {
			in.Questions[0].Validation = models.ValidationRule{Type: models.ValidationCustom}
		}},
		{"custom with broken pattern", func(in *CreateInput) {
			in.Questions[0].Validation = models.ValidationRule{Type: models.ValidationCustom, Pattern: "([unclosed"}
		}},
		{"min above max", func(in *CreateInput) {
			in.Questions[0].Validation.MinLength = 10
			in.Questions[0].Validation.MaxLength = 5
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := r.Create(ctx, in)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeQuestionSetInvalid, errors.CodeOf(err))
		})
	}
}

func TestRegistry_UpdateResequences(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	qs, err := r.Create(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Title = "Renamed Screening"
	in.Questions = append(in.Questions, models.Question{
		Step: 99, FieldKey: "skills", Prompt: "Key skills?",
		Validation: models.ValidationRule{Type: models.ValidationText},
	})

	updated, err := r.Update(ctx, qs.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Screening", updated.Title)
	require.Len(t, updated.Questions, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{updated.Questions[0].Step, updated.Questions[1].Step, updated.Questions[2].Step})

	_, err = r.Update(ctx, "missing", validInput())
	assert.Equal(t, errors.ErrCodeQuestionSetNotFound, errors.CodeOf(err))
}

func TestRegistry_DeleteProtectsDefault(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	qs, err := r.Create(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, r.SetDefault(ctx, qs.ID))

	err = r.Delete(ctx, qs.ID)
	assert.Equal(t, errors.ErrCodeDefaultSetProtected, errors.CodeOf(err))

	other, err := r.Create(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, other.ID))
}

func TestRegistry_ByJobFiltersSets(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	in := validInput()
	in.JobID = "job-1"
	attached, err := r.Create(ctx, in)
	require.NoError(t, err)

	_, err = r.Create(ctx, validInput())
	require.NoError(t, err)

	sets, err := r.ByJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, attached.ID, sets[0].ID)

	sets, err = r.ByJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestRegistry_DeleteProtectsOpenSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := store.NewSessionStore(client)
	r, err := NewRegistry(store.NewQuestionSetStore(client), sessions, logger.NewNoOpLogger())
	require.NoError(t, err)
	ctx := context.Background()

	qs, err := r.Create(ctx, validInput())
	require.NoError(t, err)

	sess := &models.Session{
		ID:            "sess-1",
		SubjectID:     "subject-1",
		QuestionSetID: qs.ID,
		Responses:     map[string]string{},
	}
	require.NoError(t, sessions.Insert(ctx, sess))

	err = r.Delete(ctx, qs.ID)
	assert.Equal(t, errors.ErrCodeQuestionSetInUse, errors.CodeOf(err))

	_, err = sessions.Update(ctx, sess.SubjectID, qs.ID, func(s *models.Session) error {
		s.IsCompleted = true
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, qs.ID))
}

func TestRegistry_EnsureDefaultSeedsOnce(t *testing.T) {
	r := testRegistry(t)
	ctx := context.Background()

	first, err := r.EnsureDefault(ctx)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Len(t, first.Questions, 10)
	assert.Equal(t, "name", first.Questions[0].FieldKey)
	assert.Equal(t, "additionalInfo", first.Questions[9].FieldKey)

	second, err := r.EnsureDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	active, err := r.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
