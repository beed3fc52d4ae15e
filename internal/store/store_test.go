package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirebot/internal/models"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestQuestionSetStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	s := NewQuestionSetStore(testClient(t))

	qs := &models.QuestionSet{
		ID:    "qs-1",
		Title: "General Intake",
		Questions: []models.Question{
			{Step: 1, FieldKey: "name", Prompt: "What is your full name?", Required: true},
		},
		IsActive: true,
	}
	require.NoError(t, s.Insert(ctx, qs))

	got, err := s.Get(ctx, "qs-1")
	require.NoError(t, err)
	assert.Equal(t, "General Intake", got.Title)
	assert.Len(t, got.Questions, 1)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Insert(ctx, qs)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestQuestionSetStore_AllOrdersDefaultFirst(t *testing.T) {
	ctx := context.Background()
	s := NewQuestionSetStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.QuestionSet{ID: "a", Title: "Zeta Role", IsActive: true}))
	require.NoError(t, s.Insert(ctx, &models.QuestionSet{ID: "b", Title: "Alpha Role", IsActive: true}))
	require.NoError(t, s.Insert(ctx, &models.QuestionSet{ID: "c", Title: "Mid Role", IsDefault: true, IsActive: true}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "a", all[2].ID)
}

func TestQuestionSetStore_SetDefaultClearsOthers(t *testing.T) {
	ctx := context.Background()
	s := NewQuestionSetStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.QuestionSet{ID: "a", Title: "A", IsDefault: true}))
	require.NoError(t, s.Insert(ctx, &models.QuestionSet{ID: "b", Title: "B"}))

	require.NoError(t, s.SetDefault(ctx, "b"))

	a, err := s.Get(ctx, "a")
	require.NoError(t, err)
	b, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, a.IsDefault)
	assert.True(t, b.IsDefault)

	def, err := s.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", def.ID)

	assert.ErrorIs(t, s.SetDefault(ctx, "missing"), ErrNotFound)
}

func TestSessionStore_UniquePerSubjectAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient(t))

	sess := &models.Session{ID: "s-1", SubjectID: "100", QuestionSetID: "qs-1", CurrentStep: 1}
	require.NoError(t, s.Insert(ctx, sess))
	assert.ErrorIs(t, s.Insert(ctx, &models.Session{ID: "s-2", SubjectID: "100", QuestionSetID: "qs-1"}), ErrDuplicate)

	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-3", SubjectID: "100", QuestionSetID: "qs-2"}))
	n, err := s.Count(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSessionStore_UpdateRecordsResponses(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.Session{
		ID: "s-1", SubjectID: "100", QuestionSetID: "qs-1",
		CurrentStep: 1, Responses: map[string]string{},
	}))

	updated, err := s.Update(ctx, "100", "qs-1", func(sess *models.Session) error {
		sess.Responses["name"] = "Ada Lovelace"
		sess.CurrentStep = 2
		sess.UpdatedAt = time.Now().UTC()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentStep)

	got, err := s.Get(ctx, "100", "qs-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Responses["name"])

	_, err = s.Update(ctx, "100", "missing", func(*models.Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_MostRelevantPrefersIncomplete(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient(t))
	now := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, &models.Session{
		ID: "done", SubjectID: "100", QuestionSetID: "qs-1",
		IsCompleted: true, UpdatedAt: now,
	}))
	require.NoError(t, s.Insert(ctx, &models.Session{
		ID: "older-open", SubjectID: "100", QuestionSetID: "qs-2",
		UpdatedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, s.Insert(ctx, &models.Session{
		ID: "newer-open", SubjectID: "100", QuestionSetID: "qs-3",
		UpdatedAt: now.Add(-time.Hour),
	}))

	sess, err := s.MostRelevant(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "newer-open", sess.ID)

	active, err := s.ActiveAnswering(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "newer-open", active.ID)
}

func TestSessionStore_MostRelevantFallsBackToCompleted(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.Session{
		ID: "done", SubjectID: "100", QuestionSetID: "qs-1",
		IsCompleted: true, UpdatedAt: time.Now().UTC(),
	}))

	sess, err := s.MostRelevant(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, "done", sess.ID)

	_, err = s.ActiveAnswering(ctx, "100")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.MostRelevant(ctx, "101")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_DeleteAllReturnsRemoved(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-1", SubjectID: "100", QuestionSetID: "qs-1"}))
	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-2", SubjectID: "100", QuestionSetID: "qs-2"}))
	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-3", SubjectID: "200", QuestionSetID: "qs-1"}))

	removed, err := s.DeleteAll(ctx, "100")
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	n, err := s.Count(ctx, "100")
	require.NoError(t, err)
	assert.Zero(t, n)

	other, err := s.Get(ctx, "200", "qs-1")
	require.NoError(t, err)
	assert.Equal(t, "s-3", other.ID)
}

func TestJobStore_InsertGetAll(t *testing.T) {
	ctx := context.Background()
	s := NewJobStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.Job{ID: "j-1", Title: "Backend Engineer", Company: "Acme"}))
	require.NoError(t, s.Insert(ctx, &models.Job{ID: "j-2", Title: "Analyst", Company: "Acme"}))

	jobs, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Analyst", jobs[0].Title)

	require.NoError(t, s.Delete(ctx, "j-1"))
	_, err = s.Get(ctx, "j-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionStore_OpenForQuestionSet(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore(testClient(t))

	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-1", SubjectID: "100", QuestionSetID: "qs-1"}))
	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-2", SubjectID: "200", QuestionSetID: "qs-1"}))
	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-3", SubjectID: "300", QuestionSetID: "qs-1", IsCompleted: true}))
	require.NoError(t, s.Insert(ctx, &models.Session{ID: "s-4", SubjectID: "100", QuestionSetID: "qs-2"}))

	open, err := s.OpenForQuestionSet(ctx, "qs-1")
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	open, err = s.OpenForQuestionSet(ctx, "qs-3")
	require.NoError(t, err)
	assert.Equal(t, 0, open)
}
