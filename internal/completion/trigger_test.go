package completion

import (
	"archive/zip"
	"bytes"
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

type fakeFiles struct {
	content map[string][]byte
}

func (f *fakeFiles) Read(path string) ([]byte, error) {
	content, ok := f.content[path]
	if !ok {
		return nil, errors.NewFileStorageFailedError(assert.AnError)
	}
	return content, nil
}

type fakeScorer struct {
	calls int
	err   error
	seen  []string
}

func (f *fakeScorer) Score(_ context.Context, text string, job *models.Job, sess *models.Session) (*models.ResumeScore, error) {
	f.calls++
	f.seen = append(f.seen, job.Title)
	if f.err != nil {
		return nil, f.err
	}
	return &models.ResumeScore{
		ID: "sc-1", SessionID: sess.ID, JobID: job.ID,
		CandidateName: "Ada Lovelace",
		Scores:        models.ScoreBreakdown{Overall: 82},
	}, nil
}

type fakeSaver struct {
	saved []*models.ResumeScore
	err   error
}

func (f *fakeSaver) Save(_ context.Context, score *models.ResumeScore) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, score)
	return nil
}

type fakeAnnouncer struct {
	calls int
	jobs  []*models.Job
	err   error
}

func (f *fakeAnnouncer) NotifyScored(_ context.Context, job *models.Job, _ *models.ResumeScore) error {
	f.calls++
	f.jobs = append(f.jobs, job)
	return f.err
}

type fakeIndexer struct {
	calls int
	err   error
}

func (f *fakeIndexer) IndexApplication(context.Context, *models.Session, *models.Job, *models.ResumeScore) error {
	f.calls++
	return f.err
}

func resumeDOCX(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>Backend engineer, Go and Redis.</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func completedSession() *models.Session {
	return &models.Session{
		ID: "s-1", SubjectID: "100", QuestionSetID: "qs-1",
		IsCompleted: true,
		Responses:   map[string]string{"name": "Ada Lovelace"},
		Attachment:  &models.Attachment{FileName: "resume.docx", FilePath: "uploads/r.docx"},
	}
}

func testJobStore(t *testing.T) *store.JobStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return store.NewJobStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestTrigger_FireRunsFullPipeline(t *testing.T) {
	ctx := context.Background()
	jobs := testJobStore(t)
	require.NoError(t, jobs.Insert(ctx, &models.Job{ID: "j-1", Title: "Backend Engineer", Company: "Acme", HREmail: "hr@acme.example"}))

	files := &fakeFiles{content: map[string][]byte{"uploads/r.docx": resumeDOCX(t)}}
	scorer := &fakeScorer{}
	saver := &fakeSaver{}
	announcer := &fakeAnnouncer{}
	indexer := &fakeIndexer{}

	trigger := NewTrigger(files, scorer, saver, announcer, indexer, jobs, logger.NewNoOpLogger())
	qs := &models.QuestionSet{ID: "qs-1", Title: "Backend Screening", JobID: "j-1"}

	require.NoError(t, trigger.Fire(ctx, completedSession(), qs))

	assert.Equal(t, 1, scorer.calls)
	assert.Equal(t, []string{"Backend Engineer"}, scorer.seen)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "s-1", saver.saved[0].SessionID)
	assert.Equal(t, 1, announcer.calls)
	assert.Equal(t, 1, indexer.calls)
}

func TestTrigger_SkipsIneligibleSessions(t *testing.T) {
	scorer := &fakeScorer{}
	trigger := NewTrigger(&fakeFiles{}, scorer, &fakeSaver{}, nil, nil, nil, logger.NewNoOpLogger())

	incomplete := completedSession()
	incomplete.IsCompleted = false
	require.NoError(t, trigger.Fire(context.Background(), incomplete, nil))

	noFile := completedSession()
	noFile.Attachment = nil
	require.NoError(t, trigger.Fire(context.Background(), noFile, nil))

	assert.Zero(t, scorer.calls)
}

func TestTrigger_GenericSetScoresWithPlaceholderJob(t *testing.T) {
	files := &fakeFiles{content: map[string][]byte{"uploads/r.docx": resumeDOCX(t)}}
	scorer := &fakeScorer{}
	announcer := &fakeAnnouncer{}
	trigger := NewTrigger(files, scorer, &fakeSaver{}, announcer, nil, nil, logger.NewNoOpLogger())

	qs := &models.QuestionSet{ID: "qs-1", Title: "General Job Application"}
	require.NoError(t, trigger.Fire(context.Background(), completedSession(), qs))

	assert.Equal(t, []string{"General Job Application"}, scorer.seen)
	// Notifier still runs but with no job there is no recipient.
	require.Len(t, announcer.jobs, 1)
	assert.Nil(t, announcer.jobs[0])
}

func TestTrigger_ScoringFailureSurfaces(t *testing.T) {
	files := &fakeFiles{content: map[string][]byte{"uploads/r.docx": resumeDOCX(t)}}
	scorer := &fakeScorer{err: errors.NewScoringFailedError(assert.AnError)}
	saver := &fakeSaver{}
	trigger := NewTrigger(files, scorer, saver, nil, nil, nil, logger.NewNoOpLogger())

	err := trigger.Fire(context.Background(), completedSession(), nil)
	assert.Equal(t, errors.ErrCodeScoringFailed, errors.CodeOf(err))
	assert.True(t, IsDegraded(err))
	assert.Empty(t, saver.saved)
}

func TestTrigger_MissingFileSurfaces(t *testing.T) {
	trigger := NewTrigger(&fakeFiles{}, &fakeScorer{}, &fakeSaver{}, nil, nil, nil, logger.NewNoOpLogger())

	err := trigger.Fire(context.Background(), completedSession(), nil)
	assert.Equal(t, errors.ErrCodeFileStorageFailed, errors.CodeOf(err))
}

func TestTrigger_IndexFailureIsNonFatal(t *testing.T) {
	files := &fakeFiles{content: map[string][]byte{"uploads/r.docx": resumeDOCX(t)}}
	indexer := &fakeIndexer{err: assert.AnError}
	trigger := NewTrigger(files, &fakeScorer{}, &fakeSaver{}, nil, indexer, nil, logger.NewNoOpLogger())

	require.NoError(t, trigger.Fire(context.Background(), completedSession(), nil))
	assert.Equal(t, 1, indexer.calls)
}

func TestIsDegraded(t *testing.T) {
	assert.True(t, IsDegraded(errors.NewScoringTimeoutError()))
	assert.True(t, IsDegraded(errors.NewNotificationSendFailedError("email", assert.AnError)))
	assert.False(t, IsDegraded(errors.NewValidationFailedError("bad email")))
	assert.False(t, IsDegraded(nil))
}
