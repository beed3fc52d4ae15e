package store

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"hirebot/internal/models"
)

const sessionCollection = "sessions"

// SessionStore persists interview sessions. A subject holds at most one
// session per question set, enforced by the document key.
type SessionStore struct {
	*Store
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{Store: New(client)}
}

func sessionKey(subjectID, questionSetID string) string {
	return key(sessionCollection, subjectID, questionSetID)
}

func sessionIndexKey(subjectID string) string {
	return key(sessionCollection, "subject", subjectID)
}

func (s *SessionStore) Insert(ctx context.Context, sess *models.Session) error {
	if err := insertDoc(ctx, s.client, sessionKey(sess.SubjectID, sess.QuestionSetID), sess); err != nil {
		return err
	}
	return s.client.SAdd(ctx, sessionIndexKey(sess.SubjectID), sess.QuestionSetID).Err()
}

func (s *SessionStore) Get(ctx context.Context, subjectID, questionSetID string) (*models.Session, error) {
	var sess models.Session
	if err := getDoc(ctx, s.client, sessionKey(subjectID, questionSetID), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Update applies mutate to the session atomically. Concurrent writers
// for the same subject and set serialize through the WATCH.
func (s *SessionStore) Update(ctx context.Context, subjectID, questionSetID string, mutate func(*models.Session) error) (*models.Session, error) {
	return updateDoc(ctx, s.client, sessionKey(subjectID, questionSetID), mutate)
}

// All returns every session of the subject, incomplete first and most
// recently updated first within each group.
func (s *SessionStore) All(ctx context.Context, subjectID string) ([]*models.Session, error) {
	setIDs, err := s.client.SMembers(ctx, sessionIndexKey(subjectID)).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(setIDs))
	for _, qsID := range setIDs {
		sess, err := s.Get(ctx, subjectID, qsID)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].IsCompleted != sessions[j].IsCompleted {
			return !sessions[i].IsCompleted
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// MostRelevant picks the session an unaddressed event should land on:
// the most recently updated incomplete session, or failing that the
// most recently updated one overall.
func (s *SessionStore) MostRelevant(ctx context.Context, subjectID string) (*models.Session, error) {
	sessions, err := s.All(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrNotFound
	}
	return sessions[0], nil
}

// ActiveAnswering returns the incomplete session text answers should
// route to, or ErrNotFound when every session is completed.
func (s *SessionStore) ActiveAnswering(ctx context.Context, subjectID string) (*models.Session, error) {
	sessions, err := s.All(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 || sessions[0].IsCompleted {
		return nil, ErrNotFound
	}
	return sessions[0], nil
}

func (s *SessionStore) Delete(ctx context.Context, subjectID, questionSetID string) error {
	if err := s.client.Del(ctx, sessionKey(subjectID, questionSetID)).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, sessionIndexKey(subjectID), questionSetID).Err()
}

// DeleteAll removes every session of the subject and returns the
// removed documents so the caller can release stored files.
func (s *SessionStore) DeleteAll(ctx context.Context, subjectID string) ([]*models.Session, error) {
	sessions, err := s.All(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	for _, sess := range sessions {
		if err := s.client.Del(ctx, sessionKey(subjectID, sess.QuestionSetID)).Err(); err != nil {
			return nil, err
		}
	}
	if err := s.client.Del(ctx, sessionIndexKey(subjectID)).Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionStore) Count(ctx context.Context, subjectID string) (int, error) {
	n, err := s.client.SCard(ctx, sessionIndexKey(subjectID)).Result()
	return int(n), err
}

// OpenForQuestionSet counts incomplete sessions referencing the set,
// across all subjects. Used to block deleting a set that is still
// being answered.
func (s *SessionStore) OpenForQuestionSet(ctx context.Context, questionSetID string) (int, error) {
	indexPrefix := key(sessionCollection, "subject") + ":"

	open := 0
	iter := s.client.Scan(ctx, 0, key(sessionCollection)+":*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if strings.HasPrefix(k, indexPrefix) {
			continue
		}
		raw, err := s.client.Get(ctx, k).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return 0, err
		}
		var sess models.Session
		if err := unmarshalInto(raw, &sess); err != nil {
			return 0, err
		}
		if sess.QuestionSetID == questionSetID && !sess.IsCompleted {
			open++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return open, nil
}
