package store

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"

	"hirebot/internal/models"
)

const questionSetCollection = "questionsets"

// QuestionSetStore persists question set definitions.
type QuestionSetStore struct {
	*Store
}

func NewQuestionSetStore(client *redis.Client) *QuestionSetStore {
	return &QuestionSetStore{Store: New(client)}
}

func questionSetKey(id string) string {
	return key(questionSetCollection, id)
}

func questionSetIndexKey() string {
	return key(questionSetCollection, "all")
}

func (s *QuestionSetStore) Insert(ctx context.Context, qs *models.QuestionSet) error {
	if err := insertDoc(ctx, s.client, questionSetKey(qs.ID), qs); err != nil {
		return err
	}
	return s.client.SAdd(ctx, questionSetIndexKey(), qs.ID).Err()
}

func (s *QuestionSetStore) Get(ctx context.Context, id string) (*models.QuestionSet, error) {
	var qs models.QuestionSet
	if err := getDoc(ctx, s.client, questionSetKey(id), &qs); err != nil {
		return nil, err
	}
	return &qs, nil
}

// Update applies mutate to the stored document atomically.
func (s *QuestionSetStore) Update(ctx context.Context, id string, mutate func(*models.QuestionSet) error) (*models.QuestionSet, error) {
	return updateDoc(ctx, s.client, questionSetKey(id), mutate)
}

func (s *QuestionSetStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, questionSetKey(id)).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, questionSetIndexKey(), id).Err()
}

// All returns every stored question set, ordered default-first then by
// title.
func (s *QuestionSetStore) All(ctx context.Context) ([]*models.QuestionSet, error) {
	ids, err := s.client.SMembers(ctx, questionSetIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	sets := make([]*models.QuestionSet, 0, len(ids))
	for _, id := range ids {
		qs, err := s.Get(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		sets = append(sets, qs)
	}

	sort.Slice(sets, func(i, j int) bool {
		if sets[i].IsDefault != sets[j].IsDefault {
			return sets[i].IsDefault
		}
		return sets[i].Title < sets[j].Title
	})
	return sets, nil
}

// Active returns question sets currently open for candidates.
func (s *QuestionSetStore) Active(ctx context.Context) ([]*models.QuestionSet, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, qs := range all {
		if qs.IsActive {
			active = append(active, qs)
		}
	}
	return active, nil
}

// Default returns the question set flagged as default, or ErrNotFound.
func (s *QuestionSetStore) Default(ctx context.Context) (*models.QuestionSet, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, qs := range all {
		if qs.IsDefault {
			return qs, nil
		}
	}
	return nil, ErrNotFound
}

// FindByJobID returns the sets attached to a job posting.
func (s *QuestionSetStore) FindByJobID(ctx context.Context, jobID string) ([]*models.QuestionSet, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	matched := all[:0]
	for _, qs := range all {
		if qs.JobID == jobID {
			matched = append(matched, qs)
		}
	}
	return matched, nil
}

// SetDefault flags one set as the default and clears the flag on every
// other set in a single transaction, so there is never more than one
// default visible.
func (s *QuestionSetStore) SetDefault(ctx context.Context, id string) error {
	ids, err := s.client.SMembers(ctx, questionSetIndexKey()).Result()
	if err != nil {
		return err
	}

	found := false
	for _, existing := range ids {
		if existing == id {
			found = true
			break
		}
	}
	if !found {
		return ErrNotFound
	}

	keys := make([]string, 0, len(ids))
	for _, existing := range ids {
		keys = append(keys, questionSetKey(existing))
	}

	txn := func(tx *redis.Tx) error {
		docs := make(map[string]*models.QuestionSet, len(ids))
		for _, existing := range ids {
			var qs models.QuestionSet
			raw, err := tx.Get(ctx, questionSetKey(existing)).Bytes()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return err
			}
			if err := unmarshalInto(raw, &qs); err != nil {
				return err
			}
			docs[existing] = &qs
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for existing, qs := range docs {
				want := existing == id
				if qs.IsDefault == want {
					continue
				}
				qs.IsDefault = want
				raw, err := marshalDoc(qs)
				if err != nil {
					return err
				}
				pipe.Set(ctx, questionSetKey(existing), raw, 0)
			}
			return nil
		})
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := s.client.Watch(ctx, txn, keys...)
		if err == nil {
			return nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}
