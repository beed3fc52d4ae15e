package store

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"

	"hirebot/internal/models"
)

const jobCollection = "jobs"

// JobStore persists job postings.
type JobStore struct {
	*Store
}

func NewJobStore(client *redis.Client) *JobStore {
	return &JobStore{Store: New(client)}
}

func jobKey(id string) string {
	return key(jobCollection, id)
}

func jobIndexKey() string {
	return key(jobCollection, "all")
}

func (s *JobStore) Insert(ctx context.Context, job *models.Job) error {
	if err := insertDoc(ctx, s.client, jobKey(job.ID), job); err != nil {
		return err
	}
	return s.client.SAdd(ctx, jobIndexKey(), job.ID).Err()
}

func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	var job models.Job
	if err := getDoc(ctx, s.client, jobKey(id), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobStore) All(ctx context.Context) ([]*models.Job, error) {
	ids, err := s.client.SMembers(ctx, jobIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]*models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Title < jobs[j].Title })
	return jobs, nil
}

func (s *JobStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, jobKey(id)).Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, jobIndexKey(), id).Err()
}
