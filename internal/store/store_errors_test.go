package store

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestGetPropagatesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewSessionStore(client)

	mock.ExpectGet(sessionKey("100", "qs-1")).SetErr(errors.New("connection refused"))

	_, err := s.Get(context.Background(), "100", "qs-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllPropagatesIndexErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewQuestionSetStore(client)

	mock.ExpectSMembers(questionSetIndexKey()).SetErr(errors.New("READONLY replica"))

	_, err := s.All(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
