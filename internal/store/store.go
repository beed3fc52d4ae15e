// Package store implements the document store over Redis. Every
// document is one JSON value under one key, so single-document updates
// are atomic via WATCH/MULTI.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

// ErrDuplicate is returned when an insert would violate a uniqueness
// constraint.
var ErrDuplicate = errors.New("document already exists")

const keyPrefix = "hirebot"

// txRetries bounds optimistic-lock retries on contended updates.
const txRetries = 5

// Store provides the shared Redis plumbing for typed collections.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(parts ...string) string {
	k := keyPrefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func unmarshalInto(raw []byte, out interface{}) error {
	return json.Unmarshal(raw, out)
}

func marshalDoc(doc interface{}) ([]byte, error) {
	return json.Marshal(doc)
}

// getDoc fetches and unmarshals one document.
func getDoc(ctx context.Context, c *redis.Client, docKey string, out interface{}) error {
	raw, err := c.Get(ctx, docKey).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// setDoc marshals and writes one document.
func setDoc(ctx context.Context, c *redis.Client, docKey string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.Set(ctx, docKey, raw, 0).Err()
}

// insertDoc writes a document only if the key is free.
func insertDoc(ctx context.Context, c *redis.Client, docKey string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	created, err := c.SetNX(ctx, docKey, raw, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return ErrDuplicate
	}
	return nil
}

// updateDoc applies mutate to the document under docKey inside a WATCH
// transaction, retrying on contention. mutate sees the decoded current
// value and edits it in place.
func updateDoc[T any](ctx context.Context, c *redis.Client, docKey string, mutate func(*T) error) (*T, error) {
	var updated *T

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, docKey).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		doc := new(T)
		if err := json.Unmarshal(raw, doc); err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}

		out, err := json.Marshal(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, docKey, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = doc
		return nil
	}

	for i := 0; i < txRetries; i++ {
		err := c.Watch(ctx, txn, docKey)
		if err == nil {
			return updated, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update of %s failed after %d retries", docKey, txRetries)
}
