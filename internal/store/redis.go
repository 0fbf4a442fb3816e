package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Amaan007S/piq-sync/internal/models"
)

const mergeRetries = 5

// RedisStore keeps each user record as a JSON document under a single key and
// publishes the full document on a per-user channel after every write.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(username string) string {
	return "piq:users:" + username
}

func changeChannel(username string) string {
	return recordKey(username) + ":changes"
}

func (s *RedisStore) Get(ctx context.Context, username string) (*models.UserRecord, error) {
	raw, err := s.client.Get(ctx, recordKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read user record: %w", err)
	}

	var rec models.UserRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Create(ctx context.Context, username string, rec *models.UserRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}

	set, err := s.client.SetNX(ctx, recordKey(username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create user record: %w", err)
	}
	if !set {
		return ErrAlreadyExists
	}

	s.publish(ctx, username, data)
	return nil
}

func (s *RedisStore) Merge(ctx context.Context, username string, patch map[string]any) error {
	key := recordKey(username)

	var merged []byte
	apply := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}

		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return fmt.Errorf("failed to decode stored record: %w", err)
		}

		merged, err = json.Marshal(DeepMerge(doc, patch))
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, merged, 0)
			return nil
		})
		return err
	}

	// Read-merge-write under WATCH; retried when another writer races us.
	for i := 0; i < mergeRetries; i++ {
		err := s.client.Watch(ctx, apply, key)
		if err == nil {
			s.publish(ctx, username, merged)
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to merge user record after %d attempts", mergeRetries)
}

func (s *RedisStore) Subscribe(ctx context.Context, username string, onChange func(*models.UserRecord), onError func(error)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, changeChannel(username))

	// Force the subscription to be established before returning, so no
	// write issued after Subscribe can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to record changes: %w", err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var rec models.UserRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				onError(fmt.Errorf("failed to decode pushed record: %w", err))
				continue
			}
			onChange(&rec)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			zap.L().Warn("failed to close record subscription", zap.Error(err))
		}
	}, nil
}

func (s *RedisStore) publish(ctx context.Context, username string, doc []byte) {
	if err := s.client.Publish(ctx, changeChannel(username), doc).Err(); err != nil {
		zap.L().Warn("failed to publish record change",
			zap.String("username", username), zap.Error(err))
	}
}
