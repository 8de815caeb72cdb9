package redis

// Package redis provides a Redis-backed Storage so a session snapshot can be shared by several clients.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
)

// DefaultPrefix namespaces every key written by Storage.
const DefaultPrefix = "cotf:"

// Storage persists values under a key prefix. A zero TTL keeps values until they are deleted.
type Storage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// StorageOptions configures a Storage.
type StorageOptions struct {
	Prefix string
	TTL    time.Duration
}

// NewStorage creates a Redis storage using DefaultPrefix and no expiry.
func NewStorage(client redis.UniversalClient) *Storage {
	return NewStorageWithOptions(client, StorageOptions{})
}

// NewStorageWithOptions creates a Redis storage with a custom prefix and TTL.
func NewStorageWithOptions(client redis.UniversalClient, opts StorageOptions) *Storage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Storage{client: client, prefix: prefix, ttl: ttl}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperrors.NotFound("storage key is empty")
	}

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFoundf("storage key %q not found", key)
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return apperrors.ValidationField("key", "storage key cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
