package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hobosky/hobosky-go/internal/model"
)

const redisOpTimeout = 5 * time.Second

// RedisStore keeps the session and endpoint in Redis, for deployments where
// the client runs as a long-lived bot across multiple hosts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) LoadSession() (*model.Session, error) {
	ctx, cancel := opContext()
	defer cancel()

	data, err := s.client.Get(ctx, KeySession).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		log.Warn().Err(err).Msg("discarding corrupt session entry")
		return nil, nil
	}
	return &session, nil
}

func (s *RedisStore) SaveSession(session *model.Session) error {
	ctx, cancel := opContext()
	defer cancel()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, KeySession, data, 0).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearSession() error {
	ctx, cancel := opContext()
	defer cancel()

	if err := s.client.Del(ctx, KeySession).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadService() (string, error) {
	ctx, cancel := opContext()
	defer cancel()

	service, err := s.client.Get(ctx, KeyService).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load service: %w", err)
	}
	return service, nil
}

func (s *RedisStore) SaveService(service string) error {
	ctx, cancel := opContext()
	defer cancel()

	if err := s.client.Set(ctx, KeyService, service, 0).Err(); err != nil {
		return fmt.Errorf("save service: %w", err)
	}
	return nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}
