package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"careline/internal/models"
)

// RedisStore keeps credentials in Redis. Sessions outlive restarts as long
// as Redis persistence is configured; TTL zero means no expiry (the token's
// own exp claim bounds the session).
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func tokenKey(userID int64) string { return fmt.Sprintf("session:token:%d", userID) }
func userKey(userID int64) string  { return fmt.Sprintf("session:user:%d", userID) }

func (s *RedisStore) SaveToken(ctx context.Context, userID int64, token string) error {
	if err := s.client.Set(ctx, tokenKey(userID), token, 0).Err(); err != nil {
		return fmt.Errorf("redis save token: %w", err)
	}
	return nil
}

func (s *RedisStore) Token(ctx context.Context, userID int64) (string, error) {
	val, err := s.client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return val, nil
}

func (s *RedisStore) SaveUser(ctx context.Context, userID int64, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.client.Set(ctx, userKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save user: %w", err)
	}
	return nil
}

func (s *RedisStore) User(ctx context.Context, userID int64) (*models.User, error) {
	val, err := s.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get user: %w", err)
	}
	var user models.User
	if err := json.Unmarshal([]byte(val), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *RedisStore) Remove(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, tokenKey(userID), userKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis remove session: %w", err)
	}
	return nil
}
