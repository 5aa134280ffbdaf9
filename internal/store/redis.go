package store

import (
	"context"
	"encoding/json"
	"fmt"

	"guestbook/internal/model"

	"github.com/redis/go-redis/v9"
)

const redisKey = "guestbook:messages"

// RedisStore keeps all messages in a single hash, field per timestamp.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to addr and checks the connection.
func NewRedisStore(addr string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Append(ctx context.Context, ts string, msg model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, redisKey, ts, data).Err()
}

func (s *RedisStore) List(ctx context.Context) ([]model.Entry, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(fields))
	for ts, val := range fields {
		var msg model.Message
		if err := json.Unmarshal([]byte(val), &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", ts, err)
		}
		entries = append(entries, model.Entry{Timestamp: ts, Message: msg})
	}
	sortEntries(entries)
	return entries, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
