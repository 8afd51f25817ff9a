package publish

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/openlah/leaderboard/internal/leaderboard"
	"github.com/redis/go-redis/v9"
)

type redisCommander interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
}

// RedisConfig configures the Redis board mirror.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
	TTL       time.Duration
}

// RedisPublisher mirrors rendered boards into Redis hashes.
type RedisPublisher struct {
	client    redisCommander
	closeFn   func() error
	namespace string
	ttl       time.Duration
}

// DialRedis connects to Redis and pings it before returning a publisher.
func DialRedis(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisPublisher(client, cfg), nil
}

// NewRedisPublisher creates a publisher over an existing client.
func NewRedisPublisher(client redis.UniversalClient, cfg RedisConfig) *RedisPublisher {
	closeFn := func() error { return nil }
	if client != nil {
		closeFn = client.Close
	}
	return newRedisPublisherFromCommander(client, closeFn, cfg)
}

func newRedisPublisherFromCommander(client redisCommander, closeFn func() error, cfg RedisConfig) *RedisPublisher {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "leaderboard"
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return &RedisPublisher{
		client:    client,
		closeFn:   closeFn,
		namespace: namespace,
		ttl:       cfg.TTL,
	}
}

// Close closes the underlying Redis client.
func (p *RedisPublisher) Close() error {
	if p == nil || p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}

// Write replaces the board hash and rank list of doc. It returns the hash key.
func (p *RedisPublisher) Write(ctx context.Context, doc leaderboard.Rendered) (string, error) {
	if p == nil || p.client == nil {
		return "", fmt.Errorf("redis publisher is not initialized")
	}
	if doc.Board.Name == "" {
		return "", fmt.Errorf("board name is required")
	}

	boardKey := p.boardKey(doc.Board.Name)
	rankKey := p.rankKey(doc.Board.Name)

	if err := p.client.Del(ctx, boardKey, rankKey).Err(); err != nil {
		return "", fmt.Errorf("clear board %s: %w", doc.Board.Name, err)
	}

	fields := map[string]any{
		"content":      string(doc.Content),
		"entries":      strconv.Itoa(len(doc.Ranked)),
		"generated_at": doc.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if err := p.client.HSet(ctx, boardKey, fields).Err(); err != nil {
		return "", fmt.Errorf("write board hash %s: %w", boardKey, err)
	}

	if len(doc.Ranked) > 0 {
		numbers := make([]any, 0, len(doc.Ranked))
		for _, entry := range doc.Ranked {
			numbers = append(numbers, strconv.Itoa(entry.Number))
		}
		if err := p.client.RPush(ctx, rankKey, numbers...).Err(); err != nil {
			return "", fmt.Errorf("write rank list %s: %w", rankKey, err)
		}
	}

	if p.ttl > 0 {
		expiresAt := doc.GeneratedAt.Add(p.ttl)
		for _, key := range []string{boardKey, rankKey} {
			if err := p.client.ExpireAt(ctx, key, expiresAt).Err(); err != nil {
				return "", fmt.Errorf("set ttl on %s: %w", key, err)
			}
		}
	}

	return boardKey, nil
}

func (p *RedisPublisher) boardKey(name string) string {
	return p.namespace + ":board:" + name
}

func (p *RedisPublisher) rankKey(name string) string {
	return p.namespace + ":rank:" + name
}
