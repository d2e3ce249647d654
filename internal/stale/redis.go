package stale

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"quoteaggregator/internal/quote"
)

// RedisSlot shares the snapshot between server instances through one Redis key.
// Redis failures are logged and read as an empty snapshot; saves are best effort.
type RedisSlot struct {
	rdb    redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

var _ Store = (*RedisSlot)(nil)

// NewRedisSlot stores the snapshot under key. A ttl of 0 keeps it forever,
// matching the in-process slot. If key is empty it uses "quotes:last".
func NewRedisSlot(rdb redis.UniversalClient, key string, ttl time.Duration, logger *slog.Logger) *RedisSlot {
	if key == "" {
		key = "quotes:last"
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisSlot{rdb: rdb, key: key, ttl: ttl, logger: logger}
}

func (s *RedisSlot) Load(ctx context.Context) []quote.MarketQuote {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("stale snapshot read failed", "key", s.key, "error", err)
		}
		return nil
	}
	var out []quote.MarketQuote
	if err := json.Unmarshal(b, &out); err != nil {
		s.logger.Warn("stale snapshot corrupted, dropping", "key", s.key, "error", err)
		_ = s.rdb.Del(ctx, s.key).Err()
		return nil
	}
	return out
}

func (s *RedisSlot) Save(ctx context.Context, quotes []quote.MarketQuote) {
	if len(quotes) == 0 {
		return
	}
	b, err := json.Marshal(quotes)
	if err != nil {
		s.logger.Warn("stale snapshot encode failed", "error", err)
		return
	}
	if err := s.rdb.Set(ctx, s.key, b, s.ttl).Err(); err != nil {
		s.logger.Warn("stale snapshot write failed", "key", s.key, "error", err)
	}
}
