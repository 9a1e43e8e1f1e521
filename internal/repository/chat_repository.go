package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tourflow/tourflow/internal/model"
)

// ChatRepo keeps each user's assistant transcript in a capped Redis list
// that expires after ttl of inactivity.
type ChatRepo struct {
	rdb   *redis.Client
	ttl   time.Duration
	limit int64
}

func NewChatRepo(rdb *redis.Client, ttl time.Duration, limit int) *ChatRepo {
	if limit <= 0 {
		limit = 200
	}
	return &ChatRepo{rdb: rdb, ttl: ttl, limit: int64(limit)}
}

func chatKey(userID uint64) string { return fmt.Sprintf("chat:%d", userID) }

func (r *ChatRepo) Append(ctx context.Context, userID uint64, msgs ...model.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]any, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		vals = append(vals, b)
	}
	key := chatKey(userID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, vals...)
	pipe.LTrim(ctx, key, -r.limit, -1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns the last n messages oldest first; n <= 0 returns all.
func (r *ChatRepo) Recent(ctx context.Context, userID uint64, n int) ([]model.ChatMessage, error) {
	start := int64(0)
	if n > 0 {
		start = -int64(n)
	}
	raw, err := r.rdb.LRange(ctx, chatKey(userID), start, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.ChatMessage, 0, len(raw))
	for _, s := range raw {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *ChatRepo) Clear(ctx context.Context, userID uint64) error {
	return r.rdb.Del(ctx, chatKey(userID)).Err()
}
