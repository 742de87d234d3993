// Package unread_cache keeps best-effort unread counters in Redis. The
// counters are never authoritative: the message read-by sets can always
// recompute the true count, so every cache error here is swallowed and the
// send path never fails because of it.
package unread_cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	app_error "github.com/DarcRosya/Uchat-sub001/internal/errors"
	chat_repo "github.com/DarcRosya/Uchat-sub001/internal/repo/chat"
)

type UnreadCacheContract interface {
	Increment(ctx context.Context, chatID int64, participantIDs []int64, excludeUserID int64)
	GetCount(ctx context.Context, chatID, userID int64) (int64, *app_error.AppError)
	Reset(ctx context.Context, chatID, userID int64)
}

type UnreadCache struct {
	Redis    *redis.Client
	Messages chat_repo.MessageRepoContract
	TTL      time.Duration
}

func NewUnreadCache(rdb *redis.Client, messages chat_repo.MessageRepoContract, ttl time.Duration) UnreadCacheContract {
	return &UnreadCache{
		Redis:    rdb,
		Messages: messages,
		TTL:      ttl,
	}
}

func counterKey(chatID, userID int64) string {
	return fmt.Sprintf("unread:%d:%d", chatID, userID)
}

// Increment bumps the counter for every participant except the sender,
// refreshing the TTL on each touched key. Fire-and-forget.
func (c *UnreadCache) Increment(ctx context.Context, chatID int64, participantIDs []int64, excludeUserID int64) {
	pipe := c.Redis.Pipeline()
	touched := 0
	for _, userID := range participantIDs {
		if userID == excludeUserID {
			continue
		}
		key := counterKey(chatID, userID)
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, c.TTL)
		touched++
	}
	if touched == 0 {
		return
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("unread counter increment failed, counts will be recomputed on read")
	}
}

// GetCount reads the cached counter; a miss or an unavailable cache falls
// back to the authoritative document scan. The fallback result is not
// written back: the next send repopulates the key naturally.
func (c *UnreadCache) GetCount(ctx context.Context, chatID, userID int64) (int64, *app_error.AppError) {
	val, err := c.Redis.Get(ctx, counterKey(chatID, userID)).Int64()
	if err == nil {
		return val, nil
	}
	if err != redis.Nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("unread cache unavailable, falling back to document scan")
	}
	return c.Messages.CountUnread(ctx, chatID, userID)
}

// Reset writes an explicit zero rather than deleting the key, so a read
// right after the user opens the chat stays a cache hit.
func (c *UnreadCache) Reset(ctx context.Context, chatID, userID int64) {
	if err := c.Redis.Set(ctx, counterKey(chatID, userID), 0, c.TTL).Err(); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("unread counter reset failed")
	}
}
