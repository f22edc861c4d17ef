package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fanclub/pkg/domain"
	"fanclub/services/notification/internal/entity"

	"github.com/redis/go-redis/v9"
)

const (
	inboxSize = 100
	inboxTTL  = 30 * 24 * time.Hour
)

// Inbox stores each user's newest notifications in a sorted set scored by a
// per-user sequence. Everything at or below the read marker is read.
type Inbox interface {
	// Append assigns n its id and returns the unread count after storing it.
	Append(ctx context.Context, n *domain.Notification) (int64, error)
	// List returns up to limit notifications older than before, newest first. before 0 starts at the newest.
	List(ctx context.Context, userID string, before int64, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// MarkRead moves the read marker up to upTo, or to the newest notification when upTo is 0
	// or beyond the newest.
	MarkRead(ctx context.Context, userID string, upTo int64) (int64, error)

	Muted(ctx context.Context, userID, creatorID string) (bool, error)
	SetMuted(ctx context.Context, userID, creatorID string, muted bool) error

	Publish(ctx context.Context, userID string, push entity.Push) error
	Subscribe(ctx context.Context, userID string) *redis.PubSub
}

type redisInbox struct {
	client *redis.Client
}

func NewInbox(client *redis.Client) Inbox {
	return &redisInbox{client: client}
}

func inboxKey(userID string) string   { return "notifications:" + userID }
func seqKey(userID string) string     { return "notifications:" + userID + ":seq" }
func readKey(userID string) string    { return "notifications:" + userID + ":read" }
func channelKey(userID string) string { return "notifications:" + userID + ":updates" }

func muteKey(userID, creatorID string) string {
	return fmt.Sprintf("notification_settings:%s:%s", userID, creatorID)
}

// markRead only ever moves the marker forward and never past the newest
// allocated id. The marker, sequence and inbox share one expiry so the marker
// cannot outlive the sequence it refers to.
var markRead = redis.NewScript(`
local seq = tonumber(redis.call('GET', KEYS[2]) or '0')
if seq == 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
local upto = tonumber(ARGV[1])
if upto <= 0 or upto > seq then
	upto = seq
end
if upto > current then
	current = upto
end
redis.call('SET', KEYS[1], tostring(current), 'EX', ARGV[2])
redis.call('EXPIRE', KEYS[2], ARGV[2])
redis.call('EXPIRE', KEYS[3], ARGV[2])
return current
`)

func (b *redisInbox) Append(ctx context.Context, n *domain.Notification) (int64, error) {
	seq, err := b.client.Incr(ctx, seqKey(n.UserID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate notification id: %w", err)
	}
	if seq == 1 {
		// a fresh sequence starts below any marker left from an expired one
		if err := b.client.Del(ctx, readKey(n.UserID)).Err(); err != nil {
			return 0, fmt.Errorf("failed to reset read marker: %w", err)
		}
	}
	n.ID = strconv.FormatInt(seq, 10)
	n.Read = false

	data, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := inboxKey(n.UserID)
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(seq), Member: data})
		pipe.ZRemRangeByRank(ctx, key, 0, -(inboxSize + 1))
		pipe.Expire(ctx, key, inboxTTL)
		pipe.Expire(ctx, seqKey(n.UserID), inboxTTL)
		pipe.Expire(ctx, readKey(n.UserID), inboxTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store notification: %w", err)
	}
	return b.UnreadCount(ctx, n.UserID)
}

func (b *redisInbox) readMarker(ctx context.Context, userID string) (int64, error) {
	marker, err := b.client.Get(ctx, readKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return marker, err
}

func (b *redisInbox) List(ctx context.Context, userID string, before int64, limit int) ([]domain.Notification, error) {
	upper := "+inf"
	if before > 0 {
		upper = "(" + strconv.FormatInt(before, 10)
	}
	entries, err := b.client.ZRevRangeByScoreWithScores(ctx, inboxKey(userID), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   upper,
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	marker, err := b.readMarker(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read marker: %w", err)
	}

	out := make([]domain.Notification, 0, len(entries))
	for _, e := range entries {
		member, ok := e.Member.(string)
		if !ok {
			continue
		}
		var n domain.Notification
		if err := json.Unmarshal([]byte(member), &n); err != nil {
			continue
		}
		n.Read = int64(e.Score) <= marker
		out = append(out, n)
	}
	return out, nil
}

func (b *redisInbox) UnreadCount(ctx context.Context, userID string) (int64, error) {
	marker, err := b.readMarker(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read marker: %w", err)
	}
	count, err := b.client.ZCount(ctx, inboxKey(userID), "("+strconv.FormatInt(marker, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return count, nil
}

func (b *redisInbox) MarkRead(ctx context.Context, userID string, upTo int64) (int64, error) {
	keys := []string{readKey(userID), seqKey(userID), inboxKey(userID)}
	if err := markRead.Run(ctx, b.client, keys, upTo, int64(inboxTTL/time.Second)).Err(); err != nil {
		return 0, fmt.Errorf("failed to mark read: %w", err)
	}
	return b.UnreadCount(ctx, userID)
}

func (b *redisInbox) Muted(ctx context.Context, userID, creatorID string) (bool, error) {
	n, err := b.client.Exists(ctx, muteKey(userID, creatorID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read notification settings: %w", err)
	}
	return n > 0, nil
}

func (b *redisInbox) SetMuted(ctx context.Context, userID, creatorID string, muted bool) error {
	if !muted {
		return b.client.Del(ctx, muteKey(userID, creatorID)).Err()
	}
	return b.client.Set(ctx, muteKey(userID, creatorID), "muted", 0).Err()
}

func (b *redisInbox) Publish(ctx context.Context, userID string, push entity.Push) error {
	data, err := json.Marshal(push)
	if err != nil {
		return fmt.Errorf("failed to marshal push: %w", err)
	}
	return b.client.Publish(ctx, channelKey(userID), data).Err()
}

func (b *redisInbox) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return b.client.Subscribe(ctx, channelKey(userID))
}
