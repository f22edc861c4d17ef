package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fanclub/pkg/domain"

	"github.com/redis/go-redis/v9"
)

const (
	entitlementTTL = 10 * time.Minute
	versionTTL     = 24 * time.Hour
	viewWindow     = time.Hour
)

// EntitlementCache keeps viewer entitlement snapshots and deduplicates view counts.
// A nil client disables caching: every lookup misses and every view counts.
//
// Each viewer carries a version bumped by Invalidate. A snapshot loaded under
// an older version is never stored.
type EntitlementCache interface {
	Get(ctx context.Context, viewerID string) (*domain.ViewerEntitlement, error)
	// Version returns the viewer's current version. Read it before loading the snapshot passed to Set.
	Version(ctx context.Context, viewerID string) (int64, error)
	// Set stores ent unless the viewer was invalidated since version was read.
	Set(ctx context.Context, ent domain.ViewerEntitlement, version int64) error
	Invalidate(ctx context.Context, viewerID string) error
	// FirstView reports whether viewerKey has not viewed postingID within the window.
	FirstView(ctx context.Context, postingID, viewerKey string) (bool, error)
}

type redisEntitlementCache struct {
	client *redis.Client
}

func NewEntitlementCache(client *redis.Client) EntitlementCache {
	return &redisEntitlementCache{client: client}
}

func entitlementKey(viewerID string) string {
	return "entitlement:" + viewerID
}

func versionKey(viewerID string) string {
	return "entitlement:" + viewerID + ":version"
}

// setIfCurrent writes the snapshot only while the version is unchanged.
var setIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *redisEntitlementCache) Get(ctx context.Context, viewerID string) (*domain.ViewerEntitlement, error) {
	if c.client == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, entitlementKey(viewerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entitlement: %w", err)
	}
	var ent domain.ViewerEntitlement
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, fmt.Errorf("failed to decode entitlement: %w", err)
	}
	return &ent, nil
}

func (c *redisEntitlementCache) Version(ctx context.Context, viewerID string) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	v, err := c.client.Get(ctx, versionKey(viewerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read entitlement version: %w", err)
	}
	return v, nil
}

func (c *redisEntitlementCache) Set(ctx context.Context, ent domain.ViewerEntitlement, version int64) error {
	if c.client == nil || ent.IsAnonymous() {
		return nil
	}
	data, err := json.Marshal(ent)
	if err != nil {
		return fmt.Errorf("failed to encode entitlement: %w", err)
	}
	keys := []string{entitlementKey(ent.ViewerID), versionKey(ent.ViewerID)}
	args := []interface{}{strconv.FormatInt(version, 10), data, entitlementTTL.Milliseconds()}
	return setIfCurrent.Run(ctx, c.client, keys, args...).Err()
}

func (c *redisEntitlementCache) Invalidate(ctx context.Context, viewerID string) error {
	if c.client == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(viewerID))
		pipe.Expire(ctx, versionKey(viewerID), versionTTL)
		pipe.Del(ctx, entitlementKey(viewerID))
		return nil
	})
	return err
}

func (c *redisEntitlementCache) FirstView(ctx context.Context, postingID, viewerKey string) (bool, error) {
	if c.client == nil {
		return true, nil
	}
	return c.client.SetNX(ctx, fmt.Sprintf("posting:view:%s:%s", postingID, viewerKey), 1, viewWindow).Result()
}
