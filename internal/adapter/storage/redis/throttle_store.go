package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ThrottleStore backs the sliding-window request counters and the global IP
// ban list. Keys live in shared storage so concurrent server processes see
// one counter sequence.
type ThrottleStore struct {
	client *goredis.Client
	prefix string
}

// NewThrottleStore creates a Redis-backed throttle store.
func NewThrottleStore(client *goredis.Client, prefix string) *ThrottleStore {
	return &ThrottleStore{client: client, prefix: prefix}
}

// IncrWindow increments the window counter and refreshes its expiry,
// returning the new count.
func (s *ThrottleStore) IncrWindow(ctx context.Context, key string, ttlSeconds int64) (int64, error) {
	fullKey := fmt.Sprintf("%s:throttle:%s", s.prefix, key)
	count, err := s.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, fmt.Errorf("throttle incr: %w", err)
	}
	if err := s.client.Expire(ctx, fullKey, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return 0, fmt.Errorf("throttle expire: %w", err)
	}
	return count, nil
}

func (s *ThrottleStore) banKey(ip string) string {
	return fmt.Sprintf("%s:banned_ip:%s", s.prefix, ip)
}

// Ban records the ban timestamp for the IP. Bans are IP-global: the key is
// not gateway-scoped.
func (s *ThrottleStore) Ban(ctx context.Context, ip string, bannedAt int64, ttlSeconds int64) error {
	err := s.client.Set(ctx, s.banKey(ip), strconv.FormatInt(bannedAt, 10), time.Duration(ttlSeconds)*time.Second).Err()
	if err != nil {
		return fmt.Errorf("ban ip: %w", err)
	}
	return nil
}

// BannedAt returns the recorded ban timestamp for the IP, or 0 when the IP
// is not banned (or the ban has expired).
func (s *ThrottleStore) BannedAt(ctx context.Context, ip string) (int64, error) {
	v, err := s.client.Get(ctx, s.banKey(ip)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read ip ban: %w", err)
	}
	return v, nil
}
