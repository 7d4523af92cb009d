package redis

import (
	"context"
	"fmt"
	"strconv"

	"btc-payment-gateway/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// CounterStore keeps per-gateway order-status tallies in Redis so that
// several gateway processes agree on a single set of counters.
type CounterStore struct {
	client *goredis.Client
	prefix string
}

// NewCounterStore creates a Redis-backed counter store.
func NewCounterStore(client *goredis.Client, prefix string) *CounterStore {
	return &CounterStore{client: client, prefix: prefix}
}

func (s *CounterStore) key(gatewayID int64, status domain.OrderStatus) string {
	return fmt.Sprintf("%s:gateway_%d:%s_orders_counter", s.prefix, gatewayID, status)
}

// IncrementOrderCounter adjusts one status tally by the given delta.
func (s *CounterStore) IncrementOrderCounter(ctx context.Context, gatewayID int64, status domain.OrderStatus, by int64) error {
	if err := s.client.IncrBy(ctx, s.key(gatewayID, status), by).Err(); err != nil {
		return fmt.Errorf("increment order counter: %w", err)
	}
	return nil
}

// OrderCounters reads the tallies for every status. Missing keys read as 0.
func (s *CounterStore) OrderCounters(ctx context.Context, gatewayID int64) (map[domain.OrderStatus]int64, error) {
	keys := make([]string, 0, len(domain.OrderStatuses))
	for _, status := range domain.OrderStatuses {
		keys = append(keys, s.key(gatewayID, status))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read order counters: %w", err)
	}

	counters := make(map[domain.OrderStatus]int64, len(domain.OrderStatuses))
	for i, status := range domain.OrderStatuses {
		var n int64
		if raw, ok := values[i].(string); ok {
			n, _ = strconv.ParseInt(raw, 10, 64)
		}
		counters[status] = n
	}
	return counters, nil
}
