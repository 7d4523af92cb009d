package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
)

// NonceStore implements ports.NonceStore: a per-gateway strictly increasing
// counter with optimistic check-and-set semantics, shared by every process
// handling requests for the gateway.
type NonceStore struct {
	client *goredis.Client
	prefix string
}

// NewNonceStore creates a Redis-backed nonce store.
func NewNonceStore(client *goredis.Client, prefix string) *NonceStore {
	return &NonceStore{client: client, prefix: prefix}
}

func (s *NonceStore) key(gatewayID int64) string {
	return fmt.Sprintf("%s:last_nonce:gateway_%d", s.prefix, gatewayID)
}

// CheckAndSet accepts nonce iff it is strictly greater than the last
// accepted value for the gateway, recording it atomically. The read-check-
// write cycle runs under WATCH; a concurrent writer invalidates the
// transaction and the whole cycle retries until it either commits or the
// nonce is found stale.
func (s *NonceStore) CheckAndSet(ctx context.Context, gatewayID int64, nonce int64) (bool, error) {
	key := s.key(gatewayID)

	for {
		accepted := false
		err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
			last, err := tx.Get(ctx, key).Int64()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return err
			}
			if nonce <= last {
				return nil // stale, reject without writing
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, strconv.FormatInt(nonce, 10), 0)
				return nil
			})
			if err == nil {
				accepted = true
			}
			return err
		}, key)

		if errors.Is(err, goredis.TxFailedErr) {
			continue // lost the race, retry the whole cycle
		}
		if err != nil {
			return false, fmt.Errorf("nonce check-and-set: %w", err)
		}
		return accepted, nil
	}
}
