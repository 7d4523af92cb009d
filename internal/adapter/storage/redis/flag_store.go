package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FlagStore holds out-of-band interruption flags for background tasks.
// A task is addressed by a stable label (the order's payment_id); it checks
// and clears its flag at every scheduling boundary.
type FlagStore struct {
	client *goredis.Client
	prefix string
}

// NewFlagStore creates a Redis-backed flag store.
func NewFlagStore(client *goredis.Client, prefix string) *FlagStore {
	return &FlagStore{client: client, prefix: prefix}
}

func (s *FlagStore) key(label string) string {
	return fmt.Sprintf("%s:interrupt_task:%s", s.prefix, label)
}

// SetInterrupt signals the task with the given label to stop.
func (s *FlagStore) SetInterrupt(ctx context.Context, label string) error {
	err := s.client.Set(ctx, s.key(label), time.Now().Unix(), 0).Err()
	if err != nil {
		return fmt.Errorf("set interrupt flag: %w", err)
	}
	return nil
}

// ConsumeInterrupt reports whether the flag was set, clearing it so a later
// task under the same label starts clean.
func (s *FlagStore) ConsumeInterrupt(ctx context.Context, label string) (bool, error) {
	err := s.client.GetDel(ctx, s.key(label)).Err()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("consume interrupt flag: %w", err)
	}
	return true, nil
}
