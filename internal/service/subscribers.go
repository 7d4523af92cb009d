package service

import (
	"sync"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/pkg/apperror"
)

// SubscriberRegistry tracks the live push subscriber of each order. At most
// one subscriber per order; delivery is single-shot, the channel closes after
// the first status change is pushed.
type SubscriberRegistry struct {
	mu   sync.Mutex
	subs map[int64]chan domain.Snapshot
}

// NewSubscriberRegistry creates an empty registry.
func NewSubscriberRegistry() *SubscriberRegistry {
	return &SubscriberRegistry{subs: make(map[int64]chan domain.Snapshot)}
}

// Add registers a subscriber for the order and returns its channel. Orders
// already settled beyond unconfirmed cannot be subscribed to.
func (r *SubscriberRegistry) Add(order *domain.Order) (<-chan domain.Snapshot, error) {
	if order.Status >= domain.StatusPaid {
		return nil, apperror.ErrWebsocketForCompletedOrder()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[order.ID]; ok {
		return nil, apperror.ErrWebsocketExists()
	}
	ch := make(chan domain.Snapshot, 1)
	r.subs[order.ID] = ch
	return ch, nil
}

// Remove drops the order's subscriber without delivering, e.g. when the
// client disconnects first.
func (r *SubscriberRegistry) Remove(orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.subs[orderID]; ok {
		delete(r.subs, orderID)
		close(ch)
	}
}

// Notify pushes one snapshot to the order's subscriber, if any, and closes
// the channel.
func (r *SubscriberRegistry) Notify(orderID int64, snap domain.Snapshot) {
	r.mu.Lock()
	ch, ok := r.subs[orderID]
	if ok {
		delete(r.subs, orderID)
	}
	r.mu.Unlock()

	if ok {
		ch <- snap
		close(ch)
	}
}
