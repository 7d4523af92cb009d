package service

import (
	"testing"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriberRegistry_SingleSubscriberPerOrder(t *testing.T) {
	r := NewSubscriberRegistry()
	order := &domain.Order{ID: 1, Status: domain.StatusNew}

	_, err := r.Add(order)
	require.NoError(t, err)

	_, err = r.Add(order)
	require.Error(t, err)
	assert.Equal(t, "WS_001", err.(*apperror.AppError).Code)
}

func TestSubscriberRegistry_RejectsSettledOrders(t *testing.T) {
	r := NewSubscriberRegistry()

	for _, status := range []domain.OrderStatus{domain.StatusPaid, domain.StatusUnderpaid, domain.StatusOverpaid, domain.StatusExpired, domain.StatusCanceled} {
		_, err := r.Add(&domain.Order{ID: 2, Status: status})
		require.Error(t, err, "status %s", status)
		assert.Equal(t, "WS_002", err.(*apperror.AppError).Code)
	}

	_, err := r.Add(&domain.Order{ID: 3, Status: domain.StatusUnconfirmed})
	assert.NoError(t, err, "unconfirmed orders may still be watched")
}

func TestSubscriberRegistry_NotifyIsSingleShot(t *testing.T) {
	r := NewSubscriberRegistry()
	order := &domain.Order{ID: 4, Status: domain.StatusNew}

	ch, err := r.Add(order)
	require.NoError(t, err)

	r.Notify(4, domain.Snapshot{ID: 4, Status: int(domain.StatusPaid)})

	snap, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, int64(4), snap.ID)
	assert.Equal(t, int(domain.StatusPaid), snap.Status)

	_, ok = <-ch
	assert.False(t, ok, "channel closes after the single delivery")

	// slot freed: a new subscriber may attach
	_, err = r.Add(order)
	assert.NoError(t, err)
}

func TestSubscriberRegistry_RemoveWithoutDelivery(t *testing.T) {
	r := NewSubscriberRegistry()
	order := &domain.Order{ID: 5, Status: domain.StatusNew}

	ch, err := r.Add(order)
	require.NoError(t, err)

	r.Remove(5)
	_, ok := <-ch
	assert.False(t, ok)

	r.Notify(5, domain.Snapshot{ID: 5}) // no subscriber, no panic
}
