package service

import (
	"context"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// TransitionPipeline applies one observed status change: persist, adjust the
// status tallies and fan out notifications. Every transition in the system
// goes through here exactly once, whichever component observed it.
type TransitionPipeline struct {
	orders      ports.OrderRepository
	counters    ports.CounterStore
	countOrders bool
	dispatcher  ports.NotificationDispatcher
	log         zerolog.Logger
}

// NewTransitionPipeline creates a new TransitionPipeline.
func NewTransitionPipeline(orders ports.OrderRepository, counters ports.CounterStore, countOrders bool, dispatcher ports.NotificationDispatcher, log zerolog.Logger) *TransitionPipeline {
	return &TransitionPipeline{
		orders:      orders,
		counters:    counters,
		countOrders: countOrders,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// Apply moves order to status and runs the side effects. The order's
// AmountPaid and TID are expected to be set by the caller beforehand.
func (p *TransitionPipeline) Apply(ctx context.Context, gw *domain.Gateway, order *domain.Order, status domain.OrderStatus) error {
	old := order.Status
	if old == status {
		return nil
	}
	order.Status = status

	if err := p.orders.UpdateStatus(ctx, order); err != nil {
		order.Status = old
		return err
	}

	p.log.Info().
		Int64("order_id", order.ID).
		Int64("gateway_id", gw.ID).
		Str("from", old.String()).
		Str("to", status.String()).
		Msg("order status changed")

	p.adjustCounters(ctx, gw.ID, old, status)

	if p.dispatcher != nil {
		p.dispatcher.OnStatusChange(gw, order)
	}
	return nil
}

// Count increments a single status tally, used at order creation.
func (p *TransitionPipeline) Count(ctx context.Context, gatewayID int64, status domain.OrderStatus) {
	if !p.countOrders {
		return
	}
	if err := p.counters.IncrementOrderCounter(ctx, gatewayID, status, 1); err != nil {
		p.log.Warn().Err(err).Int64("gateway_id", gatewayID).Msg("order counter increment failed")
	}
}

func (p *TransitionPipeline) adjustCounters(ctx context.Context, gatewayID int64, old, new domain.OrderStatus) {
	if !p.countOrders {
		return
	}
	if err := p.counters.IncrementOrderCounter(ctx, gatewayID, old, -1); err != nil {
		p.log.Warn().Err(err).Int64("gateway_id", gatewayID).Msg("order counter decrement failed")
	}
	if err := p.counters.IncrementOrderCounter(ctx, gatewayID, new, 1); err != nil {
		p.log.Warn().Err(err).Int64("gateway_id", gatewayID).Msg("order counter increment failed")
	}
}
