package service

import (
	"context"
	"sync"
	"time"

	"btc-payment-gateway/config"
	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// OrderMonitor polls the blockchain for payments to a new order's address
// until the order settles or its expiration window closes. One goroutine per
// order, labelled by payment_id; cancellation arrives through the shared
// interrupt flag, checked at scheduling boundaries only.
type OrderMonitor struct {
	base        context.Context
	chain       ports.BlockchainAdapter
	flags       ports.FlagStore
	transitions *TransitionPipeline
	cfg         config.OrdersConfig
	log         zerolog.Logger

	wg sync.WaitGroup
}

// NewOrderMonitor creates a new OrderMonitor. base bounds the lifetime of
// every watch goroutine; cancel it on shutdown.
func NewOrderMonitor(base context.Context, chain ports.BlockchainAdapter, flags ports.FlagStore, transitions *TransitionPipeline, cfg config.OrdersConfig, log zerolog.Logger) *OrderMonitor {
	return &OrderMonitor{
		base:        base,
		chain:       chain,
		flags:       flags,
		transitions: transitions,
		cfg:         cfg,
		log:         log,
	}
}

// Watch starts observing the order in a new goroutine and returns.
func (m *OrderMonitor) Watch(gw *domain.Gateway, order *domain.Order) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(gw, order)
	}()
}

// Wait blocks until every watch goroutine has finished. Meant for shutdown,
// after cancelling the base context.
func (m *OrderMonitor) Wait() {
	m.wg.Wait()
}

func (m *OrderMonitor) run(gw *domain.Gateway, order *domain.Order) {
	log := m.log.With().Int64("order_id", order.ID).Str("payment_id", order.PaymentID).Logger()

	remaining := order.TimeLeftBeforeExpiration(gw, m.cfg.ExpirationOvertime, time.Now())
	if remaining <= 0 {
		// resumed past its window (e.g. after a restart): one synchronous
		// check decides between settled and expired
		log.Info().Msg("order past expiration window, performing final check")
		if m.interrupted(order) {
			return
		}
		if done := m.poll(gw, order, log); !done {
			m.expire(gw, order, log)
		}
		return
	}

	deadline := time.Now().Add(remaining)
	ticker := time.NewTicker(m.cfg.StatusCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.base.Done():
			return
		case now := <-ticker.C:
			if m.interrupted(order) {
				log.Info().Msg("order monitor interrupted")
				return
			}
			if done := m.poll(gw, order, log); done {
				return
			}
			if now.After(deadline) {
				m.expire(gw, order, log)
				return
			}
		}
	}
}

// poll fetches on-chain transactions once and applies any transition.
// Returns true when observation should stop.
func (m *OrderMonitor) poll(gw *domain.Gateway, order *domain.Order, log zerolog.Logger) bool {
	ctx, cancel := context.WithTimeout(m.base, m.cfg.StatusCheckPeriod)
	defer cancel()

	txs, err := m.chain.FetchTransactionsFor(ctx, order.Address, order.TestMode)
	if err != nil {
		log.Warn().Err(err).Msg("blockchain poll failed")
		return false
	}

	total, confirmations, tid := SumTransactions(txs)
	status := order.ResolveStatus(total, confirmations, gw)
	if status == order.Status {
		return order.Status.IsFinal()
	}

	order.AmountPaid = total
	if order.TID == "" {
		order.TID = tid
	}
	if err := m.transitions.Apply(ctx, gw, order, status); err != nil {
		log.Error().Err(err).Msg("failed to apply order transition")
		return false
	}
	return status.IsFinal()
}

func (m *OrderMonitor) expire(gw *domain.Gateway, order *domain.Order, log zerolog.Logger) {
	if order.Status.IsFinal() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.base), m.cfg.StatusCheckPeriod)
	defer cancel()

	if err := m.transitions.Apply(ctx, gw, order, domain.StatusExpired); err != nil {
		log.Error().Err(err).Msg("failed to expire order")
		return
	}
	log.Info().Msg("order expired")
}

func (m *OrderMonitor) interrupted(order *domain.Order) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(m.base), 5*time.Second)
	defer cancel()

	set, err := m.flags.ConsumeInterrupt(ctx, order.PaymentID)
	if err != nil {
		m.log.Warn().Err(err).Str("payment_id", order.PaymentID).Msg("interrupt flag lookup failed")
		return false
	}
	return set
}
