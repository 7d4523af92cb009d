package service

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// webhookRetryCeiling bounds the cumulative backoff of one delivery run.
const webhookRetryCeiling = 3600 * time.Second

// NotificationDispatcherImpl implements ports.NotificationDispatcher. Each
// status change fans out to two channels: the merchant's webhook (retried
// with doubling backoff in its own goroutine) and the order's websocket
// subscriber, if any. Neither channel surfaces errors to the transition that
// triggered it.
type NotificationDispatcherImpl struct {
	base        context.Context
	orders      ports.OrderRepository
	subscribers *SubscriberRegistry
	client      *http.Client
	log         zerolog.Logger

	initialDelay time.Duration // test seam, defaults to 5s
	wg           sync.WaitGroup
}

// NewNotificationDispatcher creates a new NotificationDispatcherImpl. base
// bounds the webhook goroutines; cancel it on shutdown.
func NewNotificationDispatcher(base context.Context, orders ports.OrderRepository, subscribers *SubscriberRegistry, client *http.Client, log zerolog.Logger) *NotificationDispatcherImpl {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &NotificationDispatcherImpl{
		base:         base,
		orders:       orders,
		subscribers:  subscribers,
		client:       client,
		log:          log,
		initialDelay: 5 * time.Second,
	}
}

// OnStatusChange fans the transition out. Returns immediately; webhook
// delivery continues in the background.
func (d *NotificationDispatcherImpl) OnStatusChange(gw *domain.Gateway, order *domain.Order) {
	if d.subscribers != nil {
		d.subscribers.Notify(order.ID, order.Snapshot(gw))
	}

	if gw.CallbackURL == "" {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliverWebhook(gw, order)
	}()
}

// Wait blocks until in-flight webhook deliveries finish.
func (d *NotificationDispatcherImpl) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcherImpl) deliverWebhook(gw *domain.Gateway, order *domain.Order) {
	log := d.log.With().Int64("order_id", order.ID).Str("url", gw.CallbackURL).Logger()

	params := order.WireParams(gw)
	if gw.CheckSignature {
		params.Set("signature", gw.SignWithSecret(strconv.FormatInt(order.ID, 10), 1))
	}
	if order.CallbackData != "" {
		params.Set("callback_data", order.CallbackData)
	}
	url := gw.CallbackURL + "?" + params.Encode()

	delay := d.initialDelay
	var elapsed time.Duration

	for {
		if d.attempt(url, order, log) {
			return
		}
		if elapsed+delay > webhookRetryCeiling {
			log.Error().Dur("elapsed", elapsed).Msg("webhook delivery retries exhausted")
			return
		}

		select {
		case <-d.base.Done():
			return
		case <-time.After(delay):
		}
		elapsed += delay
		delay *= 2
	}
}

// attempt performs one GET and persists the response as the order's
// callback_response. Returns true on HTTP 200.
func (d *NotificationDispatcherImpl) attempt(url string, order *domain.Order, log zerolog.Logger) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(d.base), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error().Err(err).Msg("building webhook request")
		return false
	}

	resp, err := d.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("webhook attempt failed")
		d.persistResponse(ctx, order, domain.CallbackResponse{Code: 0, Body: err.Error()})
		return false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	d.persistResponse(ctx, order, domain.CallbackResponse{Code: resp.StatusCode, Body: string(body)})

	if resp.StatusCode == http.StatusOK {
		log.Info().Msg("webhook delivered")
		return true
	}
	log.Warn().Int("code", resp.StatusCode).Msg("webhook rejected")
	return false
}

func (d *NotificationDispatcherImpl) persistResponse(ctx context.Context, order *domain.Order, resp domain.CallbackResponse) {
	order.CallbackResponse = &resp
	if err := d.orders.SetCallbackResponse(ctx, order.ID, resp); err != nil {
		d.log.Warn().Err(err).Int64("order_id", order.ID).Msg("failed to persist callback response")
	}
}
