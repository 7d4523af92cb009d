package service

import (
	"context"
	"crypto/hmac"
	"fmt"
	"strconv"
	"sync"
	"time"

	"btc-payment-gateway/config"
	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 255

// Monitor watches a freshly created order for on-chain payments. Watch must
// return immediately; the observation loop runs in its own goroutine.
type Monitor interface {
	Watch(gw *domain.Gateway, order *domain.Order)
}

// RateAdaptersFor resolves a gateway's configured exchange-rate adapter
// names into adapter instances, tried in order.
type RateAdaptersFor func(names []string) []ports.ExchangeRateAdapter

// GatewayServiceImpl implements ports.GatewayService.
type GatewayServiceImpl struct {
	gateways    ports.GatewayStore
	orders      ports.OrderRepository
	allocator   ports.AddressAllocator
	flags       ports.FlagStore
	chain       ports.BlockchainAdapter
	rates       RateAdaptersFor
	transitions *TransitionPipeline
	monitor     Monitor
	cfg         config.OrdersConfig
	log         zerolog.Logger

	// keychainMu serializes the reuse scan per gateway so two concurrent
	// orders never pick the same expired address. Fresh indexes need no
	// in-process lock: the store's atomic claim hands out distinct values
	// even across processes.
	mu         sync.Mutex
	keychainMu map[int64]*sync.Mutex
}

// NewGatewayService creates a new GatewayServiceImpl.
func NewGatewayService(
	gateways ports.GatewayStore,
	orders ports.OrderRepository,
	allocator ports.AddressAllocator,
	flags ports.FlagStore,
	chain ports.BlockchainAdapter,
	rates RateAdaptersFor,
	transitions *TransitionPipeline,
	monitor Monitor,
	cfg config.OrdersConfig,
	log zerolog.Logger,
) *GatewayServiceImpl {
	return &GatewayServiceImpl{
		gateways:    gateways,
		orders:      orders,
		allocator:   allocator,
		flags:       flags,
		chain:       chain,
		rates:       rates,
		transitions: transitions,
		monitor:     monitor,
		cfg:         cfg,
		log:         log,
		keychainMu:  make(map[int64]*sync.Mutex),
	}
}

// CreateOrder allocates an address and persists a new order for the gateway.
func (s *GatewayServiceImpl) CreateOrder(ctx context.Context, gw *domain.Gateway, req ports.CreateOrderRequest) (*domain.Order, error) {
	if !gw.Active {
		return nil, apperror.ErrGatewayInactive()
	}

	// signed merchants manage their own derivation sequence: the signed
	// keychain_id pins the order to that index
	var pinnedIndex int64
	if gw.CheckSignature {
		expected := gw.SignWithSecret(strconv.FormatInt(req.KeychainID, 10), 1)
		if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
			s.log.Warn().Int64("gateway_id", gw.ID).Msg("invalid order signature")
			return nil, apperror.ErrInvalidSignature()
		}
		if req.KeychainID <= 0 {
			return nil, apperror.ErrInvalidOrderID()
		}
		pinnedIndex = req.KeychainID
	}

	if req.Amount <= 0 {
		return nil, apperror.ErrOrderValidationFailed("amount must be positive")
	}
	if len(req.Description) > maxDescriptionLength {
		return nil, apperror.ErrOrderValidationFailed(fmt.Sprintf("description exceeds %d characters", maxDescriptionLength))
	}

	satoshis, data, err := s.resolveAmount(ctx, gw, req)
	if err != nil {
		return nil, err
	}

	unlock := s.lockKeychain(gw.ID)
	defer unlock()

	alloc, err := s.allocator.Allocate(ctx, gw, pinnedIndex)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		GatewayID:     gw.ID,
		KeychainIndex: alloc.KeychainIndex,
		Address:       alloc.Address,
		Amount:        satoshis,
		Status:        domain.StatusNew,
		ReusedCount:   alloc.ReusedCount,
		Description:   req.Description,
		Data:          data,
		CallbackData:  req.CallbackData,
		TestMode:      gw.TestMode,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.PaymentID = gw.SignWithSecret(fmt.Sprintf("%d%d%d%s", order.KeychainIndex, order.Amount, now.UnixNano(), uuid.NewString()), 1)

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.InternalError(err)
	}

	if alloc.ReusedCount == 0 {
		// fresh claims were already persisted by the store; a pinned index
		// still has to raise the high-water mark
		if pinnedIndex > 0 {
			if err := s.gateways.UpdateLastKeychainIndex(ctx, gw.ID, pinnedIndex); err != nil {
				s.log.Error().Err(err).Int64("gateway_id", gw.ID).Msg("failed to persist keychain index")
			}
		}
		if alloc.KeychainIndex > gw.LastKeychainIndex {
			// request-local copy, read by the order's wire snapshot
			gw.LastKeychainIndex = alloc.KeychainIndex
		}
	}

	s.transitions.Count(ctx, gw.ID, domain.StatusNew)

	s.log.Info().
		Int64("order_id", order.ID).
		Int64("gateway_id", gw.ID).
		Str("address", order.Address).
		Int64("amount", order.Amount).
		Int("reused_count", order.ReusedCount).
		Msg("order created")

	if s.monitor != nil {
		s.monitor.Watch(gw, order)
	}
	return order, nil
}

// CancelOrder cancels a not-yet-paid order on the merchant's request.
func (s *GatewayServiceImpl) CancelOrder(ctx context.Context, gw *domain.Gateway, order *domain.Order, signature string) error {
	if gw.CheckSignature {
		expected := gw.SignWithSecret(strconv.FormatInt(order.ID, 10), 1)
		if !hmac.Equal([]byte(expected), []byte(signature)) {
			return apperror.ErrInvalidSignature()
		}
	}
	if !order.Cancelable() {
		return apperror.ErrOrderNotCancelable()
	}

	if err := s.transitions.Apply(ctx, gw, order, domain.StatusCanceled); err != nil {
		return apperror.InternalError(err)
	}

	// tell the monitor goroutine to stand down at its next boundary
	if err := s.flags.SetInterrupt(ctx, order.PaymentID); err != nil {
		s.log.Warn().Err(err).Str("payment_id", order.PaymentID).Msg("failed to set monitor interrupt flag")
	}
	return nil
}

// FindOrder resolves an order by numeric id or payment_id token. Unless
// configured to trust the stored status, a non-final order is re-checked
// against the blockchain on every read.
func (s *GatewayServiceImpl) FindOrder(ctx context.Context, gw *domain.Gateway, idOrPaymentID string) (*domain.Order, error) {
	order, err := s.lookup(ctx, gw, idOrPaymentID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound()
	}

	if !s.cfg.CheckStatusInDBFirst && !order.Status.IsFinal() {
		s.refreshStatus(ctx, gw, order)
	}
	return order, nil
}

func (s *GatewayServiceImpl) lookup(ctx context.Context, gw *domain.Gateway, idOrPaymentID string) (*domain.Order, error) {
	if id, err := strconv.ParseInt(idOrPaymentID, 10, 64); err == nil {
		return s.orders.FindByID(ctx, gw.ID, id)
	}
	return s.orders.FindByPaymentID(ctx, gw.ID, idOrPaymentID)
}

// refreshStatus polls the chain once and applies any resulting transition.
// Lookup failures leave the stored status untouched.
func (s *GatewayServiceImpl) refreshStatus(ctx context.Context, gw *domain.Gateway, order *domain.Order) {
	txs, err := s.chain.FetchTransactionsFor(ctx, order.Address, order.TestMode)
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", order.ID).Msg("status refresh skipped, chain lookup failed")
		return
	}
	total, confirmations, tid := SumTransactions(txs)
	status := order.ResolveStatus(total, confirmations, gw)
	if status == order.Status {
		return
	}
	order.AmountPaid = total
	if order.TID == "" {
		order.TID = tid
	}
	if err := s.transitions.Apply(ctx, gw, order, status); err != nil {
		s.log.Error().Err(err).Int64("order_id", order.ID).Msg("status refresh transition failed")
	}
}

func (s *GatewayServiceImpl) lockKeychain(gatewayID int64) func() {
	s.mu.Lock()
	m, ok := s.keychainMu[gatewayID]
	if !ok {
		m = &sync.Mutex{}
		s.keychainMu[gatewayID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// resolveAmount converts the requested amount into satoshis. BTC amounts
// pass through; fiat amounts arrive in the currency's cents and convert via
// the gateway's exchange-rate adapter chain, recording the rate snapshot.
func (s *GatewayServiceImpl) resolveAmount(ctx context.Context, gw *domain.Gateway, req ports.CreateOrderRequest) (int64, map[string]string, error) {
	currency := req.Currency
	if currency == "" {
		currency = gw.DefaultCurrency
	}
	if currency == "" || currency == "BTC" {
		return req.Amount, req.Data, nil
	}

	rate, adapterName, err := s.fetchRate(ctx, gw, currency)
	if err != nil {
		return 0, nil, apperror.ErrOrderValidationFailed(fmt.Sprintf("no exchange rate available for %s", currency))
	}

	btc := decimal.New(req.Amount, -2).Div(rate)
	satoshis := btc.Shift(8).Round(0).IntPart()
	if satoshis <= 0 {
		return 0, nil, apperror.ErrOrderValidationFailed("amount converts to zero satoshis")
	}

	data := req.Data
	if data == nil {
		data = make(map[string]string)
	}
	data["currency"] = currency
	data["exchange_rate"] = rate.String()
	data["exchange_rate_adapter"] = adapterName
	return satoshis, data, nil
}

func (s *GatewayServiceImpl) fetchRate(ctx context.Context, gw *domain.Gateway, currency string) (decimal.Decimal, string, error) {
	var adapters []ports.ExchangeRateAdapter
	if s.rates != nil {
		adapters = s.rates(gw.ExchangeRateAdapterNames)
	}
	var lastErr error
	for _, a := range adapters {
		rate, err := a.Rate(ctx, currency)
		if err != nil {
			lastErr = err
			s.log.Warn().Err(err).Str("adapter", a.Name()).Str("currency", currency).Msg("exchange rate fetch failed")
			continue
		}
		if rate.IsPositive() {
			return rate, a.Name(), nil
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no exchange rate adapters configured")
	}
	return decimal.Zero, "", lastErr
}

// SumTransactions folds a list of on-chain observations into the totals the
// state machine consumes: total received, the lowest confirmation count among
// contributing transactions, and the first transaction id.
func SumTransactions(txs []ports.AddressTransaction) (total int64, confirmations int64, tid string) {
	confirmations = -1
	for _, tx := range txs {
		total += tx.Amount
		if confirmations < 0 || tx.Confirmations < confirmations {
			confirmations = tx.Confirmations
		}
		if tid == "" {
			tid = tx.TID
		}
	}
	if confirmations < 0 {
		confirmations = 0
	}
	return total, confirmations, tid
}
