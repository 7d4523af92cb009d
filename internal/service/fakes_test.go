package service

import (
	"context"
	"fmt"
	"sync"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"

	"github.com/shopspring/decimal"
)

// fakeOrderRepo is an in-memory ports.OrderRepository for service tests.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []*domain.Order
	nextID int64

	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID
	r.nextID++
	cp := *o
	r.orders = append(r.orders, &cp)
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, gatewayID, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.GatewayID == gatewayID && o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) FindByPaymentID(_ context.Context, gatewayID int64, paymentID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.GatewayID == gatewayID && o.PaymentID == paymentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.orders {
		if stored.ID == o.ID {
			stored.Status = o.Status
			stored.AmountPaid = o.AmountPaid
			stored.TID = o.TID
			return nil
		}
	}
	return fmt.Errorf("order not found: %d", o.ID)
}

func (r *fakeOrderRepo) SetCallbackResponse(_ context.Context, orderID int64, resp domain.CallbackResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.orders {
		if stored.ID == orderID {
			cp := resp
			stored.CallbackResponse = &cp
			return nil
		}
	}
	return fmt.Errorf("order not found: %d", orderID)
}

func (r *fakeOrderRepo) ReuseScanPage(_ context.Context, gatewayID int64, limit, offset int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Order
	for _, o := range r.orders {
		if o.GatewayID == gatewayID {
			all = append(all, *o)
		}
	}
	// newest first: descending (keychain_index, reused_count)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if b.KeychainIndex > a.KeychainIndex ||
				(b.KeychainIndex == a.KeychainIndex && b.ReusedCount > a.ReusedCount) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *fakeOrderRepo) AddressExists(_ context.Context, gatewayID int64, address string, maxReused int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.GatewayID == gatewayID && o.Address == address && o.ReusedCount >= maxReused {
			return true, nil
		}
	}
	return false, nil
}

// fakeGatewayStore owns its gateway rows and hands out copies, the way the
// database-backed store does, and records keychain index updates.
type fakeGatewayStore struct {
	mu       sync.Mutex
	gateways map[int64]*domain.Gateway
	updates  []int64
}

func newFakeGatewayStore(gws ...*domain.Gateway) *fakeGatewayStore {
	s := &fakeGatewayStore{gateways: make(map[int64]*domain.Gateway)}
	for _, gw := range gws {
		cp := *gw
		s.gateways[gw.ID] = &cp
	}
	return s
}

func (s *fakeGatewayStore) FindByID(_ context.Context, id int64) (*domain.Gateway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gw, ok := s.gateways[id]
	if !ok {
		return nil, nil
	}
	cp := *gw
	return &cp, nil
}

func (s *fakeGatewayStore) FindByHashedID(_ context.Context, hashedID string) (*domain.Gateway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, gw := range s.gateways {
		if gw.HashedID == hashedID {
			cp := *gw
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeGatewayStore) UpdateLastKeychainIndex(_ context.Context, gatewayID, index int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, index)
	if gw, ok := s.gateways[gatewayID]; ok && index > gw.LastKeychainIndex {
		gw.LastKeychainIndex = index
	}
	return nil
}

func (s *fakeGatewayStore) ClaimNextKeychainIndex(_ context.Context, gatewayID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gw, ok := s.gateways[gatewayID]
	if !ok {
		return 0, fmt.Errorf("gateway not found: %d", gatewayID)
	}
	gw.LastKeychainIndex++
	return gw.LastKeychainIndex, nil
}

func (s *fakeGatewayStore) lastIndex(gatewayID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gateways[gatewayID].LastKeychainIndex
}

// fakeChain serves canned transactions per address.
type fakeChain struct {
	mu  sync.Mutex
	txs map[string][]ports.AddressTransaction
	err error
}

func newFakeChain() *fakeChain {
	return &fakeChain{txs: make(map[string][]ports.AddressTransaction)}
}

func (c *fakeChain) Name() string { return "fake" }

func (c *fakeChain) FetchTransactionsFor(_ context.Context, address string, _ bool) ([]ports.AddressTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.txs[address], nil
}

func (c *fakeChain) set(address string, txs ...ports.AddressTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[address] = txs
}

// fakeDeriver returns "addr-<index>".
type fakeDeriver struct{}

func (fakeDeriver) Derive(_ string, index uint32, _ bool) (string, error) {
	return fmt.Sprintf("addr-%d", index), nil
}

// fakeCounterStore tallies in memory.
type fakeCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counters: make(map[string]int64)}
}

func (s *fakeCounterStore) IncrementOrderCounter(_ context.Context, gatewayID int64, status domain.OrderStatus, by int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[fmt.Sprintf("%d:%s", gatewayID, status)] += by
	return nil
}

func (s *fakeCounterStore) OrderCounters(_ context.Context, gatewayID int64) (map[domain.OrderStatus]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.OrderStatus]int64)
	for _, status := range domain.OrderStatuses {
		out[status] = s.counters[fmt.Sprintf("%d:%s", gatewayID, status)]
	}
	return out, nil
}

func (s *fakeCounterStore) get(gatewayID int64, status domain.OrderStatus) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[fmt.Sprintf("%d:%s", gatewayID, status)]
}

// fakeFlagStore is an in-memory interrupt flag store.
type fakeFlagStore struct {
	mu    sync.Mutex
	flags map[string]bool
}

func newFakeFlagStore() *fakeFlagStore {
	return &fakeFlagStore{flags: make(map[string]bool)}
}

func (s *fakeFlagStore) SetInterrupt(_ context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[label] = true
	return nil
}

func (s *fakeFlagStore) ConsumeInterrupt(_ context.Context, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.flags[label]
	delete(s.flags, label)
	return set, nil
}

// fakeDispatcher records status-change fanouts.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []domain.Order
}

func (d *fakeDispatcher) OnStatusChange(_ *domain.Gateway, order *domain.Order) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, *order)
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// fakeRateAdapter quotes a fixed rate or an error.
type fakeRateAdapter struct {
	name string
	rate decimal.Decimal
	err  error
}

func (a fakeRateAdapter) Name() string { return a.name }

func (a fakeRateAdapter) Rate(_ context.Context, _ string) (decimal.Decimal, error) {
	if a.err != nil {
		return decimal.Zero, a.err
	}
	return a.rate, nil
}
