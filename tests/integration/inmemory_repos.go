package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"
)

// inMemoryOrderRepo implements ports.OrderRepository without a database so
// integration tests can run the whole stack in-process.
type inMemoryOrderRepo struct {
	mu     sync.Mutex
	orders []*domain.Order
	nextID int64
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{nextID: 1}
}

func (r *inMemoryOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = r.nextID
	r.nextID++
	cp := *o
	r.orders = append(r.orders, &cp)
	return nil
}

func (r *inMemoryOrderRepo) FindByID(_ context.Context, gatewayID, id int64) (*domain.Order, error) {
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

func (r *inMemoryOrderRepo) FindByPaymentID(_ context.Context, gatewayID int64, paymentID string) (*domain.Order, error) {
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

func (r *inMemoryOrderRepo) UpdateStatus(_ context.Context, o *domain.Order) error {
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

func (r *inMemoryOrderRepo) SetCallbackResponse(_ context.Context, orderID int64, resp domain.CallbackResponse) error {
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

func (r *inMemoryOrderRepo) ReuseScanPage(_ context.Context, gatewayID int64, limit, offset int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []domain.Order
	for _, o := range r.orders {
		if o.GatewayID == gatewayID {
			all = append(all, *o)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].KeychainIndex != all[j].KeychainIndex {
			return all[i].KeychainIndex > all[j].KeychainIndex
		}
		return all[i].ReusedCount > all[j].ReusedCount
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *inMemoryOrderRepo) AddressExists(_ context.Context, gatewayID int64, address string, maxReused int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.GatewayID == gatewayID && o.Address == address && o.ReusedCount >= maxReused {
			return true, nil
		}
	}
	return false, nil
}

// stubChain pretends no address ever receives coins; individual tests swap
// in transactions as needed.
type stubChain struct {
	mu  sync.Mutex
	txs map[string][]ports.AddressTransaction
}

func newStubChain() *stubChain {
	return &stubChain{txs: make(map[string][]ports.AddressTransaction)}
}

func (c *stubChain) Name() string { return "stub" }

func (c *stubChain) FetchTransactionsFor(_ context.Context, address string, _ bool) ([]ports.AddressTransaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txs[address], nil
}

func (c *stubChain) pay(address string, amount int64, confirmations int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs[address] = append(c.txs[address], ports.AddressTransaction{
		TID:           fmt.Sprintf("tid-%s-%d", address, len(c.txs[address])+1),
		Amount:        amount,
		Confirmations: confirmations,
	})
}
