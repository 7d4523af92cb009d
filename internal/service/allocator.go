package service

import (
	"context"
	"fmt"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// AddressAllocatorImpl implements ports.AddressAllocator. Wallets with
// BIP32-style look-ahead stop scanning after a run of unused addresses, so
// once ReuseThreshold consecutive expired orders pile up, the oldest one's
// address is handed out again instead of burning yet another index.
type AddressAllocatorImpl struct {
	orders   ports.OrderRepository
	gateways ports.GatewayStore
	deriver  ports.AddressDeriver
	chain    ports.BlockchainAdapter
	log      zerolog.Logger
}

// NewAddressAllocator creates a new AddressAllocatorImpl.
func NewAddressAllocator(orders ports.OrderRepository, gateways ports.GatewayStore, deriver ports.AddressDeriver, chain ports.BlockchainAdapter, log zerolog.Logger) *AddressAllocatorImpl {
	return &AddressAllocatorImpl{orders: orders, gateways: gateways, deriver: deriver, chain: chain, log: log}
}

// Allocate decides the address and keychain index for a new order. A positive
// keychainIndex pins the derivation there; otherwise an expired run may be
// reused, and failing that a fresh index is claimed from the gateway store.
func (a *AddressAllocatorImpl) Allocate(ctx context.Context, gw *domain.Gateway, keychainIndex int64) (ports.Allocation, error) {
	if keychainIndex > 0 {
		address, err := a.deriver.Derive(gw.PubKey, uint32(keychainIndex), gw.TestMode)
		if err != nil {
			return ports.Allocation{}, fmt.Errorf("derive address for index %d: %w", keychainIndex, err)
		}
		return ports.Allocation{Address: address, KeychainIndex: keychainIndex}, nil
	}

	if gw.ReuseThreshold > 0 {
		reusable, err := a.findReusableOrder(ctx, gw)
		if err != nil {
			return ports.Allocation{}, err
		}
		if reusable != nil {
			a.log.Info().
				Int64("gateway_id", gw.ID).
				Int64("keychain_index", reusable.KeychainIndex).
				Str("address", reusable.Address).
				Msg("reusing expired order address")
			return ports.Allocation{
				Address:       reusable.Address,
				KeychainIndex: reusable.KeychainIndex,
				ReusedCount:   reusable.ReusedCount + 1,
			}, nil
		}
	}

	// the request's gateway is a per-request copy; the store holds the
	// authoritative counter and hands each claimant a distinct index
	index, err := a.gateways.ClaimNextKeychainIndex(ctx, gw.ID)
	if err != nil {
		return ports.Allocation{}, fmt.Errorf("claim keychain index: %w", err)
	}
	address, err := a.deriver.Derive(gw.PubKey, uint32(index), gw.TestMode)
	if err != nil {
		return ports.Allocation{}, fmt.Errorf("derive address for index %d: %w", index, err)
	}
	return ports.Allocation{Address: address, KeychainIndex: index}, nil
}

// findReusableOrder runs the expired-order scan. It returns the oldest order
// of a run of at least ReuseThreshold consecutive expired orders, provided
// its address never received a payment, or nil when no reuse applies.
func (a *AddressAllocatorImpl) findReusableOrder(ctx context.Context, gw *domain.Gateway) (*domain.Order, error) {
	run, err := a.expiredRun(ctx, gw)
	if err != nil {
		return nil, err
	}
	if len(run) < gw.ReuseThreshold {
		return nil, nil
	}

	oldest := run[0]

	// a later reuse generation may already hold this address
	taken, err := a.orders.AddressExists(ctx, gw.ID, oldest.Address, oldest.ReusedCount+1)
	if err != nil {
		return nil, fmt.Errorf("address reuse check: %w", err)
	}
	if taken {
		return nil, nil
	}

	txs, err := a.chain.FetchTransactionsFor(ctx, oldest.Address, gw.TestMode)
	if err != nil {
		// reuse is an optimisation; a flaky adapter falls back to a fresh index
		a.log.Warn().Err(err).Str("address", oldest.Address).Msg("transaction lookup failed, skipping address reuse")
		return nil, nil
	}
	if len(txs) > 0 {
		return nil, nil
	}
	return &oldest, nil
}

// expiredRun collects the newest-first run of expired orders, oldest first in
// the result. The scan pages in chunks of ReuseThreshold, drops reuse
// generations superseded by a later attempt at the same index, tolerates
// still-live new orders and stops at anything settled.
func (a *AddressAllocatorImpl) expiredRun(ctx context.Context, gw *domain.Gateway) ([]domain.Order, error) {
	var run []domain.Order
	offset := 0
	lastIndex := int64(-1)

	for {
		page, err := a.orders.ReuseScanPage(ctx, gw.ID, gw.ReuseThreshold, offset)
		if err != nil {
			return nil, fmt.Errorf("reuse scan: %w", err)
		}

		for _, o := range page {
			if o.KeychainIndex == lastIndex {
				// superseded sibling: a higher reused_count at the same
				// index sorts first and already represented this slot
				continue
			}
			lastIndex = o.KeychainIndex

			switch o.Status {
			case domain.StatusExpired:
				run = append([]domain.Order{o}, run...)
				if len(run) > gw.ReuseThreshold {
					run = run[:gw.ReuseThreshold]
				}
			case domain.StatusNew:
				// still live, breaks nothing
			default:
				return run, nil
			}
		}

		if len(page) < gw.ReuseThreshold {
			return run, nil
		}
		offset += gw.ReuseThreshold
	}
}
