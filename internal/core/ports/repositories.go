package ports

import (
	"context"

	"btc-payment-gateway/internal/core/domain"
)

// GatewayStore loads gateways and persists their keychain counter. Two
// implementations exist: a postgres-backed store and a static config-file
// store. Gateway business logic only sees this contract.
type GatewayStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Gateway, error)
	// FindByHashedID resolves the public route token. Config-file stores
	// fall back to treating the token as a plain id.
	FindByHashedID(ctx context.Context, hashedID string) (*domain.Gateway, error)
	// UpdateLastKeychainIndex persists a new high-water mark for the
	// gateway's derivation index. Implementations must never move the
	// stored value backwards.
	UpdateLastKeychainIndex(ctx context.Context, gatewayID int64, index int64) error
	// ClaimNextKeychainIndex atomically advances the gateway's derivation
	// counter and returns the claimed index. The claim is the single source
	// of truth for fresh indexes: concurrent callers, including separate
	// processes sharing one database, always receive distinct values.
	ClaimNextKeychainIndex(ctx context.Context, gatewayID int64) (int64, error)
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, gatewayID int64, id int64) (*domain.Order, error)
	FindByPaymentID(ctx context.Context, gatewayID int64, paymentID string) (*domain.Order, error)
	// UpdateStatus persists a status transition together with the amounts
	// observed on chain.
	UpdateStatus(ctx context.Context, order *domain.Order) error
	// SetCallbackResponse records the outcome of the latest webhook attempt.
	SetCallbackResponse(ctx context.Context, orderID int64, resp domain.CallbackResponse) error
	// ReuseScanPage returns one page of the gateway's orders ordered by
	// (keychain_index DESC, reused_count DESC) for the address-reuse scan.
	ReuseScanPage(ctx context.Context, gatewayID int64, limit, offset int) ([]domain.Order, error)
	// AddressExists reports whether the gateway already has an order on the
	// given address (addresses are unique per gateway, except across reuse
	// generations of the same order run).
	AddressExists(ctx context.Context, gatewayID int64, address string, maxReused int) (bool, error)
}

// NonceStore is the shared, per-gateway strictly-increasing nonce counter.
type NonceStore interface {
	// CheckAndSet accepts nonce only if it is strictly greater than the
	// last accepted value for the gateway, and atomically records it.
	// Concurrent conflicts are retried internally; the result is the final
	// accept/reject decision.
	CheckAndSet(ctx context.Context, gatewayID int64, nonce int64) (bool, error)
}

// CounterStore keeps per-gateway order-status tallies in shared storage.
type CounterStore interface {
	IncrementOrderCounter(ctx context.Context, gatewayID int64, status domain.OrderStatus, by int64) error
	OrderCounters(ctx context.Context, gatewayID int64) (map[domain.OrderStatus]int64, error)
}

// ThrottleStore backs the sliding-window throttler and the IP ban list.
type ThrottleStore interface {
	// IncrWindow increments the request counter for the given window key
	// and refreshes its expiry, returning the new count.
	IncrWindow(ctx context.Context, key string, ttlSeconds int64) (int64, error)
	// Ban records bannedAt for the IP with the given TTL in seconds.
	Ban(ctx context.Context, ip string, bannedAt int64, ttlSeconds int64) error
	// BannedAt returns the recorded ban timestamp for the IP, or 0.
	BannedAt(ctx context.Context, ip string) (int64, error)
}

// FlagStore holds out-of-band cancellation flags for background tasks,
// keyed by a stable label (the order's payment_id). Tasks consume the flag
// at scheduling boundaries.
type FlagStore interface {
	SetInterrupt(ctx context.Context, label string) error
	// ConsumeInterrupt reports whether the flag was set, clearing it.
	ConsumeInterrupt(ctx context.Context, label string) (bool, error)
}

// HealthChecker checks external dependency health.
type HealthChecker interface {
	// Ping verifies connectivity. Returns nil if healthy.
	Ping(ctx context.Context) error
	// Name returns the dependency name (e.g., "postgresql", "redis").
	Name() string
}
