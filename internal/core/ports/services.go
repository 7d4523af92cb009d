package ports

import (
	"context"

	"btc-payment-gateway/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AddressTransaction is one on-chain payment observed for an address.
// The core consumes these; fetching them belongs to blockchain adapters.
type AddressTransaction struct {
	TID           string // transaction id
	Amount        int64  // satoshis received by the address
	Confirmations int64
}

// BlockchainAdapter fetches on-chain observations for an address.
type BlockchainAdapter interface {
	Name() string
	FetchTransactionsFor(ctx context.Context, address string, testMode bool) ([]AddressTransaction, error)
}

// ExchangeRateAdapter quotes the BTC price in a fiat currency.
type ExchangeRateAdapter interface {
	Name() string
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// AddressDeriver derives a deterministic receiving address from an extended
// public key and a keychain index.
type AddressDeriver interface {
	Derive(xpub string, index uint32, testMode bool) (string, error)
}

// EncryptionService handles AES-256-GCM encryption/decryption of gateway
// secrets at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// AddressAllocator applies the address-reuse policy for one order creation.
type AddressAllocator interface {
	// Allocate decides the order's address. A positive keychainIndex pins
	// the derivation to that index (signed merchants manage their own
	// sequence); zero lets the allocator reuse an expired run or claim a
	// fresh index from the gateway store.
	Allocate(ctx context.Context, gw *domain.Gateway, keychainIndex int64) (Allocation, error)
}

// Allocation is the allocator's decision: which address and index the new
// order gets, and whether it reuses an expired run.
type Allocation struct {
	Address       string
	KeychainIndex int64
	ReusedCount   int
}

// CreateOrderRequest is the validated input to order creation.
type CreateOrderRequest struct {
	Amount          int64  // smallest unit of Currency (satoshis when BTC)
	Currency        string // defaults to the gateway's currency
	BTCDenomination string
	KeychainID      int64  // client-pinned index, signature-checked gateways only
	Signature       string // SignWithSecret(keychain_id) when required
	Data            map[string]string
	CallbackData    string
	Description     string
}

// GatewayService is the order lifecycle surface consumed by the HTTP layer.
type GatewayService interface {
	CreateOrder(ctx context.Context, gw *domain.Gateway, req CreateOrderRequest) (*domain.Order, error)
	CancelOrder(ctx context.Context, gw *domain.Gateway, order *domain.Order, signature string) error
	// FindOrder resolves an order by numeric id or payment_id token.
	FindOrder(ctx context.Context, gw *domain.Gateway, idOrPaymentID string) (*domain.Order, error)
}

// NotificationDispatcher fans an order status change out to the webhook and
// push channels. Must not surface errors to the transition that triggered it.
type NotificationDispatcher interface {
	OnStatusChange(gw *domain.Gateway, order *domain.Order)
}

// Throttler is the per-gateway+IP admission control.
type Throttler interface {
	// Deny reports whether the request should be rejected.
	Deny(ctx context.Context, gatewayID string, ip string) bool
}

// SignatureValidator authenticates a signed request: nonce freshness first,
// then the HMAC-SHA512 request signature.
type SignatureValidator interface {
	Validate(ctx context.Context, gw *domain.Gateway, method, requestURI, nonce string, body []byte, signature string) error
}
