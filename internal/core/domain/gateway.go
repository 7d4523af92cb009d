package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Gateway is the merchant-scoped policy object. One gateway per merchant
// integration: it owns the receiving-address keychain, the signing secret and
// the notification callback.
type Gateway struct {
	ID                       int64     `json:"id"`
	HashedID                 string    `json:"hashed_id"` // route token, HMAC of ID with the server secret
	Name                     string    `json:"name"`
	PubKey                   string    `json:"-"` // BIP32 extended public key
	SecretEnc                string    `json:"-"` // AES-GCM encrypted at rest
	ConfirmationsRequired    int       `json:"confirmations_required"`
	LastKeychainIndex        int64     `json:"last_keychain_id"`
	CheckSignature           bool      `json:"check_signature"`
	Active                   bool      `json:"active"`
	CallbackURL              string    `json:"-"`
	DefaultCurrency          string    `json:"default_currency"`
	ReuseThreshold           int       `json:"-"`
	OrderExpirationSeconds   int       `json:"order_expiration_seconds"`
	ExchangeRateAdapterNames []string  `json:"-"`
	TestMode                 bool      `json:"test_mode"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`

	// secret is the decrypted signing secret, populated by the gateway store.
	secret string
}

// Secret returns the decrypted signing secret.
func (g *Gateway) Secret() string {
	return g.secret
}

// SetSecret stores the decrypted signing secret on the in-memory gateway.
// Called by gateway stores after decrypting SecretEnc (or directly for
// config-file gateways, which keep the secret in plaintext config).
func (g *Gateway) SetSecret(s string) {
	g.secret = s
}

// SignWithSecret computes the iterated hex HMAC-SHA256 of content under the
// gateway secret. level rounds are applied (1 for the usual case). The same
// construction produces order-creation signatures, payment_id tokens and the
// webhook signature parameter, so it must stay stable across versions.
func (g *Gateway) SignWithSecret(content string, level int) string {
	result := content
	if level < 1 {
		level = 1
	}
	for i := 0; i < level; i++ {
		mac := hmac.New(sha256.New, []byte(g.secret))
		mac.Write([]byte(result))
		result = hex.EncodeToString(mac.Sum(nil))
	}
	return result
}

// HashGatewayID derives the public route token for a gateway id.
func HashGatewayID(serverSecret string, id string) string {
	mac := hmac.New(sha256.New, []byte(serverSecret))
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// ExpirationPeriod returns the order lifetime as a duration.
func (g *Gateway) ExpirationPeriod() time.Duration {
	return time.Duration(g.OrderExpirationSeconds) * time.Second
}
