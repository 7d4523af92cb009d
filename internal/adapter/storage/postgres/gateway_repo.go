package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// GatewayRepo implements ports.GatewayStore on PostgreSQL. Secrets are stored
// AES-encrypted and decrypted on load so callers always see a usable gateway.
type GatewayRepo struct {
	pool         Pool
	enc          ports.EncryptionService
	serverSecret string
}

// NewGatewayRepo creates a new GatewayRepo.
func NewGatewayRepo(pool Pool, enc ports.EncryptionService, serverSecret string) *GatewayRepo {
	return &GatewayRepo{pool: pool, enc: enc, serverSecret: serverSecret}
}

const gatewayColumns = `id, name, pubkey, secret_enc, confirmations_required, last_keychain_index,
	check_signature, active, callback_url, default_currency, reuse_threshold,
	order_expiration_seconds, exchange_rate_adapters, test_mode, created_at, updated_at`

// Create provisions a new gateway: the signing secret is encrypted before it
// touches the database and the route token is derived from the assigned id.
func (r *GatewayRepo) Create(ctx context.Context, gw *domain.Gateway, secret string) error {
	enc, err := r.enc.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt gateway secret: %w", err)
	}
	gw.SecretEnc = enc

	query := `INSERT INTO gateways (name, pubkey, secret_enc, confirmations_required,
		check_signature, active, callback_url, default_currency, reuse_threshold,
		order_expiration_seconds, exchange_rate_adapters, test_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id`
	if err := r.pool.QueryRow(ctx, query,
		gw.Name, gw.PubKey, gw.SecretEnc, gw.ConfirmationsRequired,
		gw.CheckSignature, gw.Active, gw.CallbackURL, gw.DefaultCurrency, gw.ReuseThreshold,
		gw.OrderExpirationSeconds, gw.ExchangeRateAdapterNames, gw.TestMode,
	).Scan(&gw.ID); err != nil {
		return fmt.Errorf("insert gateway: %w", err)
	}

	gw.HashedID = domain.HashGatewayID(r.serverSecret, strconv.FormatInt(gw.ID, 10))
	gw.SetSecret(secret)

	if _, err := r.pool.Exec(ctx, `UPDATE gateways SET hashed_id = $1 WHERE id = $2`, gw.HashedID, gw.ID); err != nil {
		return fmt.Errorf("store gateway route token: %w", err)
	}
	return nil
}

// FindByID fetches a gateway by its numeric id.
func (r *GatewayRepo) FindByID(ctx context.Context, id int64) (*domain.Gateway, error) {
	query := fmt.Sprintf(`SELECT %s FROM gateways WHERE id = $1`, gatewayColumns)
	return r.scanGateway(r.pool.QueryRow(ctx, query, id))
}

// FindByHashedID resolves the public route token, which is stored alongside
// the row when the gateway is created.
func (r *GatewayRepo) FindByHashedID(ctx context.Context, hashedID string) (*domain.Gateway, error) {
	query := fmt.Sprintf(`SELECT %s FROM gateways WHERE hashed_id = $1`, gatewayColumns)
	return r.scanGateway(r.pool.QueryRow(ctx, query, hashedID))
}

// UpdateLastKeychainIndex raises the gateway's derivation high-water mark.
// GREATEST keeps the stored value monotonic under concurrent allocations.
func (r *GatewayRepo) UpdateLastKeychainIndex(ctx context.Context, gatewayID int64, index int64) error {
	query := `UPDATE gateways SET last_keychain_index = GREATEST(last_keychain_index, $1), updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, index, gatewayID)
	if err != nil {
		return fmt.Errorf("update last keychain index: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gateway not found: %d", gatewayID)
	}
	return nil
}

// ClaimNextKeychainIndex atomically advances the gateway's derivation counter
// and returns the claimed index. The single UPDATE makes the claim safe for
// concurrent requests and for several gateway processes sharing one database.
func (r *GatewayRepo) ClaimNextKeychainIndex(ctx context.Context, gatewayID int64) (int64, error) {
	query := `UPDATE gateways SET last_keychain_index = last_keychain_index + 1, updated_at = NOW()
		WHERE id = $1 RETURNING last_keychain_index`

	var index int64
	if err := r.pool.QueryRow(ctx, query, gatewayID).Scan(&index); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("gateway not found: %d", gatewayID)
		}
		return 0, fmt.Errorf("claim keychain index: %w", err)
	}
	return index, nil
}

func (r *GatewayRepo) scanGateway(row pgx.Row) (*domain.Gateway, error) {
	g := &domain.Gateway{}
	err := row.Scan(
		&g.ID, &g.Name, &g.PubKey, &g.SecretEnc, &g.ConfirmationsRequired, &g.LastKeychainIndex,
		&g.CheckSignature, &g.Active, &g.CallbackURL, &g.DefaultCurrency, &g.ReuseThreshold,
		&g.OrderExpirationSeconds, &g.ExchangeRateAdapterNames, &g.TestMode, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan gateway: %w", err)
	}

	g.HashedID = domain.HashGatewayID(r.serverSecret, strconv.FormatInt(g.ID, 10))

	if g.SecretEnc != "" {
		secret, err := r.enc.Decrypt(g.SecretEnc)
		if err != nil {
			return nil, fmt.Errorf("decrypt gateway secret: %w", err)
		}
		g.SetSecret(secret)
	}
	return g, nil
}
