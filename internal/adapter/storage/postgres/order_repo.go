package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"btc-payment-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, gateway_id, keychain_index, address, amount, amount_paid, status,
	reused_count, payment_id, tid, description, data, callback_data,
	callback_response_code, callback_response_body, test_mode, created_at, updated_at`

// Create inserts a new order and fills in its generated id.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	var data []byte
	if o.Data != nil {
		var err error
		data, err = json.Marshal(o.Data)
		if err != nil {
			return fmt.Errorf("marshal order data: %w", err)
		}
	}

	query := `INSERT INTO orders (gateway_id, keychain_index, address, amount, amount_paid, status,
		reused_count, payment_id, tid, description, data, callback_data, test_mode, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		o.GatewayID, o.KeychainIndex, o.Address, o.Amount, o.AmountPaid, o.Status,
		o.ReusedCount, o.PaymentID, o.TID, o.Description, data, o.CallbackData,
		o.TestMode, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// FindByID fetches one of the gateway's orders by numeric id.
func (r *OrderRepo) FindByID(ctx context.Context, gatewayID int64, id int64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE gateway_id = $1 AND id = $2`, orderColumns)
	return r.scanOrder(r.pool.QueryRow(ctx, query, gatewayID, id))
}

// FindByPaymentID fetches one of the gateway's orders by its opaque token.
func (r *OrderRepo) FindByPaymentID(ctx context.Context, gatewayID int64, paymentID string) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE gateway_id = $1 AND payment_id = $2`, orderColumns)
	return r.scanOrder(r.pool.QueryRow(ctx, query, gatewayID, paymentID))
}

// UpdateStatus persists a status transition with the observed amounts.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET status = $1, amount_paid = $2, tid = $3, updated_at = $4 WHERE id = $5`

	tag, err := r.pool.Exec(ctx, query, o.Status, o.AmountPaid, o.TID, time.Now().UTC(), o.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %d", o.ID)
	}
	return nil
}

// SetCallbackResponse records the outcome of the latest webhook attempt.
func (r *OrderRepo) SetCallbackResponse(ctx context.Context, orderID int64, resp domain.CallbackResponse) error {
	query := `UPDATE orders SET callback_response_code = $1, callback_response_body = $2, updated_at = $3 WHERE id = $4`

	_, err := r.pool.Exec(ctx, query, resp.Code, resp.Body, time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("set callback response: %w", err)
	}
	return nil
}

// ReuseScanPage returns one page of the gateway's orders in descending
// (keychain_index, reused_count) order, as consumed by the address-reuse scan.
func (r *OrderRepo) ReuseScanPage(ctx context.Context, gatewayID int64, limit, offset int) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE gateway_id = $1
		ORDER BY keychain_index DESC, reused_count DESC LIMIT $2 OFFSET $3`, orderColumns)

	rows, err := r.pool.Query(ctx, query, gatewayID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("reuse scan page: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := r.scanOrderRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reuse scan rows: %w", err)
	}
	return orders, nil
}

// AddressExists reports whether the gateway already issued the address to an
// order at reuse generation maxReused or later. Generations below maxReused
// don't count: they are the very run being extended.
func (r *OrderRepo) AddressExists(ctx context.Context, gatewayID int64, address string, maxReused int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM orders WHERE gateway_id = $1 AND address = $2 AND reused_count >= $3)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, gatewayID, address, maxReused).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("address exists: %w", err)
	}
	return exists, nil
}

func (r *OrderRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	o, err := scanOrderFrom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) scanOrderRow(rows pgx.Rows) (*domain.Order, error) {
	return scanOrderFrom(rows)
}

func scanOrderFrom(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	var (
		data     []byte
		respCode *int
		respBody *string
	)
	err := row.Scan(
		&o.ID, &o.GatewayID, &o.KeychainIndex, &o.Address, &o.Amount, &o.AmountPaid, &o.Status,
		&o.ReusedCount, &o.PaymentID, &o.TID, &o.Description, &data, &o.CallbackData,
		&respCode, &respBody, &o.TestMode, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &o.Data); err != nil {
			return nil, fmt.Errorf("unmarshal order data: %w", err)
		}
	}
	if respCode != nil {
		o.CallbackResponse = &domain.CallbackResponse{Code: *respCode}
		if respBody != nil {
			o.CallbackResponse.Body = *respBody
		}
	}
	return o, nil
}
