package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the numeric order state. The integer values are part of the
// wire contract (clients switch on them) and must not be renumbered.
type OrderStatus int

const (
	StatusNew         OrderStatus = 0
	StatusUnconfirmed OrderStatus = 1
	StatusPaid        OrderStatus = 2
	StatusUnderpaid   OrderStatus = 3
	StatusOverpaid    OrderStatus = 4
	StatusExpired     OrderStatus = 5
	StatusCanceled    OrderStatus = 6
)

// String returns the canonical lowercase name used in counter keys and logs.
func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusUnconfirmed:
		return "unconfirmed"
	case StatusPaid:
		return "paid"
	case StatusUnderpaid:
		return "underpaid"
	case StatusOverpaid:
		return "overpaid"
	case StatusExpired:
		return "expired"
	case StatusCanceled:
		return "canceled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// OrderStatuses lists every state, in wire order.
var OrderStatuses = []OrderStatus{
	StatusNew, StatusUnconfirmed, StatusPaid, StatusUnderpaid,
	StatusOverpaid, StatusExpired, StatusCanceled,
}

// IsFinal reports whether no further blockchain-driven transition is
// expected. Underpaid and unconfirmed orders remain under observation.
func (s OrderStatus) IsFinal() bool {
	switch s {
	case StatusPaid, StatusOverpaid, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

// CallbackResponse records the last webhook delivery outcome, observable by
// the merchant on subsequent reads even when delivery ultimately failed.
type CallbackResponse struct {
	Code int    `json:"code"`
	Body string `json:"body"`
}

// Order is one payment request: a deterministic receiving address, an
// expected amount in satoshis and a time-bounded settlement state.
type Order struct {
	ID               int64             `json:"id"`
	GatewayID        int64             `json:"gateway_id"`
	KeychainIndex    int64             `json:"keychain_id"`
	Address          string            `json:"address"`
	Amount           int64             `json:"amount"` // satoshis
	AmountPaid       int64             `json:"amount_paid"`
	Status           OrderStatus       `json:"status"`
	ReusedCount      int               `json:"reused_count"`
	PaymentID        string            `json:"payment_id"`
	TID              string            `json:"tid"` // transaction id of the first observed payment
	Description      string            `json:"description"`
	Data             map[string]string `json:"data,omitempty"`
	CallbackData     string            `json:"callback_data,omitempty"`
	CallbackResponse *CallbackResponse `json:"callback_response,omitempty"`
	TestMode         bool              `json:"test_mode"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Cancelable reports whether a merchant-initiated cancel is still allowed.
func (o *Order) Cancelable() bool {
	return o.Status == StatusNew
}

// TimeLeftBeforeExpiration returns how long the order still has before it
// expires, given the gateway's expiration period plus a global overtime.
// Negative results mean the order's polling window has already closed.
func (o *Order) TimeLeftBeforeExpiration(gw *Gateway, overtime time.Duration, now time.Time) time.Duration {
	deadline := o.CreatedAt.Add(gw.ExpirationPeriod() + overtime)
	return deadline.Sub(now)
}

// AmountInBTC renders a satoshi amount as a BTC decimal string.
func AmountInBTC(satoshis int64) string {
	return decimal.New(satoshis, -8).String()
}

// WireParams builds the query parameters of the webhook callback.
func (o *Order) WireParams(gw *Gateway) url.Values {
	v := url.Values{}
	v.Set("order_id", strconv.FormatInt(o.ID, 10))
	v.Set("amount", strconv.FormatInt(o.Amount, 10))
	v.Set("amount_in_btc", AmountInBTC(o.Amount))
	v.Set("amount_paid_in_btc", AmountInBTC(o.AmountPaid))
	v.Set("status", strconv.Itoa(int(o.Status)))
	v.Set("address", o.Address)
	v.Set("tid", o.TID)
	v.Set("keychain_id", strconv.FormatInt(o.KeychainIndex, 10))
	v.Set("last_keychain_id", strconv.FormatInt(gw.LastKeychainIndex, 10))
	return v
}

// Snapshot is the order's wire form, returned from the HTTP surface and
// pushed to websocket subscribers.
type Snapshot struct {
	ID              int64  `json:"id"`
	PaymentID       string `json:"payment_id"`
	Status          int    `json:"status"`
	Amount          int64  `json:"amount"`
	AmountInBTC     string `json:"amount_in_btc"`
	AmountPaidInBTC string `json:"amount_paid_in_btc"`
	Address         string `json:"address"`
	TID             string `json:"tid"`
	KeychainID      int64  `json:"keychain_id"`
	LastKeychainID  int64  `json:"last_keychain_id"`
	Description     string `json:"description,omitempty"`
}

// Snapshot renders the order for the wire.
func (o *Order) Snapshot(gw *Gateway) Snapshot {
	return Snapshot{
		ID:              o.ID,
		PaymentID:       o.PaymentID,
		Status:          int(o.Status),
		Amount:          o.Amount,
		AmountInBTC:     AmountInBTC(o.Amount),
		AmountPaidInBTC: AmountInBTC(o.AmountPaid),
		Address:         o.Address,
		TID:             o.TID,
		KeychainID:      o.KeychainIndex,
		LastKeychainID:  gw.LastKeychainIndex,
		Description:     o.Description,
	}
}

// ResolveStatus derives the settlement state from on-chain observations.
// total is the sum received by the order's address, confirmations the lowest
// confirmation count among the contributing transactions.
func (o *Order) ResolveStatus(total int64, confirmations int64, gw *Gateway) OrderStatus {
	switch {
	case total <= 0:
		return StatusNew
	case total < o.Amount:
		return StatusUnderpaid
	case total > o.Amount:
		return StatusOverpaid
	case confirmations < int64(gw.ConfirmationsRequired):
		return StatusUnconfirmed
	default:
		return StatusPaid
	}
}
