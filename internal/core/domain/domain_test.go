package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestGateway() *Gateway {
	gw := &Gateway{
		ID:                     1,
		ConfirmationsRequired:  1,
		OrderExpirationSeconds: 600,
		LastKeychainIndex:      12,
	}
	gw.SetSecret("secret")
	return gw
}

func TestSignWithSecret_Deterministic(t *testing.T) {
	gw := newTestGateway()

	sig1 := gw.SignWithSecret("42", 1)
	sig2 := gw.SignWithSecret("42", 1)

	assert.Equal(t, sig1, sig2)
	assert.Regexp(t, `^[0-9a-f]{64}$`, sig1)
	assert.NotEqual(t, sig1, gw.SignWithSecret("43", 1))
}

func TestSignWithSecret_Levels(t *testing.T) {
	gw := newTestGateway()

	level1 := gw.SignWithSecret("content", 1)
	level2 := gw.SignWithSecret("content", 2)

	assert.NotEqual(t, level1, level2)
	// level 2 is level 1 signed once more
	assert.Equal(t, gw.SignWithSecret(level1, 1), level2)
}

func TestHashGatewayID(t *testing.T) {
	h := HashGatewayID("server-secret", "1")
	assert.Regexp(t, `^[0-9a-f]{64}$`, h)
	assert.Equal(t, h, HashGatewayID("server-secret", "1"))
	assert.NotEqual(t, h, HashGatewayID("server-secret", "2"))
	assert.NotEqual(t, h, HashGatewayID("other-secret", "1"))
}

func TestOrderStatus_IsFinal(t *testing.T) {
	assert.False(t, StatusNew.IsFinal())
	assert.False(t, StatusUnconfirmed.IsFinal())
	assert.False(t, StatusUnderpaid.IsFinal())
	assert.True(t, StatusPaid.IsFinal())
	assert.True(t, StatusOverpaid.IsFinal())
	assert.True(t, StatusExpired.IsFinal())
	assert.True(t, StatusCanceled.IsFinal())
}

func TestOrder_Cancelable(t *testing.T) {
	o := &Order{Status: StatusNew}
	assert.True(t, o.Cancelable())

	for _, s := range []OrderStatus{StatusUnconfirmed, StatusPaid, StatusUnderpaid, StatusOverpaid, StatusExpired, StatusCanceled} {
		o.Status = s
		assert.False(t, o.Cancelable(), "status %s should not be cancelable", s)
	}
}

func TestOrder_TimeLeftBeforeExpiration(t *testing.T) {
	gw := newTestGateway()
	created := time.Now()
	o := &Order{CreatedAt: created}

	left := o.TimeLeftBeforeExpiration(gw, 0, created.Add(100*time.Second))
	assert.Equal(t, 500*time.Second, left)

	// overtime extends the window
	left = o.TimeLeftBeforeExpiration(gw, 30*time.Second, created.Add(100*time.Second))
	assert.Equal(t, 530*time.Second, left)

	// past the deadline the result goes non-positive
	left = o.TimeLeftBeforeExpiration(gw, 0, created.Add(601*time.Second))
	assert.True(t, left <= 0)
}

func TestAmountInBTC(t *testing.T) {
	assert.Equal(t, "0.00000001", AmountInBTC(1))
	assert.Equal(t, "1", AmountInBTC(100_000_000))
	assert.Equal(t, "0.005", AmountInBTC(500_000))
}

func TestOrder_ResolveStatus(t *testing.T) {
	gw := newTestGateway()
	o := &Order{Amount: 1000}

	assert.Equal(t, StatusNew, o.ResolveStatus(0, 0, gw))
	assert.Equal(t, StatusUnderpaid, o.ResolveStatus(999, 5, gw))
	assert.Equal(t, StatusOverpaid, o.ResolveStatus(1001, 5, gw))
	assert.Equal(t, StatusUnconfirmed, o.ResolveStatus(1000, 0, gw))
	assert.Equal(t, StatusPaid, o.ResolveStatus(1000, 1, gw))
}

func TestOrder_ResolveStatus_ZeroConfirmationsRequired(t *testing.T) {
	gw := newTestGateway()
	gw.ConfirmationsRequired = 0
	o := &Order{Amount: 1000}

	assert.Equal(t, StatusPaid, o.ResolveStatus(1000, 0, gw))
}

func TestOrder_WireParams(t *testing.T) {
	gw := newTestGateway()
	o := &Order{
		ID: 7, Amount: 500_000, AmountPaid: 0, Status: StatusNew,
		Address: "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", KeychainIndex: 13, TID: "",
	}

	params := o.WireParams(gw)
	assert.Equal(t, "7", params.Get("order_id"))
	assert.Equal(t, "500000", params.Get("amount"))
	assert.Equal(t, "0.005", params.Get("amount_in_btc"))
	assert.Equal(t, "0", params.Get("amount_paid_in_btc"))
	assert.Equal(t, "0", params.Get("status"))
	assert.Equal(t, "13", params.Get("keychain_id"))
	assert.Equal(t, "12", params.Get("last_keychain_id"))
}

func TestOrder_Snapshot(t *testing.T) {
	gw := newTestGateway()
	o := &Order{
		ID: 3, PaymentID: "abc", Status: StatusPaid, Amount: 100_000_000,
		AmountPaid: 100_000_000, Address: "addr", TID: "tid1", KeychainIndex: 9,
	}

	snap := o.Snapshot(gw)
	assert.Equal(t, int64(3), snap.ID)
	assert.Equal(t, 2, snap.Status)
	assert.Equal(t, "1", snap.AmountInBTC)
	assert.Equal(t, "1", snap.AmountPaidInBTC)
	assert.Equal(t, int64(12), snap.LastKeychainID)
}
