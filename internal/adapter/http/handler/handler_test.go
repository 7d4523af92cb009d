package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/internal/core/ports/mocks"
	"btc-payment-gateway/internal/service"
	"btc-payment-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerFixture struct {
	router      *gin.Engine
	store       *mocks.MockGatewayStore
	svc         *mocks.MockGatewayService
	validator   *mocks.MockSignatureValidator
	throttler   *mocks.MockThrottler
	subscribers *service.SubscriberRegistry
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &routerFixture{
		store:       mocks.NewMockGatewayStore(ctrl),
		svc:         mocks.NewMockGatewayService(ctrl),
		validator:   mocks.NewMockSignatureValidator(ctrl),
		throttler:   mocks.NewMockThrottler(ctrl),
		subscribers: service.NewSubscriberRegistry(),
	}
	f.router = SetupRouter(RouterDeps{
		GatewayStore: f.store,
		GatewaySvc:   f.svc,
		Validator:    f.validator,
		Throttler:    f.throttler,
		Subscribers:  f.subscribers,
		Logger:       zerolog.Nop(),
	})
	return f
}

func testGateway() *domain.Gateway {
	return &domain.Gateway{
		ID:                1,
		HashedID:          "hashed-1",
		Name:              "shop",
		Active:            true,
		LastKeychainIndex: 7,
	}
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:            42,
		GatewayID:     1,
		KeychainIndex: 7,
		Address:       "addr-7",
		Amount:        500000,
		Status:        domain.StatusNew,
		PaymentID:     "pay-42",
	}
}

func (f *routerFixture) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateOrder_OK(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()

	f.throttler.EXPECT().Deny(gomock.Any(), "hashed-1", gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().CreateOrder(gomock.Any(), gw, ports.CreateOrderRequest{Amount: 500000}).Return(testOrder(), nil)

	w := f.do(http.MethodPost, "/gateways/hashed-1/orders", url.Values{"amount": {"500000"}})

	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(42), snap.ID)
	assert.Equal(t, 0, snap.Status)
	assert.Equal(t, "addr-7", snap.Address)
	assert.Equal(t, "0.005", snap.AmountInBTC)
	assert.Equal(t, int64(7), snap.LastKeychainID)
}

func TestCreateOrder_UnknownGateway(t *testing.T) {
	f := newRouterFixture(t)

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "nope").Return(nil, nil)

	w := f.do(http.MethodPost, "/gateways/nope/orders", url.Values{"amount": {"100"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOrder_Throttled(t *testing.T) {
	f := newRouterFixture(t)

	f.throttler.EXPECT().Deny(gomock.Any(), "hashed-1", gomock.Any()).Return(true)

	w := f.do(http.MethodPost, "/gateways/hashed-1/orders", url.Values{"amount": {"100"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCreateOrder_InactiveGatewayMapsTo503(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	gw.Active = false

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().CreateOrder(gomock.Any(), gw, gomock.Any()).Return(nil, apperror.ErrGatewayInactive())

	w := f.do(http.MethodPost, "/gateways/hashed-1/orders", url.Values{"amount": {"100"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateOrder_SignedGatewayRequiresHeaders(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	gw.CheckSignature = true

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)

	w := f.do(http.MethodPost, "/gateways/hashed-1/orders", url.Values{"amount": {"100"}})
	assert.Equal(t, http.StatusConflict, w.Code, "missing X-Nonce/X-Signature")
}

func TestCreateOrder_SignedGatewayHeadersValidated(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	gw.CheckSignature = true

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.validator.EXPECT().
		Validate(gomock.Any(), gw, http.MethodPost, "/gateways/hashed-1/orders", "5", gomock.Any(), "sig").
		Return(nil)
	f.svc.EXPECT().CreateOrder(gomock.Any(), gw, gomock.Any()).Return(testOrder(), nil)

	form := url.Values{"amount": {"500000"}}
	req := httptest.NewRequest(http.MethodPost, "/gateways/hashed-1/orders", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Nonce", "5")
	req.Header.Set("X-Signature", "sig")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShowOrder_OK(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().FindOrder(gomock.Any(), gw, "42").Return(testOrder(), nil)

	w := f.do(http.MethodGet, "/gateways/hashed-1/orders/42", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "pay-42", snap.PaymentID)
}

func TestShowOrder_NotFound(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().FindOrder(gomock.Any(), gw, "999").Return(nil, apperror.ErrOrderNotFound())

	w := f.do(http.MethodGet, "/gateways/hashed-1/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelOrder_OK(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	order := testOrder()

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().FindOrder(gomock.Any(), gw, "42").Return(order, nil)
	f.svc.EXPECT().CancelOrder(gomock.Any(), gw, order, "").Return(nil)

	w := f.do(http.MethodPost, "/gateways/hashed-1/orders/42/cancel", url.Values{})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelOrder_Conflict(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	order := testOrder()
	order.Status = domain.StatusCanceled

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().FindOrder(gomock.Any(), gw, "42").Return(order, nil)
	f.svc.EXPECT().CancelOrder(gomock.Any(), gw, order, "").Return(apperror.ErrOrderNotCancelable())

	w := f.do(http.MethodPost, "/gateways/hashed-1/orders/42/cancel", url.Values{})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLastKeychainID(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)

	w := f.do(http.MethodGet, "/gateways/hashed-1/last_keychain_id", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "hashed-1", body["gateway_id"])
	assert.Equal(t, float64(7), body["last_keychain_id"])
}

func TestOrderCounters_DisabledByDefault(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)

	w := f.do(http.MethodGet, "/gateways/hashed-1/order_counters", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "SYS_002")
}

func TestOrderCounters_ReportsTallies(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockGatewayStore(ctrl)
	router := SetupRouter(RouterDeps{
		GatewayStore: store,
		Subscribers:  service.NewSubscriberRegistry(),
		Counters:     staticCounters{domain.StatusNew: 3, domain.StatusPaid: 2},
		CountOrders:  true,
		Logger:       zerolog.Nop(),
	})

	store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(testGateway(), nil)

	req := httptest.NewRequest(http.MethodGet, "/gateways/hashed-1/order_counters", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body["new"])
	assert.Equal(t, int64(2), body["paid"])
}

type staticCounters map[domain.OrderStatus]int64

func (s staticCounters) IncrementOrderCounter(context.Context, int64, domain.OrderStatus, int64) error {
	return nil
}

func (s staticCounters) OrderCounters(context.Context, int64) (map[domain.OrderStatus]int64, error) {
	return s, nil
}

func TestWebsocket_RejectsSettledOrder(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	order := testOrder()
	order.Status = domain.StatusPaid

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().FindOrder(gomock.Any(), gw, "42").Return(order, nil)

	w := f.do(http.MethodGet, "/gateways/hashed-1/orders/42/websocket", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWebsocket_RejectsSecondSubscriber(t *testing.T) {
	f := newRouterFixture(t)
	gw := testGateway()
	order := testOrder()

	_, err := f.subscribers.Add(order)
	require.NoError(t, err)

	f.throttler.EXPECT().Deny(gomock.Any(), gomock.Any(), gomock.Any()).Return(false)
	f.store.EXPECT().FindByHashedID(gomock.Any(), "hashed-1").Return(gw, nil)
	f.svc.EXPECT().FindOrder(gomock.Any(), gw, "42").Return(order, nil)

	w := f.do(http.MethodGet, "/gateways/hashed-1/orders/42/websocket", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthCheck_Degraded(t *testing.T) {
	failing := failingChecker{}
	router := SetupRouter(RouterDeps{
		GatewayStore:   nil,
		GatewaySvc:     nil,
		Validator:      nil,
		Subscribers:    service.NewSubscriberRegistry(),
		HealthCheckers: []ports.HealthChecker{failing},
		Logger:         zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

type failingChecker struct{}

func (failingChecker) Ping(context.Context) error { return assert.AnError }
func (failingChecker) Name() string               { return "postgresql" }
