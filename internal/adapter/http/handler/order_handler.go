package handler

import (
	"strings"

	"btc-payment-gateway/internal/adapter/http/dto"
	"btc-payment-gateway/internal/adapter/http/middleware"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/pkg/apperror"
	"btc-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles the order lifecycle endpoints.
type OrderHandler struct {
	gatewaySvc ports.GatewayService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(gatewaySvc ports.GatewayService) *OrderHandler {
	return &OrderHandler{gatewaySvc: gatewaySvc}
}

// Create handles POST /gateways/:hashed_id/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	gw := middleware.MustGateway(c)

	var req dto.CreateOrderRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, apperror.ErrOrderValidationFailed(err.Error()))
		return
	}
	data := formData(c)
	if req.Data == nil {
		req.Data = data
	}

	order, err := h.gatewaySvc.CreateOrder(c.Request.Context(), gw, ports.CreateOrderRequest{
		Amount:          req.Amount,
		Currency:        req.Currency,
		BTCDenomination: req.BTCDenomination,
		KeychainID:      req.KeychainID,
		Signature:       req.Signature,
		Data:            req.Data,
		CallbackData:    req.CallbackData,
		Description:     req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order.Snapshot(gw))
}

// Show handles GET /gateways/:hashed_id/orders/:id. :id accepts the numeric
// order id or the payment_id token.
func (h *OrderHandler) Show(c *gin.Context) {
	gw := middleware.MustGateway(c)

	order, err := h.gatewaySvc.FindOrder(c.Request.Context(), gw, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order.Snapshot(gw))
}

// Cancel handles POST /gateways/:hashed_id/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	gw := middleware.MustGateway(c)

	order, err := h.gatewaySvc.FindOrder(c.Request.Context(), gw, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CancelOrderRequest
	_ = c.ShouldBind(&req)

	if err := h.gatewaySvc.CancelOrder(c.Request.Context(), gw, order, req.Signature); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order.Snapshot(gw))
}

// formData collects `data[...]`-style form fields into the order's free-form
// metadata map.
func formData(c *gin.Context) map[string]string {
	if err := c.Request.ParseForm(); err != nil {
		return nil
	}
	var data map[string]string
	for key, values := range c.Request.Form {
		if strings.HasPrefix(key, "data[") && strings.HasSuffix(key, "]") && len(values) > 0 {
			if data == nil {
				data = make(map[string]string)
			}
			data[key[5:len(key)-1]] = values[0]
		}
	}
	return data
}
