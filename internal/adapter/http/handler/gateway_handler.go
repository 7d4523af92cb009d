package handler

import (
	"net/http"

	"btc-payment-gateway/internal/adapter/http/dto"
	"btc-payment-gateway/internal/adapter/http/middleware"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/pkg/apperror"
	"btc-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// GatewayHandler handles gateway-scoped utility endpoints.
type GatewayHandler struct {
	counters    ports.CounterStore
	countOrders bool
}

// NewGatewayHandler creates a new GatewayHandler.
func NewGatewayHandler(counters ports.CounterStore, countOrders bool) *GatewayHandler {
	return &GatewayHandler{counters: counters, countOrders: countOrders}
}

// LastKeychainID handles GET /gateways/:hashed_id/last_keychain_id.
func (h *GatewayHandler) LastKeychainID(c *gin.Context) {
	gw := middleware.MustGateway(c)
	response.OK(c, dto.LastKeychainIDResponse{
		GatewayID:      gw.HashedID,
		LastKeychainID: gw.LastKeychainIndex,
	})
}

// OrderCounters handles GET /gateways/:hashed_id/order_counters, reporting
// the gateway's per-status order tallies.
func (h *GatewayHandler) OrderCounters(c *gin.Context) {
	gw := middleware.MustGateway(c)

	if !h.countOrders || h.counters == nil {
		response.Error(c, apperror.ErrOrderCountersDisabled())
		return
	}

	tallies, err := h.counters.OrderCounters(c.Request.Context(), gw.ID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	out := make(map[string]int64, len(tallies))
	for status, n := range tallies {
		out[status.String()] = n
	}
	response.OK(c, out)
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
