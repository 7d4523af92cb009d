package handler

import (
	"btc-payment-gateway/internal/adapter/http/middleware"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	GatewayStore   ports.GatewayStore
	GatewaySvc     ports.GatewayService
	Validator      ports.SignatureValidator
	Throttler      ports.Throttler // nil = throttling disabled
	Subscribers    *service.SubscriberRegistry
	Counters       ports.CounterStore
	CountOrders    bool
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	throttle := func(c *gin.Context) { c.Next() }
	if deps.Throttler != nil {
		throttle = middleware.Throttle(deps.Throttler)
	}
	loadGateway := middleware.LoadGateway(deps.GatewayStore, deps.Logger)
	signatureAuth := middleware.SignatureAuth(deps.Validator, deps.Logger)

	orderHandler := NewOrderHandler(deps.GatewaySvc)
	gatewayHandler := NewGatewayHandler(deps.Counters, deps.CountOrders)
	wsHandler := NewWebsocketHandler(deps.GatewaySvc, deps.Subscribers, deps.Logger)

	gateways := r.Group("/gateways/:hashed_id", throttle, loadGateway)
	{
		gateways.POST("/orders", signatureAuth, orderHandler.Create)
		gateways.GET("/orders/:id", orderHandler.Show)
		gateways.POST("/orders/:id/cancel", signatureAuth, orderHandler.Cancel)
		gateways.GET("/orders/:id/websocket", wsHandler.Watch)
		gateways.GET("/last_keychain_id", gatewayHandler.LastKeychainID)
		gateways.GET("/order_counters", gatewayHandler.OrderCounters)
	}

	return r
}
