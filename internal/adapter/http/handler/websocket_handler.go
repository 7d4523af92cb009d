package handler

import (
	"net/http"
	"time"

	"btc-payment-gateway/internal/adapter/http/middleware"
	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/internal/service"
	"btc-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebsocketHandler upgrades order-watch requests and bridges the order's
// push subscription onto the socket.
type WebsocketHandler struct {
	gatewaySvc  ports.GatewayService
	subscribers *service.SubscriberRegistry
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

// NewWebsocketHandler creates a new WebsocketHandler.
func NewWebsocketHandler(gatewaySvc ports.GatewayService, subscribers *service.SubscriberRegistry, log zerolog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		gatewaySvc:  gatewaySvc,
		subscribers: subscribers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// payment widgets embed on arbitrary merchant pages
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Watch handles GET /gateways/:hashed_id/orders/:id/websocket. The client
// receives a single order snapshot on the next status change, then the
// socket closes.
func (h *WebsocketHandler) Watch(c *gin.Context) {
	gw := middleware.MustGateway(c)

	order, err := h.gatewaySvc.FindOrder(c.Request.Context(), gw, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	ch, err := h.subscribers.Add(order)
	if err != nil {
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.subscribers.Remove(order.ID)
		h.log.Warn().Err(err).Int64("order_id", order.ID).Msg("websocket upgrade failed")
		return
	}

	go h.serve(conn, order.ID, ch)
}

func (h *WebsocketHandler) serve(conn *websocket.Conn, orderID int64, ch <-chan domain.Snapshot) {
	defer conn.Close()

	// detect client disconnects so the subscriber slot frees up
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case snap, ok := <-ch:
		if !ok {
			return
		}
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(snap); err != nil {
			h.log.Warn().Err(err).Int64("order_id", orderID).Msg("websocket push failed")
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	case <-closed:
		h.subscribers.Remove(orderID)
	}
}
