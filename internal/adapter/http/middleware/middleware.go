package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/pkg/apperror"
	"btc-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Header names for signed requests
	HeaderSignature = "X-Signature"
	HeaderNonce     = "X-Nonce"

	// Context keys
	CtxGateway = "gateway"
)

// LoadGateway resolves the :hashed_id route parameter into a gateway and
// stores it on the context. Unknown tokens 404.
func LoadGateway(store ports.GatewayStore, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		gw, err := store.FindByHashedID(c.Request.Context(), c.Param("hashed_id"))
		if err != nil {
			log.Error().Err(err).Msg("gateway lookup failed")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if gw == nil {
			response.Error(c, apperror.ErrGatewayNotFound())
			c.Abort()
			return
		}
		c.Set(CtxGateway, gw)
		c.Next()
	}
}

// Throttle rejects requests over the per-gateway+IP budget with 429. Keyed
// by the route token so it runs before the gateway is even loaded.
func Throttle(throttler ports.Throttler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if throttler.Deny(c.Request.Context(), c.Param("hashed_id"), c.ClientIP()) {
			response.Error(c, apperror.ErrThrottled())
			c.Abort()
			return
		}
		c.Next()
	}
}

// SignatureAuth verifies the X-Nonce / X-Signature headers for gateways that
// require signed requests. Pipeline: nonce freshness, then HMAC match.
// Must run after LoadGateway.
func SignatureAuth(validator ports.SignatureValidator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		gw := MustGateway(c)
		if !gw.CheckSignature {
			c.Next()
			return
		}

		nonce := c.GetHeader(HeaderNonce)
		signature := c.GetHeader(HeaderSignature)
		if nonce == "" || signature == "" {
			response.Error(c, apperror.ErrInvalidSignature())
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, apperror.ErrOrderValidationFailed("cannot read request body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		if err := validator.Validate(c.Request.Context(), gw, c.Request.Method, c.Request.URL.RequestURI(), nonce, body, signature); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// MustGateway returns the gateway placed on the context by LoadGateway.
func MustGateway(c *gin.Context) *domain.Gateway {
	return c.MustGet(CtxGateway).(*domain.Gateway)
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize limits the request body to n bytes.
func MaxBodySize(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
