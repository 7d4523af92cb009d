package service

import (
	"context"
	"crypto/subtle"
	"strconv"

	"btc-payment-gateway/internal/core/domain"
	"btc-payment-gateway/internal/core/ports"
	"btc-payment-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// SignatureValidatorImpl implements ports.SignatureValidator. The nonce is
// consumed before the signature is checked, so a replayed request burns its
// nonce even when its signature turns out invalid.
type SignatureValidatorImpl struct {
	nonces ports.NonceStore
	log    zerolog.Logger
}

// NewSignatureValidator creates a new SignatureValidatorImpl.
func NewSignatureValidator(nonces ports.NonceStore, log zerolog.Logger) *SignatureValidatorImpl {
	return &SignatureValidatorImpl{nonces: nonces, log: log}
}

// Validate authenticates one signed request against the gateway secret.
func (v *SignatureValidatorImpl) Validate(ctx context.Context, gw *domain.Gateway, method, requestURI, nonce string, body []byte, signature string) error {
	n, err := strconv.ParseInt(nonce, 10, 64)
	if err != nil || n <= 0 {
		return apperror.ErrInvalidNonce()
	}

	ok, err := v.nonces.CheckAndSet(ctx, gw.ID, n)
	if err != nil {
		return apperror.InternalError(err)
	}
	if !ok {
		v.log.Warn().Int64("gateway_id", gw.ID).Int64("nonce", n).Msg("stale nonce rejected")
		return apperror.ErrInvalidNonce()
	}

	expected := RequestSignature(gw.Secret(), method, requestURI, nonce, body)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		v.log.Warn().Int64("gateway_id", gw.ID).Str("uri", requestURI).Msg("request signature mismatch")
		return apperror.ErrInvalidSignature()
	}
	return nil
}
