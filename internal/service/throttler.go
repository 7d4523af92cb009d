package service

import (
	"context"
	"fmt"
	"time"

	"btc-payment-gateway/config"
	"btc-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// ThrottlerImpl implements ports.Throttler: a fixed-window request counter
// per gateway+IP, with an optional IP-wide ban once the window overflows.
// Zero limit or period disables throttling; zero ban duration disables bans.
type ThrottlerImpl struct {
	store ports.ThrottleStore
	cfg   config.ThrottleConfig
	log   zerolog.Logger

	now func() time.Time
}

// NewThrottler creates a new ThrottlerImpl.
func NewThrottler(store ports.ThrottleStore, cfg config.ThrottleConfig, log zerolog.Logger) *ThrottlerImpl {
	return &ThrottlerImpl{store: store, cfg: cfg, log: log, now: time.Now}
}

// Deny reports whether the request should be rejected. Store errors fail
// open: a broken counter must not take order intake down with it.
func (t *ThrottlerImpl) Deny(ctx context.Context, gatewayID string, ip string) bool {
	if t.banned(ctx, ip) {
		return true
	}
	if t.cfg.RequestsLimit <= 0 || t.cfg.Period <= 0 {
		return false
	}

	period := int64(t.cfg.Period / time.Second)
	window := t.now().Unix() / period
	key := fmt.Sprintf("gateway_%s:%d_%d:%d:%s", gatewayID, period, t.cfg.RequestsLimit, window, ip)

	// windows linger for twice the period so a burst straddling the
	// boundary still counts against the previous window's key
	n, err := t.store.IncrWindow(ctx, key, 2*period)
	if err != nil {
		t.log.Warn().Err(err).Str("ip", ip).Msg("throttle counter unavailable")
		return false
	}
	if n <= int64(t.cfg.RequestsLimit) {
		return false
	}

	if t.cfg.IPBanDuration > 0 {
		bannedAt := t.now().Unix()
		if err := t.store.Ban(ctx, ip, bannedAt, int64(t.cfg.IPBanDuration/time.Second)); err != nil {
			t.log.Warn().Err(err).Str("ip", ip).Msg("failed to record IP ban")
		} else {
			t.log.Info().Str("ip", ip).Int64("requests", n).Msg("IP banned for exceeding request limit")
		}
	}
	return true
}

func (t *ThrottlerImpl) banned(ctx context.Context, ip string) bool {
	if t.cfg.IPBanDuration <= 0 {
		return false
	}
	at, err := t.store.BannedAt(ctx, ip)
	if err != nil {
		t.log.Warn().Err(err).Str("ip", ip).Msg("ban lookup unavailable")
		return false
	}
	return at > 0
}
