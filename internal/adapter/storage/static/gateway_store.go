// Package static implements the config-file flavour of gateway storage.
// Gateways are declared in the YAML config; the only mutable piece of state,
// the keychain high-water mark, persists to a small counter file per gateway.
package static

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"btc-payment-gateway/config"
	"btc-payment-gateway/internal/core/domain"
)

// GatewayStore implements ports.GatewayStore from the config file. Gateway
// ids are 1-based positions in the static list.
type GatewayStore struct {
	dir      string
	gateways []*domain.Gateway

	mu sync.Mutex // guards counter-file writes and LastKeychainIndex
}

// NewGatewayStore builds the store from the static gateway definitions.
// Counter files in dir override the in-config starting index of zero.
func NewGatewayStore(cfg config.GatewaysConfig, serverSecret string) (*GatewayStore, error) {
	s := &GatewayStore{dir: cfg.Dir}
	now := time.Now().UTC()

	for i, sg := range cfg.Static {
		id := int64(i + 1)
		gw := &domain.Gateway{
			ID:                       id,
			HashedID:                 domain.HashGatewayID(serverSecret, strconv.FormatInt(id, 10)),
			Name:                     sg.Name,
			PubKey:                   sg.PubKey,
			ConfirmationsRequired:    sg.ConfirmationsRequired,
			CheckSignature:           sg.CheckSignature,
			Active:                   sg.Active,
			CallbackURL:              sg.CallbackURL,
			DefaultCurrency:          sg.DefaultCurrency,
			ReuseThreshold:           sg.ReuseThreshold,
			OrderExpirationSeconds:   sg.OrderExpirationSeconds,
			ExchangeRateAdapterNames: sg.ExchangeRateAdapterNames,
			TestMode:                 sg.TestMode,
			CreatedAt:                now,
			UpdatedAt:                now,
		}
		gw.SetSecret(sg.Secret)

		index, err := s.readCounterFile(gw.Name)
		if err != nil {
			return nil, err
		}
		gw.LastKeychainIndex = index

		s.gateways = append(s.gateways, gw)
	}
	return s, nil
}

// FindByID returns a copy of the gateway with the given 1-based id, or nil.
// Copies keep request handlers from reading LastKeychainIndex while the store
// advances it under its own lock.
func (s *GatewayStore) FindByID(_ context.Context, id int64) (*domain.Gateway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > int64(len(s.gateways)) {
		return nil, nil
	}
	cp := *s.gateways[id-1]
	return &cp, nil
}

// FindByHashedID resolves the route token. For config-file gateways a plain
// numeric id is accepted too, matching how static setups address gateways.
func (s *GatewayStore) FindByHashedID(ctx context.Context, hashedID string) (*domain.Gateway, error) {
	s.mu.Lock()
	for _, gw := range s.gateways {
		if gw.HashedID == hashedID {
			cp := *gw
			s.mu.Unlock()
			return &cp, nil
		}
	}
	s.mu.Unlock()

	if id, err := strconv.ParseInt(hashedID, 10, 64); err == nil {
		return s.FindByID(ctx, id)
	}
	return nil, nil
}

// UpdateLastKeychainIndex raises the gateway's derivation high-water mark and
// persists it so restarts never hand out a previously issued index.
func (s *GatewayStore) UpdateLastKeychainIndex(_ context.Context, gatewayID int64, index int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gatewayID < 1 || gatewayID > int64(len(s.gateways)) {
		return fmt.Errorf("gateway not found: %d", gatewayID)
	}
	gw := s.gateways[gatewayID-1]
	if index <= gw.LastKeychainIndex {
		return nil
	}
	gw.LastKeychainIndex = index
	gw.UpdatedAt = time.Now().UTC()

	return os.WriteFile(s.counterFile(gw.Name), []byte(strconv.FormatInt(index, 10)), 0o644)
}

// ClaimNextKeychainIndex advances the gateway's derivation counter by one and
// persists it, returning the claimed index. Claims are serialized under the
// store lock so concurrent creators always receive distinct indexes.
func (s *GatewayStore) ClaimNextKeychainIndex(_ context.Context, gatewayID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gatewayID < 1 || gatewayID > int64(len(s.gateways)) {
		return 0, fmt.Errorf("gateway not found: %d", gatewayID)
	}
	gw := s.gateways[gatewayID-1]
	index := gw.LastKeychainIndex + 1

	if err := os.WriteFile(s.counterFile(gw.Name), []byte(strconv.FormatInt(index, 10)), 0o644); err != nil {
		return 0, fmt.Errorf("persist keychain counter for %s: %w", gw.Name, err)
	}
	gw.LastKeychainIndex = index
	gw.UpdatedAt = time.Now().UTC()
	return index, nil
}

func (s *GatewayStore) counterFile(name string) string {
	return filepath.Join(s.dir, name+"_last_keychain_index")
}

func (s *GatewayStore) readCounterFile(name string) (int64, error) {
	raw, err := os.ReadFile(s.counterFile(name))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read keychain counter for %s: %w", name, err)
	}
	index, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse keychain counter for %s: %w", name, err)
	}
	return index, nil
}
