package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"btc-payment-gateway/internal/core/ports"
)

// BlockchainAdapterConstructor builds a named blockchain adapter.
type BlockchainAdapterConstructor func(client *http.Client) ports.BlockchainAdapter

// blockchainAdapters is the compile-time adapter registry. Config refers to
// adapters by these names.
var blockchainAdapters = map[string]BlockchainAdapterConstructor{
	"Esplora": func(client *http.Client) ports.BlockchainAdapter {
		return NewEsploraAdapter(client)
	},
}

// NewBlockchainAdapter resolves an adapter name from the registry.
func NewBlockchainAdapter(name string, client *http.Client) (ports.BlockchainAdapter, error) {
	ctor, ok := blockchainAdapters[name]
	if !ok {
		return nil, fmt.Errorf("no blockchain adapter named %q", name)
	}
	return ctor(client), nil
}

// MultiBlockchain tries each adapter in order and returns the first
// successful result.
type MultiBlockchain struct {
	adapters []ports.BlockchainAdapter
}

// NewMultiBlockchain wraps a prioritized adapter list.
func NewMultiBlockchain(adapters ...ports.BlockchainAdapter) *MultiBlockchain {
	return &MultiBlockchain{adapters: adapters}
}

func (m *MultiBlockchain) Name() string { return "multi" }

// FetchTransactionsFor queries adapters in order until one answers.
func (m *MultiBlockchain) FetchTransactionsFor(ctx context.Context, address string, testMode bool) ([]ports.AddressTransaction, error) {
	if len(m.adapters) == 0 {
		return nil, errors.New("no blockchain adapters configured")
	}
	var lastErr error
	for _, a := range m.adapters {
		txs, err := a.FetchTransactionsFor(ctx, address, testMode)
		if err == nil {
			return txs, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all blockchain adapters failed: %w", lastErr)
}

// EsploraAdapter reads address transactions from an Esplora-compatible HTTP
// API (blockstream.info and self-hosted instances).
type EsploraAdapter struct {
	client      *http.Client
	mainnetBase string
	testnetBase string
}

// NewEsploraAdapter creates the adapter against the public blockstream API.
func NewEsploraAdapter(client *http.Client) *EsploraAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &EsploraAdapter{
		client:      client,
		mainnetBase: "https://blockstream.info/api",
		testnetBase: "https://blockstream.info/testnet/api",
	}
}

func (e *EsploraAdapter) Name() string { return "Esplora" }

type esploraTx struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
	} `json:"status"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               int64  `json:"value"`
	} `json:"vout"`
}

// FetchTransactionsFor lists payments received by address. Confirmation
// counts need the tip height, fetched alongside.
func (e *EsploraAdapter) FetchTransactionsFor(ctx context.Context, address string, testMode bool) ([]ports.AddressTransaction, error) {
	base := e.mainnetBase
	if testMode {
		base = e.testnetBase
	}

	tip, err := e.tipHeight(ctx, base)
	if err != nil {
		return nil, err
	}

	var txs []esploraTx
	if err := e.getJSON(ctx, fmt.Sprintf("%s/address/%s/txs", base, address), &txs); err != nil {
		return nil, err
	}

	out := make([]ports.AddressTransaction, 0, len(txs))
	for _, tx := range txs {
		var received int64
		for _, vout := range tx.Vout {
			if vout.ScriptPubKeyAddress == address {
				received += vout.Value
			}
		}
		if received == 0 {
			continue
		}
		var confirmations int64
		if tx.Status.Confirmed && tx.Status.BlockHeight > 0 {
			confirmations = tip - tx.Status.BlockHeight + 1
		}
		out = append(out, ports.AddressTransaction{
			TID:           tx.TxID,
			Amount:        received,
			Confirmations: confirmations,
		})
	}
	return out, nil
}

func (e *EsploraAdapter) tipHeight(ctx context.Context, base string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/blocks/tip/height", nil)
	if err != nil {
		return 0, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("esplora tip height: status %d", resp.StatusCode)
	}
	var height int64
	if _, err := fmt.Fscan(resp.Body, &height); err != nil {
		return 0, fmt.Errorf("esplora tip height: %w", err)
	}
	return height, nil
}

func (e *EsploraAdapter) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("esplora %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
