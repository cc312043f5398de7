// Package aptos implements the Aptos provider. The chain has no trust-line
// or issued-currency model and the SDK does not wire an indexer, so a large
// part of the provider surface fails with an explicit unsupported-operation
// error instead of returning defaults.
package aptos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/types"
	"github.com/sigweihq/walletkit/pkg/wallets"
)

// coinStoreResource is the fullnode resource path holding the native balance.
const coinStoreResource = "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>"

type Provider struct {
	network    types.Network
	endpoint   string
	adapter    wallets.Adapter
	httpClient *http.Client
	log        logger.Logger

	mu         sync.Mutex
	walletInfo *types.WalletInfo
}

type Option func(*Provider)

// WithHTTPClient replaces the fullnode HTTP client (tests inject a server).
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithEndpoint overrides the fullnode endpoint.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) { p.endpoint = endpoint }
}

func NewProvider(network types.Network, adapter wallets.Adapter, log logger.Logger, opts ...Option) *Provider {
	if log == nil {
		log = logger.NoopLogger{}
	}

	endpoint := constants.AptosMainnetEndpoint
	if network == types.NetworkTestnet {
		endpoint = constants.AptosTestnetEndpoint
	}

	p := &Provider{
		network:    network,
		endpoint:   endpoint,
		adapter:    adapter,
		httpClient: &http.Client{Timeout: constants.RequestTimeout},
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Blockchain() types.Blockchain {
	return types.BlockchainAptos
}

func (p *Provider) IsWalletInstalled() bool {
	return p.adapter.IsInstalled()
}

// Connect establishes the wallet session. The network session is stateless
// HTTP against the fullnode, so wallet identity is the whole session.
func (p *Provider) Connect(ctx context.Context) (string, error) {
	if p.IsConnected() {
		return p.WalletInfo().Address, nil
	}

	info, err := p.adapter.Connect(ctx)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.walletInfo = info
	p.mu.Unlock()

	p.log.Info("connected to fullnode", map[string]any{
		"network": string(p.network), "endpoint": p.endpoint, "address": info.Address,
	})
	return info.Address, nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	if err := p.adapter.Disconnect(ctx); err != nil {
		p.log.Warn("wallet disconnect failed", map[string]any{"error": err.Error()})
	}

	p.mu.Lock()
	p.walletInfo = nil
	p.mu.Unlock()
	return nil
}

func (p *Provider) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.walletInfo != nil
}

func (p *Provider) WalletInfo() *types.WalletInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.walletInfo
}

func (p *Provider) requireConnected(op string) error {
	if !p.IsConnected() {
		return &types.NotConnectedError{Op: op}
	}
	return nil
}

// GetBalance returns the APT balance in whole APT. An account without a coin
// store (never funded) reads as zero.
func (p *Provider) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := p.requireConnected("get balance"); err != nil {
		return decimal.Zero, err
	}
	if address == "" {
		address = p.WalletInfo().Address
	}

	resourceURL := fmt.Sprintf("%s/accounts/%s/resource/%s", p.endpoint, address, url.PathEscape(coinStoreResource))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return decimal.Zero, &types.NetworkOperationError{Op: "get balance", Err: err}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, &types.NetworkOperationError{Op: "get balance", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, nil
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return decimal.Zero, &types.NetworkOperationError{
			Op:  "get balance",
			Err: fmt.Errorf("fullnode returned %d: %s", resp.StatusCode, payload),
		}
	}

	var resource struct {
		Data struct {
			Coin struct {
				Value string `json:"value"`
			} `json:"coin"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&resource); err != nil {
		return decimal.Zero, &types.NetworkOperationError{Op: "get balance", Err: err}
	}

	octas, err := decimal.NewFromString(resource.Data.Coin.Value)
	if err != nil {
		return decimal.Zero, &types.NetworkOperationError{Op: "get balance", Err: fmt.Errorf("invalid octas amount: %w", err)}
	}
	return octas.Shift(-constants.AptosDecimals), nil
}

// GetBalances reports only the native asset; Aptos has no trust-line model.
func (p *Provider) GetBalances(ctx context.Context, address string) ([]types.Balance, error) {
	balance, err := p.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	return []types.Balance{{Currency: "APT", Value: balance.String()}}, nil
}

// SendTransaction submits a native APT transfer. The amount arrives already
// converted to an integral octas string.
func (p *Provider) SendTransaction(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	if err := p.requireConnected("send transaction"); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"type":           "entry_function_payload",
		"function":       "0x1::aptos_account::transfer",
		"type_arguments": []string{},
		"arguments":      []any{cfg.Recipient, cfg.Amount},
	}

	res, err := p.adapter.SignAndSubmit(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &types.TransactionResult{Hash: res.Hash, Status: "submitted"}, nil
}

func (p *Provider) SendCurrency(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	return nil, p.unsupported("send issued currency")
}

func (p *Provider) CreateTrustLine(ctx context.Context, cfg *types.TrustLineConfig) (*types.TransactionResult, error) {
	return nil, p.unsupported("create trust line")
}

func (p *Provider) IssueToken(ctx context.Context, data *types.TokenIssuanceData) (*types.TransactionResult, error) {
	return nil, p.unsupported("issue token")
}

// MintNFT submits a digital-asset mint through the wallet extension using the
// config's name, description, and URI.
func (p *Provider) MintNFT(ctx context.Context, cfg *types.NFTConfig) (*types.TransactionResult, error) {
	if err := p.requireConnected("mint NFT"); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"type":           "entry_function_payload",
		"function":       "0x4::aptos_token::mint",
		"type_arguments": []string{},
		"arguments": []any{
			cfg.Name,
			cfg.Description,
			cfg.Name,
			cfg.URI,
			[]string{}, []string{}, []string{},
		},
	}

	res, err := p.adapter.SignAndSubmit(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &types.TransactionResult{Hash: res.Hash, Status: "submitted"}, nil
}

func (p *Provider) TransferNFT(ctx context.Context, tokenID, to string) (*types.TransactionResult, error) {
	return nil, p.unsupported("transfer NFT")
}

func (p *Provider) GetNFTs(ctx context.Context, address string) ([]types.NFT, error) {
	// Token enumeration needs an indexer, which the SDK does not wire.
	return nil, p.unsupported("get NFTs")
}

func (p *Provider) SubscribeToEvents(name types.EventName, cb types.EventCallback) error {
	return p.unsupported("subscribe to events")
}

func (p *Provider) UnsubscribeFromEvents(name types.EventName) error {
	return p.unsupported("unsubscribe from events")
}

func (p *Provider) unsupported(op string) error {
	return &types.UnsupportedOperationError{Op: op, Blockchain: string(types.BlockchainAptos)}
}
