package xrpl

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/currency"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/types"
	"github.com/sigweihq/walletkit/pkg/wallets"
)

// Provider implements the chain provider contract for the XRP Ledger.
type Provider struct {
	network    types.Network
	endpoint   string
	faucetURL  string
	adapter    wallets.Adapter
	client     Client
	newClient  func(endpoint string) Client
	httpClient *http.Client
	log        logger.Logger

	mu         sync.Mutex
	walletInfo *types.WalletInfo

	subsMu sync.Mutex
	subs   map[types.EventName]string
}

type Option func(*Provider)

// WithClient replaces the raw network client (tests inject mocks here).
func WithClient(c Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithClientFactory replaces the constructor used for nested cold-wallet
// sessions during issuance.
func WithClientFactory(f func(endpoint string) Client) Option {
	return func(p *Provider) { p.newClient = f }
}

// WithHTTPClient replaces the HTTP client used for faucet calls and NFT
// metadata retrieval.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithFaucetURL overrides the test-network faucet endpoint.
func WithFaucetURL(u string) Option {
	return func(p *Provider) { p.faucetURL = u }
}

func NewProvider(network types.Network, adapter wallets.Adapter, log logger.Logger, opts ...Option) *Provider {
	if log == nil {
		log = logger.NoopLogger{}
	}

	endpoint := constants.XRPLMainnetEndpoint
	if network == types.NetworkTestnet {
		endpoint = constants.XRPLTestnetEndpoint
	}

	p := &Provider{
		network:    network,
		endpoint:   endpoint,
		faucetURL:  constants.XRPLTestnetFaucet,
		adapter:    adapter,
		httpClient: &http.Client{Timeout: constants.MetadataFetchTimeout},
		log:        log,
		subs:       make(map[types.EventName]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = NewWebSocketClient(p.endpoint, log)
	}
	if p.newClient == nil {
		p.newClient = func(endpoint string) Client {
			return NewWebSocketClient(endpoint, log)
		}
	}
	return p
}

func (p *Provider) Blockchain() types.Blockchain {
	return types.BlockchainXRPL
}

func (p *Provider) IsWalletInstalled() bool {
	return p.adapter.IsInstalled()
}

// Connect brings up the wallet session, then the network session. If the
// network session fails the wallet session is rolled back so a caller never
// observes a half-connected provider.
func (p *Provider) Connect(ctx context.Context) (string, error) {
	if p.IsConnected() {
		return p.WalletInfo().Address, nil
	}

	info, err := p.adapter.Connect(ctx)
	if err != nil {
		return "", err
	}

	if err := p.client.Connect(ctx); err != nil {
		if derr := p.adapter.Disconnect(ctx); derr != nil {
			p.log.Warn("wallet rollback after failed network connect", map[string]any{"error": derr.Error()})
		}
		return "", &types.NetworkOperationError{Op: "connect", Err: err}
	}

	p.mu.Lock()
	p.walletInfo = info
	p.mu.Unlock()

	p.log.Info("connected to ledger", map[string]any{
		"network": string(p.network), "endpoint": p.endpoint, "address": info.Address,
	})
	return info.Address, nil
}

func (p *Provider) Disconnect(ctx context.Context) error {
	if p.client.IsConnected() {
		if err := p.client.Disconnect(ctx); err != nil {
			p.log.Warn("network disconnect failed", map[string]any{"error": err.Error()})
		}
	}

	if err := p.adapter.Disconnect(ctx); err != nil {
		p.log.Warn("wallet disconnect failed", map[string]any{"error": err.Error()})
	}

	p.mu.Lock()
	p.walletInfo = nil
	p.mu.Unlock()

	p.subsMu.Lock()
	p.subs = make(map[types.EventName]string)
	p.subsMu.Unlock()

	return nil
}

func (p *Provider) IsConnected() bool {
	p.mu.Lock()
	hasWallet := p.walletInfo != nil
	p.mu.Unlock()
	return hasWallet && p.client.IsConnected()
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

func dropsToXRP(drops string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(drops)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid drops amount %q: %w", drops, err)
	}
	return d.Shift(-constants.XRPDecimals), nil
}

// GetBalance returns the XRP balance in whole XRP. An account the network has
// never seen reads as zero.
func (p *Provider) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	if err := p.requireConnected("get balance"); err != nil {
		return decimal.Zero, err
	}
	if address == "" {
		address = p.WalletInfo().Address
	}

	result, err := p.client.Request(ctx, map[string]any{
		"command":      "account_info",
		"account":      address,
		"ledger_index": "validated",
	})
	if err != nil {
		if IsRPCErrorCode(err, "actNotFound") {
			return decimal.Zero, nil
		}
		return decimal.Zero, &types.NetworkOperationError{Op: "get balance", Err: err}
	}

	data, _ := result["account_data"].(map[string]any)
	drops, _ := data["Balance"].(string)
	return dropsToXRP(drops)
}

// GetBalances returns the native balance plus every non-zero trust line.
// Non-standard currency codes get a decoded display form; the raw code is
// preserved so it round-trips into later operations.
func (p *Provider) GetBalances(ctx context.Context, address string) ([]types.Balance, error) {
	if err := p.requireConnected("get balances"); err != nil {
		return nil, err
	}
	if address == "" {
		address = p.WalletInfo().Address
	}

	native, err := p.GetBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	balances := []types.Balance{{Currency: "XRP", Value: native.String()}}

	result, err := p.client.Request(ctx, map[string]any{
		"command": "account_lines",
		"account": address,
	})
	if err != nil {
		if IsRPCErrorCode(err, "actNotFound") {
			return balances, nil
		}
		return nil, &types.NetworkOperationError{Op: "get balances", Err: err}
	}

	lines, _ := result["lines"].([]any)
	for _, raw := range lines {
		line, _ := raw.(map[string]any)
		if line == nil {
			continue
		}
		value, _ := line["balance"].(string)
		if value == "" || value == "0" {
			continue
		}

		balance := types.Balance{
			Currency: fmt.Sprint(line["currency"]),
			Value:    value,
			Issuer:   fmt.Sprint(line["account"]),
		}
		if len(balance.Currency) > currency.StandardLength {
			if display, err := currency.ConvertFromHex(balance.Currency); err == nil {
				balance.NonStandardDisplay = display
			}
		}
		balances = append(balances, balance)
	}

	return balances, nil
}

// SendTransaction submits a native XRP payment. The amount arrives already
// converted to an integral drops string.
func (p *Provider) SendTransaction(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	if err := p.requireConnected("send transaction"); err != nil {
		return nil, err
	}

	tx := map[string]any{
		"TransactionType": "Payment",
		"Account":         p.WalletInfo().Address,
		"Destination":     cfg.Recipient,
		"Amount":          cfg.Amount,
	}
	if cfg.DestinationTag != nil {
		tx["DestinationTag"] = *cfg.DestinationTag
	}

	res, err := p.adapter.SignAndSubmit(ctx, tx)
	if err != nil {
		return nil, err
	}
	return resultFromSubmit(res), nil
}

// SendCurrency submits an issued-currency payment. The recipient must already
// hold a trust line for the currency from the issuer; submitting without one
// would burn a fee on a transaction doomed to fail on-chain.
func (p *Provider) SendCurrency(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	if err := p.requireConnected("send currency"); err != nil {
		return nil, err
	}
	if cfg.Currency == "" || cfg.Issuer == "" {
		return nil, &types.ValidationError{Field: "currency/issuer", Reason: "issued-currency payments require both"}
	}

	hasLine, err := p.recipientHasTrustLine(ctx, cfg.Recipient, cfg.Currency, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	if !hasLine {
		return nil, fmt.Errorf("recipient %s needs a trust line for %s from issuer %s before it can receive the currency",
			cfg.Recipient, cfg.Currency, cfg.Issuer)
	}

	tx := map[string]any{
		"TransactionType": "Payment",
		"Account":         p.WalletInfo().Address,
		"Destination":     cfg.Recipient,
		"Amount": map[string]any{
			"currency": currency.WireCode(cfg.Currency),
			"issuer":   cfg.Issuer,
			"value":    cfg.Amount,
		},
	}
	if cfg.DestinationTag != nil {
		tx["DestinationTag"] = *cfg.DestinationTag
	}

	res, err := p.adapter.SignAndSubmit(ctx, tx)
	if err != nil {
		return nil, err
	}
	return resultFromSubmit(res), nil
}

func (p *Provider) recipientHasTrustLine(ctx context.Context, recipient, code, issuer string) (bool, error) {
	result, err := p.client.Request(ctx, map[string]any{
		"command": "account_lines",
		"account": recipient,
		"peer":    issuer,
	})
	if err != nil {
		if IsRPCErrorCode(err, "actNotFound") {
			return false, nil
		}
		return false, &types.NetworkOperationError{Op: "check trust line", Err: err}
	}

	wire := currency.WireCode(code)
	lines, _ := result["lines"].([]any)
	for _, raw := range lines {
		line, _ := raw.(map[string]any)
		if line == nil {
			continue
		}
		lineCode := fmt.Sprint(line["currency"])
		if lineCode == code || lineCode == wire {
			return true, nil
		}
	}
	return false, nil
}

// CreateTrustLine establishes a trust line toward an issuer, defaulting the
// limit when the caller leaves it empty.
func (p *Provider) CreateTrustLine(ctx context.Context, cfg *types.TrustLineConfig) (*types.TransactionResult, error) {
	if err := p.requireConnected("create trust line"); err != nil {
		return nil, err
	}

	limit := cfg.Limit
	if limit == "" {
		limit = constants.DefaultTrustLineLimit
	}

	tx := map[string]any{
		"TransactionType": "TrustSet",
		"Account":         p.WalletInfo().Address,
		"LimitAmount": map[string]any{
			"currency": currency.WireCode(cfg.Currency),
			"issuer":   cfg.Issuer,
			"value":    limit,
		},
	}

	res, err := p.adapter.SignAndSubmit(ctx, tx)
	if err != nil {
		return nil, err
	}
	return resultFromSubmit(res), nil
}

func resultFromSubmit(res *types.SubmitResult) *types.TransactionResult {
	result := &types.TransactionResult{Hash: res.Hash, Status: "submitted"}
	if status, ok := res.Meta["TransactionResult"].(string); ok && status != "" {
		result.Status = status
	}
	return result
}
