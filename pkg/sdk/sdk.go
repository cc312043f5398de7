// Package sdk is the public entry point. An SDK instance owns one provider
// for one blockchain, network, and wallet combination; reconfiguring means
// constructing a new instance.
package sdk

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sigweihq/walletkit/pkg/chains"
	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/metrics"
	"github.com/sigweihq/walletkit/pkg/types"
	"github.com/sigweihq/walletkit/pkg/utils"
	"github.com/sigweihq/walletkit/pkg/wallets"
)

type SDK struct {
	base

	cfg      *types.Config
	provider chains.Provider
	log      logger.Logger
	metrics  metrics.Recorder

	httpClient *http.Client
	registry   *wallets.Registry
	bridges    map[string]wallets.ExtensionBridge

	mu      sync.Mutex
	address string
}

// New validates the configuration and builds the provider for the configured
// blockchain. The provider is retained for the SDK's lifetime.
func New(cfg *types.Config, opts ...Option) (*SDK, error) {
	if cfg == nil {
		return nil, &types.ValidationError{Reason: "config is required"}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, &types.ValidationError{Reason: err.Error()}
	}

	blockchain, err := types.ParseBlockchain(cfg.Blockchain)
	if err != nil {
		return nil, err
	}

	s := &SDK{
		base:    base{blockchain: blockchain},
		cfg:     cfg,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.provider == nil {
		provider, err := chains.NewProvider(cfg, s.registry, chains.Options{
			Logger:     s.log,
			HTTPClient: s.httpClient,
			Bridges:    s.bridges,
		})
		if err != nil {
			return nil, err
		}
		s.provider = provider
	}
	return s, nil
}

// record emits one counter increment and one latency observation per
// completed operation.
func (s *SDK) record(op string, start time.Time) {
	labels := map[string]string{"blockchain": string(s.blockchain)}
	s.metrics.IncCounter(op, labels)
	s.metrics.ObserveLatency(op, time.Since(start), labels)
}

func (s *SDK) ensureConnected(op string) error {
	if !s.provider.IsConnected() {
		return &types.NotConnectedError{Op: op}
	}
	return nil
}

// Connect opens the wallet and network sessions and caches the wallet address.
func (s *SDK) Connect(ctx context.Context) (string, error) {
	defer s.record("connect", time.Now())

	address, err := s.provider.Connect(ctx)
	if err != nil {
		return "", s.wrapOp("connect", err)
	}

	s.mu.Lock()
	s.address = address
	s.mu.Unlock()

	s.log.Info("wallet connected", map[string]any{
		"blockchain": string(s.blockchain), "address": address,
	})
	return address, nil
}

// Disconnect closes both sessions and clears the cached address.
func (s *SDK) Disconnect(ctx context.Context) error {
	defer s.record("disconnect", time.Now())

	err := s.provider.Disconnect(ctx)

	s.mu.Lock()
	s.address = ""
	s.mu.Unlock()

	if err != nil {
		return s.wrapOp("disconnect", err)
	}
	return nil
}

// IsActive reports whether the wallet and network sessions are both live.
func (s *SDK) IsActive() bool {
	return s.provider.IsConnected()
}

// GetAddress returns the cached connected address without a wallet round-trip.
func (s *SDK) GetAddress() (string, error) {
	if err := s.ensureConnected("get address"); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address, nil
}

func (s *SDK) GetBlockchain() string {
	return string(s.blockchain)
}

// GetCurrencySymbol returns the native asset symbol for the active chain.
func (s *SDK) GetCurrencySymbol() (string, error) {
	return s.currencySymbol()
}

// IsWalletInstalled polls extension detection a bounded number of times;
// extensions inject their globals asynchronously after page load.
func (s *SDK) IsWalletInstalled() bool {
	for attempt := 0; attempt < constants.WalletDetectAttempts; attempt++ {
		if s.provider.IsWalletInstalled() {
			return true
		}
		if attempt < constants.WalletDetectAttempts-1 {
			time.Sleep(constants.WalletDetectDelay)
		}
	}
	return false
}

// GetBalance returns the native balance in major units. An empty address
// defaults to the connected wallet.
func (s *SDK) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	defer s.record("get_balance", time.Now())

	if err := s.ensureConnected("get balance"); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.provider.GetBalance(ctx, address)
	if err != nil {
		return decimal.Zero, s.wrapOp("get balance", err)
	}
	return balance, nil
}

// GetBalances returns the native balance plus all issued-asset holdings of
// the connected wallet.
func (s *SDK) GetBalances(ctx context.Context) ([]types.Balance, error) {
	defer s.record("get_balances", time.Now())

	if err := s.ensureConnected("get balances"); err != nil {
		return nil, err
	}

	balances, err := s.provider.GetBalances(ctx, "")
	if err != nil {
		return nil, s.wrapOp("get balances", err)
	}
	return balances, nil
}

// SendTransaction submits a payment. Native amounts arrive in major units and
// are converted to the chain's smallest unit here; issued-currency amounts are
// already chain-native decimal strings and pass through unconverted.
func (s *SDK) SendTransaction(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	defer s.record("send_transaction", time.Now())

	if err := s.validateTransactionConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.ensureConnected("send transaction"); err != nil {
		return nil, err
	}

	if cfg.Currency != "" {
		res, err := s.provider.SendCurrency(ctx, cfg)
		if err != nil {
			return nil, s.wrapOp("send transaction", err)
		}
		return res, nil
	}

	smallest, err := utils.ToSmallestUnit(cfg.Amount, s.nativeDecimals())
	if err != nil {
		return nil, &types.ValidationError{Field: "amount", Reason: err.Error()}
	}

	converted := *cfg
	converted.Amount = smallest

	res, err := s.provider.SendTransaction(ctx, &converted)
	if err != nil {
		return nil, s.wrapOp("send transaction", err)
	}
	return res, nil
}

// SendCurrency submits an issued-currency payment. The amount passes through
// unconverted.
func (s *SDK) SendCurrency(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	defer s.record("send_currency", time.Now())

	if err := s.validateTransactionConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Currency == "" {
		return nil, &types.ValidationError{Field: "currency", Reason: "required"}
	}
	if err := s.ensureConnected("send currency"); err != nil {
		return nil, err
	}

	res, err := s.provider.SendCurrency(ctx, cfg)
	if err != nil {
		return nil, s.wrapOp("send currency", err)
	}
	return res, nil
}

// CreateTrustLine establishes a trust line toward an issuer.
func (s *SDK) CreateTrustLine(ctx context.Context, cfg *types.TrustLineConfig) (*types.TransactionResult, error) {
	defer s.record("create_trust_line", time.Now())

	if cfg == nil {
		return nil, &types.ValidationError{Reason: "trust line config is required"}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, &types.ValidationError{Reason: err.Error()}
	}
	if err := s.ensureConnected("create trust line"); err != nil {
		return nil, err
	}

	res, err := s.provider.CreateTrustLine(ctx, cfg)
	if err != nil {
		return nil, s.wrapOp("create trust line", err)
	}
	return res, nil
}

// IssueToken runs the full issuance flow and returns the final distribution
// transaction.
func (s *SDK) IssueToken(ctx context.Context, data *types.TokenIssuanceData) (*types.TransactionResult, error) {
	defer s.record("issue_token", time.Now())

	if data == nil {
		return nil, &types.ValidationError{Reason: "issuance data is required"}
	}
	if err := validate.Struct(data); err != nil {
		return nil, &types.ValidationError{Reason: err.Error()}
	}
	if err := s.ensureConnected("issue token"); err != nil {
		return nil, err
	}

	res, err := s.provider.IssueToken(ctx, data)
	if err != nil {
		return nil, s.wrapOp("issue token", err)
	}
	return res, nil
}

// MintNFT mints a token carrying the config's metadata URI.
func (s *SDK) MintNFT(ctx context.Context, cfg *types.NFTConfig) (*types.TransactionResult, error) {
	defer s.record("mint_nft", time.Now())

	if err := s.validateNFTConfig(cfg); err != nil {
		return nil, err
	}
	if err := s.ensureConnected("mint NFT"); err != nil {
		return nil, err
	}

	res, err := s.provider.MintNFT(ctx, cfg)
	if err != nil {
		return nil, s.wrapOp("mint NFT", err)
	}
	return res, nil
}

// TransferNFT creates a zero-price transfer offer for a token.
func (s *SDK) TransferNFT(ctx context.Context, tokenID, to string) (*types.TransactionResult, error) {
	defer s.record("transfer_nft", time.Now())

	if err := s.validateTransferNFTParams(tokenID, to); err != nil {
		return nil, err
	}
	if err := s.ensureConnected("transfer NFT"); err != nil {
		return nil, err
	}

	res, err := s.provider.TransferNFT(ctx, tokenID, to)
	if err != nil {
		return nil, s.wrapOp("transfer NFT", err)
	}
	return res, nil
}

// GetNFTs lists owned tokens with resolved metadata, annotating prices with
// the chain's currency symbol.
func (s *SDK) GetNFTs(ctx context.Context, address string) ([]types.NFT, error) {
	defer s.record("get_nfts", time.Now())

	if err := s.ensureConnected("get NFTs"); err != nil {
		return nil, err
	}

	nfts, err := s.provider.GetNFTs(ctx, address)
	if err != nil {
		return nil, s.wrapOp("get NFTs", err)
	}

	symbol, err := s.currencySymbol()
	if err != nil {
		return nil, s.wrapOp("get NFTs", err)
	}
	for i := range nfts {
		if nfts[i].Price != "" {
			nfts[i].Price += " " + symbol
		}
	}
	return nfts, nil
}

// SubscribeToEvents registers a callback for a named event. Re-subscribing
// under the same name replaces the callback.
func (s *SDK) SubscribeToEvents(name types.EventName, cb types.EventCallback) error {
	if err := s.ensureConnected("subscribe to events"); err != nil {
		return err
	}
	if cb == nil {
		return &types.ValidationError{Field: "callback", Reason: "required"}
	}
	if err := s.provider.SubscribeToEvents(name, cb); err != nil {
		return s.wrapOp("subscribe to events", err)
	}
	return nil
}

// UnsubscribeFromEvents removes a named subscription.
func (s *SDK) UnsubscribeFromEvents(name types.EventName) error {
	if err := s.ensureConnected("unsubscribe from events"); err != nil {
		return err
	}
	if err := s.provider.UnsubscribeFromEvents(name); err != nil {
		return s.wrapOp("unsubscribe from events", err)
	}
	return nil
}
