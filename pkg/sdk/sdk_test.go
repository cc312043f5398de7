package sdk

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/walletkit/pkg/types"
)

type mockProvider struct {
	blockchain types.Blockchain
	connected  bool
	installed  bool
	address    string

	connectErr error
	balance    decimal.Decimal
	balanceErr error
	nfts       []types.NFT

	sentConfigs     []*types.TransactionConfig
	currencyConfigs []*types.TransactionConfig
	mintConfigs     []*types.NFTConfig
}

func (m *mockProvider) Blockchain() types.Blockchain { return m.blockchain }

func (m *mockProvider) Connect(ctx context.Context) (string, error) {
	if m.connectErr != nil {
		return "", m.connectErr
	}
	m.connected = true
	return m.address, nil
}

func (m *mockProvider) Disconnect(ctx context.Context) error {
	m.connected = false
	return nil
}

func (m *mockProvider) IsConnected() bool { return m.connected }

func (m *mockProvider) WalletInfo() *types.WalletInfo {
	if !m.connected {
		return nil
	}
	return &types.WalletInfo{Address: m.address}
}

func (m *mockProvider) IsWalletInstalled() bool { return m.installed }

func (m *mockProvider) GetBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return m.balance, m.balanceErr
}

func (m *mockProvider) GetBalances(ctx context.Context, address string) ([]types.Balance, error) {
	return []types.Balance{{Currency: "XRP", Value: m.balance.String()}}, nil
}

func (m *mockProvider) SendTransaction(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	m.sentConfigs = append(m.sentConfigs, cfg)
	return &types.TransactionResult{Hash: "ABC123"}, nil
}

func (m *mockProvider) SendCurrency(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error) {
	m.currencyConfigs = append(m.currencyConfigs, cfg)
	return &types.TransactionResult{Hash: "CUR123"}, nil
}

func (m *mockProvider) CreateTrustLine(ctx context.Context, cfg *types.TrustLineConfig) (*types.TransactionResult, error) {
	return &types.TransactionResult{Hash: "TL123"}, nil
}

func (m *mockProvider) IssueToken(ctx context.Context, data *types.TokenIssuanceData) (*types.TransactionResult, error) {
	return &types.TransactionResult{Hash: "ISSUE123"}, nil
}

func (m *mockProvider) MintNFT(ctx context.Context, cfg *types.NFTConfig) (*types.TransactionResult, error) {
	m.mintConfigs = append(m.mintConfigs, cfg)
	return &types.TransactionResult{Hash: "MINT123", NFTID: "000800"}, nil
}

func (m *mockProvider) TransferNFT(ctx context.Context, tokenID, to string) (*types.TransactionResult, error) {
	return &types.TransactionResult{Hash: "XFER123"}, nil
}

func (m *mockProvider) GetNFTs(ctx context.Context, address string) ([]types.NFT, error) {
	return m.nfts, nil
}

func (m *mockProvider) SubscribeToEvents(name types.EventName, cb types.EventCallback) error {
	return nil
}

func (m *mockProvider) UnsubscribeFromEvents(name types.EventName) error { return nil }

func newTestSDK(t *testing.T, p *mockProvider) *SDK {
	t.Helper()
	if p.blockchain == "" {
		p.blockchain = types.BlockchainXRPL
	}
	s, err := New(
		&types.Config{Blockchain: string(p.blockchain), Network: "testnet", Wallet: "gemwallet"},
		WithProvider(p),
	)
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = New(&types.Config{Blockchain: "xrpl"})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = New(&types.Config{Blockchain: "dogecoin", Network: "testnet", Wallet: "gemwallet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported blockchain")
}

func TestConnectCachesAddress(t *testing.T) {
	p := &mockProvider{address: "rSender"}
	s := newTestSDK(t, p)

	addr, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rSender", addr)
	assert.True(t, s.IsActive())

	cached, err := s.GetAddress()
	require.NoError(t, err)
	assert.Equal(t, "rSender", cached)
}

func TestDisconnectClearsCachedAddress(t *testing.T) {
	p := &mockProvider{address: "rSender"}
	s := newTestSDK(t, p)

	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Disconnect(context.Background()))

	assert.False(t, s.IsActive())
	_, err = s.GetAddress()
	var notConnected *types.NotConnectedError
	require.ErrorAs(t, err, &notConnected)
}

func TestConnectWrapsProviderError(t *testing.T) {
	cause := errors.New("user rejected")
	p := &mockProvider{connectErr: cause}
	s := newTestSDK(t, p)

	_, err := s.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
	assert.ErrorIs(t, err, cause)
}

func TestSendTransactionConvertsNativeAmount(t *testing.T) {
	p := &mockProvider{address: "rSender", connected: true}
	s := newTestSDK(t, p)

	_, err := s.SendTransaction(context.Background(), &types.TransactionConfig{
		Recipient: "rRecipient",
		Amount:    "1.5",
	})
	require.NoError(t, err)
	require.Len(t, p.sentConfigs, 1)
	assert.Equal(t, "1500000", p.sentConfigs[0].Amount)
}

func TestSendTransactionIssuedCurrencyPassesAmountThrough(t *testing.T) {
	p := &mockProvider{address: "rSender", connected: true}
	s := newTestSDK(t, p)

	_, err := s.SendTransaction(context.Background(), &types.TransactionConfig{
		Recipient: "rRecipient",
		Amount:    "12.5",
		Currency:  "USD",
		Issuer:    "rIssuer",
	})
	require.NoError(t, err)
	assert.Empty(t, p.sentConfigs)
	require.Len(t, p.currencyConfigs, 1)
	assert.Equal(t, "12.5", p.currencyConfigs[0].Amount)
}

func TestSendTransactionRejectsSubDropPrecision(t *testing.T) {
	p := &mockProvider{address: "rSender", connected: true}
	s := newTestSDK(t, p)

	_, err := s.SendTransaction(context.Background(), &types.TransactionConfig{
		Recipient: "rRecipient",
		Amount:    "0.0000001",
	})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, p.sentConfigs)
}

func TestSendTransactionValidatesBeforeConnectionCheck(t *testing.T) {
	p := &mockProvider{}
	s := newTestSDK(t, p)

	_, err := s.SendTransaction(context.Background(), &types.TransactionConfig{
		Recipient: "rRecipient",
		Amount:    "-5",
	})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestOperationsRequireConnection(t *testing.T) {
	p := &mockProvider{}
	s := newTestSDK(t, p)
	ctx := context.Background()

	var notConnected *types.NotConnectedError

	_, err := s.GetBalance(ctx, "")
	require.ErrorAs(t, err, &notConnected)

	_, err = s.GetBalances(ctx)
	require.ErrorAs(t, err, &notConnected)

	_, err = s.SendTransaction(ctx, &types.TransactionConfig{Recipient: "r", Amount: "1"})
	require.ErrorAs(t, err, &notConnected)

	_, err = s.GetNFTs(ctx, "")
	require.ErrorAs(t, err, &notConnected)

	err = s.SubscribeToEvents(types.EventLedgerClosed, func(map[string]any) {})
	require.ErrorAs(t, err, &notConnected)
}

func TestMintNFTFeeBounds(t *testing.T) {
	p := &mockProvider{connected: true}
	s := newTestSDK(t, p)
	ctx := context.Background()

	for _, fee := range []int{-1, 50001} {
		fee := fee
		_, err := s.MintNFT(ctx, &types.NFTConfig{URI: "ipfs://x", TransferFee: &fee})
		var vErr *types.ValidationError
		require.ErrorAs(t, err, &vErr, "fee %d", fee)
	}
	assert.Empty(t, p.mintConfigs)

	for _, fee := range []int{0, 50000} {
		fee := fee
		_, err := s.MintNFT(ctx, &types.NFTConfig{URI: "ipfs://x", TransferFee: &fee})
		require.NoError(t, err, "fee %d", fee)
	}
	assert.Len(t, p.mintConfigs, 2)
}

func TestMintNFTRequiresURI(t *testing.T) {
	p := &mockProvider{connected: true}
	s := newTestSDK(t, p)

	_, err := s.MintNFT(context.Background(), &types.NFTConfig{Name: "no uri"})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestTransferNFTValidatesRecipientShape(t *testing.T) {
	p := &mockProvider{connected: true}
	s := newTestSDK(t, p)
	ctx := context.Background()

	var vErr *types.ValidationError

	_, err := s.TransferNFT(ctx, "", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.ErrorAs(t, err, &vErr)

	_, err = s.TransferNFT(ctx, "tokenid", "  ")
	require.ErrorAs(t, err, &vErr)

	_, err = s.TransferNFT(ctx, "tokenid", "not-an-address")
	require.ErrorAs(t, err, &vErr)

	_, err = s.TransferNFT(ctx, "tokenid", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.NoError(t, err)
}

func TestTransferNFTAptosAddressShape(t *testing.T) {
	p := &mockProvider{blockchain: types.BlockchainAptos, connected: true}
	s := newTestSDK(t, p)
	ctx := context.Background()

	_, err := s.TransferNFT(ctx, "tokenid", "0xabc123")
	require.NoError(t, err)

	var vErr *types.ValidationError
	_, err = s.TransferNFT(ctx, "tokenid", "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.ErrorAs(t, err, &vErr)
}

func TestGetNFTsAnnotatesPrice(t *testing.T) {
	p := &mockProvider{
		connected: true,
		nfts: []types.NFT{
			{ID: "A", Price: "10"},
			{ID: "B"},
		},
	}
	s := newTestSDK(t, p)

	nfts, err := s.GetNFTs(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "10 XRP", nfts[0].Price)
	assert.Empty(t, nfts[1].Price)
}

func TestGetCurrencySymbol(t *testing.T) {
	s := newTestSDK(t, &mockProvider{})
	symbol, err := s.GetCurrencySymbol()
	require.NoError(t, err)
	assert.Equal(t, "XRP", symbol)

	s = newTestSDK(t, &mockProvider{blockchain: types.BlockchainAptos})
	symbol, err = s.GetCurrencySymbol()
	require.NoError(t, err)
	assert.Equal(t, "APT", symbol)
}

func TestGetBlockchain(t *testing.T) {
	s := newTestSDK(t, &mockProvider{})
	assert.Equal(t, "xrpl", s.GetBlockchain())
}

func TestIsWalletInstalledRetriesBounded(t *testing.T) {
	p := &mockProvider{installed: false}
	s := newTestSDK(t, p)
	assert.False(t, s.IsWalletInstalled())

	p.installed = true
	assert.True(t, s.IsWalletInstalled())
}
