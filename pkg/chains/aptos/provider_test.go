package aptos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/walletkit/pkg/types"
	"github.com/sigweihq/walletkit/pkg/wallets/petra"
)

type mockBridge struct {
	detect    bool
	detectErr error
	address   string
	calls     []string
	callResp  map[string]any
	callErr   error
}

func (m *mockBridge) Detect(ctx context.Context) (bool, error) {
	return m.detect, m.detectErr
}

func (m *mockBridge) RequestAddress(ctx context.Context) (string, string, string, error) {
	return m.address, "pubkey", "testnet", nil
}

func (m *mockBridge) Call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	m.calls = append(m.calls, method)
	if m.callErr != nil {
		return nil, m.callErr
	}
	return m.callResp, nil
}

func connectedProvider(t *testing.T, bridge *mockBridge, opts ...Option) *Provider {
	t.Helper()
	p := NewProvider(types.NetworkTestnet, petra.New(bridge, nil), nil, opts...)
	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	return p
}

func TestConnectStoresWalletInfo(t *testing.T) {
	bridge := &mockBridge{detect: true, address: "0xabc"}
	p := connectedProvider(t, bridge)

	assert.True(t, p.IsConnected())
	assert.Equal(t, "0xabc", p.WalletInfo().Address)
}

func TestConnectIdempotent(t *testing.T) {
	bridge := &mockBridge{detect: true, address: "0xabc"}
	p := connectedProvider(t, bridge)

	addr, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", addr)
}

func TestDisconnectClearsState(t *testing.T) {
	bridge := &mockBridge{detect: true, address: "0xabc", callResp: map[string]any{}}
	p := connectedProvider(t, bridge)

	require.NoError(t, p.Disconnect(context.Background()))
	assert.False(t, p.IsConnected())
	assert.Nil(t, p.WalletInfo())
}

func TestGetBalanceConvertsOctas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>","data":{"coin":{"value":"150000000"}}}`))
	}))
	defer srv.Close()

	bridge := &mockBridge{detect: true, address: "0xabc"}
	p := connectedProvider(t, bridge, WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))

	balance, err := p.GetBalance(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "1.5", balance.String())
}

func TestGetBalanceUnknownAccountReadsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_code":"resource_not_found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	bridge := &mockBridge{detect: true, address: "0xabc"}
	p := connectedProvider(t, bridge, WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))

	balance, err := p.GetBalance(context.Background(), "0xnew")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestGetBalanceRequiresConnection(t *testing.T) {
	p := NewProvider(types.NetworkTestnet, petra.New(&mockBridge{}, nil), nil)

	_, err := p.GetBalance(context.Background(), "0xabc")
	var notConnected *types.NotConnectedError
	require.ErrorAs(t, err, &notConnected)
}

func TestGetBalancesSingleNativeEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"coin":{"value":"200000000"}}}`))
	}))
	defer srv.Close()

	bridge := &mockBridge{detect: true, address: "0xabc"}
	p := connectedProvider(t, bridge, WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))

	balances, err := p.GetBalances(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "APT", balances[0].Currency)
	assert.Equal(t, "2", balances[0].Value)
}

func TestSendTransactionEntryFunctionPayload(t *testing.T) {
	bridge := &mockBridge{detect: true, address: "0xabc", callResp: map[string]any{"hash": "0xdeadbeef"}}
	p := connectedProvider(t, bridge)

	res, err := p.SendTransaction(context.Background(), &types.TransactionConfig{
		Recipient: "0xdef",
		Amount:    "100000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", res.Hash)
	assert.Contains(t, bridge.calls, "signAndSubmitTransaction")
}

func TestUnsupportedOperations(t *testing.T) {
	bridge := &mockBridge{detect: true, address: "0xabc"}
	p := connectedProvider(t, bridge)
	ctx := context.Background()

	var unsupported *types.UnsupportedOperationError

	_, err := p.SendCurrency(ctx, &types.TransactionConfig{})
	require.ErrorAs(t, err, &unsupported)

	_, err = p.CreateTrustLine(ctx, &types.TrustLineConfig{})
	require.ErrorAs(t, err, &unsupported)

	_, err = p.IssueToken(ctx, &types.TokenIssuanceData{})
	require.ErrorAs(t, err, &unsupported)

	_, err = p.TransferNFT(ctx, "token", "0xdef")
	require.ErrorAs(t, err, &unsupported)

	_, err = p.GetNFTs(ctx, "")
	require.ErrorAs(t, err, &unsupported)

	err = p.SubscribeToEvents(types.EventLedgerClosed, func(map[string]any) {})
	require.ErrorAs(t, err, &unsupported)
}

func TestMintNFTSubmitsViaAdapter(t *testing.T) {
	bridge := &mockBridge{detect: true, address: "0xabc", callResp: map[string]any{"hash": "0xmint"}}
	p := connectedProvider(t, bridge)

	res, err := p.MintNFT(context.Background(), &types.NFTConfig{
		URI:  "ipfs://QmHash",
		Name: "Artifact",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xmint", res.Hash)
}
