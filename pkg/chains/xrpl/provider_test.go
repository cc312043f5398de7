package xrpl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/types"
)

// mockClient scripts RPC responses by command and records every request.
type mockClient struct {
	connected  bool
	connectErr error

	requests []map[string]any
	handler  func(payload map[string]any) (map[string]any, error)

	handlers map[string]types.EventCallback
}

func (m *mockClient) Connect(ctx context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *mockClient) Disconnect(ctx context.Context) error {
	m.connected = false
	return nil
}

func (m *mockClient) IsConnected() bool { return m.connected }

func (m *mockClient) Request(ctx context.Context, payload map[string]any) (map[string]any, error) {
	m.requests = append(m.requests, payload)
	if m.handler == nil {
		return map[string]any{}, nil
	}
	return m.handler(payload)
}

func (m *mockClient) Autofill(ctx context.Context, tx map[string]any) (map[string]any, error) {
	filled := make(map[string]any, len(tx)+3)
	for k, v := range tx {
		filled[k] = v
	}
	filled["Sequence"] = uint32(7)
	filled["Fee"] = "12"
	filled["LastLedgerSequence"] = uint32(1000)
	return filled, nil
}

func (m *mockClient) On(event string, cb types.EventCallback) {
	if m.handlers == nil {
		m.handlers = make(map[string]types.EventCallback)
	}
	m.handlers[event] = cb
}

func (m *mockClient) Off(event string) {
	delete(m.handlers, event)
}

func (m *mockClient) commandCount(command string) int {
	n := 0
	for _, req := range m.requests {
		if req["command"] == command {
			n++
		}
	}
	return n
}

// mockAdapter records submissions and connects to a fixed address.
type mockAdapter struct {
	installed  bool
	address    string
	connectErr error
	submitErr  error

	connected   bool
	submissions []map[string]any
	submitHook  func(tx map[string]any)
}

func (m *mockAdapter) Name() string { return "gemwallet" }

func (m *mockAdapter) IsInstalled() bool { return m.installed }

func (m *mockAdapter) Connect(ctx context.Context) (*types.WalletInfo, error) {
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	m.connected = true
	return &types.WalletInfo{Address: m.address, PublicKey: "ED01"}, nil
}

func (m *mockAdapter) Sign(ctx context.Context, message string) (string, error) {
	return "SIGNED", nil
}

func (m *mockAdapter) SignAndSubmit(ctx context.Context, tx map[string]any) (*types.SubmitResult, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	m.submissions = append(m.submissions, tx)
	if m.submitHook != nil {
		m.submitHook(tx)
	}
	return &types.SubmitResult{Hash: fmt.Sprintf("HASH%d", len(m.submissions))}, nil
}

func (m *mockAdapter) Disconnect(ctx context.Context) error {
	m.connected = false
	return nil
}

const (
	hotAddress       = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
	recipientAddress = "rLHzPsX6oXkzU2qL12kHCH8G8cnZv1rBJh"
)

func newConnectedProvider(t *testing.T, client *mockClient, adapter *mockAdapter, opts ...Option) *Provider {
	t.Helper()
	opts = append([]Option{WithClient(client)}, opts...)
	p := NewProvider(types.NetworkTestnet, adapter, nil, opts...)
	_, err := p.Connect(context.Background())
	require.NoError(t, err)
	return p
}

func TestConnectionInvariant(t *testing.T) {
	client := &mockClient{}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := NewProvider(types.NetworkTestnet, adapter, nil, WithClient(client))

	assert.False(t, p.IsConnected())

	addr, err := p.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hotAddress, addr)
	assert.True(t, p.IsConnected())

	require.NoError(t, p.Disconnect(context.Background()))
	assert.False(t, p.IsConnected())
	assert.Nil(t, p.WalletInfo())
}

func TestConnectRollsBackWalletOnNetworkFailure(t *testing.T) {
	client := &mockClient{connectErr: errors.New("dial refused")}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := NewProvider(types.NetworkTestnet, adapter, nil, WithClient(client))

	_, err := p.Connect(context.Background())
	require.Error(t, err)

	var netErr *types.NetworkOperationError
	require.ErrorAs(t, err, &netErr)
	assert.False(t, p.IsConnected())
	assert.False(t, adapter.connected)
}

func TestOperationsFailFastWhenDisconnected(t *testing.T) {
	client := &mockClient{}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := NewProvider(types.NetworkTestnet, adapter, nil, WithClient(client))
	ctx := context.Background()

	var notConnected *types.NotConnectedError

	_, err := p.GetBalance(ctx, "")
	require.ErrorAs(t, err, &notConnected)

	_, err = p.SendTransaction(ctx, &types.TransactionConfig{Recipient: recipientAddress, Amount: "1000000"})
	require.ErrorAs(t, err, &notConnected)

	_, err = p.CreateTrustLine(ctx, &types.TrustLineConfig{Currency: "USD", Issuer: recipientAddress})
	require.ErrorAs(t, err, &notConnected)

	assert.Empty(t, client.requests, "no network I/O before connect")
	assert.Empty(t, adapter.submissions)
}

func TestGetBalanceDefaultsToConnectedAddress(t *testing.T) {
	client := &mockClient{handler: func(payload map[string]any) (map[string]any, error) {
		return map[string]any{
			"account_data": map[string]any{"Balance": "2500000"},
		}, nil
	}}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	implicit, err := p.GetBalance(context.Background(), "")
	require.NoError(t, err)

	explicit, err := p.GetBalance(context.Background(), hotAddress)
	require.NoError(t, err)

	assert.True(t, implicit.Equal(explicit))
	assert.Equal(t, "2.5", implicit.String())
	assert.Equal(t, hotAddress, client.requests[0]["account"])
}

func TestGetBalanceUnfundedAccountReadsZero(t *testing.T) {
	client := &mockClient{handler: func(payload map[string]any) (map[string]any, error) {
		return nil, &RPCError{Code: "actNotFound", Message: "Account not found."}
	}}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	balance, err := p.GetBalance(context.Background(), recipientAddress)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestGetBalancesDecodesNonStandardCodes(t *testing.T) {
	client := &mockClient{handler: func(payload map[string]any) (map[string]any, error) {
		switch payload["command"] {
		case "account_info":
			return map[string]any{"account_data": map[string]any{"Balance": "1000000"}}, nil
		case "account_lines":
			return map[string]any{"lines": []any{
				map[string]any{"currency": "USD", "balance": "25", "account": recipientAddress},
				map[string]any{"currency": "4D79437573746F6D546F6B656E0000000000000000", "balance": "5", "account": recipientAddress},
				map[string]any{"currency": "EUR", "balance": "0", "account": recipientAddress},
			}}, nil
		}
		return nil, fmt.Errorf("unexpected command %v", payload["command"])
	}}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	balances, err := p.GetBalances(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, balances, 3, "zero-balance line dropped")

	assert.Equal(t, "XRP", balances[0].Currency)
	assert.Equal(t, "1", balances[0].Value)

	assert.Equal(t, "USD", balances[1].Currency)
	assert.Empty(t, balances[1].NonStandardDisplay)

	assert.Equal(t, "MyCustomToken", balances[2].NonStandardDisplay)
	assert.Equal(t, "4D79437573746F6D546F6B656E0000000000000000", balances[2].Currency)
}

func TestSendTransactionSubmitsPayment(t *testing.T) {
	client := &mockClient{}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	tag := uint32(777)
	res, err := p.SendTransaction(context.Background(), &types.TransactionConfig{
		Recipient:      recipientAddress,
		Amount:         "1500000",
		DestinationTag: &tag,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Hash)

	require.Len(t, adapter.submissions, 1)
	tx := adapter.submissions[0]
	assert.Equal(t, "Payment", tx["TransactionType"])
	assert.Equal(t, "1500000", tx["Amount"])
	assert.Equal(t, uint32(777), tx["DestinationTag"])
}

func TestSendCurrencyGatesOnTrustLine(t *testing.T) {
	client := &mockClient{handler: func(payload map[string]any) (map[string]any, error) {
		return map[string]any{"lines": []any{}}, nil
	}}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	_, err := p.SendCurrency(context.Background(), &types.TransactionConfig{
		Recipient: recipientAddress,
		Amount:    "10",
		Currency:  "USD",
		Issuer:    hotAddress,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a trust line")
	assert.Empty(t, adapter.submissions, "no submit without a trust line")
}

func TestSendCurrencyProceedsWithTrustLine(t *testing.T) {
	client := &mockClient{handler: func(payload map[string]any) (map[string]any, error) {
		return map[string]any{"lines": []any{
			map[string]any{"currency": "USD", "account": hotAddress},
		}}, nil
	}}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	res, err := p.SendCurrency(context.Background(), &types.TransactionConfig{
		Recipient: recipientAddress,
		Amount:    "10",
		Currency:  "USD",
		Issuer:    hotAddress,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Hash)

	require.Len(t, adapter.submissions, 1)
	amount, ok := adapter.submissions[0]["Amount"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USD", amount["currency"])
	assert.Equal(t, "10", amount["value"])
}

func TestCreateTrustLineDefaultsLimit(t *testing.T) {
	client := &mockClient{}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	_, err := p.CreateTrustLine(context.Background(), &types.TrustLineConfig{
		Currency: "MyCustomToken",
		Issuer:   recipientAddress,
	})
	require.NoError(t, err)

	require.Len(t, adapter.submissions, 1)
	limit, ok := adapter.submissions[0]["LimitAmount"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, constants.DefaultTrustLineLimit, limit["value"])
	assert.Equal(t, "4D79437573746F6D546F6B656E0000000000000000", limit["currency"], "long codes cross the wire hex-encoded")
}

func TestDisconnectClearsSubscriptions(t *testing.T) {
	client := &mockClient{}
	adapter := &mockAdapter{installed: true, address: hotAddress}
	p := newConnectedProvider(t, client, adapter)

	require.NoError(t, p.SubscribeToEvents(types.EventLedgerClosed, func(map[string]any) {}))
	require.NoError(t, p.Disconnect(context.Background()))

	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	assert.Empty(t, p.subs)
}
