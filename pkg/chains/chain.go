// Package chains defines the blockchain provider contract and the factory
// that selects a provider variant at runtime.
package chains

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sigweihq/walletkit/pkg/types"
)

// Provider implements the full blockchain operation surface for one chain,
// using a wallet adapter for signing and a raw network client for RPC.
//
// A provider moves through Disconnected -> Connecting -> Connected ->
// Disconnecting -> Disconnected. Every data-affecting operation requires
// Connected and fails with types.NotConnectedError before any network I/O
// otherwise. Operations a chain cannot express fail with
// types.UnsupportedOperationError rather than returning defaults.
type Provider interface {
	// Blockchain identifies the provider variant.
	Blockchain() types.Blockchain

	// Connect establishes the wallet session and the network session, in
	// that order, and returns the wallet address. If the network session
	// fails after the wallet connected, the wallet session is rolled back
	// so the connect is atomic.
	Connect(ctx context.Context) (string, error)

	// Disconnect closes the network session, asks the wallet to
	// disconnect, and clears cached wallet info.
	Disconnect(ctx context.Context) error

	// IsConnected is true only while both the wallet session and the
	// network session are live.
	IsConnected() bool

	// WalletInfo returns the connected wallet identity, or nil.
	WalletInfo() *types.WalletInfo

	// IsWalletInstalled reports extension availability without connecting.
	IsWalletInstalled() bool

	// GetBalance returns the native-asset balance in major units. An empty
	// address defaults to the connected wallet. An account unknown to the
	// network reads as zero, not an error.
	GetBalance(ctx context.Context, address string) (decimal.Decimal, error)

	// GetBalances returns the native balance plus every non-zero issued
	// asset held by the account.
	GetBalances(ctx context.Context, address string) ([]types.Balance, error)

	// SendTransaction submits a native-asset payment. The amount is in the
	// chain's smallest unit (converted at the SDK boundary).
	SendTransaction(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error)

	// SendCurrency submits an issued-currency payment after verifying the
	// recipient holds a matching trust line.
	SendCurrency(ctx context.Context, cfg *types.TransactionConfig) (*types.TransactionResult, error)

	// CreateTrustLine establishes a trust line toward an issuer.
	CreateTrustLine(ctx context.Context, cfg *types.TrustLineConfig) (*types.TransactionResult, error)

	// IssueToken provisions an issuer, configures it, and moves the issued
	// amount to the connected wallet.
	IssueToken(ctx context.Context, data *types.TokenIssuanceData) (*types.TransactionResult, error)

	// MintNFT mints a token carrying the encoded metadata URI.
	MintNFT(ctx context.Context, cfg *types.NFTConfig) (*types.TransactionResult, error)

	// TransferNFT creates a zero-price transfer offer for a token.
	TransferNFT(ctx context.Context, tokenID, to string) (*types.TransactionResult, error)

	// GetNFTs lists owned tokens with resolved metadata. One token's bad
	// metadata never fails the listing.
	GetNFTs(ctx context.Context, address string) ([]types.NFT, error)

	// SubscribeToEvents registers a callback for a named event stream.
	// Re-subscribing under the same name replaces the callback without
	// duplicating the underlying subscription.
	SubscribeToEvents(name types.EventName, cb types.EventCallback) error

	// UnsubscribeFromEvents removes a named subscription.
	UnsubscribeFromEvents(name types.EventName) error
}
