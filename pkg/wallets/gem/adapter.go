// Package gem adapts the GemWallet browser extension. The extension exposes a
// separate API method per transaction type, so submission branches on the
// payload's TransactionType; anything outside that set is unsupported.
package gem

import (
	"context"
	"fmt"
	"sync"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/types"
	"github.com/sigweihq/walletkit/pkg/wallets"
)

type Adapter struct {
	bridge wallets.ExtensionBridge
	log    logger.Logger

	mu         sync.Mutex
	walletInfo *types.WalletInfo
}

func New(bridge wallets.ExtensionBridge, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Adapter{bridge: bridge, log: log}
}

func (a *Adapter) Name() string {
	return constants.WalletGem
}

func (a *Adapter) IsInstalled() bool {
	installed, err := a.bridge.Detect(context.Background())
	if err != nil {
		a.log.Warn("wallet detection failed", map[string]any{"wallet": a.Name(), "error": err.Error()})
		return false
	}
	return installed
}

func (a *Adapter) Connect(ctx context.Context) (*types.WalletInfo, error) {
	if !a.IsInstalled() {
		return nil, &types.WalletError{Wallet: a.Name(), Err: fmt.Errorf("extension not installed")}
	}

	address, publicKey, network, err := a.bridge.RequestAddress(ctx)
	if err != nil {
		return nil, &types.WalletError{Wallet: a.Name(), Err: err}
	}

	info := &types.WalletInfo{Address: address, PublicKey: publicKey, Network: network}

	a.mu.Lock()
	a.walletInfo = info
	a.mu.Unlock()

	return info, nil
}

func (a *Adapter) connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.walletInfo != nil
}

func (a *Adapter) Sign(ctx context.Context, message string) (string, error) {
	if !a.connected() {
		return "", &types.NotConnectedError{Op: "sign"}
	}

	resp, err := a.bridge.Call(ctx, "signMessage", map[string]any{"message": message})
	if err != nil {
		return "", &types.WalletError{Wallet: a.Name(), Err: err}
	}

	signature, _ := resp["signedMessage"].(string)
	if signature == "" {
		return "", &types.WalletError{Wallet: a.Name(), Err: fmt.Errorf("extension returned no signature")}
	}
	return signature, nil
}

// SignAndSubmit maps the canonical transaction payload onto GemWallet's
// per-type submission methods.
func (a *Adapter) SignAndSubmit(ctx context.Context, tx map[string]any) (*types.SubmitResult, error) {
	if !a.connected() {
		return nil, &types.NotConnectedError{Op: "signAndSubmit"}
	}

	txType, _ := tx["TransactionType"].(string)
	var (
		resp map[string]any
		err  error
	)

	switch txType {
	case "Payment":
		resp, err = a.bridge.Call(ctx, "sendPayment", paymentParams(tx))
	case "TrustSet":
		resp, err = a.bridge.Call(ctx, "setTrustline", trustSetParams(tx))
	case "NFTokenMint":
		resp, err = a.bridge.Call(ctx, "mintNFT", mintParams(tx))
	case "NFTokenCreateOffer":
		resp, err = a.bridge.Call(ctx, "createNFTOffer", offerParams(tx))
	default:
		return nil, &types.UnsupportedOperationError{Op: fmt.Sprintf("submit %s transaction via %s", txType, a.Name())}
	}

	if err != nil {
		return nil, &types.WalletError{Wallet: a.Name(), Err: err}
	}
	return extractResult(a.Name(), resp)
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	// GemWallet has no native disconnect; reset local state only.
	a.mu.Lock()
	a.walletInfo = nil
	a.mu.Unlock()
	return nil
}

func paymentParams(tx map[string]any) map[string]any {
	params := map[string]any{
		"amount":      tx["Amount"],
		"destination": tx["Destination"],
	}
	if tag, ok := tx["DestinationTag"]; ok {
		params["destinationTag"] = tag
	}
	return params
}

func trustSetParams(tx map[string]any) map[string]any {
	return map[string]any{
		"limitAmount": tx["LimitAmount"],
	}
}

// mintParams packs the structured flag object into the bitmask the chain
// expects; the extension only understands the numeric form.
func mintParams(tx map[string]any) map[string]any {
	params := map[string]any{
		"URI":          tx["URI"],
		"NFTokenTaxon": tx["NFTokenTaxon"],
	}
	if fee, ok := tx["TransferFee"]; ok {
		params["transferFee"] = fee
	}
	switch flags := tx["Flags"].(type) {
	case types.NFTFlags:
		params["flags"] = flags.Bitmask()
	case *types.NFTFlags:
		if flags != nil {
			params["flags"] = flags.Bitmask()
		}
	case uint32:
		params["flags"] = flags
	}
	return params
}

func offerParams(tx map[string]any) map[string]any {
	return map[string]any{
		"NFTokenID":   tx["NFTokenID"],
		"amount":      tx["Amount"],
		"destination": tx["Destination"],
		"flags":       tx["Flags"],
	}
}

func extractResult(wallet string, resp map[string]any) (*types.SubmitResult, error) {
	if resp == nil {
		return nil, &types.WalletError{Wallet: wallet, Err: fmt.Errorf("extension returned no result")}
	}

	hash, _ := resp["hash"].(string)
	if hash == "" {
		return nil, &types.WalletError{Wallet: wallet, Err: fmt.Errorf("extension response missing transaction hash")}
	}

	result := &types.SubmitResult{Hash: hash}
	if meta, ok := resp["meta"].(map[string]any); ok {
		result.Meta = meta
	}
	return result, nil
}
