// Package crossmark adapts the Crossmark browser extension, which accepts a
// raw transaction blob in chain wire format for any transaction type.
package crossmark

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
	return constants.WalletCrossmark
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

	resp, err := a.bridge.Call(ctx, "sign", map[string]any{"message": message})
	if err != nil {
		return "", &types.WalletError{Wallet: a.Name(), Err: err}
	}

	signature, _ := resp["signature"].(string)
	if signature == "" {
		return "", &types.WalletError{Wallet: a.Name(), Err: fmt.Errorf("extension returned no signature")}
	}
	return signature, nil
}

// SignAndSubmit passes the transaction through as a raw blob. Structured
// flags are normalized to the wire bitmask first since the extension expects
// chain wire format.
func (a *Adapter) SignAndSubmit(ctx context.Context, tx map[string]any) (*types.SubmitResult, error) {
	if !a.connected() {
		return nil, &types.NotConnectedError{Op: "signAndSubmit"}
	}

	blob := make(map[string]any, len(tx))
	for k, v := range tx {
		blob[k] = v
	}
	switch flags := blob["Flags"].(type) {
	case types.NFTFlags:
		blob["Flags"] = flags.Bitmask()
	case *types.NFTFlags:
		if flags != nil {
			blob["Flags"] = flags.Bitmask()
		} else {
			delete(blob, "Flags")
		}
	}

	resp, err := a.bridge.Call(ctx, "signAndSubmit", map[string]any{"tx": blob})
	if err != nil {
		return nil, &types.WalletError{Wallet: a.Name(), Err: err}
	}
	if resp == nil {
		return nil, &types.WalletError{Wallet: a.Name(), Err: fmt.Errorf("extension returned no result")}
	}

	hash, _ := resp["hash"].(string)
	if hash == "" {
		return nil, &types.WalletError{Wallet: a.Name(), Err: fmt.Errorf("extension response missing transaction hash")}
	}

	result := &types.SubmitResult{Hash: hash}
	if meta, ok := resp["meta"].(map[string]any); ok {
		result.Meta = meta
	}
	return result, nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	// Best effort: newer extension builds expose a logout method.
	if _, err := a.bridge.Call(ctx, "logout", nil); err != nil {
		a.log.Warn("wallet logout failed, clearing local session only", map[string]any{
			"wallet": a.Name(), "error": err.Error(),
		})
	}

	a.mu.Lock()
	a.walletInfo = nil
	a.mu.Unlock()
	return nil
}
