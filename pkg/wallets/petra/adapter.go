// Package petra adapts the Petra browser extension for Aptos. The extension
// signs and submits entry-function payloads; other payload shapes are
// unsupported.
package petra

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
	return constants.WalletPetra
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

	signature, _ := resp["signature"].(string)
	if signature == "" {
		return "", &types.WalletError{Wallet: a.Name(), Err: fmt.Errorf("extension returned no signature")}
	}
	return signature, nil
}

func (a *Adapter) SignAndSubmit(ctx context.Context, tx map[string]any) (*types.SubmitResult, error) {
	if !a.connected() {
		return nil, &types.NotConnectedError{Op: "signAndSubmit"}
	}

	if payloadType, _ := tx["type"].(string); payloadType != "entry_function_payload" {
		return nil, &types.UnsupportedOperationError{Op: fmt.Sprintf("submit %q payload via %s", payloadType, a.Name())}
	}

	resp, err := a.bridge.Call(ctx, "signAndSubmitTransaction", map[string]any{"payload": tx})
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
	return &types.SubmitResult{Hash: hash}, nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	if _, err := a.bridge.Call(ctx, "disconnect", nil); err != nil {
		a.log.Warn("wallet disconnect failed, clearing local session only", map[string]any{
			"wallet": a.Name(), "error": err.Error(),
		})
	}

	a.mu.Lock()
	a.walletInfo = nil
	a.mu.Unlock()
	return nil
}
