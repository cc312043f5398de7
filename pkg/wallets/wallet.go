// Package wallets normalizes heterogeneous browser wallet extensions behind
// one adapter contract and keeps a process-wide registry of adapters.
package wallets

import (
	"context"

	"github.com/sigweihq/walletkit/pkg/types"
)

// Adapter is the uniform wallet contract. Every variant maps its extension's
// API onto this surface; a transaction shape the extension cannot submit must
// fail with types.UnsupportedOperationError, never silently no-op.
type Adapter interface {
	// Name is the registry key, matched case-insensitively.
	Name() string

	// IsInstalled reports whether the extension is reachable. It never
	// returns an error; internal failures are logged and read as false.
	IsInstalled() bool

	// Connect prompts the extension for the active account.
	Connect(ctx context.Context) (*types.WalletInfo, error)

	// Sign signs an arbitrary message with the connected account.
	Sign(ctx context.Context, message string) (string, error)

	// SignAndSubmit signs and submits a transaction payload, branching on
	// the payload's transaction type where the extension requires it.
	SignAndSubmit(ctx context.Context, tx map[string]any) (*types.SubmitResult, error)

	// Disconnect tears down the extension session. Extensions without a
	// native disconnect reset local state only. Best effort.
	Disconnect(ctx context.Context) error
}

// ExtensionBridge is the opaque capability surface of one browser wallet
// extension, as reached from the embedding host. Adapters translate the
// uniform contract into bridge calls; tests substitute mocks.
type ExtensionBridge interface {
	// Detect reports whether the extension is present in the host.
	Detect(ctx context.Context) (bool, error)

	// RequestAddress prompts the user and returns the active account.
	RequestAddress(ctx context.Context) (address, publicKey, network string, err error)

	// Call invokes a named extension method with a JSON-shaped parameter
	// object and returns the JSON-shaped response.
	Call(ctx context.Context, method string, params map[string]any) (map[string]any, error)
}
