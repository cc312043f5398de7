package chains

import (
	"fmt"
	"net/http"

	"github.com/sigweihq/walletkit/pkg/chains/aptos"
	"github.com/sigweihq/walletkit/pkg/chains/xrpl"
	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/types"
	"github.com/sigweihq/walletkit/pkg/wallets"
	"github.com/sigweihq/walletkit/pkg/wallets/crossmark"
	"github.com/sigweihq/walletkit/pkg/wallets/gem"
	"github.com/sigweihq/walletkit/pkg/wallets/petra"
)

// Options carries factory dependencies. Zero values mean defaults: a noop
// logger, a default HTTP client, and no extension bridges (adapters for the
// selected chain are then expected to be pre-registered in the registry).
type Options struct {
	Logger     logger.Logger
	HTTPClient *http.Client

	// Bridges maps wallet names to their extension bridges. When a bridge
	// is present for a wallet the chain supports, the factory registers
	// the matching adapter before resolving cfg.Wallet.
	Bridges map[string]wallets.ExtensionBridge
}

// NewProvider builds a fresh provider for the configured blockchain. The
// blockchain and wallet identifiers match case-insensitively. Providers are
// never cached; each call returns an independent instance.
func NewProvider(cfg *types.Config, reg *wallets.Registry, opts Options) (Provider, error) {
	blockchain, err := types.ParseBlockchain(cfg.Blockchain)
	if err != nil {
		return nil, err
	}
	network, err := types.ParseNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.NoopLogger{}
	}
	if reg == nil {
		reg = wallets.InitGlobalRegistry()
	}

	switch blockchain {
	case types.BlockchainXRPL:
		registerBridged(reg, opts, log, constants.WalletGem, func(b wallets.ExtensionBridge) wallets.Adapter { return gem.New(b, log) })
		registerBridged(reg, opts, log, constants.WalletCrossmark, func(b wallets.ExtensionBridge) wallets.Adapter { return crossmark.New(b, log) })

		adapter, err := reg.Get(cfg.Wallet)
		if err != nil {
			return nil, err
		}

		var xrplOpts []xrpl.Option
		if opts.HTTPClient != nil {
			xrplOpts = append(xrplOpts, xrpl.WithHTTPClient(opts.HTTPClient))
		}
		return xrpl.NewProvider(network, adapter, log, xrplOpts...), nil

	case types.BlockchainAptos:
		registerBridged(reg, opts, log, constants.WalletPetra, func(b wallets.ExtensionBridge) wallets.Adapter { return petra.New(b, log) })

		adapter, err := reg.Get(cfg.Wallet)
		if err != nil {
			return nil, err
		}

		var aptosOpts []aptos.Option
		if opts.HTTPClient != nil {
			aptosOpts = append(aptosOpts, aptos.WithHTTPClient(opts.HTTPClient))
		}
		return aptos.NewProvider(network, adapter, log, aptosOpts...), nil

	default:
		return nil, fmt.Errorf("unsupported blockchain: %s", cfg.Blockchain)
	}
}

// registerBridged registers an adapter when its bridge was supplied.
// Registration is idempotent so repeated factory calls share registry state.
func registerBridged(reg *wallets.Registry, opts Options, log logger.Logger, name string, build func(wallets.ExtensionBridge) wallets.Adapter) {
	bridge, ok := opts.Bridges[name]
	if !ok || bridge == nil {
		return
	}
	if reg.IsRegistered(name) {
		return
	}
	if err := reg.Register(build(bridge)); err != nil {
		log.Warn("adapter registration failed", map[string]any{"wallet": name, "error": err.Error()})
	}
}
