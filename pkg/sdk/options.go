package sdk

import (
	"net/http"

	"github.com/sigweihq/walletkit/pkg/chains"
	"github.com/sigweihq/walletkit/pkg/logger"
	"github.com/sigweihq/walletkit/pkg/metrics"
	"github.com/sigweihq/walletkit/pkg/wallets"
)

type Option func(*SDK)

// WithLogger sets the structured logger. Defaults to a noop logger.
func WithLogger(log logger.Logger) Option {
	return func(s *SDK) { s.log = log }
}

// WithMetrics sets the operation metrics recorder. Defaults to noop.
func WithMetrics(rec metrics.Recorder) Option {
	return func(s *SDK) { s.metrics = rec }
}

// WithHTTPClient sets the HTTP client used for faucet, metadata, and REST
// fullnode traffic.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SDK) { s.httpClient = c }
}

// WithRegistry supplies an isolated wallet registry instead of the process-wide
// one.
func WithRegistry(reg *wallets.Registry) Option {
	return func(s *SDK) { s.registry = reg }
}

// WithBridges supplies the extension bridges the factory registers adapters
// from, keyed by wallet name.
func WithBridges(bridges map[string]wallets.ExtensionBridge) Option {
	return func(s *SDK) { s.bridges = bridges }
}

// WithProvider injects a pre-built provider, bypassing the factory. Tests use
// this to substitute mocks.
func WithProvider(p chains.Provider) Option {
	return func(s *SDK) { s.provider = p }
}
