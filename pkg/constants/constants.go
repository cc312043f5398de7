package constants

import "time"

const (
	WalletDetectAttempts   = 3                      // bounded retries for extension install detection
	WalletDetectDelay      = 500 * time.Millisecond // fixed delay between detection attempts
	WebSocketDialTimeout   = 10 * time.Second       // timeout for opening the ledger websocket
	RequestTimeout         = 20 * time.Second       // timeout for a single RPC request
	MetadataFetchTimeout   = 10 * time.Second       // timeout for NFT metadata retrieval
	FaucetTimeout          = 30 * time.Second       // timeout for test-network faucet funding
	ValidationPollAttempts = 20                     // attempts when waiting for a submitted transaction to validate
	ValidationPollDelay    = time.Second            // delay between validation polls
	FaucetPollAttempts     = 20                     // attempts when waiting for a faucet-funded account to appear
	FaucetPollDelay        = time.Second            // delay between faucet polls
	MaxResponseBodySize    = 10 * 1024 * 1024       // maximum metadata response body size in bytes (10MB)
)

// Blockchain identifiers
const (
	BlockchainXRPL  = "xrpl"
	BlockchainAptos = "aptos"
)

// Network identifiers
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Wallet identifiers
const (
	WalletGem       = "gemwallet"
	WalletCrossmark = "crossmark"
	WalletPetra     = "petra"
)

// XRPL network endpoints
const (
	XRPLMainnetEndpoint = "wss://xrplcluster.com"
	XRPLTestnetEndpoint = "wss://s.altnet.rippletest.net:51233"
	XRPLTestnetFaucet   = "https://faucet.altnet.rippletest.net/accounts"
)

// Aptos fullnode endpoints
const (
	AptosMainnetEndpoint = "https://fullnode.mainnet.aptoslabs.com/v1"
	AptosTestnetEndpoint = "https://fullnode.testnet.aptoslabs.com/v1"
)

// Unit conversion. Amounts cross the wire in the chain's smallest unit.
const (
	XRPDecimals   = 6 // 1 XRP = 1,000,000 drops
	AptosDecimals = 8 // 1 APT = 100,000,000 octas
)

// Currency symbols by blockchain
var BlockchainToSymbol = map[string]string{
	BlockchainXRPL:  "XRP",
	BlockchainAptos: "APT",
}

const (
	// DefaultTrustLineLimit is applied when a trust line is created without an explicit limit.
	DefaultTrustLineLimit = "1000000000"

	// MaxNFTTransferFee is the upper bound of the NFT transfer-fee field (0.001% increments, 50%).
	MaxNFTTransferFee = 50000

	// IPFSGateway serves ipfs:// metadata URIs over HTTP.
	IPFSGateway = "https://ipfs.io/ipfs/"
)

// Fallback NFT metadata used when a token's URI cannot be resolved or parsed.
const (
	DefaultNFTName        = "Unnamed NFT"
	DefaultNFTDescription = "No description available"
	DefaultNFTImage       = "https://placehold.co/400x400?text=NFT"
)
