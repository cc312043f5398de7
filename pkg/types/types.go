package types

import (
	"fmt"
	"strings"

	"github.com/sigweihq/walletkit/pkg/constants"
)

// Blockchain identifies a supported ledger.
type Blockchain string

const (
	BlockchainXRPL  Blockchain = constants.BlockchainXRPL
	BlockchainAptos Blockchain = constants.BlockchainAptos
)

// ParseBlockchain resolves a blockchain identifier case-insensitively.
func ParseBlockchain(s string) (Blockchain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case constants.BlockchainXRPL:
		return BlockchainXRPL, nil
	case constants.BlockchainAptos:
		return BlockchainAptos, nil
	default:
		return "", fmt.Errorf("unsupported blockchain: %s", s)
	}
}

// Network identifies which network of a blockchain to connect to.
type Network string

const (
	NetworkMainnet Network = constants.NetworkMainnet
	NetworkTestnet Network = constants.NetworkTestnet
)

// ParseNetwork resolves a network identifier case-insensitively.
func ParseNetwork(s string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case constants.NetworkMainnet:
		return NetworkMainnet, nil
	case constants.NetworkTestnet:
		return NetworkTestnet, nil
	default:
		return "", fmt.Errorf("unsupported network: %s", s)
	}
}

// Config selects the blockchain, network, and wallet extension an SDK instance
// talks to. It is fixed at construction; reconfiguring means building a new SDK.
type Config struct {
	Network    string `json:"network" validate:"required"`
	Blockchain string `json:"blockchain" validate:"required"`
	Wallet     string `json:"wallet" validate:"required"`
}

// WalletInfo is the session identity obtained from a wallet extension on connect.
type WalletInfo struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Network   string `json:"network,omitempty"`
}

// TransactionResult is the canonical outcome of every state-changing operation.
type TransactionResult struct {
	Hash   string `json:"hash"`
	Status string `json:"status,omitempty"`
	NFTID  string `json:"nftID,omitempty"`
}

// SubmitResult is the normalized response from a wallet adapter submission.
type SubmitResult struct {
	Hash string         `json:"hash"`
	Meta map[string]any `json:"meta,omitempty"`
}

// Balance is one asset held by an account. The native asset carries no issuer.
// Values are decimal strings, never floats. NonStandardDisplay holds the
// human-readable form of a hex currency code; Currency keeps the raw code so it
// round-trips into subsequent operations.
type Balance struct {
	Currency           string `json:"currency"`
	Value              string `json:"value"`
	Issuer             string `json:"issuer,omitempty"`
	NonStandardDisplay string `json:"nonStandardDisplay,omitempty"`
}

// NFT is an owned token with resolved metadata. Price is empty until the SDK
// facade annotates it with the active chain's currency symbol.
type NFT struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Owner       string `json:"owner"`
	Price       string `json:"price,omitempty"`
}

// TransactionConfig describes a payment. Amount is in the chain's major display
// unit for the native asset (converted at the SDK boundary) and a chain-native
// decimal string for issued currencies. Currency and Issuer are set only on the
// issued-currency path.
type TransactionConfig struct {
	Recipient      string  `json:"recipient" validate:"required"`
	Amount         string  `json:"amount" validate:"required"`
	Currency       string  `json:"currency,omitempty"`
	Issuer         string  `json:"issuer,omitempty"`
	DestinationTag *uint32 `json:"destinationTag,omitempty"`
}

// TrustLineConfig describes a trust line to establish toward an issuer.
type TrustLineConfig struct {
	Currency string `json:"currency" validate:"required"`
	Issuer   string `json:"issuer" validate:"required"`
	Limit    string `json:"limit,omitempty"`
}

// TokenIssuanceData carries the issuer policy for a new issued currency.
// TransferRate is a percentage fee (0 means no fee) applied to transfers
// between third parties.
type TokenIssuanceData struct {
	CurrencyCode   string  `json:"currencyCode" validate:"required"`
	Amount         string  `json:"amount" validate:"required"`
	TransferRate   float64 `json:"transferRate"`
	TickSize       uint8   `json:"tickSize"`
	Domain         string  `json:"domain"`
	RequireDestTag bool    `json:"requireDestTag"`
	DisallowXRP    bool    `json:"disallowXRP"`
}

// NFTFlags is the structured mint-flag set some wallet extensions expose
// instead of the chain's raw bitmask.
type NFTFlags struct {
	Burnable     bool `json:"burnable"`
	OnlyXRP      bool `json:"onlyXRP"`
	TrustLine    bool `json:"trustLine"`
	Transferable bool `json:"transferable"`
}

// NFT mint flag bits as the ledger encodes them.
const (
	NFTFlagBurnable     uint32 = 0x0001
	NFTFlagOnlyXRP      uint32 = 0x0002
	NFTFlagTrustLine    uint32 = 0x0004
	NFTFlagTransferable uint32 = 0x0008
)

// Bitmask packs the structured flags into the wire-format bitmask.
func (f NFTFlags) Bitmask() uint32 {
	var mask uint32
	if f.Burnable {
		mask |= NFTFlagBurnable
	}
	if f.OnlyXRP {
		mask |= NFTFlagOnlyXRP
	}
	if f.TrustLine {
		mask |= NFTFlagTrustLine
	}
	if f.Transferable {
		mask |= NFTFlagTransferable
	}
	return mask
}

// NFTConfig describes a token to mint. TransferFee is in units of 0.001%
// (0..50000). Taxon groups tokens on chains that support it.
type NFTConfig struct {
	URI         string    `json:"uri" validate:"required"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Flags       *NFTFlags `json:"flags,omitempty"`
	TransferFee *int      `json:"transferFee,omitempty"`
	Taxon       uint32    `json:"taxon"`
}

// EventName enumerates the ledger event streams a provider can subscribe to.
type EventName string

const (
	EventConnected          EventName = "connected"
	EventDisconnected       EventName = "disconnected"
	EventLedgerClosed       EventName = "ledgerClosed"
	EventValidationReceived EventName = "validationReceived"
	EventTransaction        EventName = "transaction"
	EventPeerStatusChange   EventName = "peerStatusChange"
	EventConsensusPhase     EventName = "consensusPhase"
	EventManifestReceived   EventName = "manifestReceived"
	EventError              EventName = "error"
)

// EventCallback receives the raw stream message for a subscribed event.
type EventCallback func(message map[string]any)
