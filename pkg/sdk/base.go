package sdk

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/sigweihq/walletkit/pkg/chains/xrpl"
	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/types"
)

// validate checks struct tags on config inputs before any field-level rules run.
var validate = validator.New(validator.WithRequiredStructEnabled())

var aptosAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// base holds the chain-agnostic validation and error-wrapping logic shared by
// every facade operation.
type base struct {
	blockchain types.Blockchain
}

// wrapOp is the single point where internal errors become user-facing. The
// cause is rendered into the message and kept reachable via Unwrap.
func (b base) wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &types.OperationError{Op: op, Err: err}
}

func (b base) validateTransactionConfig(cfg *types.TransactionConfig) error {
	if cfg == nil {
		return &types.ValidationError{Reason: "transaction config is required"}
	}
	if err := validate.Struct(cfg); err != nil {
		return &types.ValidationError{Reason: err.Error()}
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(cfg.Amount))
	if err != nil {
		return &types.ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", cfg.Amount)}
	}
	if !amount.IsPositive() {
		return &types.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if cfg.Currency != "" && cfg.Issuer == "" {
		return &types.ValidationError{Field: "issuer", Reason: "required for issued-currency payments"}
	}
	return nil
}

func (b base) validateNFTConfig(cfg *types.NFTConfig) error {
	if cfg == nil {
		return &types.ValidationError{Reason: "NFT config is required"}
	}
	if err := validate.Struct(cfg); err != nil {
		return &types.ValidationError{Reason: err.Error()}
	}

	if cfg.TransferFee != nil {
		fee := *cfg.TransferFee
		if fee < 0 || fee > constants.MaxNFTTransferFee {
			return &types.ValidationError{
				Field:  "transferFee",
				Reason: fmt.Sprintf("%d outside [0, %d]", fee, constants.MaxNFTTransferFee),
			}
		}
	}
	return nil
}

func (b base) validateTransferNFTParams(tokenID, recipient string) error {
	if strings.TrimSpace(tokenID) == "" {
		return &types.ValidationError{Field: "tokenID", Reason: "required"}
	}
	if strings.TrimSpace(recipient) == "" {
		return &types.ValidationError{Field: "recipient", Reason: "required"}
	}
	return b.validateAddress(recipient)
}

// validateAddress applies the active chain's address shape.
func (b base) validateAddress(address string) error {
	switch b.blockchain {
	case types.BlockchainXRPL:
		if !xrpl.IsValidClassicAddress(address) {
			return &types.ValidationError{Field: "recipient", Reason: fmt.Sprintf("%q is not a valid classic address", address)}
		}
	case types.BlockchainAptos:
		if !aptosAddressPattern.MatchString(address) {
			return &types.ValidationError{Field: "recipient", Reason: fmt.Sprintf("%q is not a valid account address", address)}
		}
	}
	return nil
}

// currencySymbol is fixed per blockchain.
func (b base) currencySymbol() (string, error) {
	symbol, ok := constants.BlockchainToSymbol[string(b.blockchain)]
	if !ok {
		return "", fmt.Errorf("unsupported blockchain: %s", b.blockchain)
	}
	return symbol, nil
}

// nativeDecimals returns the smallest-unit scale for the active chain.
func (b base) nativeDecimals() int32 {
	if b.blockchain == types.BlockchainAptos {
		return constants.AptosDecimals
	}
	return constants.XRPDecimals
}
