package xrpl

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/currency"
	"github.com/sigweihq/walletkit/pkg/types"
)

// transferRateBase is the wire value meaning "no transfer fee".
const transferRateBase = 1_000_000_000

// IssueToken runs the full issuance pipeline: validate the currency code,
// provision and fund a cold issuing wallet, configure the issuer account,
// open a trust line from the hot wallet, then deliver the issued amount from
// cold to hot. The cold wallet signs locally with a generated key over a
// nested network session that never outlives this call. Failures carry the
// step they happened in.
func (p *Provider) IssueToken(ctx context.Context, data *types.TokenIssuanceData) (*types.TransactionResult, error) {
	if err := p.requireConnected("issue token"); err != nil {
		return nil, err
	}

	if err := currency.ValidateForIssuance(data); err != nil {
		return nil, &types.IssuanceStepError{Step: "validate currency code", Err: err}
	}

	if p.network != types.NetworkTestnet {
		return nil, &types.IssuanceStepError{
			Step: "provision cold wallet",
			Err:  fmt.Errorf("automatic cold wallet provisioning relies on a faucet and is only available on testnet"),
		}
	}

	cold, err := GenerateKeyPair()
	if err != nil {
		return nil, &types.IssuanceStepError{Step: "provision cold wallet", Err: err}
	}
	p.log.Info("provisioning cold issuing wallet", map[string]any{"address": cold.Address})

	if err := fundFromFaucet(ctx, p.httpClient, p.faucetURL, cold.Address); err != nil {
		return nil, &types.IssuanceStepError{Step: "provision cold wallet", Err: err}
	}

	// The cold wallet is not the connected extension wallet, so its
	// transactions travel over a dedicated session torn down on return.
	coldClient := p.newClient(p.endpoint)
	if err := coldClient.Connect(ctx); err != nil {
		return nil, &types.IssuanceStepError{Step: "open cold wallet session", Err: err}
	}
	defer func() {
		if err := coldClient.Disconnect(context.WithoutCancel(ctx)); err != nil {
			p.log.Warn("cold wallet session close failed", map[string]any{"error": err.Error()})
		}
	}()

	if err := waitForAccount(ctx, coldClient, cold.Address); err != nil {
		return nil, &types.IssuanceStepError{Step: "provision cold wallet", Err: err}
	}

	if _, err := p.submitSigned(ctx, coldClient, cold, issuerAccountSet(cold.Address, data)); err != nil {
		return nil, &types.IssuanceStepError{Step: "configure issuer account", Err: err}
	}

	wire := currency.WireCode(data.CurrencyCode)
	hot := p.WalletInfo().Address

	trustSet := map[string]any{
		"TransactionType": "TrustSet",
		"Account":         hot,
		"LimitAmount": map[string]any{
			"currency": wire,
			"issuer":   cold.Address,
			"value":    data.Amount,
		},
	}
	if _, err := p.adapter.SignAndSubmit(ctx, trustSet); err != nil {
		return nil, &types.IssuanceStepError{Step: "create trust line to issuer", Err: err}
	}

	payment := map[string]any{
		"TransactionType": "Payment",
		"Account":         cold.Address,
		"Destination":     hot,
		"Amount": map[string]any{
			"currency": wire,
			"issuer":   cold.Address,
			"value":    data.Amount,
		},
	}
	hash, err := p.submitSigned(ctx, coldClient, cold, payment)
	if err != nil {
		return nil, &types.IssuanceStepError{Step: "deliver issued amount", Err: err}
	}

	p.log.Info("token issued", map[string]any{
		"currency": data.CurrencyCode, "issuer": cold.Address, "amount": data.Amount, "hash": hash,
	})
	return &types.TransactionResult{Hash: hash, Status: "tesSUCCESS"}, nil
}

// issuerAccountSet builds the single AccountSet applying the issuer policy:
// rippling on, plus the configured transfer rate, tick size, domain, and
// destination-tag/XRP restrictions.
func issuerAccountSet(account string, data *types.TokenIssuanceData) map[string]any {
	tx := map[string]any{
		"TransactionType": "AccountSet",
		"Account":         account,
		"SetFlag":         AsfDefaultRipple,
	}

	var flags uint32
	if data.RequireDestTag {
		flags |= TfRequireDestTag
	}
	if data.DisallowXRP {
		flags |= TfDisallowXRP
	}
	if flags != 0 {
		tx["Flags"] = flags
	}

	if data.TransferRate > 0 {
		tx["TransferRate"] = uint32(math.Round(float64(transferRateBase) * (1 + data.TransferRate/100)))
	}
	if data.TickSize > 0 {
		tx["TickSize"] = data.TickSize
	}
	if data.Domain != "" {
		tx["Domain"] = strings.ToUpper(hex.EncodeToString([]byte(strings.ToLower(data.Domain))))
	}
	return tx
}

// submitSigned autofills, signs locally, submits, and waits for validation.
func (p *Provider) submitSigned(ctx context.Context, client Client, kp *KeyPair, tx map[string]any) (string, error) {
	filled, err := client.Autofill(ctx, tx)
	if err != nil {
		return "", err
	}
	filled["SigningPubKey"] = kp.PublicKeyHex()

	signingBlob, err := EncodeForSigning(filled)
	if err != nil {
		return "", err
	}
	filled["TxnSignature"] = strings.ToUpper(hex.EncodeToString(kp.Sign(signingBlob)))

	blob, err := EncodeTx(filled)
	if err != nil {
		return "", err
	}

	result, err := client.Request(ctx, map[string]any{
		"command": "submit",
		"tx_blob": strings.ToUpper(hex.EncodeToString(blob)),
	})
	if err != nil {
		return "", err
	}

	engine, _ := result["engine_result"].(string)
	if !strings.HasPrefix(engine, "tes") {
		message, _ := result["engine_result_message"].(string)
		return "", fmt.Errorf("submission rejected with %s: %s", engine, message)
	}

	txJSON, _ := result["tx_json"].(map[string]any)
	hash, _ := txJSON["hash"].(string)
	if hash == "" {
		return "", fmt.Errorf("submission response missing transaction hash")
	}

	if err := waitForValidation(ctx, client, hash); err != nil {
		return "", err
	}
	return hash, nil
}

func waitForValidation(ctx context.Context, client Client, hash string) error {
	for attempt := 0; attempt < constants.ValidationPollAttempts; attempt++ {
		result, err := client.Request(ctx, map[string]any{
			"command":     "tx",
			"transaction": hash,
		})
		if err != nil && !IsRPCErrorCode(err, "txnNotFound") {
			return err
		}
		if err == nil {
			if validated, _ := result["validated"].(bool); validated {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.ValidationPollDelay):
		}
	}
	return fmt.Errorf("transaction %s was not validated in time", hash)
}

func waitForAccount(ctx context.Context, client Client, address string) error {
	for attempt := 0; attempt < constants.FaucetPollAttempts; attempt++ {
		_, err := client.Request(ctx, map[string]any{
			"command":      "account_info",
			"account":      address,
			"ledger_index": "validated",
		})
		if err == nil {
			return nil
		}
		if !IsRPCErrorCode(err, "actNotFound") {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.FaucetPollDelay):
		}
	}
	return fmt.Errorf("faucet-funded account %s did not appear on the ledger", address)
}
