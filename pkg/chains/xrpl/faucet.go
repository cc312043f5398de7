package xrpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/types"
)

// fundFromFaucet asks the test-network faucet to create and fund an account.
// Only test networks expose a faucet; the caller gates on network.
func fundFromFaucet(ctx context.Context, client *http.Client, faucetURL, address string) error {
	body, err := json.Marshal(map[string]string{"destination": address})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.FaucetTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, faucetURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &types.NetworkOperationError{Op: "fund from faucet", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &types.NetworkOperationError{
			Op:  "fund from faucet",
			Err: fmt.Errorf("faucet returned %d: %s", resp.StatusCode, payload),
		}
	}
	return nil
}
