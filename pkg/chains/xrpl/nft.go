package xrpl

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sigweihq/walletkit/pkg/constants"
	"github.com/sigweihq/walletkit/pkg/types"
)

// tfSellNFToken marks an NFT offer as a sell offer made by the owner.
const tfSellNFToken uint32 = 0x00000001

// MintNFT hex-encodes the metadata URI and submits a mint transaction. The
// minted token ID is read from the submission metadata, falling back to a
// transaction lookup when the wallet response omits it.
func (p *Provider) MintNFT(ctx context.Context, cfg *types.NFTConfig) (*types.TransactionResult, error) {
	if err := p.requireConnected("mint NFT"); err != nil {
		return nil, err
	}
	if cfg.TransferFee != nil && (*cfg.TransferFee < 0 || *cfg.TransferFee > constants.MaxNFTTransferFee) {
		return nil, &types.ValidationError{
			Field:  "transferFee",
			Reason: fmt.Sprintf("must be between 0 and %d", constants.MaxNFTTransferFee),
		}
	}

	tx := map[string]any{
		"TransactionType": "NFTokenMint",
		"Account":         p.WalletInfo().Address,
		"URI":             strings.ToUpper(hex.EncodeToString([]byte(cfg.URI))),
		"NFTokenTaxon":    cfg.Taxon,
	}
	if cfg.TransferFee != nil {
		tx["TransferFee"] = *cfg.TransferFee
	}
	if cfg.Flags != nil {
		tx["Flags"] = *cfg.Flags
	}

	res, err := p.adapter.SignAndSubmit(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := resultFromSubmit(res)
	result.NFTID = p.resolveNFTokenID(ctx, res)
	if result.NFTID == "" {
		p.log.Warn("minted token id could not be determined", map[string]any{"hash": res.Hash})
	}
	return result, nil
}

// resolveNFTokenID tries the submission metadata first, then a follow-up
// transaction lookup.
func (p *Provider) resolveNFTokenID(ctx context.Context, res *types.SubmitResult) string {
	if id := nftokenIDFromMeta(res.Meta); id != "" {
		return id
	}

	lookup, err := p.client.Request(ctx, map[string]any{
		"command":     "tx",
		"transaction": res.Hash,
	})
	if err != nil {
		p.log.Warn("mint transaction lookup failed", map[string]any{"hash": res.Hash, "error": err.Error()})
		return ""
	}
	meta, _ := lookup["meta"].(map[string]any)
	return nftokenIDFromMeta(meta)
}

func nftokenIDFromMeta(meta map[string]any) string {
	if meta == nil {
		return ""
	}
	id, _ := meta["nftoken_id"].(string)
	return id
}

// TransferNFT creates a zero-price transfer offer for the recipient.
func (p *Provider) TransferNFT(ctx context.Context, tokenID, to string) (*types.TransactionResult, error) {
	if err := p.requireConnected("transfer NFT"); err != nil {
		return nil, err
	}

	tx := map[string]any{
		"TransactionType": "NFTokenCreateOffer",
		"Account":         p.WalletInfo().Address,
		"NFTokenID":       tokenID,
		"Destination":     to,
		"Amount":          "0",
		"Flags":           tfSellNFToken,
	}

	res, err := p.adapter.SignAndSubmit(ctx, tx)
	if err != nil {
		return nil, err
	}
	return resultFromSubmit(res), nil
}

// GetNFTs lists the tokens an account owns and resolves each one's metadata.
// A token whose metadata cannot be resolved still appears in the listing with
// the documented defaults; one bad URI never breaks enumeration of the rest.
func (p *Provider) GetNFTs(ctx context.Context, address string) ([]types.NFT, error) {
	if err := p.requireConnected("get NFTs"); err != nil {
		return nil, err
	}
	if address == "" {
		address = p.WalletInfo().Address
	}

	result, err := p.client.Request(ctx, map[string]any{
		"command": "account_nfts",
		"account": address,
	})
	if err != nil {
		if IsRPCErrorCode(err, "actNotFound") {
			return []types.NFT{}, nil
		}
		return nil, &types.NetworkOperationError{Op: "get NFTs", Err: err}
	}

	rawTokens, _ := result["account_nfts"].([]any)
	nfts := make([]types.NFT, 0, len(rawTokens))
	for _, raw := range rawTokens {
		token, _ := raw.(map[string]any)
		if token == nil {
			continue
		}

		nft := types.NFT{
			ID:          fmt.Sprint(token["NFTokenID"]),
			Owner:       address,
			Name:        constants.DefaultNFTName,
			Description: constants.DefaultNFTDescription,
			ImageURL:    constants.DefaultNFTImage,
		}

		uriHex, _ := token["URI"].(string)
		if meta := p.resolveMetadata(ctx, uriHex); meta != nil {
			if meta.Name != "" {
				nft.Name = meta.Name
			}
			if meta.Description != "" {
				nft.Description = meta.Description
			}
			if meta.Image != "" {
				nft.ImageURL = rewriteIPFS(meta.Image)
			}
		}

		nfts = append(nfts, nft)
	}

	return nfts, nil
}

type nftMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// resolveMetadata decodes a hex URI and tries inline JSON first, then an
// ipfs/http fetch. Any failure yields nil and the caller substitutes
// defaults.
func (p *Provider) resolveMetadata(ctx context.Context, uriHex string) *nftMetadata {
	if uriHex == "" {
		return nil
	}

	raw, err := hex.DecodeString(uriHex)
	if err != nil {
		p.log.Warn("undecodable NFT URI", map[string]any{"uri": uriHex})
		return nil
	}
	uri := string(raw)

	var meta nftMetadata
	if err := json.Unmarshal(raw, &meta); err == nil {
		return &meta
	}

	if !strings.HasPrefix(uri, "ipfs://") && !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return nil
	}

	fetched, err := p.fetchMetadata(ctx, rewriteIPFS(uri))
	if err != nil {
		p.log.Warn("NFT metadata fetch failed", map[string]any{"uri": uri, "error": err.Error()})
		return nil
	}
	return fetched
}

func (p *Provider) fetchMetadata(ctx context.Context, url string) (*nftMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.MetadataFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata server returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxResponseBodySize))
	if err != nil {
		return nil, err
	}

	var meta nftMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// rewriteIPFS maps ipfs:// references onto a public HTTP gateway.
func rewriteIPFS(uri string) string {
	if cid, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return constants.IPFSGateway + strings.TrimPrefix(cid, "ipfs/")
	}
	return uri
}
