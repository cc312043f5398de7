// Package currency validates and encodes issued-currency codes. Codes are
// either standard (exactly three allowed characters) or non-standard (an
// arbitrary string carried on the wire as a fixed-width 40-character hex
// encoding of its bytes).
package currency

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sigweihq/walletkit/pkg/types"
)

// Kind classifies a validated currency code.
type Kind string

const (
	KindStandard    Kind = "standard"
	KindNonStandard Kind = "nonstandard"
	KindInvalid     Kind = "invalid"
)

const (
	StandardLength = 3
	HexLength      = 40 // 20 bytes
)

// nativeSymbol is never issuable as a custom currency.
const nativeSymbol = "XRP"

const allowedSpecials = "?!@#$%^&*<>(){}[]|"

// Result is the outcome of validating a currency code.
type Result struct {
	Valid bool
	Kind  Kind
	// Hex is the 40-character wire encoding, set for non-standard codes.
	Hex string
	Err error
}

func isAllowedStandardChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	default:
		return strings.IndexByte(allowedSpecials, c) >= 0
	}
}

// Validate classifies a currency code. Three allowed characters make a
// standard code unless they spell the native asset symbol. An input already at
// the fixed hex width must be valid hex with a non-zero first byte. Any other
// non-empty string is hex-encoded into the fixed width and reported as
// non-standard.
func Validate(code string) Result {
	if code == "" {
		return Result{Kind: KindInvalid, Err: fmt.Errorf("currency code is empty")}
	}

	if code == nativeSymbol {
		return Result{Kind: KindInvalid, Err: fmt.Errorf("%s is the native asset and cannot be issued as a currency", nativeSymbol)}
	}

	if len(code) == StandardLength {
		for i := 0; i < len(code); i++ {
			if !isAllowedStandardChar(code[i]) {
				return Result{Kind: KindInvalid, Err: fmt.Errorf("invalid character %q in currency code", code[i])}
			}
		}
		return Result{Valid: true, Kind: KindStandard}
	}

	if len(code) == HexLength {
		raw, err := hex.DecodeString(code)
		if err != nil {
			return Result{Kind: KindInvalid, Err: fmt.Errorf("code has hex length but is not valid hex: %w", err)}
		}
		if raw[0] == 0x00 {
			return Result{Kind: KindInvalid, Err: fmt.Errorf("non-standard currency code must not start with a zero byte")}
		}
		return Result{Valid: true, Kind: KindNonStandard, Hex: strings.ToUpper(code)}
	}

	return Result{Valid: true, Kind: KindNonStandard, Hex: ConvertToHex(code)}
}

// ConvertToHex encodes free text into the fixed-width wire form: uppercase
// hex of the UTF-8 bytes, zero-padded on the right, truncated at 20 bytes.
func ConvertToHex(s string) string {
	raw := []byte(s)
	if len(raw) > HexLength/2 {
		raw = raw[:HexLength/2]
	}
	buf := make([]byte, HexLength/2)
	copy(buf, raw)
	return strings.ToUpper(hex.EncodeToString(buf))
}

// ConvertFromHex decodes the fixed-width wire form back to text, trimming the
// zero padding. It is the inverse of ConvertToHex for any text whose byte
// length fits the width.
func ConvertFromHex(h string) (string, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return "", fmt.Errorf("invalid hex currency code: %w", err)
	}
	end := len(raw)
	for end > 0 && raw[end-1] == 0x00 {
		end--
	}
	return string(raw[:end]), nil
}

// WireCode returns the form of a code that belongs in a transaction: standard
// codes pass through, anything longer is the fixed-width hex encoding.
func WireCode(code string) string {
	if len(code) == StandardLength {
		return code
	}
	if len(code) == HexLength {
		if _, err := hex.DecodeString(code); err == nil {
			return strings.ToUpper(code)
		}
	}
	return ConvertToHex(code)
}

// ValidateForIssuance rejects issuance input whose currency code fails
// validation. It runs before any issuance transaction is constructed.
func ValidateForIssuance(data *types.TokenIssuanceData) error {
	if data == nil {
		return &types.ValidationError{Field: "tokenIssuanceData", Reason: "required"}
	}
	if res := Validate(data.CurrencyCode); !res.Valid {
		return &types.ValidationError{Field: "currencyCode", Reason: res.Err.Error()}
	}
	return nil
}
