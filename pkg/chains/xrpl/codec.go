package xrpl

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sigweihq/walletkit/pkg/currency"
)

// The ledger's canonical binary format, restricted to the transaction types
// and fields the cold-wallet path signs locally (AccountSet, TrustSet,
// Payment). Extension-signed transactions never pass through here.

// singleSignPrefix is prepended to the serialized transaction before signing.
var singleSignPrefix = []byte{0x53, 0x54, 0x58, 0x00} // "STX\0"

const (
	typeUInt16    = 1
	typeUInt32    = 2
	typeAmount    = 6
	typeBlob      = 7
	typeAccountID = 8
	typeUInt8     = 16
)

type fieldDef struct {
	typeCode int
	nth      int
}

var fieldDefs = map[string]fieldDef{
	"TransactionType":    {typeUInt16, 2},
	"TransferFee":        {typeUInt16, 4},
	"Flags":              {typeUInt32, 2},
	"Sequence":           {typeUInt32, 4},
	"TransferRate":       {typeUInt32, 11},
	"DestinationTag":     {typeUInt32, 14},
	"LastLedgerSequence": {typeUInt32, 27},
	"SetFlag":            {typeUInt32, 33},
	"NFTokenTaxon":       {typeUInt32, 42},
	"Amount":             {typeAmount, 1},
	"LimitAmount":        {typeAmount, 3},
	"Fee":                {typeAmount, 8},
	"SigningPubKey":      {typeBlob, 3},
	"TxnSignature":       {typeBlob, 4},
	"URI":                {typeBlob, 5},
	"Domain":             {typeBlob, 7},
	"Account":            {typeAccountID, 1},
	"Destination":        {typeAccountID, 3},
	"TickSize":           {typeUInt8, 16},
}

var transactionTypeCodes = map[string]uint16{
	"Payment":            0,
	"AccountSet":         3,
	"TrustSet":           20,
	"NFTokenMint":        25,
	"NFTokenCreateOffer": 27,
}

// AccountSet flags used by issuer configuration.
const (
	AsfDefaultRipple uint32 = 8

	TfRequireDestTag uint32 = 0x00010000
	TfDisallowXRP    uint32 = 0x00100000
)

// EncodeTx serializes a transaction into canonical binary form.
func EncodeTx(tx map[string]any) ([]byte, error) {
	return encode(tx, false)
}

// EncodeForSigning serializes a transaction for single signing: the signing
// prefix followed by the canonical form without TxnSignature.
func EncodeForSigning(tx map[string]any) ([]byte, error) {
	body, err := encode(tx, true)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, singleSignPrefix...), body...), nil
}

func encode(tx map[string]any, forSigning bool) ([]byte, error) {
	names := make([]string, 0, len(tx))
	for name := range tx {
		if forSigning && name == "TxnSignature" {
			continue
		}
		if _, ok := fieldDefs[name]; !ok {
			return nil, fmt.Errorf("encode: unknown field %s", name)
		}
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		a, b := fieldDefs[names[i]], fieldDefs[names[j]]
		if a.typeCode != b.typeCode {
			return a.typeCode < b.typeCode
		}
		return a.nth < b.nth
	})

	var out []byte
	for _, name := range names {
		def := fieldDefs[name]
		out = append(out, fieldHeader(def.typeCode, def.nth)...)

		encoded, err := encodeValue(name, def, tx[name])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out = append(out, encoded...)
	}
	return out, nil
}

func fieldHeader(typeCode, nth int) []byte {
	switch {
	case typeCode < 16 && nth < 16:
		return []byte{byte(typeCode<<4 | nth)}
	case typeCode < 16:
		return []byte{byte(typeCode << 4), byte(nth)}
	case nth < 16:
		return []byte{byte(nth), byte(typeCode)}
	default:
		return []byte{0x00, byte(typeCode), byte(nth)}
	}
}

func encodeValue(name string, def fieldDef, value any) ([]byte, error) {
	switch def.typeCode {
	case typeUInt8:
		n, err := toUint64(value)
		if err != nil {
			return nil, err
		}
		return []byte{byte(n)}, nil

	case typeUInt16:
		if name == "TransactionType" {
			if s, ok := value.(string); ok {
				code, known := transactionTypeCodes[s]
				if !known {
					return nil, fmt.Errorf("unknown transaction type %s", s)
				}
				return beUint16(code), nil
			}
		}
		n, err := toUint64(value)
		if err != nil {
			return nil, err
		}
		return beUint16(uint16(n)), nil

	case typeUInt32:
		n, err := toUint64(value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(n))
		return buf, nil

	case typeAmount:
		return encodeAmount(value)

	case typeBlob:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("blob field must be a hex string")
		}
		raw, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("blob field is not hex: %w", err)
		}
		return append(vlLength(len(raw)), raw...), nil

	case typeAccountID:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("account field must be an address string")
		}
		accountID, err := DecodeClassicAddress(s)
		if err != nil {
			return nil, err
		}
		return append(vlLength(len(accountID)), accountID...), nil

	default:
		return nil, fmt.Errorf("unsupported field type %d", def.typeCode)
	}
}

func beUint16(v uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return buf
}

func vlLength(n int) []byte {
	switch {
	case n <= 192:
		return []byte{byte(n)}
	case n <= 12480:
		n -= 193
		return []byte{byte(193 + n>>8), byte(n & 0xff)}
	default:
		// Larger blobs never occur in the transactions signed here.
		panic(fmt.Sprintf("blob too large: %d", n))
	}
}

func toUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %d", v)
		}
		return uint64(v), nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("negative value %f", v)
		}
		return uint64(v), nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", value)
	}
}

const (
	amountNotXRPBit   = uint64(1) << 63
	amountPositiveBit = uint64(1) << 62
	maxDropsValue     = uint64(1) << 62 // native amounts must fit below the flag bits
)

// encodeAmount handles both native amounts (a drops string) and issued
// amounts ({currency, issuer, value}).
func encodeAmount(value any) ([]byte, error) {
	switch v := value.(type) {
	case string:
		drops, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("native amount must be an integer drops string: %w", err)
		}
		if drops >= maxDropsValue {
			return nil, fmt.Errorf("native amount out of range")
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, drops|amountPositiveBit)
		return buf, nil

	case map[string]any:
		code, _ := v["currency"].(string)
		issuer, _ := v["issuer"].(string)
		amount, _ := v["value"].(string)
		if code == "" || issuer == "" || amount == "" {
			return nil, fmt.Errorf("issued amount requires currency, issuer, and value")
		}

		numeric, err := encodeIssuedValue(amount)
		if err != nil {
			return nil, err
		}

		currencyBytes, err := encodeCurrency160(code)
		if err != nil {
			return nil, err
		}

		issuerID, err := DecodeClassicAddress(issuer)
		if err != nil {
			return nil, fmt.Errorf("issued amount issuer: %w", err)
		}

		out := make([]byte, 0, 48)
		out = append(out, numeric...)
		out = append(out, currencyBytes...)
		out = append(out, issuerID...)
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported amount type %T", value)
	}
}

var (
	minMantissa = big.NewInt(1_000_000_000_000_000)  // 1e15
	maxMantissa = big.NewInt(10_000_000_000_000_000) // 1e16
	ten         = big.NewInt(10)
)

// encodeIssuedValue packs a decimal string into the ledger's 64-bit issued
// amount format: a normalized 54-bit mantissa in [1e15, 1e16) and an 8-bit
// biased exponent.
func encodeIssuedValue(value string) ([]byte, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid issued amount %q: %w", value, err)
	}

	buf := make([]byte, 8)
	if d.IsZero() {
		binary.BigEndian.PutUint64(buf, amountNotXRPBit)
		return buf, nil
	}

	mantissa := new(big.Int).Abs(d.Coefficient())
	exponent := int64(d.Exponent())

	for mantissa.Cmp(minMantissa) < 0 {
		mantissa.Mul(mantissa, ten)
		exponent--
	}
	for mantissa.Cmp(maxMantissa) >= 0 {
		rem := new(big.Int)
		mantissa.QuoRem(mantissa, ten, rem)
		if rem.Sign() != 0 {
			return nil, fmt.Errorf("issued amount %q has more precision than the ledger supports", value)
		}
		exponent++
	}

	if exponent < -96 || exponent > 80 {
		return nil, fmt.Errorf("issued amount %q exponent out of range", value)
	}

	bits := amountNotXRPBit
	if !d.IsNegative() {
		bits |= amountPositiveBit
	}
	bits |= uint64(exponent+97) << 54
	bits |= mantissa.Uint64()

	binary.BigEndian.PutUint64(buf, bits)
	return buf, nil
}

// encodeCurrency160 produces the 160-bit currency field: standard codes sit
// in bytes 12-14 of a zeroed buffer, non-standard codes are the raw 20 bytes
// of their hex form.
func encodeCurrency160(code string) ([]byte, error) {
	buf := make([]byte, 20)

	if len(code) == currency.StandardLength {
		copy(buf[12:], code)
		return buf, nil
	}

	wire := currency.WireCode(code)
	raw, err := hex.DecodeString(wire)
	if err != nil || len(raw) != 20 {
		return nil, fmt.Errorf("invalid currency code %q", code)
	}
	return raw, nil
}
