package xrpl

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ledger address format requires it
)

// rippleAlphabet is the base58 dictionary the ledger uses for addresses.
var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

// accountIDPrefix is the version byte of a classic address.
const accountIDPrefix = 0x00

// KeyPair is a locally held ed25519 signing key with its derived classic
// address. Used for cold issuing wallets, which cannot sign through a browser
// extension.
type KeyPair struct {
	priv ed25519.PrivateKey

	// PublicKey is the 33-byte ledger form: 0xED tag plus the raw key.
	PublicKey []byte

	// Address is the classic address derived from the public key.
	Address string
}

// GenerateKeyPair creates a fresh ed25519 keypair and derives its address.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	tagged := append([]byte{0xED}, pub...)
	return &KeyPair{
		priv:      priv,
		PublicKey: tagged,
		Address:   deriveAddress(tagged),
	}, nil
}

// Sign signs a prepared signing payload.
func (k *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// PublicKeyHex is the SigningPubKey wire form.
func (k *KeyPair) PublicKeyHex() string {
	return strings.ToUpper(hex.EncodeToString(k.PublicKey))
}

func deriveAddress(taggedPubKey []byte) string {
	accountID := accountIDFromPubKey(taggedPubKey)
	return encodeBase58Check(accountIDPrefix, accountID)
}

func accountIDFromPubKey(taggedPubKey []byte) []byte {
	sha := sha256.Sum256(taggedPubKey)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

func encodeBase58Check(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+4)
	buf = append(buf, version)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.EncodeAlphabet(buf, rippleAlphabet)
}

func checksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:4]
}

// DecodeClassicAddress decodes and checksums a classic address, returning the
// 20-byte account ID.
func DecodeClassicAddress(address string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(address, rippleAlphabet)
	if err != nil {
		return nil, fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(raw) != 25 {
		return nil, fmt.Errorf("invalid address length")
	}
	if raw[0] != accountIDPrefix {
		return nil, fmt.Errorf("invalid address version byte")
	}

	body, sum := raw[:21], raw[21:]
	expected := checksum(body)
	for i := range sum {
		if sum[i] != expected[i] {
			return nil, fmt.Errorf("address checksum mismatch")
		}
	}
	return body[1:], nil
}

// IsValidClassicAddress reports whether a string is a well-formed classic
// address.
func IsValidClassicAddress(address string) bool {
	if !strings.HasPrefix(address, "r") {
		return false
	}
	_, err := DecodeClassicAddress(address)
	return err == nil
}
