package xrpl

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPairDerivesValidAddress(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	assert.True(t, IsValidClassicAddress(kp.Address))
	assert.Len(t, kp.PublicKey, 33)
	assert.Equal(t, byte(0xED), kp.PublicKey[0])
	assert.Len(t, kp.PublicKeyHex(), 66)
}

func TestAddressDecodeRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	accountID, err := DecodeClassicAddress(kp.Address)
	require.NoError(t, err)
	assert.Equal(t, accountIDFromPubKey(kp.PublicKey), accountID)
}

func TestSignVerifies(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	message := []byte("canonical signing payload")
	signature := kp.Sign(message)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(kp.PublicKey[1:]), message, signature))
}

func TestDecodeClassicAddressKnownGood(t *testing.T) {
	accountID, err := DecodeClassicAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh")
	require.NoError(t, err)
	assert.Len(t, accountID, 20)
}

func TestDecodeClassicAddressRejectsCorruption(t *testing.T) {
	_, err := DecodeClassicAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi")
	require.Error(t, err)

	_, err = DecodeClassicAddress("")
	require.Error(t, err)

	_, err = DecodeClassicAddress("0xabc")
	require.Error(t, err)
}

func TestIsValidClassicAddressRequiresPrefix(t *testing.T) {
	assert.False(t, IsValidClassicAddress("sHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"))
	assert.False(t, IsValidClassicAddress(""))
	assert.True(t, IsValidClassicAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"))
}
