package kuibe

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretKeyRoundTrip(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	sk, err := scheme.KeyGen(pp, msk, big.NewInt(42))
	require.NoError(t, err)

	encoded := sk.Marshal()
	require.Len(t, encoded, 4*g1Len)

	restored := new(SecretKey)
	require.NoError(t, restored.Unmarshal(encoded))
	require.Equal(t, encoded, restored.Marshal())

	require.ErrorIs(t, new(SecretKey).Unmarshal(encoded[:len(encoded)-1]), ErrInvalidInput)
	require.ErrorIs(t, new(SecretKey).Unmarshal(nil), ErrInvalidInput)
}

func TestCiphertextRoundTrip(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(42)
	sk, err := scheme.KeyGen(pp, msk, id)
	require.NoError(t, err)

	msg := testMessage(t)
	eta := []byte("wire")
	ct, err := scheme.Encrypt(pp, id, msg, eta)
	require.NoError(t, err)

	encoded := ct.Marshal()
	require.Len(t, encoded, gtLen+2*g2Len+scalarLen)

	restored := new(Ciphertext)
	require.NoError(t, restored.Unmarshal(encoded))
	require.Equal(t, encoded, restored.Marshal())

	// the restored ciphertext still opens
	dec, err := scheme.Decrypt(pp, sk, restored, eta)
	require.NoError(t, err)
	require.Equal(t, msg.String(), dec.String())

	require.ErrorIs(t, new(Ciphertext).Unmarshal(nil), ErrInvalidInput)
	require.ErrorIs(t, new(Ciphertext).Unmarshal(encoded[1:]), ErrInvalidInput)

	// a theta at or above the group order is rejected
	oversized := make([]byte, len(encoded))
	copy(oversized, encoded)
	copy(oversized[gtLen+2*g2Len:], marshalScalar(scheme.P))
	require.ErrorIs(t, new(Ciphertext).Unmarshal(oversized), ErrInvalidInput)
}

func TestPublicParamsRoundTrip(t *testing.T) {
	scheme := NewKUIBE()
	pp, _, err := scheme.Setup()
	require.NoError(t, err)

	encoded := pp.Marshal()
	require.Len(t, encoded, 6*g1Len+5*g2Len)

	restored := new(PublicParams)
	require.NoError(t, restored.Unmarshal(encoded))
	require.Equal(t, encoded, restored.Marshal())
	require.NoError(t, restored.Consistent())

	require.ErrorIs(t, new(PublicParams).Unmarshal(encoded[1:]), ErrInvalidInput)
}
