package kuibe

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/fentec-project/bn256"
	"github.com/stretchr/testify/require"
)

func testMessage(t *testing.T) *bn256.GT {
	t.Helper()
	_, m, err := bn256.RandomGT(rand.Reader)
	require.NoError(t, err)
	return m
}

func TestSetupConsistency(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)
	require.NotNil(t, pp, "pp should not be nil")
	require.NotNil(t, msk, "msk should not be nil")

	// g1 = g^alpha
	gAlpha := new(bn256.G1).ScalarMult(pp.G, msk.Alpha)
	require.Equal(t, gAlpha.Marshal(), pp.GAlpha.Marshal(), "g1 should be g^alpha")

	require.NoError(t, pp.Consistent())
}

func TestKeyGenDecrypt(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(12345)
	sk, err := scheme.KeyGen(pp, msk, id)
	require.NoError(t, err)
	require.NotNil(t, sk, "sk should not be nil")

	msg := testMessage(t)
	eta := []byte("period-2026-08")
	ct, err := scheme.Encrypt(pp, id, msg, eta)
	require.NoError(t, err)

	dec, err := scheme.Decrypt(pp, sk, ct, eta)
	require.NoError(t, err)
	require.Equal(t, msg.String(), dec.String(), "recovered message should match")
}

func TestEmptyContext(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(7)
	sk, err := scheme.KeyGen(pp, msk, id)
	require.NoError(t, err)

	msg := testMessage(t)
	ct, err := scheme.Encrypt(pp, id, msg, nil)
	require.NoError(t, err)

	dec, err := scheme.Decrypt(pp, sk, ct, nil)
	require.NoError(t, err)
	require.Equal(t, msg.String(), dec.String())
}

func TestKeyUpdateEquivalence(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(12345)
	t1 := big.NewInt(1111)
	t2 := big.NewInt(2222)
	m1 := big.NewInt(333)
	m2 := big.NewInt(444)

	base := scheme.keyGenWith(pp, msk, id, t1, t2)
	updated := scheme.updateWith(pp, base, id, m1, m2)

	// update must equal a fresh key drawn with the accumulated randomizers
	fresh := scheme.keyGenWith(pp, msk, id,
		new(big.Int).Add(t1, m1), new(big.Int).Add(t2, m2))

	require.Equal(t, fresh.SK1.Marshal(), updated.SK1.Marshal(), "sk1 should accumulate")
	require.Equal(t, fresh.SK2.Marshal(), updated.SK2.Marshal(), "sk2 should accumulate")
	require.Equal(t, fresh.SK3.Marshal(), updated.SK3.Marshal(), "sk3 should accumulate")
	require.Equal(t, fresh.SK4.Marshal(), updated.SK4.Marshal(), "sk4 should accumulate")
}

func TestUpdateChainValidity(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(777)
	sk, err := scheme.KeyGen(pp, msk, id)
	require.NoError(t, err)

	msg := testMessage(t)
	eta := []byte("chain")
	ct, err := scheme.Encrypt(pp, id, msg, eta)
	require.NoError(t, err)

	for period := 1; period <= 5; period++ {
		sk, err = scheme.KeyUpdate(pp, sk, id)
		require.NoError(t, err)

		dec, err := scheme.Decrypt(pp, sk, ct, eta)
		require.NoError(t, err, "period %d", period)
		require.Equal(t, msg.String(), dec.String(), "period %d", period)
	}
}

func TestTamperRejection(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(12345)
	sk, err := scheme.KeyGen(pp, msk, id)
	require.NoError(t, err)

	msg := testMessage(t)
	eta := []byte("tamper")
	ct, err := scheme.Encrypt(pp, id, msg, eta)
	require.NoError(t, err)

	encoded := ct.Marshal()
	offsets := map[string]int{
		"c1":    gtLen - 1,
		"c2":    gtLen + g2Len - 1,
		"c3":    gtLen + 2*g2Len - 1,
		"theta": gtLen + 2*g2Len + scalarLen - 1,
	}
	for name, off := range offsets {
		tampered := make([]byte, len(encoded))
		copy(tampered, encoded)
		tampered[off] ^= 0x01

		ct2 := new(Ciphertext)
		if err := ct2.Unmarshal(tampered); err != nil {
			// off-curve encodings already die at parse time
			require.ErrorIs(t, err, ErrInvalidInput, name)
			continue
		}
		_, err := scheme.Decrypt(pp, sk, ct2, eta)
		require.ErrorIs(t, err, ErrIntegrity, name)
	}
}

func TestCrossIdentityRejection(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	idA := big.NewInt(12345)
	idB := big.NewInt(54321)
	skA, err := scheme.KeyGen(pp, msk, idA)
	require.NoError(t, err)

	msg := testMessage(t)
	eta := []byte("cross")
	ct, err := scheme.Encrypt(pp, idB, msg, eta)
	require.NoError(t, err)

	_, err = scheme.Decrypt(pp, skA, ct, eta)
	require.ErrorIs(t, err, ErrIntegrity, "key for idA should not open idB's ciphertext")
}

func TestWrongContextRejection(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	id := big.NewInt(5)
	sk, err := scheme.KeyGen(pp, msk, id)
	require.NoError(t, err)

	msg := testMessage(t)
	ct, err := scheme.Encrypt(pp, id, msg, []byte("context-a"))
	require.NoError(t, err)

	_, err = scheme.Decrypt(pp, sk, ct, []byte("context-b"))
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestInvalidInputs(t *testing.T) {
	scheme := NewKUIBE()
	pp, msk, err := scheme.Setup()
	require.NoError(t, err)

	_, err = scheme.KeyGen(nil, msk, big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = scheme.KeyGen(pp, msk, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = scheme.KeyGen(pp, msk, big.NewInt(-1))
	require.ErrorIs(t, err, ErrInvalidInput)

	// the group order itself is out of range
	_, err = scheme.KeyGen(pp, msk, scheme.P)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = scheme.Encrypt(pp, big.NewInt(1), nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	sk, err := scheme.KeyGen(pp, msk, big.NewInt(1))
	require.NoError(t, err)

	_, err = scheme.Decrypt(pp, sk, nil, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = scheme.Decrypt(pp, &SecretKey{}, &Ciphertext{}, nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = scheme.KeyUpdate(pp, nil, big.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEndToEndScenario(t *testing.T) {
	scheme := NewKUIBE()
	n := 10
	var err error

	var pp *PublicParams
	var msk *MasterSecret
	starttime := time.Now().UnixMilli()
	for i := 0; i < n; i++ {
		pp, msk, err = scheme.Setup()
	}
	endtime := time.Now().UnixMilli()
	fmt.Printf("Setup algorithm is %.4f ms\n", float64(endtime-starttime)/float64(n))
	require.NoError(t, err)
	require.NotNil(t, pp, "pp should not be nil")
	require.NotNil(t, msk, "msk should not be nil")

	id := big.NewInt(12345)
	var sk0 *SecretKey
	starttime = time.Now().UnixMilli()
	for i := 0; i < n; i++ {
		sk0, err = scheme.KeyGen(pp, msk, id)
	}
	endtime = time.Now().UnixMilli()
	fmt.Printf("KeyGen algorithm is %.4f ms\n", float64(endtime-starttime)/float64(n))
	require.NoError(t, err)
	require.NotNil(t, sk0, "sk should not be nil")

	msg := testMessage(t)
	eta := []byte("epoch-0")
	var ct *Ciphertext
	starttime = time.Now().UnixMilli()
	for i := 0; i < n; i++ {
		ct, err = scheme.Encrypt(pp, id, msg, eta)
	}
	endtime = time.Now().UnixMilli()
	fmt.Printf("Encrypt algorithm is %.4f ms\n", float64(endtime-starttime)/float64(n))
	require.NoError(t, err)
	require.NotNil(t, ct, "ciphertext should not be nil")

	var dec *bn256.GT
	starttime = time.Now().UnixMilli()
	for i := 0; i < n; i++ {
		dec, err = scheme.Decrypt(pp, sk0, ct, eta)
	}
	endtime = time.Now().UnixMilli()
	fmt.Printf("Decrypt algorithm is %.4f ms\n", float64(endtime-starttime)/float64(n))
	require.NoError(t, err)
	require.Equal(t, msg.String(), dec.String(), "recovered message should match")

	var sk1 *SecretKey
	starttime = time.Now().UnixMilli()
	for i := 0; i < n; i++ {
		sk1, err = scheme.KeyUpdate(pp, sk0, id)
	}
	endtime = time.Now().UnixMilli()
	fmt.Printf("KeyUpdate algorithm is %.4f ms\n", float64(endtime-starttime)/float64(n))
	require.NoError(t, err)
	require.NotNil(t, sk1, "updated sk should not be nil")

	// the updated key still opens the period-0 ciphertext
	dec, err = scheme.Decrypt(pp, sk1, ct, eta)
	require.NoError(t, err)
	require.Equal(t, msg.String(), dec.String())

	// fresh randomness gives a different ciphertext that still verifies
	msg2 := testMessage(t)
	ct2, err := scheme.Encrypt(pp, id, msg2, eta)
	require.NoError(t, err)
	require.NotEqual(t, ct.C2.String(), ct2.C2.String(), "ciphertexts should differ")

	dec2, err := scheme.Decrypt(pp, sk1, ct2, eta)
	require.NoError(t, err)
	require.Equal(t, msg2.String(), dec2.String())
	t.Logf("both ciphertexts opened under the updated key")
}
