// Package kuibe implements an identity-keyed encryption scheme with
// forward-secure key update over the bn256 pairing groups. A secret key holds
// two independently randomized slots; KeyUpdate re-randomizes both slots with
// fresh local entropy so that renewal never needs the master secret, and a
// ciphertext verifies against the key before any unmasking happens.
package kuibe

import (
	"bytes"
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/fentec-project/gofe/sample"
	"github.com/pkg/errors"

	"github.com/AUKUS561/KUIBE/primitives"
)

var (
	// ErrInvalidInput rejects malformed or missing operation inputs.
	ErrInvalidInput = errors.New("kuibe: invalid input")
	// ErrIntegrity rejects a ciphertext that fails verification. Tampering,
	// a wrong identity and a mismatched key all return this same error.
	ErrIntegrity = errors.New("kuibe: ciphertext rejected")
	// ErrPrimitive signals a failure inside an injected primitive.
	ErrPrimitive = errors.New("kuibe: primitive failure")
)

// KUIBE instantiates the scheme. All methods are pure functions of their
// inputs and safe for concurrent use.
type KUIBE struct {
	P   *big.Int
	H   primitives.ScalarHash
	KDF primitives.KeyDeriver
	Ext primitives.Extractor
}

// NewKUIBE wires the default HKDF-SHA256 primitives.
func NewKUIBE() *KUIBE {
	return NewKUIBEWith(primitives.SHA256Hash{}, primitives.HKDFDeriver{}, primitives.HKDFExtractor{})
}

// NewKUIBEWith injects replacement primitives satisfying the contracts in the
// primitives package.
func NewKUIBEWith(h primitives.ScalarHash, kdf primitives.KeyDeriver, ext primitives.Extractor) *KUIBE {
	return &KUIBE{
		P:   bn256.Order,
		H:   h,
		KDF: kdf,
		Ext: ext,
	}
}

// PublicParams fixes the scheme generators. The Hat fields repeat the G1
// points in G2 with the same exponents, only for pairing.
type PublicParams struct {
	G      *bn256.G1 //g
	GAlpha *bn256.G1 //g1 = g^alpha
	G2     *bn256.G1 //g2
	G3     *bn256.G1 //g3
	U      *bn256.G1 //u
	V      *bn256.G1 //v
	GHat   *bn256.G2 //g, only for pairing
	G2Hat  *bn256.G2 //g2
	G3Hat  *bn256.G2 //g3
	UHat   *bn256.G2 //u
	VHat   *bn256.G2 //v
}

// MasterSecret is held by the key authority only.
type MasterSecret struct {
	Alpha *big.Int
}

// SecretKey carries the two key slots for one identity and period. SK1/SK2
// share the first slot's randomizer, SK3/SK4 the second; the four components
// are only ever produced together.
type SecretKey struct {
	SK1 *bn256.G1
	SK2 *bn256.G1
	SK3 *bn256.G1
	SK4 *bn256.G1
}

// Ciphertext is bound to its identity through C2 and C3, which use the same
// u^id v base as the key.
type Ciphertext struct {
	C1    *bn256.GT
	C2    *bn256.G2
	C3    *bn256.G2
	Theta *big.Int
}

// Setup samples fresh public parameters and the master secret.
func (k *KUIBE) Setup() (*PublicParams, *MasterSecret, error) {
	sampler := sample.NewUniformRange(big.NewInt(1), k.P)

	// one exponent per generator, applied in both groups so the G2 copies
	// keep the same discrete logs
	eg, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup: sampling")
	}
	e2, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup: sampling")
	}
	e3, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup: sampling")
	}
	eu, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup: sampling")
	}
	ev, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup: sampling")
	}
	alpha, err := sampler.Sample()
	if err != nil {
		return nil, nil, errors.Wrap(err, "setup: sampling")
	}

	g := new(bn256.G1).ScalarBaseMult(eg)

	//g1 = g^alpha
	gAlpha := new(bn256.G1).ScalarMult(g, alpha)

	pp := &PublicParams{
		G:      g,
		GAlpha: gAlpha,
		G2:     new(bn256.G1).ScalarBaseMult(e2),
		G3:     new(bn256.G1).ScalarBaseMult(e3),
		U:      new(bn256.G1).ScalarBaseMult(eu),
		V:      new(bn256.G1).ScalarBaseMult(ev),
		GHat:   new(bn256.G2).ScalarBaseMult(eg),
		G2Hat:  new(bn256.G2).ScalarBaseMult(e2),
		G3Hat:  new(bn256.G2).ScalarBaseMult(e3),
		UHat:   new(bn256.G2).ScalarBaseMult(eu),
		VHat:   new(bn256.G2).ScalarBaseMult(ev),
	}
	return pp, &MasterSecret{Alpha: alpha}, nil
}

// identityBase computes B = u^id * v.
func identityBase(pp *PublicParams, id *big.Int) *bn256.G1 {
	b := new(bn256.G1).ScalarMult(pp.U, id)
	b.Add(b, pp.V)
	return b
}

// identityBaseHat is identityBase on the ciphertext side.
func identityBaseHat(pp *PublicParams, id *big.Int) *bn256.G2 {
	b := new(bn256.G2).ScalarMult(pp.UHat, id)
	b.Add(b, pp.VHat)
	return b
}

func (k *KUIBE) checkIdentity(id *big.Int) error {
	if id == nil || id.Sign() < 0 || id.Cmp(k.P) >= 0 {
		return errors.WithMessage(ErrInvalidInput, "identity out of range")
	}
	return nil
}

// KeyGen issues the period-0 key for id:
//
//	sk1 = g3^alpha * B^{t1}   sk2 = g^{-t1}
//	sk3 = g2^alpha * B^{t2}   sk4 = g^{-t2}
//
// with B = u^id v and independent randomizers t1, t2.
func (k *KUIBE) KeyGen(pp *PublicParams, msk *MasterSecret, id *big.Int) (*SecretKey, error) {
	if pp == nil || msk == nil || msk.Alpha == nil {
		return nil, errors.WithMessage(ErrInvalidInput, "keygen")
	}
	if err := k.checkIdentity(id); err != nil {
		return nil, err
	}

	sampler := sample.NewUniformRange(big.NewInt(1), k.P)
	t1, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "keygen: sampling t1")
	}
	t2, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "keygen: sampling t2")
	}
	return k.keyGenWith(pp, msk, id, t1, t2), nil
}

func (k *KUIBE) keyGenWith(pp *PublicParams, msk *MasterSecret, id, t1, t2 *big.Int) *SecretKey {
	b := identityBase(pp, id)

	//sk1 = g3^alpha * B^{t1}
	sk1 := new(bn256.G1).ScalarMult(pp.G3, msk.Alpha)
	sk1.Add(sk1, new(bn256.G1).ScalarMult(b, t1))

	//sk2 = g^{-t1} = g^{p-t1}
	t1Neg := new(big.Int).Sub(k.P, t1)
	t1Neg.Mod(t1Neg, k.P)
	sk2 := new(bn256.G1).ScalarMult(pp.G, t1Neg)

	//sk3 = g2^alpha * B^{t2}
	sk3 := new(bn256.G1).ScalarMult(pp.G2, msk.Alpha)
	sk3.Add(sk3, new(bn256.G1).ScalarMult(b, t2))

	//sk4 = g^{-t2}
	t2Neg := new(big.Int).Sub(k.P, t2)
	t2Neg.Mod(t2Neg, k.P)
	sk4 := new(bn256.G1).ScalarMult(pp.G, t2Neg)

	return &SecretKey{SK1: sk1, SK2: sk2, SK3: sk3, SK4: sk4}
}

// KeyUpdate re-randomizes sk into the next period's key without the master
// secret:
//
//	sk1' = sk1 * B^{m1}   sk2' = sk2 * g^{-m1}
//	sk3' = sk3 * B^{m2}   sk4' = sk4 * g^{-m2}
//
// The result equals a fresh KeyGen run with randomizers t1+m1, t2+m2. The
// input key is left untouched; the caller discards it once the new key is
// adopted.
func (k *KUIBE) KeyUpdate(pp *PublicParams, sk *SecretKey, id *big.Int) (*SecretKey, error) {
	if pp == nil || sk == nil || sk.SK1 == nil || sk.SK2 == nil || sk.SK3 == nil || sk.SK4 == nil {
		return nil, errors.WithMessage(ErrInvalidInput, "key update")
	}
	if err := k.checkIdentity(id); err != nil {
		return nil, err
	}

	sampler := sample.NewUniformRange(big.NewInt(1), k.P)
	m1, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "key update: sampling m1")
	}
	m2, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "key update: sampling m2")
	}
	return k.updateWith(pp, sk, id, m1, m2), nil
}

func (k *KUIBE) updateWith(pp *PublicParams, sk *SecretKey, id, m1, m2 *big.Int) *SecretKey {
	b := identityBase(pp, id)

	sk1 := new(bn256.G1).Add(sk.SK1, new(bn256.G1).ScalarMult(b, m1))

	m1Neg := new(big.Int).Sub(k.P, m1)
	m1Neg.Mod(m1Neg, k.P)
	sk2 := new(bn256.G1).Add(sk.SK2, new(bn256.G1).ScalarMult(pp.G, m1Neg))

	sk3 := new(bn256.G1).Add(sk.SK3, new(bn256.G1).ScalarMult(b, m2))

	m2Neg := new(big.Int).Sub(k.P, m2)
	m2Neg.Mod(m2Neg, k.P)
	sk4 := new(bn256.G1).Add(sk.SK4, new(bn256.G1).ScalarMult(pp.G, m2Neg))

	return &SecretKey{SK1: sk1, SK2: sk2, SK3: sk3, SK4: sk4}
}

// Encrypt masks the message M for id under the context string eta.
func (k *KUIBE) Encrypt(pp *PublicParams, id *big.Int, m *bn256.GT, eta []byte) (*Ciphertext, error) {
	if pp == nil || m == nil {
		return nil, errors.WithMessage(ErrInvalidInput, "encrypt")
	}
	if err := k.checkIdentity(id); err != nil {
		return nil, err
	}

	sampler := sample.NewUniformRange(big.NewInt(1), k.P)
	s, err := sampler.Sample()
	if err != nil {
		return nil, errors.Wrap(err, "encrypt: sampling s")
	}

	//c2 = g^s, c3 = B^s
	c2 := new(bn256.G2).ScalarMult(pp.GHat, s)
	c3 := new(bn256.G2).ScalarMult(identityBaseHat(pp, id), s)

	//K = e(g1, g2)^s
	kem := new(bn256.GT).ScalarMult(bn256.Pair(pp.GAlpha, pp.G2Hat), s)

	//c1 = Ext(K, eta) * M
	mask, err := k.Ext.Extract(kem, eta)
	if err != nil {
		return nil, errors.Wrapf(ErrPrimitive, "encrypt: extract: %v", err)
	}
	c1 := new(bn256.GT).Add(mask, m)

	//beta = H(c1, c2, c3, eta)
	beta, err := k.H.HashToScalar(eta, c1, c2, c3)
	if err != nil {
		return nil, errors.Wrapf(ErrPrimitive, "encrypt: hash: %v", err)
	}

	//P = e(g1, g3)^s * e(g1, g2)^{beta s}, the second factor being K^beta
	p := new(bn256.GT).ScalarMult(bn256.Pair(pp.GAlpha, pp.G3Hat), s)
	p.Add(p, new(bn256.GT).ScalarMult(kem, beta))

	k1, k2, err := k.KDF.DeriveKeys(p)
	if err != nil {
		return nil, errors.Wrapf(ErrPrimitive, "encrypt: derive: %v", err)
	}

	//theta = s*k1 + k2
	theta := new(big.Int).Mul(s, k1)
	theta.Add(theta, k2)
	theta.Mod(theta, k.P)

	return &Ciphertext{C1: c1, C2: c2, C3: c3, Theta: theta}, nil
}

// Decrypt verifies ct against sk and, only on success, unmasks the message.
// The same context string used at encryption must be supplied.
func (k *KUIBE) Decrypt(pp *PublicParams, sk *SecretKey, ct *Ciphertext, eta []byte) (*bn256.GT, error) {
	if pp == nil || sk == nil || sk.SK1 == nil || sk.SK2 == nil || sk.SK3 == nil || sk.SK4 == nil {
		return nil, errors.WithMessage(ErrInvalidInput, "decrypt")
	}
	if ct == nil || ct.C1 == nil || ct.C2 == nil || ct.C3 == nil || ct.Theta == nil {
		return nil, errors.WithMessage(ErrInvalidInput, "decrypt")
	}
	if ct.Theta.Sign() < 0 || ct.Theta.Cmp(k.P) >= 0 {
		return nil, errors.WithMessage(ErrInvalidInput, "decrypt: theta out of range")
	}

	//X1 = e(sk1, c2) * e(sk2, c3), first slot
	x1 := new(bn256.GT).Add(bn256.Pair(sk.SK1, ct.C2), bn256.Pair(sk.SK2, ct.C3))

	//X2 = e(sk3, c2) * e(sk4, c3), second slot
	x2 := new(bn256.GT).Add(bn256.Pair(sk.SK3, ct.C2), bn256.Pair(sk.SK4, ct.C3))

	beta, err := k.H.HashToScalar(eta, ct.C1, ct.C2, ct.C3)
	if err != nil {
		return nil, errors.Wrapf(ErrPrimitive, "decrypt: hash: %v", err)
	}

	//P' = X1 * X2^beta = e(g1, g3 g2^beta)^s for a valid key
	p := new(bn256.GT).ScalarMult(x2, beta)
	p.Add(x1, p)

	k1, k2, err := k.KDF.DeriveKeys(p)
	if err != nil {
		return nil, errors.Wrapf(ErrPrimitive, "decrypt: derive: %v", err)
	}

	//verify g^theta = c2^{k1'} * g^{k2'}
	left := new(bn256.G2).ScalarMult(pp.GHat, ct.Theta)
	right := new(bn256.G2).ScalarMult(ct.C2, k1)
	right.Add(right, new(bn256.G2).ScalarMult(pp.GHat, k2))
	if !bytes.Equal(left.Marshal(), right.Marshal()) {
		return nil, ErrIntegrity
	}

	//X2 = e(g1, g2)^s is the encryptor's K, so unmask with it
	mask, err := k.Ext.Extract(x2, eta)
	if err != nil {
		return nil, errors.Wrapf(ErrPrimitive, "decrypt: extract: %v", err)
	}
	return new(bn256.GT).Add(ct.C1, new(bn256.GT).Neg(mask)), nil
}

// Consistent checks that the G2 copies carry the same discrete logs as their
// G1 counterparts, via e(x, gHat) = e(g, xHat). Parameters loaded from
// storage should pass through this before use.
func (pp *PublicParams) Consistent() error {
	if pp == nil || pp.G == nil || pp.GAlpha == nil || pp.G2 == nil || pp.G3 == nil ||
		pp.U == nil || pp.V == nil || pp.GHat == nil || pp.G2Hat == nil ||
		pp.G3Hat == nil || pp.UHat == nil || pp.VHat == nil {
		return errors.WithMessage(ErrInvalidInput, "params incomplete")
	}

	//e(g, gen2) = e(gen1, gHat) ties g and gHat to the same exponent
	gen1 := new(bn256.G1).ScalarBaseMult(big.NewInt(1))
	gen2 := new(bn256.G2).ScalarBaseMult(big.NewInt(1))
	if !bytes.Equal(bn256.Pair(pp.G, gen2).Marshal(), bn256.Pair(gen1, pp.GHat).Marshal()) {
		return errors.WithMessage(ErrInvalidInput, "params g copies diverge")
	}

	checks := []struct {
		name string
		p1   *bn256.G1
		p2   *bn256.G2
	}{
		{"g2", pp.G2, pp.G2Hat},
		{"g3", pp.G3, pp.G3Hat},
		{"u", pp.U, pp.UHat},
		{"v", pp.V, pp.VHat},
	}
	for _, c := range checks {
		left := bn256.Pair(c.p1, pp.GHat)
		right := bn256.Pair(pp.G, c.p2)
		if !bytes.Equal(left.Marshal(), right.Marshal()) {
			return errors.WithMessagef(ErrInvalidInput, "params %s copies diverge", c.name)
		}
	}
	return nil
}
