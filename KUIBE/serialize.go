package kuibe

import (
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// Component sizes of the canonical encodings, taken from the engine's own
// marshaling of a generator.
var (
	g1Len = len(new(bn256.G1).ScalarBaseMult(big.NewInt(1)).Marshal())
	g2Len = len(new(bn256.G2).ScalarBaseMult(big.NewInt(1)).Marshal())
	gtLen = len(new(bn256.GT).ScalarBaseMult(big.NewInt(1)).Marshal())
)

const scalarLen = 32

func marshalScalar(z *big.Int) []byte {
	buf := make([]byte, scalarLen)
	z.FillBytes(buf)
	return buf
}

// Marshal emits sk1 || sk2 || sk3 || sk4 in the engine's fixed-size point
// encoding.
func (sk *SecretKey) Marshal() []byte {
	out := make([]byte, 0, 4*g1Len)
	out = append(out, sk.SK1.Marshal()...)
	out = append(out, sk.SK2.Marshal()...)
	out = append(out, sk.SK3.Marshal()...)
	out = append(out, sk.SK4.Marshal()...)
	return out
}

// Unmarshal parses the form produced by Marshal.
func (sk *SecretKey) Unmarshal(data []byte) error {
	if len(data) != 4*g1Len {
		return errors.WithMessage(ErrInvalidInput, "secret key encoding length")
	}
	sk.SK1 = new(bn256.G1)
	sk.SK2 = new(bn256.G1)
	sk.SK3 = new(bn256.G1)
	sk.SK4 = new(bn256.G1)
	rest := data
	var err error
	for _, p := range []*bn256.G1{sk.SK1, sk.SK2, sk.SK3, sk.SK4} {
		if rest, err = p.Unmarshal(rest); err != nil {
			return errors.WithMessagef(ErrInvalidInput, "secret key point: %v", err)
		}
	}
	return nil
}

// Marshal emits c1 || c2 || c3 || theta, theta as 32 big-endian bytes. This
// byte form is also what the transcript hash binds.
func (ct *Ciphertext) Marshal() []byte {
	out := make([]byte, 0, gtLen+2*g2Len+scalarLen)
	out = append(out, ct.C1.Marshal()...)
	out = append(out, ct.C2.Marshal()...)
	out = append(out, ct.C3.Marshal()...)
	out = append(out, marshalScalar(ct.Theta)...)
	return out
}

// Unmarshal parses the form produced by Marshal.
func (ct *Ciphertext) Unmarshal(data []byte) error {
	if len(data) != gtLen+2*g2Len+scalarLen {
		return errors.WithMessage(ErrInvalidInput, "ciphertext encoding length")
	}
	ct.C1 = new(bn256.GT)
	ct.C2 = new(bn256.G2)
	ct.C3 = new(bn256.G2)
	rest, err := ct.C1.Unmarshal(data)
	if err != nil {
		return errors.WithMessagef(ErrInvalidInput, "ciphertext c1: %v", err)
	}
	if rest, err = ct.C2.Unmarshal(rest); err != nil {
		return errors.WithMessagef(ErrInvalidInput, "ciphertext c2: %v", err)
	}
	if rest, err = ct.C3.Unmarshal(rest); err != nil {
		return errors.WithMessagef(ErrInvalidInput, "ciphertext c3: %v", err)
	}
	ct.Theta = new(big.Int).SetBytes(rest)
	if ct.Theta.Cmp(bn256.Order) >= 0 {
		return errors.WithMessage(ErrInvalidInput, "ciphertext theta out of range")
	}
	return nil
}

// Marshal emits the six G1 points then the five G2 copies.
func (pp *PublicParams) Marshal() []byte {
	out := make([]byte, 0, 6*g1Len+5*g2Len)
	for _, p := range []*bn256.G1{pp.G, pp.GAlpha, pp.G2, pp.G3, pp.U, pp.V} {
		out = append(out, p.Marshal()...)
	}
	for _, p := range []*bn256.G2{pp.GHat, pp.G2Hat, pp.G3Hat, pp.UHat, pp.VHat} {
		out = append(out, p.Marshal()...)
	}
	return out
}

// Unmarshal parses the form produced by Marshal. It checks encodings only;
// callers wanting the discrete-log guarantee run Consistent afterwards.
func (pp *PublicParams) Unmarshal(data []byte) error {
	if len(data) != 6*g1Len+5*g2Len {
		return errors.WithMessage(ErrInvalidInput, "params encoding length")
	}
	pp.G = new(bn256.G1)
	pp.GAlpha = new(bn256.G1)
	pp.G2 = new(bn256.G1)
	pp.G3 = new(bn256.G1)
	pp.U = new(bn256.G1)
	pp.V = new(bn256.G1)
	pp.GHat = new(bn256.G2)
	pp.G2Hat = new(bn256.G2)
	pp.G3Hat = new(bn256.G2)
	pp.UHat = new(bn256.G2)
	pp.VHat = new(bn256.G2)
	rest := data
	var err error
	for _, p := range []*bn256.G1{pp.G, pp.GAlpha, pp.G2, pp.G3, pp.U, pp.V} {
		if rest, err = p.Unmarshal(rest); err != nil {
			return errors.WithMessagef(ErrInvalidInput, "params point: %v", err)
		}
	}
	for _, p := range []*bn256.G2{pp.GHat, pp.G2Hat, pp.G3Hat, pp.UHat, pp.VHat} {
		if rest, err = p.Unmarshal(rest); err != nil {
			return errors.WithMessagef(ErrInvalidInput, "params point: %v", err)
		}
	}
	return nil
}
