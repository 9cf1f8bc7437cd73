// Package primitives holds the pluggable cryptographic primitives the scheme
// is parameterized by, together with their default HKDF-SHA256 constructions.
package primitives

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

// Domain separation prefixes, one per primitive.
var (
	scalarPrefix   = [1]byte{0x00}
	derivePrefix   = [1]byte{0x01}
	extractPrefix  = [1]byte{0x02}
	identityPrefix = [1]byte{0x03}
)

// scalarBytes is how many bytes are reduced into one scalar. 48 bytes against
// a 254-bit order keeps the reduction bias negligible.
const scalarBytes = 48

// Marshaler covers the group element types fed into the transcript hash.
type Marshaler interface {
	Marshal() []byte
}

// ScalarHash maps a context string and a transcript of group elements into
// Zp. Implementations must be deterministic and collision resistant.
type ScalarHash interface {
	HashToScalar(context []byte, elems ...Marshaler) (*big.Int, error)
}

// KeyDeriver expands a shared target-group element into two scalars that are
// computationally independent of each other.
type KeyDeriver interface {
	DeriveKeys(p *bn256.GT) (*big.Int, *big.Int, error)
}

// Extractor turns a target-group element and a context string into a masking
// element, deterministic in both inputs and near uniform when the element has
// full entropy.
type Extractor interface {
	Extract(k *bn256.GT, context []byte) (*bn256.GT, error)
}

// reduceWide interprets b as a big-endian integer mod the group order.
func reduceWide(b []byte) *big.Int {
	z := new(big.Int).SetBytes(b)
	return z.Mod(z, bn256.Order)
}

// SHA256Hash is the default ScalarHash: a SHA-256 transcript hash expanded
// through HKDF and reduced into Zp.
type SHA256Hash struct{}

func (SHA256Hash) HashToScalar(context []byte, elems ...Marshaler) (*big.Int, error) {
	h := sha256.New()
	h.Write(scalarPrefix[:])
	// context is length-prefixed so it cannot blur into the transcript
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(context)))
	h.Write(lenBuf[:])
	h.Write(context)
	for _, e := range elems {
		if e == nil {
			return nil, errors.New("hash to scalar: nil element")
		}
		h.Write(e.Marshal())
	}

	reader := hkdf.New(sha256.New, h.Sum(nil), nil, scalarPrefix[:])
	out := make([]byte, scalarBytes)
	if _, err := reader.Read(out); err != nil {
		return nil, errors.Wrap(err, "hash to scalar")
	}
	return reduceWide(out), nil
}

// HKDFDeriver is the default KeyDeriver: HKDF-SHA256 over the marshaled
// element, expanded into two scalars.
type HKDFDeriver struct{}

func (HKDFDeriver) DeriveKeys(p *bn256.GT) (*big.Int, *big.Int, error) {
	if p == nil {
		return nil, nil, errors.New("derive keys: nil element")
	}
	reader := hkdf.New(sha256.New, p.Marshal(), nil, derivePrefix[:])
	buf := make([]byte, 2*scalarBytes)
	if _, err := reader.Read(buf); err != nil {
		return nil, nil, errors.Wrap(err, "derive keys")
	}
	return reduceWide(buf[:scalarBytes]), reduceWide(buf[scalarBytes:]), nil
}

// HKDFExtractor is the default Extractor: HKDF-SHA256 salted by the context
// string, the output scalar mapped through the target-group generator.
type HKDFExtractor struct{}

func (HKDFExtractor) Extract(k *bn256.GT, context []byte) (*bn256.GT, error) {
	if k == nil {
		return nil, errors.New("extract: nil element")
	}
	reader := hkdf.New(sha256.New, k.Marshal(), context, extractPrefix[:])
	buf := make([]byte, scalarBytes)
	if _, err := reader.Read(buf); err != nil {
		return nil, errors.Wrap(err, "extract")
	}
	// mask = e(g1, g2)^z, a valid target-group element by construction
	return new(bn256.GT).ScalarBaseMult(reduceWide(buf)), nil
}

// IdentityFromBytes binds an arbitrary identifier to a scalar in Zp, the
// collision resistance coming from SHA-256.
func IdentityFromBytes(id []byte) *big.Int {
	h := sha256.New()
	h.Write(identityPrefix[:])
	h.Write(id)
	z := new(big.Int).SetBytes(h.Sum(nil))
	return z.Mod(z, bn256.Order)
}

// IdentityFromString is IdentityFromBytes over the raw string bytes.
func IdentityFromString(id string) *big.Int {
	return IdentityFromBytes([]byte(id))
}
