package keystore

import (
	"encoding/hex"
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

type marshaler interface {
	Marshal() []byte
}

// PointToString hex-encodes a group element's canonical bytes.
func PointToString(p marshaler) string {
	return hex.EncodeToString(p.Marshal())
}

// StringToG1 parses a hex-encoded G1 point.
func StringToG1(s string) (*bn256.G1, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding G1 hex")
	}
	p := new(bn256.G1)
	rest, err := p.Unmarshal(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshalling G1 point")
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing bytes in G1 encoding")
	}
	return p, nil
}

// StringToG2 parses a hex-encoded G2 point.
func StringToG2(s string) (*bn256.G2, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding G2 hex")
	}
	p := new(bn256.G2)
	rest, err := p.Unmarshal(buf)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshalling G2 point")
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing bytes in G2 encoding")
	}
	return p, nil
}

// ScalarToString hex-encodes a scalar.
func ScalarToString(z *big.Int) string {
	return hex.EncodeToString(z.Bytes())
}

// StringToScalar parses a hex-encoded scalar.
func StringToScalar(s string) (*big.Int, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "decoding scalar hex")
	}
	return new(big.Int).SetBytes(buf), nil
}
